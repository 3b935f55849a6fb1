package otel_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"

	adapter "github.com/neomorfeo/assetiq/internal/adapter/otel"
	"github.com/neomorfeo/assetiq/internal/domain"
)

type mockSink struct {
	events []domain.DomainEvent
	err    error
}

func (m *mockSink) Deliver(_ context.Context, ev domain.DomainEvent) error {
	m.events = append(m.events, ev)
	return m.err
}

var executedEvent = domain.DomainEvent{
	Type:      domain.EventTypeExecuted,
	TenantID:  "acme",
	RequestID: "r-1",
}

func TestTracingSink_Deliver_RecordsSpan(t *testing.T) {
	exporter := setupTestTracer(t)
	inner := &mockSink{}
	sink := adapter.NewTracingSink(inner)

	if err := sink.Deliver(context.Background(), executedEvent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Name != "EventSink.Deliver" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "EventSink.Deliver")
	}
	assertAttribute(t, spans[0], "event.type", "decomposition.executed")
	assertAttribute(t, spans[0], "tenant.id", "acme")
	assertAttribute(t, spans[0], "request.id", "r-1")

	if len(inner.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(inner.events))
	}
}

func TestTracingSink_Deliver_RecordsError(t *testing.T) {
	exporter := setupTestTracer(t)
	sink := adapter.NewTracingSink(&mockSink{err: errors.New("broker down")})

	if err := sink.Deliver(context.Background(), executedEvent); err == nil {
		t.Fatal("expected error")
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status = %v, want %v", spans[0].Status.Code, codes.Error)
	}
}
