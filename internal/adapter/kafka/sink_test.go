package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/neomorfeo/assetiq/internal/adapter/kafka"
	"github.com/neomorfeo/assetiq/internal/domain"
)

var executed = domain.DomainEvent{
	Type:          domain.EventTypeExecuted,
	TenantID:      "acme",
	RequestID:     "r-7",
	RequestNumber: "DEC-20260314-ABC123",
	AssetID:       "a-1",
	ItemCount:     2,
	OccurredAt:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
}

func TestMessage(t *testing.T) {
	msg, err := kafka.Message(executed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(msg.Key) != "r-7" {
		t.Errorf("key = %q, want %q", msg.Key, "r-7")
	}
	if !msg.Time.Equal(executed.OccurredAt) {
		t.Errorf("time = %v, want %v", msg.Time, executed.OccurredAt)
	}

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	wantHeaders := map[string]string{"event-type": "decomposition.executed", "tenant-id": "acme"}
	if diff := cmp.Diff(wantHeaders, headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}

	var body map[string]any
	if err := json.Unmarshal(msg.Value, &body); err != nil {
		t.Fatalf("decoding value: %v", err)
	}
	want := map[string]any{
		"type":           "decomposition.executed",
		"tenant_id":      "acme",
		"request_id":     "r-7",
		"request_number": "DEC-20260314-ABC123",
		"asset_id":       "a-1",
		"item_count":     float64(2),
		"occurred_at":    "2026-03-14T09:30:00Z",
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestSink_DeliverUnreachableBroker(t *testing.T) {
	sink := kafka.NewSink([]string{"127.0.0.1:1"}, "decompositions")
	t.Cleanup(func() { sink.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := sink.Deliver(ctx, executed); err == nil {
		t.Fatal("expected error delivering to an unreachable broker")
	}
}
