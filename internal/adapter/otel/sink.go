package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/assetiq/internal/domain"
)

// TracingSink wraps a domain.EventSink with OpenTelemetry tracing.
type TracingSink struct {
	next   domain.EventSink
	tracer trace.Tracer
}

// Compile-time check: TracingSink implements domain.EventSink.
var _ domain.EventSink = (*TracingSink)(nil)

// NewTracingSink creates a tracing decorator around the given sink.
func NewTracingSink(next domain.EventSink) *TracingSink {
	return &TracingSink{
		next:   next,
		tracer: otel.Tracer(instrumentationName),
	}
}

func (s *TracingSink) Deliver(ctx context.Context, ev domain.DomainEvent) error {
	ctx, span := s.tracer.Start(ctx, "EventSink.Deliver",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("event.type", string(ev.Type)),
			attribute.String("tenant.id", ev.TenantID),
			attribute.String("request.id", ev.RequestID),
		),
	)
	defer span.End()

	err := s.next.Deliver(ctx, ev)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
