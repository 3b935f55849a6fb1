package river

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/assetiq/internal/domain"
)

// EventWorker hands queued domain events to a sink. A failed delivery is
// retried by River with backoff.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
	sink domain.EventSink
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	slog.InfoContext(ctx, "processing event",
		"event", job.Args.Type,
		"request_id", job.Args.RequestID,
		"request_number", job.Args.RequestNumber,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	if err := w.sink.Deliver(ctx, job.Args.event()); err != nil {
		return fmt.Errorf("delivering %s for request %s: %w", job.Args.Type, job.Args.RequestID, err)
	}
	return nil
}

// LogSink delivers events to the structured log. It is used when no broker
// is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink writing to logger, or slog.Default when nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(ctx context.Context, ev domain.DomainEvent) error {
	s.logger.InfoContext(ctx, "domain event",
		"type", ev.Type,
		"tenant_id", ev.TenantID,
		"request_id", ev.RequestID,
		"request_number", ev.RequestNumber,
		"asset_id", ev.AssetID,
		"items", ev.ItemCount,
		"occurred_at", ev.OccurredAt,
	)
	return nil
}
