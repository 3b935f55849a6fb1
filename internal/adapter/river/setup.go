package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/neomorfeo/assetiq/internal/domain"
)

// Migrate runs River's internal migrations (river_job, river_leader, etc.).
// These are separate from the app's goose migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrator, err := rivermigrate.New(riversqlite.New(db), nil)
	if err != nil {
		return fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("running river migrations: %w", err)
	}
	return nil
}

// Setup creates a River client whose event worker delivers to sink, after
// running River's migrations. A nil sink logs events. The caller must call
// client.Start() to begin processing jobs and client.Stop() for graceful
// shutdown.
func Setup(ctx context.Context, db *sql.DB, sink domain.EventSink) (*Client, error) {
	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = NewLogSink(nil)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &EventWorker{sink: sink})

	client, err := river.NewClient(riversqlite.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}
