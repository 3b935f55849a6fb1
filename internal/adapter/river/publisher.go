package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/assetiq/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries a domain event through the River queue. River
// serializes it as JSON into its job table, so the worker never needs to
// query application tables.
type EventJobArgs struct {
	Type          string    `json:"type"`
	TenantID      string    `json:"tenant_id"`
	RequestID     string    `json:"request_id"`
	RequestNumber string    `json:"request_number"`
	AssetID       string    `json:"asset_id"`
	ItemCount     int       `json:"item_count"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "decomposition.event" }

func newEventJobArgs(ev domain.DomainEvent) EventJobArgs {
	return EventJobArgs{
		Type:          string(ev.Type),
		TenantID:      ev.TenantID,
		RequestID:     ev.RequestID,
		RequestNumber: ev.RequestNumber,
		AssetID:       ev.AssetID,
		ItemCount:     ev.ItemCount,
		OccurredAt:    ev.OccurredAt,
	}
}

func (a EventJobArgs) event() domain.DomainEvent {
	return domain.DomainEvent{
		Type:          domain.EventType(a.Type),
		TenantID:      a.TenantID,
		RequestID:     a.RequestID,
		RequestNumber: a.RequestNumber,
		AssetID:       a.AssetID,
		ItemCount:     a.ItemCount,
		OccurredAt:    a.OccurredAt,
	}
}

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher enqueues domain events as River jobs. InsertTx makes it a
// transactional outbox: the job commits or rolls back with the caller's
// transaction.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues an event outside of any transaction.
func (p *Publisher) Publish(ctx context.Context, ev domain.DomainEvent) error {
	return p.Insert(ctx, ev)
}

func (p *Publisher) Insert(ctx context.Context, ev domain.DomainEvent) error {
	if _, err := p.client.Insert(ctx, newEventJobArgs(ev), nil); err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}

func (p *Publisher) InsertTx(ctx context.Context, tx *sql.Tx, ev domain.DomainEvent) error {
	if _, err := p.client.InsertTx(ctx, tx, newEventJobArgs(ev), nil); err != nil {
		return fmt.Errorf("enqueuing event job in transaction: %w", err)
	}
	return nil
}
