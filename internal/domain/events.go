package domain

import "time"

// EventType identifies a domain event emitted through the outbox.
type EventType string

const (
	EventTypePlanned  EventType = "decomposition.planned"
	EventTypeExecuted EventType = "decomposition.executed"
)

// DomainEvent is a notification about a decomposition, recorded in the same
// transaction as the change it describes.
type DomainEvent struct {
	Type          EventType
	TenantID      string
	RequestID     string
	RequestNumber string
	AssetID       string
	ItemCount     int
	OccurredAt    time.Time
}
