// Package kafka delivers domain events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/neomorfeo/assetiq/internal/domain"
)

var _ domain.EventSink = (*Sink)(nil)

// eventPayload is the JSON document published for each domain event.
type eventPayload struct {
	Type          string    `json:"type"`
	TenantID      string    `json:"tenant_id"`
	RequestID     string    `json:"request_id"`
	RequestNumber string    `json:"request_number"`
	AssetID       string    `json:"asset_id"`
	ItemCount     int       `json:"item_count"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Sink writes domain events to a topic, keyed by request id so that every
// event of a decomposition lands on the same partition.
type Sink struct {
	writer *kafka.Writer
}

// NewSink creates a sink producing to topic on brokers.
func NewSink(brokers []string, topic string) *Sink {
	return &Sink{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}}
}

// Message builds the Kafka message for ev.
func Message(ev domain.DomainEvent) (kafka.Message, error) {
	value, err := json.Marshal(eventPayload{
		Type:          string(ev.Type),
		TenantID:      ev.TenantID,
		RequestID:     ev.RequestID,
		RequestNumber: ev.RequestNumber,
		AssetID:       ev.AssetID,
		ItemCount:     ev.ItemCount,
		OccurredAt:    ev.OccurredAt,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshaling %s event: %w", ev.Type, err)
	}

	return kafka.Message{
		Key:   []byte(ev.RequestID),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
			{Key: "tenant-id", Value: []byte(ev.TenantID)},
		},
	}, nil
}

func (s *Sink) Deliver(ctx context.Context, ev domain.DomainEvent) error {
	msg, err := Message(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing %s event to kafka: %w", ev.Type, err)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.writer.Close()
}
