package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cassiomorais/billing/internal/domain/outbox"
	"github.com/redis/go-redis/v9"
)

// EventPublisher publishes dispatched outbox events to a Redis Stream.
// Downstream consumers (notifications, ledger sync) read from here; the
// billing service itself never consumes it.
type EventPublisher struct {
	client *redis.Client
	stream string
}

// NewEventPublisher creates a new EventPublisher for the given stream.
func NewEventPublisher(client *redis.Client, stream string) *EventPublisher {
	return &EventPublisher{client: client, stream: stream}
}

// Publish appends one outbox event to the stream.
func (p *EventPublisher) Publish(ctx context.Context, event *outbox.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_id":       event.ID.String(),
			"event_type":     event.EventType,
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID.String(),
			"payload":        string(payload),
			"occurred_at":    event.CreatedAt.Unix(),
			"published_at":   time.Now().Unix(),
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish outbox event: %w", err)
	}
	return nil
}
