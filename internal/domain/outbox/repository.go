package outbox

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Enqueue appends an event. It always participates in the caller's
	// transaction and never opens its own: atomicity with the domain
	// write is the entire point of the outbox.
	Enqueue(ctx context.Context, event *Event) error

	// DispatchPending atomically marks up to limit undispatched events as
	// published, oldest first, and returns how many were marked. Rows
	// with published_at already set are excluded, so concurrent or
	// retried calls never double-count.
	DispatchPending(ctx context.Context, limit int) (int, error)

	// GetPending returns undispatched events up to the given limit,
	// oldest first, locking them against concurrent relays.
	GetPending(ctx context.Context, limit int) ([]*Event, error)

	// MarkPublished marks a single event as dispatched. Idempotent.
	MarkPublished(ctx context.Context, id uuid.UUID) error

	// ListByAggregate returns the newest events for one aggregate.
	ListByAggregate(ctx context.Context, aggregateType string, aggregateID uuid.UUID, limit int) ([]*Event, error)
}
