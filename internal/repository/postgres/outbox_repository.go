package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cassiomorais/billing/internal/domain/outbox"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const outboxColumns = `id, event_type, aggregate_type, aggregate_id, payload, created_at, published_at`

// OutboxRepository implements outbox.Repository using PostgreSQL.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

func (r *OutboxRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Enqueue appends an event record. It runs on whatever connection the
// context carries, so inside a use case it joins the caller's transaction.
func (r *OutboxRepository) Enqueue(ctx context.Context, event *outbox.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	_, err = r.db(ctx).Exec(ctx,
		`INSERT INTO outbox_events (id, event_type, aggregate_type, aggregate_id, payload, created_at, published_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.EventType, event.AggregateType, event.AggregateID, payload, event.CreatedAt, event.PublishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

// DispatchPending marks up to limit undispatched events as published,
// oldest first, in a single statement. Rows already published are
// excluded by the subquery and locked rows are skipped, so concurrent
// dispatchers neither double-count nor block each other.
func (r *OutboxRepository) DispatchPending(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 50
	}
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE outbox_events SET published_at = $1
		 WHERE id IN (
		   SELECT id FROM outbox_events
		   WHERE published_at IS NULL
		   ORDER BY created_at ASC
		   LIMIT $2
		   FOR UPDATE SKIP LOCKED
		 )`,
		time.Now(), limit,
	)
	if err != nil {
		return 0, fmt.Errorf("dispatch pending outbox events: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// GetPending returns undispatched events, oldest first, locked for the
// duration of the caller's transaction.
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Event, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+outboxColumns+` FROM outbox_events
		 WHERE published_at IS NULL
		 ORDER BY created_at ASC
		 LIMIT $1
		 FOR UPDATE SKIP LOCKED`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get pending outbox events: %w", err)
	}
	defer rows.Close()
	return r.collectEvents(rows)
}

// MarkPublished marks a single event as dispatched. Calling it again for
// the same id leaves the original timestamp in place.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	_, err := r.db(ctx).Exec(ctx,
		`UPDATE outbox_events SET published_at = $1 WHERE id = $2 AND published_at IS NULL`,
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("mark outbox event published: %w", err)
	}
	return nil
}

// CountPending returns the number of undispatched events.
func (r *OutboxRepository) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.db(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox_events WHERE published_at IS NULL`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending outbox events: %w", err)
	}
	return n, nil
}

// ListByAggregate returns the newest events for one aggregate.
func (r *OutboxRepository) ListByAggregate(ctx context.Context, aggregateType string, aggregateID uuid.UUID, limit int) ([]*outbox.Event, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+outboxColumns+` FROM outbox_events
		 WHERE aggregate_type = $1 AND aggregate_id = $2
		 ORDER BY created_at DESC
		 LIMIT $3`, aggregateType, aggregateID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list outbox events: %w", err)
	}
	defer rows.Close()
	return r.collectEvents(rows)
}

func (r *OutboxRepository) collectEvents(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*outbox.Event, error) {
	var events []*outbox.Event
	for rows.Next() {
		e := &outbox.Event{}
		var payload []byte
		if err := rows.Scan(&e.ID, &e.EventType, &e.AggregateType, &e.AggregateID, &payload, &e.CreatedAt, &e.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		if len(payload) > 0 {
			e.Payload = make(map[string]any)
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal outbox payload: %w", err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
