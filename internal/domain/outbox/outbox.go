package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Aggregate types used by the billing service.
const (
	AggregateInvoice = "invoice"
)

// Event types emitted by the orchestrator.
const (
	EventPaymentAttemptCreated   = "payment_attempt_created"
	EventPaymentAttemptSucceeded = "payment_attempt_succeeded"
	EventPaymentAttemptFailed    = "payment_attempt_failed"
	EventInvoicePaid             = "invoice_paid"
)

// Event is a domain event persisted in the same transaction as the state
// change it describes. PublishedAt is nil until the relay dispatches it.
// The payload is semantically immutable once written.
type Event struct {
	ID            uuid.UUID
	EventType     string
	AggregateType string
	AggregateID   uuid.UUID
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

func NewEvent(eventType, aggregateType string, aggregateID uuid.UUID, payload map[string]any) *Event {
	return &Event{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       payload,
		CreatedAt:     time.Now(),
	}
}

// IsPublished reports whether the event has been dispatched by the relay.
func (e *Event) IsPublished() bool {
	return e.PublishedAt != nil
}
