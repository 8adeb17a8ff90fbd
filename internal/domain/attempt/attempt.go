package attempt

import (
	"fmt"
	"strings"
	"time"

	"github.com/cassiomorais/billing/internal/domain/errors"
	"github.com/google/uuid"
)

// Status represents the payment attempt status in the state machine
type Status string

const (
	StatusRequiresAction Status = "requires_action"
	StatusSucceeded      Status = "succeeded"
	StatusFailed         Status = "failed"
)

// Attempt represents one payment attempt against an invoice. The pair
// (invoice_id, idempotency_key) is unique, as is provider_payment_id,
// which is the correlation key for provider webhooks.
type Attempt struct {
	ID                  uuid.UUID
	InvoiceID           uuid.UUID
	Status              Status
	IdempotencyKey      string
	ProviderPaymentID   string
	ProviderEventIDLast *string
	ErrorCode           *string
	ErrorMessage        *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewAttempt creates a new attempt in requires_action with a freshly
// generated provider payment id. The attempt id is assigned here, before
// any outbox payload can reference it.
func NewAttempt(invoiceID uuid.UUID, idempotencyKey string) (*Attempt, error) {
	if idempotencyKey == "" {
		return nil, errors.ErrIdempotencyKeyRequired
	}

	now := time.Now()
	return &Attempt{
		ID:                uuid.New(),
		InvoiceID:         invoiceID,
		Status:            StatusRequiresAction,
		IdempotencyKey:    idempotencyKey,
		ProviderPaymentID: NewProviderPaymentID(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// NewProviderPaymentID generates a provider payment reference.
func NewProviderPaymentID() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return fmt.Sprintf("pp_%s", hex[:18])
}

// CanTransitionTo checks if the attempt can transition to the given status
func (a *Attempt) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusRequiresAction: {
			StatusSucceeded,
			StatusFailed,
		},
		StatusSucceeded: {}, // Terminal state
		StatusFailed:    {}, // Terminal state
	}

	allowedTransitions, exists := transitions[a.Status]
	if !exists {
		return false
	}

	for _, allowed := range allowedTransitions {
		if allowed == newStatus {
			return true
		}
	}
	return false
}

// TransitionTo transitions the attempt to a new status
func (a *Attempt) TransitionTo(newStatus Status) error {
	if !a.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(a.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}

	a.Status = newStatus
	a.UpdatedAt = time.Now()
	return nil
}

// MarkSucceeded transitions the attempt to succeeded status
func (a *Attempt) MarkSucceeded() error {
	return a.TransitionTo(StatusSucceeded)
}

// MarkFailed transitions the attempt to failed status with the provider's error
func (a *Attempt) MarkFailed(errorCode, errorMessage *string) error {
	if err := a.TransitionTo(StatusFailed); err != nil {
		return err
	}
	a.ErrorCode = errorCode
	a.ErrorMessage = errorMessage
	return nil
}

// RecordProviderEvent records the last processed provider event id.
// Used for webhook deduplication; recorded on every webhook that reaches
// the attempt, including terminal no-ops.
func (a *Attempt) RecordProviderEvent(providerEventID string) {
	a.ProviderEventIDLast = &providerEventID
	a.UpdatedAt = time.Now()
}

// SeenProviderEvent reports whether the given provider event id was the
// last one processed for this attempt.
func (a *Attempt) SeenProviderEvent(providerEventID string) bool {
	return a.ProviderEventIDLast != nil && *a.ProviderEventIDLast == providerEventID
}

// IsTerminal checks if the attempt is in a terminal state
func (a *Attempt) IsTerminal() bool {
	return a.Status == StatusSucceeded || a.Status == StatusFailed
}

// IsPending reports whether the attempt is still waiting on the provider.
func (a *Attempt) IsPending() bool {
	return a.Status == StatusRequiresAction
}
