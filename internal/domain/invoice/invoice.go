package invoice

import (
	"fmt"
	"time"

	"github.com/cassiomorais/billing/internal/domain/errors"
	"github.com/google/uuid"
)

// Status represents the invoice status in the state machine
type Status string

const (
	StatusOpen Status = "open"
	StatusPaid Status = "paid"
	StatusVoid Status = "void"
)

// Invoice is the billing aggregate. It is the consistency boundary for
// payment attempts: creating an attempt requires a row lock on the invoice.
type Invoice struct {
	ID          uuid.UUID
	Status      Status
	AmountCents int64
	Currency    string
	CustomerRef *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Amount represents a monetary amount in the smallest currency unit (e.g. cents).
type Amount struct {
	ValueCents int64
	Currency   string
}

// String returns a human-readable representation of the amount.
func (a Amount) String() string {
	whole := a.ValueCents / 100
	frac := a.ValueCents % 100
	if frac < 0 {
		frac = -frac
	}
	return fmt.Sprintf("%d.%02d %s", whole, frac, a.Currency)
}

// Validate checks that the amount is valid.
func (a Amount) Validate() error {
	return validateAmount(a)
}

// NewInvoice creates a new open invoice
func NewInvoice(amountCents int64, currency string, customerRef *string) (*Invoice, error) {
	if err := validateAmount(Amount{ValueCents: amountCents, Currency: currency}); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Invoice{
		ID:          uuid.New(),
		Status:      StatusOpen,
		AmountCents: amountCents,
		Currency:    currency,
		CustomerRef: customerRef,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanTransitionTo checks if the invoice can transition to the given status
func (i *Invoice) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusOpen: {
			StatusPaid,
			StatusVoid,
		},
		StatusPaid: {}, // Terminal state
		StatusVoid: {}, // Terminal state
	}

	allowedTransitions, exists := transitions[i.Status]
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

// TransitionTo transitions the invoice to a new status
func (i *Invoice) TransitionTo(newStatus Status) error {
	if !i.CanTransitionTo(newStatus) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(i.Status)+" to "+string(newStatus),
			errors.ErrInvalidStateTransition,
		)
	}

	i.Status = newStatus
	i.UpdatedAt = time.Now()
	return nil
}

// MarkPaid transitions the invoice to paid status
func (i *Invoice) MarkPaid() error {
	if i.Status == StatusPaid {
		return errors.ErrInvoiceAlreadyPaid
	}
	return i.TransitionTo(StatusPaid)
}

// MarkVoid transitions the invoice to void status
func (i *Invoice) MarkVoid() error {
	return i.TransitionTo(StatusVoid)
}

// IsPayable reports whether new payment attempts may be created.
func (i *Invoice) IsPayable() bool {
	return i.Status == StatusOpen
}

// IsTerminal checks if the invoice is in a terminal state
func (i *Invoice) IsTerminal() bool {
	return i.Status == StatusPaid || i.Status == StatusVoid
}

func validateAmount(amount Amount) error {
	if amount.ValueCents <= 0 {
		return errors.NewValidationError("amount_cents", "must be greater than 0")
	}
	if amount.Currency == "" {
		return errors.NewValidationError("currency", "cannot be empty")
	}
	// Simple currency validation (3-letter code)
	if len(amount.Currency) != 3 {
		return errors.NewValidationError("currency", "must be a 3-letter ISO code")
	}
	return nil
}
