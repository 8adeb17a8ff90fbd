package attempt

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for payment attempt persistence
type Repository interface {
	// Create creates a new attempt. Unique-constraint violations on
	// (invoice_id, idempotency_key) or provider_payment_id surface as
	// domain errors so callers can treat a lost race as a conflict.
	Create(ctx context.Context, a *Attempt) error

	// GetByID retrieves an attempt by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Attempt, error)

	// GetByInvoiceAndKey retrieves an attempt by its idempotency pair
	GetByInvoiceAndKey(ctx context.Context, invoiceID uuid.UUID, idempotencyKey string) (*Attempt, error)

	// GetPendingByInvoice returns the newest requires_action attempt for
	// an invoice, or ErrAttemptNotFound if there is none.
	GetPendingByInvoice(ctx context.Context, invoiceID uuid.UUID) (*Attempt, error)

	// GetByProviderPaymentIDForUpdate retrieves an attempt by its provider
	// payment id and takes an exclusive row lock. The lock serializes
	// concurrent webhook deliveries for the same provider payment so only
	// one of them can observe requires_action.
	GetByProviderPaymentIDForUpdate(ctx context.Context, providerPaymentID string) (*Attempt, error)

	// Update updates an existing attempt
	Update(ctx context.Context, a *Attempt) error

	// ListByInvoice lists the attempts of an invoice, newest first
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*Attempt, error)
}
