package invoice

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for invoice persistence
type Repository interface {
	// Create creates a new invoice
	Create(ctx context.Context, inv *Invoice) error

	// GetByID retrieves an invoice by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// GetByIDForUpdate retrieves an invoice by ID and takes an exclusive
	// row lock for the duration of the surrounding transaction. It is the
	// serialization point for concurrent pay attempts on the same invoice.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// Update updates an existing invoice
	Update(ctx context.Context, inv *Invoice) error

	// List lists invoices, newest first
	List(ctx context.Context, filter ListFilter) ([]*Invoice, error)

	// Delete removes an invoice and, by cascade, its payment attempts.
	// Outbox events referencing the invoice are untouched.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ListFilter defines filters for listing invoices
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}
