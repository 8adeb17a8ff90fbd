package billing

import (
	"context"

	"github.com/cassiomorais/billing/internal/domain/attempt"
	"github.com/cassiomorais/billing/internal/domain/invoice"
	"github.com/cassiomorais/billing/internal/domain/outbox"
	"github.com/google/uuid"
)

// recentEventLimit caps the outbox events attached to an invoice snapshot.
const recentEventLimit = 10

// InvoiceDetail is a read-only snapshot of an invoice, its attempts
// (newest first) and its most recent outbox events.
type InvoiceDetail struct {
	Invoice  *invoice.Invoice
	Attempts []*attempt.Attempt
	Events   []*outbox.Event
}

// GetInvoiceUseCase assembles invoice snapshots for observability.
// Read-only; relies on the storage engine's default isolation.
type GetInvoiceUseCase struct {
	invoiceRepo invoice.Repository
	attemptRepo attempt.Repository
	outboxRepo  outbox.Repository
}

// NewGetInvoiceUseCase creates a new GetInvoiceUseCase.
func NewGetInvoiceUseCase(
	invoiceRepo invoice.Repository,
	attemptRepo attempt.Repository,
	outboxRepo outbox.Repository,
) *GetInvoiceUseCase {
	return &GetInvoiceUseCase{
		invoiceRepo: invoiceRepo,
		attemptRepo: attemptRepo,
		outboxRepo:  outboxRepo,
	}
}

// Execute returns the invoice with its attempts and recent events.
func (uc *GetInvoiceUseCase) Execute(ctx context.Context, invoiceID uuid.UUID) (*InvoiceDetail, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	attempts, err := uc.attemptRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	events, err := uc.outboxRepo.ListByAggregate(ctx, outbox.AggregateInvoice, invoiceID, recentEventLimit)
	if err != nil {
		return nil, err
	}

	return &InvoiceDetail{
		Invoice:  inv,
		Attempts: attempts,
		Events:   events,
	}, nil
}
