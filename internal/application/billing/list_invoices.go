package billing

import (
	"context"

	"github.com/cassiomorais/billing/internal/domain/invoice"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ListInvoicesUseCase lists invoices, newest first.
type ListInvoicesUseCase struct {
	invoiceRepo invoice.Repository
}

// NewListInvoicesUseCase creates a new ListInvoicesUseCase.
func NewListInvoicesUseCase(invoiceRepo invoice.Repository) *ListInvoicesUseCase {
	return &ListInvoicesUseCase{invoiceRepo: invoiceRepo}
}

// Execute lists invoices with the limit clamped to [1, 100], default 20.
func (uc *ListInvoicesUseCase) Execute(ctx context.Context, limit int) ([]*invoice.Invoice, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return uc.invoiceRepo.List(ctx, invoice.ListFilter{Limit: limit})
}
