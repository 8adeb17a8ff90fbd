package billing

import (
	"context"

	"github.com/cassiomorais/billing/internal/domain/invoice"
)

// CreateInvoiceRequest holds the input for creating an invoice.
type CreateInvoiceRequest struct {
	AmountCents int64
	Currency    string
	CustomerRef *string
}

// CreateInvoiceUseCase creates open invoices.
type CreateInvoiceUseCase struct {
	invoiceRepo invoice.Repository
}

// NewCreateInvoiceUseCase creates a new CreateInvoiceUseCase.
func NewCreateInvoiceUseCase(invoiceRepo invoice.Repository) *CreateInvoiceUseCase {
	return &CreateInvoiceUseCase{invoiceRepo: invoiceRepo}
}

// Execute validates the input and persists a new open invoice.
func (uc *CreateInvoiceUseCase) Execute(ctx context.Context, req CreateInvoiceRequest) (*invoice.Invoice, error) {
	inv, err := invoice.NewInvoice(req.AmountCents, req.Currency, req.CustomerRef)
	if err != nil {
		return nil, err
	}
	if err := uc.invoiceRepo.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}
