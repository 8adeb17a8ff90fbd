package billing

import (
	"context"

	"github.com/cassiomorais/billing/internal/domain/invoice"
	"github.com/google/uuid"
)

// DeleteInvoiceUseCase removes an invoice and its payment attempts in one
// transaction. Outbox events referencing the invoice are deliberately
// kept: the ledger is an audit trail and holds only weak references.
type DeleteInvoiceUseCase struct {
	invoiceRepo invoice.Repository
	txManager   TransactionManager
}

// NewDeleteInvoiceUseCase creates a new DeleteInvoiceUseCase.
func NewDeleteInvoiceUseCase(invoiceRepo invoice.Repository, txManager TransactionManager) *DeleteInvoiceUseCase {
	return &DeleteInvoiceUseCase{invoiceRepo: invoiceRepo, txManager: txManager}
}

// Execute deletes the invoice; attempts go with it via cascade.
func (uc *DeleteInvoiceUseCase) Execute(ctx context.Context, invoiceID uuid.UUID) error {
	return uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// Existence check so callers get a 404 rather than a silent no-op.
		if _, err := uc.invoiceRepo.GetByID(txCtx, invoiceID); err != nil {
			return err
		}
		return uc.invoiceRepo.Delete(txCtx, invoiceID)
	})
}
