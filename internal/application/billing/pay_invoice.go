package billing

import (
	"context"
	"errors"

	"github.com/cassiomorais/billing/internal/domain/attempt"
	domainErrors "github.com/cassiomorais/billing/internal/domain/errors"
	"github.com/cassiomorais/billing/internal/domain/invoice"
	"github.com/cassiomorais/billing/internal/domain/outbox"
	"github.com/google/uuid"
)

// PayInvoiceRequest holds the input for paying an invoice.
type PayInvoiceRequest struct {
	InvoiceID      uuid.UUID
	IdempotencyKey string
	PaymentMethod  string
}

// PayInvoiceResponse holds the result of a pay request.
type PayInvoiceResponse struct {
	Attempt *attempt.Attempt
	// Replayed is true when the idempotency key matched an existing
	// attempt and no new side effects were produced.
	Replayed bool
}

// PayInvoiceUseCase creates a payment attempt for an open invoice.
//
// The whole decision runs in one transaction holding an exclusive row
// lock on the invoice, so concurrent pay requests for the same invoice
// serialize; requests for different invoices proceed in parallel.
type PayInvoiceUseCase struct {
	invoiceRepo invoice.Repository
	attemptRepo attempt.Repository
	outboxRepo  outbox.Repository
	txManager   TransactionManager
}

// NewPayInvoiceUseCase creates a new PayInvoiceUseCase.
func NewPayInvoiceUseCase(
	invoiceRepo invoice.Repository,
	attemptRepo attempt.Repository,
	outboxRepo outbox.Repository,
	txManager TransactionManager,
) *PayInvoiceUseCase {
	return &PayInvoiceUseCase{
		invoiceRepo: invoiceRepo,
		attemptRepo: attemptRepo,
		outboxRepo:  outboxRepo,
		txManager:   txManager,
	}
}

// Execute runs the pay protocol and returns the attempt, new or replayed.
func (uc *PayInvoiceUseCase) Execute(ctx context.Context, req PayInvoiceRequest) (*PayInvoiceResponse, error) {
	if req.IdempotencyKey == "" {
		return nil, domainErrors.ErrIdempotencyKeyRequired
	}

	var resp *PayInvoiceResponse
	err := uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// Row-lock the invoice for the rest of the transaction.
		inv, err := uc.invoiceRepo.GetByIDForUpdate(txCtx, req.InvoiceID)
		if err != nil {
			return err
		}

		if inv.Status == invoice.StatusPaid {
			return domainErrors.ErrInvoiceAlreadyPaid
		}

		// Idempotent replay: same key on the same invoice returns the
		// original attempt with no new side effects.
		existing, err := uc.attemptRepo.GetByInvoiceAndKey(txCtx, inv.ID, req.IdempotencyKey)
		if err == nil {
			resp = &PayInvoiceResponse{Attempt: existing, Replayed: true}
			return nil
		}
		if !errors.Is(err, domainErrors.ErrAttemptNotFound) {
			return err
		}

		// At most one in-flight provider payment per invoice.
		if _, err := uc.attemptRepo.GetPendingByInvoice(txCtx, inv.ID); err == nil {
			return domainErrors.ErrPendingAttemptExists
		} else if !errors.Is(err, domainErrors.ErrAttemptNotFound) {
			return err
		}

		a, err := attempt.NewAttempt(inv.ID, req.IdempotencyKey)
		if err != nil {
			return err
		}

		// Persist the attempt before building the event payload so the
		// id it carries is durably assigned.
		if err := uc.attemptRepo.Create(txCtx, a); err != nil {
			return err
		}

		event := outbox.NewEvent(
			outbox.EventPaymentAttemptCreated,
			outbox.AggregateInvoice,
			inv.ID,
			map[string]any{
				"invoice_id":          inv.ID.String(),
				"attempt_id":          a.ID.String(),
				"provider_payment_id": a.ProviderPaymentID,
				"amount_cents":        inv.AmountCents,
				"currency":            inv.Currency,
			},
		)
		if err := uc.outboxRepo.Enqueue(txCtx, event); err != nil {
			return err
		}

		resp = &PayInvoiceResponse{Attempt: a}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
