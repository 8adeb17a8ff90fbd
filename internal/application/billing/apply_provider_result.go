package billing

import (
	"context"

	"github.com/cassiomorais/billing/internal/domain/attempt"
	domainErrors "github.com/cassiomorais/billing/internal/domain/errors"
	"github.com/cassiomorais/billing/internal/domain/invoice"
	"github.com/cassiomorais/billing/internal/domain/outbox"
)

// ProviderResult is the outcome reported by the payment provider.
type ProviderResult string

const (
	ResultSucceeded ProviderResult = "succeeded"
	ResultFailed    ProviderResult = "failed"
)

// ApplyProviderResultRequest holds a provider webhook notification.
type ApplyProviderResultRequest struct {
	ProviderPaymentID string
	Result            ProviderResult
	ProviderEventID   string
	ErrorCode         *string
	ErrorMessage      *string
}

// ApplyProviderResultResponse holds the attempt after webhook ingestion.
type ApplyProviderResultResponse struct {
	Attempt *attempt.Attempt
	// Applied is false when the webhook was absorbed as a no-op
	// (duplicate event id or attempt already terminal).
	Applied bool
}

// ApplyProviderResultUseCase ingests provider webhooks idempotently.
//
// The attempt row is locked for the duration of the transaction so two
// concurrent deliveries for the same provider payment cannot both observe
// requires_action; the first terminal resolution wins and later
// notifications are absorbed.
type ApplyProviderResultUseCase struct {
	invoiceRepo invoice.Repository
	attemptRepo attempt.Repository
	outboxRepo  outbox.Repository
	txManager   TransactionManager
}

// NewApplyProviderResultUseCase creates a new ApplyProviderResultUseCase.
func NewApplyProviderResultUseCase(
	invoiceRepo invoice.Repository,
	attemptRepo attempt.Repository,
	outboxRepo outbox.Repository,
	txManager TransactionManager,
) *ApplyProviderResultUseCase {
	return &ApplyProviderResultUseCase{
		invoiceRepo: invoiceRepo,
		attemptRepo: attemptRepo,
		outboxRepo:  outboxRepo,
		txManager:   txManager,
	}
}

// Execute processes one webhook delivery in a single transaction.
func (uc *ApplyProviderResultUseCase) Execute(ctx context.Context, req ApplyProviderResultRequest) (*ApplyProviderResultResponse, error) {
	var resp *ApplyProviderResultResponse
	err := uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		a, err := uc.attemptRepo.GetByProviderPaymentIDForUpdate(txCtx, req.ProviderPaymentID)
		if err != nil {
			return err
		}

		// Exact redelivery of the last processed event: no-op.
		if a.SeenProviderEvent(req.ProviderEventID) {
			resp = &ApplyProviderResultResponse{Attempt: a}
			return nil
		}

		// Already terminal: record the event id, change nothing else.
		// First terminal resolution wins.
		if a.IsTerminal() {
			a.RecordProviderEvent(req.ProviderEventID)
			if err := uc.attemptRepo.Update(txCtx, a); err != nil {
				return err
			}
			resp = &ApplyProviderResultResponse{Attempt: a}
			return nil
		}

		inv, err := uc.invoiceRepo.GetByID(txCtx, a.InvoiceID)
		if err != nil {
			return err
		}

		switch req.Result {
		case ResultSucceeded:
			if err := a.MarkSucceeded(); err != nil {
				return err
			}
			if err := inv.MarkPaid(); err != nil {
				return err
			}
			if err := uc.invoiceRepo.Update(txCtx, inv); err != nil {
				return err
			}

			succeededEvt := outbox.NewEvent(
				outbox.EventPaymentAttemptSucceeded,
				outbox.AggregateInvoice,
				inv.ID,
				map[string]any{
					"invoice_id":          inv.ID.String(),
					"attempt_id":          a.ID.String(),
					"provider_payment_id": a.ProviderPaymentID,
				},
			)
			if err := uc.outboxRepo.Enqueue(txCtx, succeededEvt); err != nil {
				return err
			}

			paidEvt := outbox.NewEvent(
				outbox.EventInvoicePaid,
				outbox.AggregateInvoice,
				inv.ID,
				map[string]any{
					"invoice_id":   inv.ID.String(),
					"amount_cents": inv.AmountCents,
					"currency":     inv.Currency,
				},
			)
			if err := uc.outboxRepo.Enqueue(txCtx, paidEvt); err != nil {
				return err
			}

		case ResultFailed:
			if err := a.MarkFailed(req.ErrorCode, req.ErrorMessage); err != nil {
				return err
			}

			var errorCode string
			if req.ErrorCode != nil {
				errorCode = *req.ErrorCode
			}
			failedEvt := outbox.NewEvent(
				outbox.EventPaymentAttemptFailed,
				outbox.AggregateInvoice,
				inv.ID,
				map[string]any{
					"invoice_id":          inv.ID.String(),
					"attempt_id":          a.ID.String(),
					"provider_payment_id": a.ProviderPaymentID,
					"error_code":          errorCode,
				},
			)
			if err := uc.outboxRepo.Enqueue(txCtx, failedEvt); err != nil {
				return err
			}

		default:
			return domainErrors.NewValidationError("result", "must be succeeded or failed")
		}

		a.RecordProviderEvent(req.ProviderEventID)
		if err := uc.attemptRepo.Update(txCtx, a); err != nil {
			return err
		}

		resp = &ApplyProviderResultResponse{Attempt: a, Applied: true}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
