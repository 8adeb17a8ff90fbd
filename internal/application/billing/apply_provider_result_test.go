package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cassiomorais/billing/internal/application/billing"
	"github.com/cassiomorais/billing/internal/domain/attempt"
	domainErrors "github.com/cassiomorais/billing/internal/domain/errors"
	"github.com/cassiomorais/billing/internal/domain/invoice"
	"github.com/cassiomorais/billing/internal/domain/outbox"
	"github.com/cassiomorais/billing/internal/testutil"
)

type webhookFixture struct {
	uc          *billing.ApplyProviderResultUseCase
	invoiceRepo *testutil.MockInvoiceRepository
	attemptRepo *testutil.MockAttemptRepository
	outboxRepo  *testutil.MockOutboxRepository
	inv         *invoice.Invoice
	att         *attempt.Attempt
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	invoiceRepo := testutil.NewMockInvoiceRepository()
	attemptRepo := testutil.NewMockAttemptRepository()
	outboxRepo := testutil.NewMockOutboxRepository()
	txManager := testutil.NewMockTransactionManager()

	inv := testutil.NewTestInvoice(1999, "EUR")
	att := testutil.NewTestAttempt(inv.ID, "key-1")
	invoiceRepo.AddInvoice(inv)
	attemptRepo.AddAttempt(att)

	return &webhookFixture{
		uc:          billing.NewApplyProviderResultUseCase(invoiceRepo, attemptRepo, outboxRepo, txManager),
		invoiceRepo: invoiceRepo,
		attemptRepo: attemptRepo,
		outboxRepo:  outboxRepo,
		inv:         inv,
		att:         att,
	}
}

func TestApplyProviderResult_Succeeded(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)

	resp, err := f.uc.Execute(ctx, billing.ApplyProviderResultRequest{
		ProviderPaymentID: f.att.ProviderPaymentID,
		Result:            billing.ResultSucceeded,
		ProviderEventID:   "evt_1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Applied {
		t.Error("expected webhook to be applied")
	}
	if resp.Attempt.Status != attempt.StatusSucceeded {
		t.Errorf("expected attempt succeeded, got %s", resp.Attempt.Status)
	}

	stored := f.invoiceRepo.GetInvoiceByID(f.inv.ID)
	if stored.Status != invoice.StatusPaid {
		t.Errorf("expected invoice paid, got %s", stored.Status)
	}

	if n := len(f.outboxRepo.EventsOfType(outbox.EventPaymentAttemptSucceeded)); n != 1 {
		t.Errorf("expected 1 payment_attempt_succeeded event, got %d", n)
	}
	paid := f.outboxRepo.EventsOfType(outbox.EventInvoicePaid)
	if len(paid) != 1 {
		t.Fatalf("expected 1 invoice_paid event, got %d", len(paid))
	}
	if paid[0].Payload["amount_cents"] != int64(1999) {
		t.Errorf("invoice_paid amount_cents = %v, want 1999", paid[0].Payload["amount_cents"])
	}
}

func TestApplyProviderResult_Failed(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)

	resp, err := f.uc.Execute(ctx, billing.ApplyProviderResultRequest{
		ProviderPaymentID: f.att.ProviderPaymentID,
		Result:            billing.ResultFailed,
		ProviderEventID:   "evt_1",
		ErrorCode:         testutil.StrPtr("card_declined"),
		ErrorMessage:      testutil.StrPtr("insufficient funds"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Attempt.Status != attempt.StatusFailed {
		t.Errorf("expected attempt failed, got %s", resp.Attempt.Status)
	}
	if resp.Attempt.ErrorCode == nil || *resp.Attempt.ErrorCode != "card_declined" {
		t.Errorf("expected error code card_declined, got %v", resp.Attempt.ErrorCode)
	}

	// The invoice stays open and can be retried.
	stored := f.invoiceRepo.GetInvoiceByID(f.inv.ID)
	if stored.Status != invoice.StatusOpen {
		t.Errorf("expected invoice to stay open, got %s", stored.Status)
	}

	failed := f.outboxRepo.EventsOfType(outbox.EventPaymentAttemptFailed)
	if len(failed) != 1 {
		t.Fatalf("expected 1 payment_attempt_failed event, got %d", len(failed))
	}
	if failed[0].Payload["error_code"] != "card_declined" {
		t.Errorf("failed event error_code = %v, want card_declined", failed[0].Payload["error_code"])
	}
	if n := len(f.outboxRepo.EventsOfType(outbox.EventInvoicePaid)); n != 0 {
		t.Errorf("expected no invoice_paid event, got %d", n)
	}
}

func TestApplyProviderResult_DuplicateEventIDIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)

	req := billing.ApplyProviderResultRequest{
		ProviderPaymentID: f.att.ProviderPaymentID,
		Result:            billing.ResultSucceeded,
		ProviderEventID:   "evt_1",
	}

	if _, err := f.uc.Execute(ctx, req); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	eventsBefore := len(f.outboxRepo.Events())

	resp, err := f.uc.Execute(ctx, req)
	if err != nil {
		t.Fatalf("redelivery failed: %v", err)
	}
	if resp.Applied {
		t.Error("expected redelivery to be absorbed, not applied")
	}
	if got := len(f.outboxRepo.Events()); got != eventsBefore {
		t.Errorf("redelivery enqueued events: %d -> %d", eventsBefore, got)
	}
}

func TestApplyProviderResult_FirstTerminalResultWins(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)

	if _, err := f.uc.Execute(ctx, billing.ApplyProviderResultRequest{
		ProviderPaymentID: f.att.ProviderPaymentID,
		Result:            billing.ResultSucceeded,
		ProviderEventID:   "evt_1",
	}); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}

	// A contradictory late result with a fresh event id is absorbed.
	resp, err := f.uc.Execute(ctx, billing.ApplyProviderResultRequest{
		ProviderPaymentID: f.att.ProviderPaymentID,
		Result:            billing.ResultFailed,
		ProviderEventID:   "evt_2",
		ErrorCode:         testutil.StrPtr("card_declined"),
	})
	if err != nil {
		t.Fatalf("late delivery failed: %v", err)
	}
	if resp.Applied {
		t.Error("expected late contradictory result to be absorbed")
	}
	if resp.Attempt.Status != attempt.StatusSucceeded {
		t.Errorf("attempt flipped to %s", resp.Attempt.Status)
	}

	// The new event id is still recorded for dedup.
	stored, err := f.attemptRepo.GetByID(ctx, f.att.ID)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if stored.ProviderEventIDLast == nil || *stored.ProviderEventIDLast != "evt_2" {
		t.Errorf("expected provider_event_id_last evt_2, got %v", stored.ProviderEventIDLast)
	}

	stored2 := f.invoiceRepo.GetInvoiceByID(f.inv.ID)
	if stored2.Status != invoice.StatusPaid {
		t.Errorf("invoice regressed to %s", stored2.Status)
	}
}

func TestApplyProviderResult_UnknownProviderPaymentID(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)

	_, err := f.uc.Execute(ctx, billing.ApplyProviderResultRequest{
		ProviderPaymentID: "pp_does_not_exist",
		Result:            billing.ResultSucceeded,
		ProviderEventID:   "evt_1",
	})
	if !errors.Is(err, domainErrors.ErrAttemptNotFound) {
		t.Errorf("expected ErrAttemptNotFound, got %v", err)
	}
}

func TestApplyProviderResult_InvalidResult(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(t)

	_, err := f.uc.Execute(ctx, billing.ApplyProviderResultRequest{
		ProviderPaymentID: f.att.ProviderPaymentID,
		Result:            billing.ProviderResult("voided"),
		ProviderEventID:   "evt_1",
	})
	if err == nil {
		t.Fatal("expected validation error for unknown result")
	}
}
