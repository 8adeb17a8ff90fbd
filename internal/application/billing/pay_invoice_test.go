package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cassiomorais/billing/internal/application/billing"
	"github.com/cassiomorais/billing/internal/domain/attempt"
	domainErrors "github.com/cassiomorais/billing/internal/domain/errors"
	"github.com/cassiomorais/billing/internal/domain/outbox"
	"github.com/cassiomorais/billing/internal/testutil"
	"github.com/google/uuid"
)

func newPayFixture() (*billing.PayInvoiceUseCase, *testutil.MockInvoiceRepository, *testutil.MockAttemptRepository, *testutil.MockOutboxRepository) {
	invoiceRepo := testutil.NewMockInvoiceRepository()
	attemptRepo := testutil.NewMockAttemptRepository()
	outboxRepo := testutil.NewMockOutboxRepository()
	txManager := testutil.NewMockTransactionManager()
	uc := billing.NewPayInvoiceUseCase(invoiceRepo, attemptRepo, outboxRepo, txManager)
	return uc, invoiceRepo, attemptRepo, outboxRepo
}

func TestPayInvoice_CreatesAttemptAndEvent(t *testing.T) {
	ctx := context.Background()
	uc, invoiceRepo, _, outboxRepo := newPayFixture()

	inv := testutil.NewTestInvoice(1999, "EUR")
	invoiceRepo.AddInvoice(inv)

	resp, err := uc.Execute(ctx, billing.PayInvoiceRequest{
		InvoiceID:      inv.ID,
		IdempotencyKey: "key-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Replayed {
		t.Error("expected a fresh attempt, got a replay")
	}
	if resp.Attempt.Status != attempt.StatusRequiresAction {
		t.Errorf("expected status requires_action, got %s", resp.Attempt.Status)
	}
	if resp.Attempt.InvoiceID != inv.ID {
		t.Errorf("attempt bound to wrong invoice: %s", resp.Attempt.InvoiceID)
	}

	events := outboxRepo.EventsOfType(outbox.EventPaymentAttemptCreated)
	if len(events) != 1 {
		t.Fatalf("expected 1 payment_attempt_created event, got %d", len(events))
	}
	payload := events[0].Payload
	if payload["attempt_id"] != resp.Attempt.ID.String() {
		t.Errorf("event payload attempt_id = %v, want %s", payload["attempt_id"], resp.Attempt.ID)
	}
	if payload["provider_payment_id"] != resp.Attempt.ProviderPaymentID {
		t.Errorf("event payload provider_payment_id = %v, want %s", payload["provider_payment_id"], resp.Attempt.ProviderPaymentID)
	}
	if payload["amount_cents"] != int64(1999) {
		t.Errorf("event payload amount_cents = %v, want 1999", payload["amount_cents"])
	}
	if events[0].AggregateID != inv.ID {
		t.Errorf("event aggregate_id = %s, want %s", events[0].AggregateID, inv.ID)
	}
}

func TestPayInvoice_SameKeyReplaysWithoutSideEffects(t *testing.T) {
	ctx := context.Background()
	uc, invoiceRepo, _, outboxRepo := newPayFixture()

	inv := testutil.NewTestInvoice(1999, "EUR")
	invoiceRepo.AddInvoice(inv)

	req := billing.PayInvoiceRequest{InvoiceID: inv.ID, IdempotencyKey: "key-1"}

	first, err := uc.Execute(ctx, req)
	if err != nil {
		t.Fatalf("first pay failed: %v", err)
	}
	second, err := uc.Execute(ctx, req)
	if err != nil {
		t.Fatalf("second pay failed: %v", err)
	}

	if !second.Replayed {
		t.Error("expected second call to be a replay")
	}
	if second.Attempt.ID != first.Attempt.ID {
		t.Errorf("replay returned a different attempt: %s vs %s", second.Attempt.ID, first.Attempt.ID)
	}
	if got := len(outboxRepo.Events()); got != 1 {
		t.Errorf("expected exactly 1 outbox event after replay, got %d", got)
	}
}

func TestPayInvoice_PendingAttemptBlocksNewKey(t *testing.T) {
	ctx := context.Background()
	uc, invoiceRepo, _, _ := newPayFixture()

	inv := testutil.NewTestInvoice(1999, "EUR")
	invoiceRepo.AddInvoice(inv)

	if _, err := uc.Execute(ctx, billing.PayInvoiceRequest{InvoiceID: inv.ID, IdempotencyKey: "key-1"}); err != nil {
		t.Fatalf("first pay failed: %v", err)
	}

	_, err := uc.Execute(ctx, billing.PayInvoiceRequest{InvoiceID: inv.ID, IdempotencyKey: "key-2"})
	if !errors.Is(err, domainErrors.ErrPendingAttemptExists) {
		t.Errorf("expected ErrPendingAttemptExists, got %v", err)
	}
}

func TestPayInvoice_FailedAttemptAllowsRetryWithNewKey(t *testing.T) {
	ctx := context.Background()
	uc, invoiceRepo, attemptRepo, _ := newPayFixture()

	inv := testutil.NewTestInvoice(1999, "EUR")
	invoiceRepo.AddInvoice(inv)

	failed := testutil.NewTestAttempt(inv.ID, "key-1")
	if err := failed.MarkFailed(testutil.StrPtr("card_declined"), nil); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	attemptRepo.AddAttempt(failed)

	resp, err := uc.Execute(ctx, billing.PayInvoiceRequest{InvoiceID: inv.ID, IdempotencyKey: "key-2"})
	if err != nil {
		t.Fatalf("retry with fresh key failed: %v", err)
	}
	if resp.Attempt.ID == failed.ID {
		t.Error("expected a new attempt, got the failed one")
	}
}

func TestPayInvoice_AlreadyPaid(t *testing.T) {
	ctx := context.Background()
	uc, invoiceRepo, _, _ := newPayFixture()

	inv := testutil.NewPaidInvoice(1999, "EUR")
	invoiceRepo.AddInvoice(inv)

	_, err := uc.Execute(ctx, billing.PayInvoiceRequest{InvoiceID: inv.ID, IdempotencyKey: "key-1"})
	if !errors.Is(err, domainErrors.ErrInvoiceAlreadyPaid) {
		t.Errorf("expected ErrInvoiceAlreadyPaid, got %v", err)
	}
}

func TestPayInvoice_MissingIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	uc, invoiceRepo, _, _ := newPayFixture()

	inv := testutil.NewTestInvoice(1999, "EUR")
	invoiceRepo.AddInvoice(inv)

	_, err := uc.Execute(ctx, billing.PayInvoiceRequest{InvoiceID: inv.ID})
	if !errors.Is(err, domainErrors.ErrIdempotencyKeyRequired) {
		t.Errorf("expected ErrIdempotencyKeyRequired, got %v", err)
	}
}

func TestPayInvoice_InvoiceNotFound(t *testing.T) {
	ctx := context.Background()
	uc, _, _, _ := newPayFixture()

	_, err := uc.Execute(ctx, billing.PayInvoiceRequest{InvoiceID: uuid.New(), IdempotencyKey: "key-1"})
	if !errors.Is(err, domainErrors.ErrInvoiceNotFound) {
		t.Errorf("expected ErrInvoiceNotFound, got %v", err)
	}
}
