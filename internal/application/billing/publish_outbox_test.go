package billing_test

import (
	"context"
	"testing"

	"github.com/cassiomorais/billing/internal/application/billing"
	"github.com/cassiomorais/billing/internal/domain/outbox"
	"github.com/cassiomorais/billing/internal/testutil"
	"github.com/google/uuid"
)

func TestPublishOutbox_MarksPendingEvents(t *testing.T) {
	ctx := context.Background()
	outboxRepo := testutil.NewMockOutboxRepository()
	uc := billing.NewPublishOutboxUseCase(outboxRepo, testutil.NewMockTransactionManager())

	for i := 0; i < 3; i++ {
		e := outbox.NewEvent(outbox.EventPaymentAttemptCreated, outbox.AggregateInvoice, uuid.New(), nil)
		if err := outboxRepo.Enqueue(ctx, e); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	published, err := uc.Execute(ctx, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if published != 3 {
		t.Errorf("expected 3 published, got %d", published)
	}

	for _, e := range outboxRepo.Events() {
		if !e.IsPublished() {
			t.Errorf("event %s still pending", e.ID)
		}
	}
}

func TestPublishOutbox_SecondRunPublishesNothing(t *testing.T) {
	ctx := context.Background()
	outboxRepo := testutil.NewMockOutboxRepository()
	uc := billing.NewPublishOutboxUseCase(outboxRepo, testutil.NewMockTransactionManager())

	if err := outboxRepo.Enqueue(ctx, outbox.NewEvent(outbox.EventInvoicePaid, outbox.AggregateInvoice, uuid.New(), nil)); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if _, err := uc.Execute(ctx, 10); err != nil {
		t.Fatalf("first publish failed: %v", err)
	}

	published, err := uc.Execute(ctx, 10)
	if err != nil {
		t.Fatalf("second publish failed: %v", err)
	}
	if published != 0 {
		t.Errorf("expected 0 on second run, got %d", published)
	}
}

func TestPublishOutbox_RespectsLimit(t *testing.T) {
	ctx := context.Background()
	outboxRepo := testutil.NewMockOutboxRepository()
	uc := billing.NewPublishOutboxUseCase(outboxRepo, testutil.NewMockTransactionManager())

	for i := 0; i < 5; i++ {
		if err := outboxRepo.Enqueue(ctx, outbox.NewEvent(outbox.EventPaymentAttemptCreated, outbox.AggregateInvoice, uuid.New(), nil)); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	published, err := uc.Execute(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if published != 2 {
		t.Errorf("expected 2 published, got %d", published)
	}
}
