package testutil

import (
	"time"

	"github.com/cassiomorais/billing/internal/domain/attempt"
	"github.com/cassiomorais/billing/internal/domain/invoice"
	"github.com/google/uuid"
)

func NewTestInvoice(amountCents int64, currency string) *invoice.Invoice {
	now := time.Now()
	return &invoice.Invoice{
		ID:          uuid.New(),
		Status:      invoice.StatusOpen,
		AmountCents: amountCents,
		Currency:    currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func NewPaidInvoice(amountCents int64, currency string) *invoice.Invoice {
	inv := NewTestInvoice(amountCents, currency)
	inv.Status = invoice.StatusPaid
	return inv
}

func NewTestAttempt(invoiceID uuid.UUID, idempotencyKey string) *attempt.Attempt {
	now := time.Now()
	return &attempt.Attempt{
		ID:                uuid.New(),
		InvoiceID:         invoiceID,
		Status:            attempt.StatusRequiresAction,
		IdempotencyKey:    idempotencyKey,
		ProviderPaymentID: attempt.NewProviderPaymentID(),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func NewSucceededAttempt(invoiceID uuid.UUID, idempotencyKey string) *attempt.Attempt {
	a := NewTestAttempt(invoiceID, idempotencyKey)
	a.Status = attempt.StatusSucceeded
	return a
}

func StrPtr(s string) *string {
	return &s
}

func UUIDPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
