package billing_test

import (
	"context"
	"testing"

	"github.com/cassiomorais/billing/internal/application/billing"
	"github.com/cassiomorais/billing/internal/domain/invoice"
	"github.com/cassiomorais/billing/internal/testutil"
)

func TestCreateInvoice_Success(t *testing.T) {
	ctx := context.Background()
	invoiceRepo := testutil.NewMockInvoiceRepository()
	uc := billing.NewCreateInvoiceUseCase(invoiceRepo)

	inv, err := uc.Execute(ctx, billing.CreateInvoiceRequest{
		AmountCents: 1999,
		Currency:    "EUR",
		CustomerRef: testutil.StrPtr("order-42"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Status != invoice.StatusOpen {
		t.Errorf("expected status open, got %s", inv.Status)
	}
	if stored := invoiceRepo.GetInvoiceByID(inv.ID); stored == nil {
		t.Error("invoice was not persisted")
	}
}

func TestCreateInvoice_InvalidAmount(t *testing.T) {
	ctx := context.Background()
	uc := billing.NewCreateInvoiceUseCase(testutil.NewMockInvoiceRepository())

	if _, err := uc.Execute(ctx, billing.CreateInvoiceRequest{AmountCents: 0, Currency: "EUR"}); err == nil {
		t.Fatal("expected validation error for zero amount")
	}
	if _, err := uc.Execute(ctx, billing.CreateInvoiceRequest{AmountCents: -5, Currency: "EUR"}); err == nil {
		t.Fatal("expected validation error for negative amount")
	}
}

func TestCreateInvoice_InvalidCurrency(t *testing.T) {
	ctx := context.Background()
	uc := billing.NewCreateInvoiceUseCase(testutil.NewMockInvoiceRepository())

	if _, err := uc.Execute(ctx, billing.CreateInvoiceRequest{AmountCents: 100, Currency: "EURO"}); err == nil {
		t.Fatal("expected validation error for 4-letter currency")
	}
}
