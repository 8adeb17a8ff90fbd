package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cassiomorais/billing/internal/application/billing"
	"github.com/cassiomorais/billing/internal/infrastructure/observability"
	"github.com/cassiomorais/billing/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// testEnv wires controllers onto a chi mux backed by in-memory repositories.
type testEnv struct {
	router      *chi.Mux
	invoiceRepo *testutil.MockInvoiceRepository
	attemptRepo *testutil.MockAttemptRepository
	outboxRepo  *testutil.MockOutboxRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	invoiceRepo := testutil.NewMockInvoiceRepository()
	attemptRepo := testutil.NewMockAttemptRepository()
	invoiceRepo.Attempts = attemptRepo
	outboxRepo := testutil.NewMockOutboxRepository()
	txManager := testutil.NewMockTransactionManager()
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())

	invoiceH := NewInvoiceController(
		billing.NewCreateInvoiceUseCase(invoiceRepo),
		billing.NewGetInvoiceUseCase(invoiceRepo, attemptRepo, outboxRepo),
		billing.NewListInvoicesUseCase(invoiceRepo),
		billing.NewDeleteInvoiceUseCase(invoiceRepo, txManager),
		metrics,
	)
	paymentH := NewPaymentController(
		billing.NewPayInvoiceUseCase(invoiceRepo, attemptRepo, outboxRepo, txManager),
		billing.NewApplyProviderResultUseCase(invoiceRepo, attemptRepo, outboxRepo, txManager),
		metrics,
	)
	outboxH := NewOutboxController(
		billing.NewPublishOutboxUseCase(outboxRepo, txManager),
		metrics,
	)

	r := chi.NewRouter()
	r.Post("/invoices", invoiceH.Create)
	r.Get("/invoices/{id}", invoiceH.Get)
	r.Get("/invoices", invoiceH.List)
	r.Delete("/invoices/{id}", invoiceH.Delete)
	r.Post("/invoices/{id}/pay", paymentH.Pay)
	r.Post("/webhooks/payment-provider", paymentH.Webhook)
	r.Post("/internal/outbox/publish", outboxH.Publish)

	return &testEnv{
		router:      r,
		invoiceRepo: invoiceRepo,
		attemptRepo: attemptRepo,
		outboxRepo:  outboxRepo,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestInvoiceController_Create(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/invoices", map[string]any{
		"amount_cents": 1999,
		"currency":     "EUR",
		"customer_ref": "order-42",
	}, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[InvoiceResponse](t, rec)
	if resp.Status != "open" {
		t.Errorf("expected status open, got %s", resp.Status)
	}
	if resp.AmountCents != 1999 {
		t.Errorf("expected amount 1999, got %d", resp.AmountCents)
	}
}

func TestInvoiceController_Create_DefaultCurrency(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/invoices", map[string]any{"amount_cents": 500}, nil)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[InvoiceResponse](t, rec)
	if resp.Currency != "EUR" {
		t.Errorf("expected default currency EUR, got %s", resp.Currency)
	}
}

func TestInvoiceController_Create_InvalidAmount(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/invoices", map[string]any{"amount_cents": 0}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestInvoiceController_Get_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/invoices/"+uuid.New().String(), nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	resp := decodeBody[ErrorResponse](t, rec)
	if resp.Code != "invoice_not_found" {
		t.Errorf("expected code invoice_not_found, got %s", resp.Code)
	}
}

func TestInvoiceController_Get_InvalidID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/invoices/not-a-uuid", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestInvoiceController_List(t *testing.T) {
	env := newTestEnv(t)

	env.invoiceRepo.AddInvoice(testutil.NewTestInvoice(100, "EUR"))
	env.invoiceRepo.AddInvoice(testutil.NewTestInvoice(200, "EUR"))

	rec := env.do(t, http.MethodGet, "/invoices?limit=10", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeBody[[]InvoiceResponse](t, rec)
	if len(resp) != 2 {
		t.Errorf("expected 2 invoices, got %d", len(resp))
	}
}

func TestInvoiceController_Delete(t *testing.T) {
	env := newTestEnv(t)

	inv := testutil.NewTestInvoice(100, "EUR")
	env.invoiceRepo.AddInvoice(inv)

	rec := env.do(t, http.MethodDelete, "/invoices/"+inv.ID.String(), nil, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/invoices/"+inv.ID.String(), nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestOutboxController_Publish(t *testing.T) {
	env := newTestEnv(t)

	inv := testutil.NewTestInvoice(1999, "EUR")
	env.invoiceRepo.AddInvoice(inv)
	rec := env.do(t, http.MethodPost, "/invoices/"+inv.ID.String()+"/pay", map[string]any{}, map[string]string{
		"Idempotency-Key": "key-1",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("pay failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/internal/outbox/publish", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[PublishResponse](t, rec)
	if resp.Published != 1 {
		t.Errorf("expected 1 published, got %d", resp.Published)
	}

	// Nothing pending on the second run.
	rec = env.do(t, http.MethodPost, "/internal/outbox/publish", nil, nil)
	resp = decodeBody[PublishResponse](t, rec)
	if resp.Published != 0 {
		t.Errorf("expected 0 published on rerun, got %d", resp.Published)
	}
}
