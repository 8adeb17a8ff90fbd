package controller

import (
	"net/http"
	"strconv"

	"github.com/cassiomorais/billing/internal/application/billing"
	"github.com/cassiomorais/billing/internal/infrastructure/observability"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// InvoiceController handles invoice-related HTTP requests.
type InvoiceController struct {
	createUC *billing.CreateInvoiceUseCase
	getUC    *billing.GetInvoiceUseCase
	listUC   *billing.ListInvoicesUseCase
	deleteUC *billing.DeleteInvoiceUseCase
	metrics  *observability.Metrics
}

// NewInvoiceController creates a new InvoiceController.
func NewInvoiceController(
	createUC *billing.CreateInvoiceUseCase,
	getUC *billing.GetInvoiceUseCase,
	listUC *billing.ListInvoicesUseCase,
	deleteUC *billing.DeleteInvoiceUseCase,
	metrics *observability.Metrics,
) *InvoiceController {
	return &InvoiceController{
		createUC: createUC,
		getUC:    getUC,
		listUC:   listUC,
		deleteUC: deleteUC,
		metrics:  metrics,
	}
}

// Create handles POST /invoices
func (h *InvoiceController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}

	inv, err := h.createUC.Execute(r.Context(), billing.CreateInvoiceRequest{
		AmountCents: req.AmountCents,
		Currency:    currency,
		CustomerRef: req.CustomerRef,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.metrics.InvoicesCreated.Inc()
	writeJSON(w, http.StatusCreated, FromInvoice(inv))
}

// Get handles GET /invoices/{id}
func (h *InvoiceController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid invoice id", Code: "invalid_id"})
		return
	}

	detail, err := h.getUC.Execute(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromInvoiceDetail(detail))
}

// List handles GET /invoices
func (h *InvoiceController) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	invoices, err := h.listUC.Execute(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		resp = append(resp, FromInvoice(inv))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /invoices/{id}
func (h *InvoiceController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid invoice id", Code: "invalid_id"})
		return
	}

	if err := h.deleteUC.Execute(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
