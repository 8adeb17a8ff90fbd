package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/cassiomorais/billing/internal/application/billing"
	domainErrors "github.com/cassiomorais/billing/internal/domain/errors"
	"github.com/cassiomorais/billing/internal/infrastructure/observability"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PaymentController handles pay requests and provider webhooks.
type PaymentController struct {
	payUC     *billing.PayInvoiceUseCase
	webhookUC *billing.ApplyProviderResultUseCase
	metrics   *observability.Metrics
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(
	payUC *billing.PayInvoiceUseCase,
	webhookUC *billing.ApplyProviderResultUseCase,
	metrics *observability.Metrics,
) *PaymentController {
	return &PaymentController{
		payUC:     payUC,
		webhookUC: webhookUC,
		metrics:   metrics,
	}
}

// Pay handles POST /invoices/{id}/pay
func (h *PaymentController) Pay(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid invoice id", Code: "invalid_id"})
		return
	}

	var req PayInvoiceRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = "mock_card"
	}

	resp, err := h.payUC.Execute(r.Context(), billing.PayInvoiceRequest{
		InvoiceID:      id,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
		PaymentMethod:  req.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, domainErrors.ErrInvoiceAlreadyPaid):
			h.metrics.PayConflicts.WithLabelValues("already_paid").Inc()
		case errors.Is(err, domainErrors.ErrPendingAttemptExists):
			h.metrics.PayConflicts.WithLabelValues("pending_attempt").Inc()
		}
		h.metrics.PayAttemptsTotal.WithLabelValues("error").Inc()
		writeError(w, err)
		return
	}

	outcome := "created"
	if resp.Replayed {
		outcome = "replayed"
	} else {
		h.metrics.OutboxEnqueued.Inc()
	}
	h.metrics.PayAttemptsTotal.WithLabelValues(outcome).Inc()

	writeJSON(w, http.StatusAccepted, PayInvoiceResponse{
		AttemptID:         resp.Attempt.ID.String(),
		Status:            string(resp.Attempt.Status),
		ProviderPaymentID: resp.Attempt.ProviderPaymentID,
	})
}

// Webhook handles POST /webhooks/payment-provider
func (h *PaymentController) Webhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req WebhookRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	resp, err := h.webhookUC.Execute(r.Context(), billing.ApplyProviderResultRequest{
		ProviderPaymentID: req.ProviderPaymentID,
		Result:            billing.ProviderResult(req.Result),
		ProviderEventID:   req.ProviderEventID,
		ErrorCode:         req.ErrorCode,
		ErrorMessage:      req.ErrorMessage,
	})
	if err != nil {
		h.metrics.WebhooksTotal.WithLabelValues(req.Result, "error").Inc()
		writeError(w, err)
		return
	}

	disposition := "absorbed"
	if resp.Applied {
		disposition = "applied"
		if resp.Attempt.Status == "succeeded" {
			h.metrics.InvoicesPaid.Inc()
			h.metrics.OutboxEnqueued.Add(2)
		} else {
			h.metrics.OutboxEnqueued.Inc()
		}
	}
	h.metrics.WebhooksTotal.WithLabelValues(req.Result, disposition).Inc()
	h.metrics.WebhookDuration.Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, WebhookResponse{
		Status:        "ok",
		AttemptID:     resp.Attempt.ID.String(),
		AttemptStatus: string(resp.Attempt.Status),
	})
}
