package controller

import (
	"net/http"
	"strconv"

	"github.com/cassiomorais/billing/internal/application/billing"
	"github.com/cassiomorais/billing/internal/infrastructure/observability"
)

// OutboxController exposes the synchronous dispatch endpoint. It exists
// for operators and tests; the relay process is the usual dispatcher.
type OutboxController struct {
	publishUC *billing.PublishOutboxUseCase
	metrics   *observability.Metrics
}

// NewOutboxController creates a new OutboxController.
func NewOutboxController(publishUC *billing.PublishOutboxUseCase, metrics *observability.Metrics) *OutboxController {
	return &OutboxController{publishUC: publishUC, metrics: metrics}
}

// Publish handles POST /internal/outbox/publish
func (h *OutboxController) Publish(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	published, err := h.publishUC.Execute(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	h.metrics.OutboxDispatched.Add(float64(published))
	writeJSON(w, http.StatusOK, PublishResponse{Published: published})
}
