package controller

import (
	"time"

	"github.com/cassiomorais/billing/internal/application/billing"
	"github.com/cassiomorais/billing/internal/domain/attempt"
	"github.com/cassiomorais/billing/internal/domain/invoice"
	"github.com/cassiomorais/billing/internal/domain/outbox"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (string ids, validation tags).
// Controllers convert them to use-case requests before calling business logic.

// CreateInvoiceRequest holds the input for creating an invoice.
type CreateInvoiceRequest struct {
	AmountCents int64   `json:"amount_cents" validate:"required,gt=0"`
	Currency    string  `json:"currency" validate:"omitempty,len=3"`
	CustomerRef *string `json:"customer_ref,omitempty"`
}

// PayInvoiceRequest holds the body of a pay request. The idempotency key
// travels in the Idempotency-Key header, not the body.
type PayInvoiceRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// WebhookRequest holds a provider webhook notification.
type WebhookRequest struct {
	ProviderPaymentID string  `json:"provider_payment_id" validate:"required"`
	Result            string  `json:"result" validate:"required,oneof=succeeded failed"`
	ProviderEventID   string  `json:"provider_event_id" validate:"required"`
	ErrorCode         *string `json:"error_code,omitempty"`
	ErrorMessage      *string `json:"error_message,omitempty"`
}

// --- Response DTOs ---

// InvoiceResponse represents an invoice in API responses.
type InvoiceResponse struct {
	InvoiceID   string    `json:"invoice_id"`
	Status      string    `json:"status"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	CustomerRef *string   `json:"customer_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AttemptResponse represents a payment attempt in API responses.
type AttemptResponse struct {
	AttemptID         string    `json:"attempt_id"`
	Status            string    `json:"status"`
	IdempotencyKey    string    `json:"idempotency_key"`
	ProviderPaymentID string    `json:"provider_payment_id"`
	ErrorCode         *string   `json:"error_code,omitempty"`
	ErrorMessage      *string   `json:"error_message,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// OutboxEventSummary represents an outbox event in API responses.
type OutboxEventSummary struct {
	ID            string     `json:"id"`
	EventType     string     `json:"event_type"`
	AggregateType string     `json:"aggregate_type"`
	AggregateID   string     `json:"aggregate_id"`
	CreatedAt     time.Time  `json:"created_at"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
}

// InvoiceDetailResponse is the full invoice snapshot.
type InvoiceDetailResponse struct {
	InvoiceResponse
	Attempts     []*AttemptResponse    `json:"attempts"`
	OutboxEvents []*OutboxEventSummary `json:"outbox_events"`
}

// PayInvoiceResponse is returned from the pay endpoint.
type PayInvoiceResponse struct {
	AttemptID         string `json:"attempt_id"`
	Status            string `json:"status"`
	ProviderPaymentID string `json:"provider_payment_id"`
}

// WebhookResponse is returned from the webhook endpoint.
type WebhookResponse struct {
	Status        string `json:"status"`
	AttemptID     string `json:"attempt_id"`
	AttemptStatus string `json:"attempt_status"`
}

// PublishResponse is returned from the internal outbox publish endpoint.
type PublishResponse struct {
	Published int `json:"published"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

// FromInvoice converts a domain invoice to API response.
func FromInvoice(inv *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		InvoiceID:   inv.ID.String(),
		Status:      string(inv.Status),
		AmountCents: inv.AmountCents,
		Currency:    inv.Currency,
		CustomerRef: inv.CustomerRef,
		CreatedAt:   inv.CreatedAt,
		UpdatedAt:   inv.UpdatedAt,
	}
}

// FromAttempt converts a domain attempt to API response.
func FromAttempt(a *attempt.Attempt) *AttemptResponse {
	return &AttemptResponse{
		AttemptID:         a.ID.String(),
		Status:            string(a.Status),
		IdempotencyKey:    a.IdempotencyKey,
		ProviderPaymentID: a.ProviderPaymentID,
		ErrorCode:         a.ErrorCode,
		ErrorMessage:      a.ErrorMessage,
		CreatedAt:         a.CreatedAt,
	}
}

// FromOutboxEvent converts a domain outbox event to API response.
func FromOutboxEvent(e *outbox.Event) *OutboxEventSummary {
	return &OutboxEventSummary{
		ID:            e.ID.String(),
		EventType:     e.EventType,
		AggregateType: e.AggregateType,
		AggregateID:   e.AggregateID.String(),
		CreatedAt:     e.CreatedAt,
		PublishedAt:   e.PublishedAt,
	}
}

// FromInvoiceDetail converts an invoice snapshot to API response.
func FromInvoiceDetail(d *billing.InvoiceDetail) *InvoiceDetailResponse {
	resp := &InvoiceDetailResponse{
		InvoiceResponse: *FromInvoice(d.Invoice),
		Attempts:        make([]*AttemptResponse, 0, len(d.Attempts)),
		OutboxEvents:    make([]*OutboxEventSummary, 0, len(d.Events)),
	}
	for _, a := range d.Attempts {
		resp.Attempts = append(resp.Attempts, FromAttempt(a))
	}
	for _, e := range d.Events {
		resp.OutboxEvents = append(resp.OutboxEvents, FromOutboxEvent(e))
	}
	return resp
}
