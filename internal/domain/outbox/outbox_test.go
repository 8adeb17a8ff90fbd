package outbox_test

import (
	"testing"
	"time"

	"github.com/cassiomorais/billing/internal/domain/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewEvent(t *testing.T) {
	invoiceID := uuid.New()
	e := outbox.NewEvent(outbox.EventInvoicePaid, outbox.AggregateInvoice, invoiceID, map[string]any{
		"invoice_id": invoiceID.String(),
	})

	assert.Equal(t, outbox.EventInvoicePaid, e.EventType)
	assert.Equal(t, outbox.AggregateInvoice, e.AggregateType)
	assert.Equal(t, invoiceID, e.AggregateID)
	assert.Equal(t, invoiceID.String(), e.Payload["invoice_id"])
	assert.False(t, e.IsPublished())
	assert.Nil(t, e.PublishedAt)
	assert.WithinDuration(t, time.Now(), e.CreatedAt, time.Second)
}

func TestEvent_IsPublished(t *testing.T) {
	e := outbox.NewEvent(outbox.EventPaymentAttemptCreated, outbox.AggregateInvoice, uuid.New(), nil)
	assert.False(t, e.IsPublished())

	now := time.Now()
	e.PublishedAt = &now
	assert.True(t, e.IsPublished())
}
