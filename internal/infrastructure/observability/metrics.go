package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all application metrics
type Metrics struct {
	// Invoice metrics
	InvoicesCreated prometheus.Counter
	InvoicesPaid    prometheus.Counter

	// Payment attempt metrics
	PayAttemptsTotal *prometheus.CounterVec
	PayConflicts     *prometheus.CounterVec

	// Webhook metrics
	WebhooksTotal   *prometheus.CounterVec
	WebhookDuration prometheus.Histogram

	// Outbox metrics
	OutboxEnqueued       prometheus.Counter
	OutboxDispatched     prometheus.Counter
	OutboxPendingGauge   prometheus.Gauge
	RelayPublishFailures prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics against the given registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := prometheus.WrapRegistererWith(nil, reg)

	m := &Metrics{
		InvoicesCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoices_created_total",
				Help:      "Total number of invoices created",
			},
		),
		InvoicesPaid: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "invoices_paid_total",
				Help:      "Total number of invoices transitioned to paid",
			},
		),
		PayAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pay_attempts_total",
				Help:      "Total number of pay requests by outcome",
			},
			[]string{"outcome"},
		),
		PayConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pay_conflicts_total",
				Help:      "Total number of pay requests rejected with a conflict",
			},
			[]string{"reason"},
		),
		WebhooksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhooks_total",
				Help:      "Total number of provider webhooks by result and disposition",
			},
			[]string{"result", "disposition"},
		),
		WebhookDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "webhook_duration_seconds",
				Help:      "Webhook ingestion duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		OutboxEnqueued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_enqueued_total",
				Help:      "Total number of outbox events enqueued",
			},
		),
		OutboxDispatched: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_dispatched_total",
				Help:      "Total number of outbox events marked dispatched",
			},
		),
		OutboxPendingGauge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "outbox_pending",
				Help:      "Number of undispatched outbox events seen by the last relay tick",
			},
		),
		RelayPublishFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "relay_publish_failures_total",
				Help:      "Total number of failed stream publishes in the relay",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	factory.MustRegister(
		m.InvoicesCreated,
		m.InvoicesPaid,
		m.PayAttemptsTotal,
		m.PayConflicts,
		m.WebhooksTotal,
		m.WebhookDuration,
		m.OutboxEnqueued,
		m.OutboxDispatched,
		m.OutboxPendingGauge,
		m.RelayPublishFailures,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}
