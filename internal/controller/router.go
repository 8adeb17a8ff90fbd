package controller

import (
	"time"

	"github.com/cassiomorais/billing/internal/application/billing"
	"github.com/cassiomorais/billing/internal/infrastructure/config"
	"github.com/cassiomorais/billing/internal/infrastructure/observability"
	customMW "github.com/cassiomorais/billing/internal/middleware"
	"github.com/cassiomorais/billing/internal/repository/postgres"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type RouterDeps struct {
	Pool            *pgxpool.Pool
	RedisClient     *redis.Client
	CreateInvoiceUC *billing.CreateInvoiceUseCase
	GetInvoiceUC    *billing.GetInvoiceUseCase
	ListInvoicesUC  *billing.ListInvoicesUseCase
	DeleteInvoiceUC *billing.DeleteInvoiceUseCase
	PayInvoiceUC    *billing.PayInvoiceUseCase
	WebhookUC       *billing.ApplyProviderResultUseCase
	PublishOutboxUC *billing.PublishOutboxUseCase
	IdempotencyRepo *postgres.IdempotencyRepository
	Metrics         *observability.Metrics
	CORSConfig      config.CORSConfig
	WebhookConfig   config.WebhookConfig
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Pool, deps.RedisClient)
	invoiceH := NewInvoiceController(deps.CreateInvoiceUC, deps.GetInvoiceUC, deps.ListInvoicesUC, deps.DeleteInvoiceUC, deps.Metrics)
	paymentH := NewPaymentController(deps.PayInvoiceUC, deps.WebhookUC, deps.Metrics)
	outboxH := NewOutboxController(deps.PublishOutboxUC, deps.Metrics)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		idempotencyMW := customMW.Idempotency(deps.IdempotencyRepo, deps.WebhookConfig.IdempotencyTTL)

		// Invoices
		r.Post("/invoices", invoiceH.Create)
		r.Get("/invoices/{id}", invoiceH.Get)
		r.Get("/invoices", invoiceH.List)
		r.Delete("/invoices/{id}", invoiceH.Delete)

		// Payments
		r.With(idempotencyMW).Post("/invoices/{id}/pay", paymentH.Pay)

		// Provider webhooks
		r.With(customMW.RateLimit(deps.WebhookConfig.RateLimitPerMinute)).
			Post("/webhooks/payment-provider", paymentH.Webhook)

		// Outbox relay fallback, for operators when the relay is down.
		r.Post("/internal/outbox/publish", outboxH.Publish)
	})

	return r
}
