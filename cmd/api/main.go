package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cassiomorais/billing/internal/application/billing"
	"github.com/cassiomorais/billing/internal/bootstrap"
	"github.com/cassiomorais/billing/internal/controller"
	"github.com/cassiomorais/billing/internal/repository/postgres"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "billing-api", "billing")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	invoiceRepo := postgres.NewInvoiceRepository(app.Pool)
	attemptRepo := postgres.NewAttemptRepository(app.Pool)
	outboxRepo := postgres.NewOutboxRepository(app.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Use cases ---
	createInvoiceUC := billing.NewCreateInvoiceUseCase(invoiceRepo)
	getInvoiceUC := billing.NewGetInvoiceUseCase(invoiceRepo, attemptRepo, outboxRepo)
	listInvoicesUC := billing.NewListInvoicesUseCase(invoiceRepo)
	deleteInvoiceUC := billing.NewDeleteInvoiceUseCase(invoiceRepo, txManager)
	payInvoiceUC := billing.NewPayInvoiceUseCase(invoiceRepo, attemptRepo, outboxRepo, txManager)
	webhookUC := billing.NewApplyProviderResultUseCase(invoiceRepo, attemptRepo, outboxRepo, txManager)
	publishOutboxUC := billing.NewPublishOutboxUseCase(outboxRepo, txManager)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:            app.Pool,
		RedisClient:     app.Redis,
		CreateInvoiceUC: createInvoiceUC,
		GetInvoiceUC:    getInvoiceUC,
		ListInvoicesUC:  listInvoicesUC,
		DeleteInvoiceUC: deleteInvoiceUC,
		PayInvoiceUC:    payInvoiceUC,
		WebhookUC:       webhookUC,
		PublishOutboxUC: publishOutboxUC,
		IdempotencyRepo: idempotencyRepo,
		Metrics:         app.Metrics,
		CORSConfig:      app.Config.Server.CORS,
		WebhookConfig:   app.Config.Webhook,
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
		IdleTimeout:  app.Config.Server.IdleTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
