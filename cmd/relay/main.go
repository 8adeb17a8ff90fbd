package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cassiomorais/billing/internal/bootstrap"
	infraRedis "github.com/cassiomorais/billing/internal/infrastructure/redis"
	"github.com/cassiomorais/billing/internal/repository/postgres"
	"github.com/cassiomorais/billing/pkg/retry"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
)

// The relay drains the outbox table: it polls for undispatched events,
// publishes them to a Redis Stream for downstream consumers, and stamps
// them published in the same transaction that read them. A Redis lock
// keeps multiple relay instances from polling the same tick; row locks
// make the overlap harmless either way.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "billing-relay", "billing_relay")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	outboxRepo := postgres.NewOutboxRepository(app.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)
	publisher := infraRedis.NewEventPublisher(app.Redis, app.Config.Relay.Stream)

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "relay-stream-publish",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			app.Logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return runRelay(gCtx, app, txManager, outboxRepo, idempotencyRepo, publisher, breaker)
	})

	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down relay...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Relay error")
	}
	app.Logger.Info().Msg("Relay exited")
}

func runRelay(
	ctx context.Context,
	app *bootstrap.App,
	txManager *postgres.TxManager,
	outboxRepo *postgres.OutboxRepository,
	idempotencyRepo *postgres.IdempotencyRepository,
	publisher *infraRedis.EventPublisher,
	breaker *gobreaker.CircuitBreaker[struct{}],
) error {
	cfg := app.Config.Relay
	retryCfg := retry.Config{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		OnRetry: func(attempt uint, err error) {
			app.Logger.Warn().Err(err).Uint("attempt", attempt).Msg("Stream publish retry")
		},
	}

	app.Logger.Info().
		Str("stream", cfg.Stream).
		Dur("poll_interval", cfg.PollInterval).
		Int("batch_size", cfg.BatchSize).
		Msg("Relay started")

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	// Expired idempotency cache rows are purged on a much slower cadence.
	cleanupTicker := time.NewTicker(time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-cleanupTicker.C:
			if removed, err := idempotencyRepo.Cleanup(ctx); err != nil {
				app.Logger.Error().Err(err).Msg("Idempotency cleanup failed")
			} else if removed > 0 {
				app.Logger.Info().Int64("removed", removed).Msg("Purged expired idempotency keys")
			}
			continue
		case <-ticker.C:
		}

		lock := infraRedis.NewDistributedLock(app.Redis, "outbox-relay", cfg.LockTTL)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			app.Logger.Error().Err(err).Msg("Failed to acquire relay lock")
			continue
		}
		if !acquired {
			continue
		}

		if err := relayBatch(ctx, app, txManager, outboxRepo, publisher, breaker, retryCfg, cfg.BatchSize); err != nil {
			app.Logger.Error().Err(err).Msg("Relay batch failed")
		}

		if pending, err := outboxRepo.CountPending(ctx); err == nil {
			app.Metrics.OutboxPendingGauge.Set(float64(pending))
		}

		if err := lock.Release(ctx); err != nil {
			app.Logger.Warn().Err(err).Msg("Failed to release relay lock")
		}
	}
}

// relayBatch publishes one batch inside a single transaction. The rows
// stay locked until commit, so a crash between publish and commit means
// at-least-once delivery to the stream, never a lost event.
func relayBatch(
	ctx context.Context,
	app *bootstrap.App,
	txManager *postgres.TxManager,
	outboxRepo *postgres.OutboxRepository,
	publisher *infraRedis.EventPublisher,
	breaker *gobreaker.CircuitBreaker[struct{}],
	retryCfg retry.Config,
	batchSize int,
) error {
	return txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		events, err := outboxRepo.GetPending(txCtx, batchSize)
		if err != nil {
			return err
		}

		for _, event := range events {
			_, err := breaker.Execute(func() (struct{}, error) {
				return struct{}{}, retry.Do(ctx, retryCfg, func() error {
					return publisher.Publish(ctx, event)
				})
			})
			if err != nil {
				// Stop the batch so older events are never skipped
				// past; the whole batch is retried next tick.
				app.Metrics.RelayPublishFailures.Inc()
				app.Logger.Error().Err(err).
					Str("event_id", event.ID.String()).
					Str("event_type", event.EventType).
					Msg("Failed to publish outbox event")
				return err
			}

			if err := outboxRepo.MarkPublished(txCtx, event.ID); err != nil {
				return err
			}
			app.Metrics.OutboxDispatched.Inc()
		}
		return nil
	})
}
