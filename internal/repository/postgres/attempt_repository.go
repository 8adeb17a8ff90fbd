package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cassiomorais/billing/internal/domain/attempt"
	domainErrors "github.com/cassiomorais/billing/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const attemptColumns = `id, invoice_id, status, idempotency_key, provider_payment_id,
	        provider_event_id_last, error_code, error_message, created_at, updated_at`

// Unique constraint names from the payment_attempts migration.
const (
	constraintInvoiceIdemKey    = "uq_attempt_invoice_idemkey"
	constraintProviderPaymentID = "uq_attempt_provider_payment_id"
)

// AttemptRepository implements attempt.Repository using PostgreSQL.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

func (r *AttemptRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Create inserts a new attempt. A lost uniqueness race comes back as a
// domain error so the caller can surface a retryable conflict.
func (r *AttemptRepository) Create(ctx context.Context, a *attempt.Attempt) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO payment_attempts
		 (id, invoice_id, status, idempotency_key, provider_payment_id,
		  provider_event_id_last, error_code, error_message, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		a.ID, a.InvoiceID, string(a.Status), a.IdempotencyKey, a.ProviderPaymentID,
		a.ProviderEventIDLast, a.ErrorCode, a.ErrorMessage, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == constraintProviderPaymentID {
				return domainErrors.ErrDuplicateProviderPaymentID
			}
			return domainErrors.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

// GetByID retrieves an attempt by its ID.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*attempt.Attempt, error) {
	return r.scanAttempt(r.db(ctx).QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts WHERE id = $1`, id))
}

// GetByInvoiceAndKey retrieves an attempt by its idempotency pair.
func (r *AttemptRepository) GetByInvoiceAndKey(ctx context.Context, invoiceID uuid.UUID, idempotencyKey string) (*attempt.Attempt, error) {
	return r.scanAttempt(r.db(ctx).QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts
		 WHERE invoice_id = $1 AND idempotency_key = $2`, invoiceID, idempotencyKey))
}

// GetPendingByInvoice returns the newest requires_action attempt for an invoice.
func (r *AttemptRepository) GetPendingByInvoice(ctx context.Context, invoiceID uuid.UUID) (*attempt.Attempt, error) {
	return r.scanAttempt(r.db(ctx).QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts
		 WHERE invoice_id = $1 AND status = 'requires_action'
		 ORDER BY created_at DESC LIMIT 1`, invoiceID))
}

// GetByProviderPaymentIDForUpdate retrieves an attempt by provider payment
// id with an exclusive row lock, serializing concurrent webhook deliveries
// for the same provider payment.
func (r *AttemptRepository) GetByProviderPaymentIDForUpdate(ctx context.Context, providerPaymentID string) (*attempt.Attempt, error) {
	return r.scanAttempt(r.db(ctx).QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts
		 WHERE provider_payment_id = $1 FOR UPDATE`, providerPaymentID))
}

// Update updates an existing attempt.
func (r *AttemptRepository) Update(ctx context.Context, a *attempt.Attempt) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE payment_attempts SET
		  status=$1, provider_event_id_last=$2, error_code=$3, error_message=$4, updated_at=$5
		 WHERE id=$6`,
		string(a.Status), a.ProviderEventIDLast, a.ErrorCode, a.ErrorMessage, a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrAttemptNotFound
	}
	return nil
}

// ListByInvoice lists the attempts of an invoice, newest first.
func (r *AttemptRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*attempt.Attempt, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts
		 WHERE invoice_id = $1 ORDER BY created_at DESC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []*attempt.Attempt
	for rows.Next() {
		a, err := r.scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// scanAttempt scans an attempt from any source implementing the scanner interface.
func (r *AttemptRepository) scanAttempt(s scanner) (*attempt.Attempt, error) {
	a := &attempt.Attempt{}
	var status string
	err := s.Scan(
		&a.ID, &a.InvoiceID, &status, &a.IdempotencyKey, &a.ProviderPaymentID,
		&a.ProviderEventIDLast, &a.ErrorCode, &a.ErrorMessage, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("scan attempt: %w", err)
	}
	a.Status = attempt.Status(status)
	return a, nil
}
