package postgres

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/cassiomorais/billing/internal/domain/errors"
	"github.com/cassiomorais/billing/internal/domain/invoice"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const invoiceColumns = `id, status, amount_cents, currency, customer_ref, created_at, updated_at`

// InvoiceRepository implements invoice.Repository using PostgreSQL.
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository creates a new InvoiceRepository.
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

func (r *InvoiceRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Create inserts a new invoice.
func (r *InvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO invoices (id, status, amount_cents, currency, customer_ref, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inv.ID, string(inv.Status), inv.AmountCents, inv.Currency, inv.CustomerRef, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// GetByID retrieves an invoice by its ID.
func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	return r.scanInvoice(r.db(ctx).QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves an invoice and takes an exclusive row lock
// held until the surrounding transaction commits or rolls back.
func (r *InvoiceRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	return r.scanInvoice(r.db(ctx).QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id))
}

// Update updates an existing invoice.
func (r *InvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE invoices SET status=$1, amount_cents=$2, currency=$3, customer_ref=$4, updated_at=$5
		 WHERE id=$6`,
		string(inv.Status), inv.AmountCents, inv.Currency, inv.CustomerRef, inv.UpdatedAt, inv.ID,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrInvoiceNotFound
	}
	return nil
}

// List lists invoices, newest first.
func (r *InvoiceRepository) List(ctx context.Context, f invoice.ListFilter) ([]*invoice.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	args := []any{}
	argIdx := 1

	if f.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(*f.Status))
		argIdx++
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*invoice.Invoice
	for rows.Next() {
		inv, err := r.scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// Delete removes an invoice. Payment attempts are removed by the
// ON DELETE CASCADE constraint; outbox events keep only the aggregate id
// and survive.
func (r *InvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrInvoiceNotFound
	}
	return nil
}

// scanInvoice scans an invoice from any source implementing the scanner interface.
func (r *InvoiceRepository) scanInvoice(s scanner) (*invoice.Invoice, error) {
	inv := &invoice.Invoice{}
	var status string
	err := s.Scan(
		&inv.ID, &status, &inv.AmountCents, &inv.Currency, &inv.CustomerRef, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	inv.Status = invoice.Status(status)
	return inv, nil
}
