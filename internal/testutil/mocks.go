package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cassiomorais/billing/internal/domain/attempt"
	domainErrors "github.com/cassiomorais/billing/internal/domain/errors"
	"github.com/cassiomorais/billing/internal/domain/invoice"
	"github.com/cassiomorais/billing/internal/domain/outbox"
	"github.com/google/uuid"
)

// --- Invoice Repository Mock ---

// MockInvoiceRepository is an in-memory implementation of invoice.Repository.
// When Attempts is set, Delete cascades into it the way the schema's
// ON DELETE CASCADE does.
type MockInvoiceRepository struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*invoice.Invoice

	Attempts *MockAttemptRepository

	CreateFunc         func(ctx context.Context, inv *invoice.Invoice) error
	GetByIDFunc        func(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error)
	GetByIDForUpdateFn func(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error)
	UpdateFunc         func(ctx context.Context, inv *invoice.Invoice) error
	ListFunc           func(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error)
	DeleteFunc         func(ctx context.Context, id uuid.UUID) error
}

func NewMockInvoiceRepository() *MockInvoiceRepository {
	return &MockInvoiceRepository{
		invoices: make(map[uuid.UUID]*invoice.Invoice),
	}
}

// AddInvoice seeds the repository.
func (m *MockInvoiceRepository) AddInvoice(inv *invoice.Invoice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[inv.ID] = inv
}

func (m *MockInvoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, inv)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invoices[inv.ID] = inv
	return nil
}

func (m *MockInvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, domainErrors.ErrInvoiceNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *MockInvoiceRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	if m.GetByIDForUpdateFn != nil {
		return m.GetByIDForUpdateFn(ctx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, inv)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[inv.ID]; !ok {
		return domainErrors.ErrInvoiceNotFound
	}
	cp := *inv
	m.invoices[inv.ID] = &cp
	return nil
}

func (m *MockInvoiceRepository) List(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*invoice.Invoice, 0, len(m.invoices))
	for _, inv := range m.invoices {
		if filter.Status != nil && inv.Status != *filter.Status {
			continue
		}
		cp := *inv
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	m.mu.Lock()
	if _, ok := m.invoices[id]; !ok {
		m.mu.Unlock()
		return domainErrors.ErrInvoiceNotFound
	}
	delete(m.invoices, id)
	m.mu.Unlock()
	if m.Attempts != nil {
		m.Attempts.DeleteByInvoice(id)
	}
	return nil
}

// GetInvoiceByID returns the stored invoice without error handling, for assertions.
func (m *MockInvoiceRepository) GetInvoiceByID(id uuid.UUID) *invoice.Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invoices[id]
}

// --- Attempt Repository Mock ---

// MockAttemptRepository is an in-memory implementation of attempt.Repository
// that enforces the same uniqueness rules as the real schema.
type MockAttemptRepository struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]*attempt.Attempt

	CreateFunc func(ctx context.Context, a *attempt.Attempt) error
	UpdateFunc func(ctx context.Context, a *attempt.Attempt) error
}

func NewMockAttemptRepository() *MockAttemptRepository {
	return &MockAttemptRepository{
		attempts: make(map[uuid.UUID]*attempt.Attempt),
	}
}

// AddAttempt seeds the repository.
func (m *MockAttemptRepository) AddAttempt(a *attempt.Attempt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[a.ID] = a
}

func (m *MockAttemptRepository) Create(ctx context.Context, a *attempt.Attempt) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.attempts {
		if existing.InvoiceID == a.InvoiceID && existing.IdempotencyKey == a.IdempotencyKey {
			return domainErrors.ErrDuplicateIdempotencyKey
		}
		if existing.ProviderPaymentID == a.ProviderPaymentID {
			return domainErrors.ErrDuplicateProviderPaymentID
		}
	}
	cp := *a
	m.attempts[a.ID] = &cp
	return nil
}

func (m *MockAttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*attempt.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[id]
	if !ok {
		return nil, domainErrors.ErrAttemptNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockAttemptRepository) GetByInvoiceAndKey(ctx context.Context, invoiceID uuid.UUID, idempotencyKey string) (*attempt.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.InvoiceID == invoiceID && a.IdempotencyKey == idempotencyKey {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrAttemptNotFound
}

func (m *MockAttemptRepository) GetPendingByInvoice(ctx context.Context, invoiceID uuid.UUID) (*attempt.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var newest *attempt.Attempt
	for _, a := range m.attempts {
		if a.InvoiceID != invoiceID || a.Status != attempt.StatusRequiresAction {
			continue
		}
		if newest == nil || a.CreatedAt.After(newest.CreatedAt) {
			newest = a
		}
	}
	if newest == nil {
		return nil, domainErrors.ErrAttemptNotFound
	}
	cp := *newest
	return &cp, nil
}

func (m *MockAttemptRepository) GetByProviderPaymentIDForUpdate(ctx context.Context, providerPaymentID string) (*attempt.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.attempts {
		if a.ProviderPaymentID == providerPaymentID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domainErrors.ErrAttemptNotFound
}

func (m *MockAttemptRepository) Update(ctx context.Context, a *attempt.Attempt) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attempts[a.ID]; !ok {
		return domainErrors.ErrAttemptNotFound
	}
	cp := *a
	m.attempts[a.ID] = &cp
	return nil
}

func (m *MockAttemptRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]*attempt.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*attempt.Attempt
	for _, a := range m.attempts {
		if a.InvoiceID == invoiceID {
			cp := *a
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// DeleteByInvoice mirrors the schema's ON DELETE CASCADE for tests that
// exercise invoice deletion through the in-memory repositories.
func (m *MockAttemptRepository) DeleteByInvoice(invoiceID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, a := range m.attempts {
		if a.InvoiceID == invoiceID {
			delete(m.attempts, id)
		}
	}
}

// --- Outbox Repository Mock ---

// MockOutboxRepository is an in-memory implementation of outbox.Repository.
type MockOutboxRepository struct {
	mu     sync.Mutex
	events []*outbox.Event

	EnqueueFunc func(ctx context.Context, event *outbox.Event) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Enqueue(ctx context.Context, event *outbox.Event) error {
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) DispatchPending(ctx context.Context, limit int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	pending := m.pendingLocked()
	n := 0
	for _, e := range pending {
		if n >= limit {
			break
		}
		now := time.Now()
		e.PublishedAt = &now
		n++
	}
	return n, nil
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 10
	}
	pending := m.pendingLocked()
	if limit < len(pending) {
		pending = pending[:limit]
	}
	return pending, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id && e.PublishedAt == nil {
			now := time.Now()
			e.PublishedAt = &now
		}
	}
	return nil
}

func (m *MockOutboxRepository) ListByAggregate(ctx context.Context, aggregateType string, aggregateID uuid.UUID, limit int) ([]*outbox.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 {
		limit = 10
	}
	var result []*outbox.Event
	for _, e := range m.events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// Events returns all enqueued events, oldest first, for assertions.
func (m *MockOutboxRepository) Events() []*outbox.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*outbox.Event(nil), m.events...)
}

// EventsOfType returns enqueued events of one type, oldest first.
func (m *MockOutboxRepository) EventsOfType(eventType string) []*outbox.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*outbox.Event
	for _, e := range m.events {
		if e.EventType == eventType {
			result = append(result, e)
		}
	}
	return result
}

func (m *MockOutboxRepository) pendingLocked() []*outbox.Event {
	var pending []*outbox.Event
	for _, e := range m.events {
		if e.PublishedAt == nil {
			pending = append(pending, e)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending
}

// --- Transaction Manager Mock ---

// MockTransactionManager runs the function directly without a real transaction.
type MockTransactionManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}
