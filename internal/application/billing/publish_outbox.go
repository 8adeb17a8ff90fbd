package billing

import (
	"context"

	"github.com/cassiomorais/billing/internal/domain/outbox"
)

const defaultPublishLimit = 50

// PublishOutboxUseCase marks pending outbox events as dispatched. It is a
// synchronous stand-in for the relay: the real transport lives behind the
// same DispatchPending contract.
type PublishOutboxUseCase struct {
	outboxRepo outbox.Repository
	txManager  TransactionManager
}

// NewPublishOutboxUseCase creates a new PublishOutboxUseCase.
func NewPublishOutboxUseCase(outboxRepo outbox.Repository, txManager TransactionManager) *PublishOutboxUseCase {
	return &PublishOutboxUseCase{outboxRepo: outboxRepo, txManager: txManager}
}

// Execute dispatches up to limit pending events and returns the count.
func (uc *PublishOutboxUseCase) Execute(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = defaultPublishLimit
	}

	var published int
	err := uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		n, err := uc.outboxRepo.DispatchPending(txCtx, limit)
		if err != nil {
			return err
		}
		published = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return published, nil
}
