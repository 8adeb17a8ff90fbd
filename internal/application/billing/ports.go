package billing

import (
	"context"
)

// TransactionManager defines the interface for transaction management.
// This is an application-layer port, not a domain concern. Every use case
// runs in exactly one transaction; nested or cross-use-case transactions
// are not supported.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
