package memory

import (
	"context"
	"sync"

	"github.com/lorrc/broker-roster/internal/core/ports"
)

// TransactionManager serialises transactional units of work. There is no
// rollback: fn is expected to validate before it writes.
type TransactionManager struct {
	mu sync.Mutex
}

var _ ports.TransactionManager = (*TransactionManager)(nil)

// NewTransactionManager creates a new in-memory transaction manager
func NewTransactionManager() *TransactionManager {
	return &TransactionManager{}
}

// WithTransaction runs fn while holding the manager's lock
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
