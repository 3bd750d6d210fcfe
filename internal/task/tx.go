package task

import (
	"context"
	"sync"
	"time"

	dErrors "taskhub/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

// memoryTx serialises mutation units against an in-memory store with
// a coarse lock. There is no rollback; the lock guarantees no other
// caller observes a half-applied unit.
type memoryTx struct {
	mu      sync.Mutex
	store   Store
	timeout time.Duration
}

// NewMemoryTx wraps an in-memory store in a TxRunner.
func NewMemoryTx(store Store) TxRunner {
	return &memoryTx{store: store}
}

func (t *memoryTx) RunInTx(ctx context.Context, fn func(store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(t.store)
}
