package main

import (
	"context"
	"database/sql"
	"time"

	"taskhub/internal/task"
	dErrors "taskhub/pkg/domain-errors"
)

const defaultTaskTxTimeout = 5 * time.Second

// taskPostgresTx runs a task mutation unit inside one database
// transaction, so counter allocation, row writes and the audit append
// commit or roll back together.
type taskPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newTaskPostgresTx(db *sql.DB) *taskPostgresTx {
	return &taskPostgresTx{db: db}
}

func (t *taskPostgresTx) RunInTx(ctx context.Context, fn func(store task.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTaskTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(task.NewPostgresTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}
