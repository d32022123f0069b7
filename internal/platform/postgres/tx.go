package postgres

import (
	"context"
	"database/sql"
	"time"

	dErrors "civreg/pkg/domain-errors"
	txcontext "civreg/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// TxRunner wraps workflow operations in a database transaction. The
// transaction rides the context (pkg/platform/tx), so every store write made
// inside fn lands on the same transaction and either all commit or none do.
type TxRunner struct {
	db      *sql.DB
	timeout time.Duration
}

// NewTxRunner builds a runner over db with the default per-transaction timeout.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

// RunInTx executes fn inside a transaction. Any error from fn rolls the
// transaction back and is returned unchanged so callers keep the domain code.
func (t *TxRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	// Already inside a transaction: join it. The outer runner owns
	// commit and rollback.
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
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

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit transaction")
	}
	return nil
}
