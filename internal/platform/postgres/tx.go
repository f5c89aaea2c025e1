package postgres

import (
	"context"
	"database/sql"
	"time"

	txcontext "healthfund/pkg/platform/tx"
)

// TxRunner runs fn inside a database transaction carried by the context, so
// every store reached through Conn joins it. A nested call joins the outer
// transaction instead of opening a new one.
type TxRunner struct {
	db      *sql.DB
	timeout time.Duration
}

// NewTxRunner creates a runner over db.
func NewTxRunner(db *sql.DB) *TxRunner {
	return &TxRunner{db: db}
}

func (t *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}

	ctx, cancel, err := txcontext.Bound(ctx, t.timeout)
	defer cancel()
	if err != nil {
		return err
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit()
}
