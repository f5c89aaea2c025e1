package tx

import (
	"context"
	"database/sql"
	"sync"
	"time"

	dErrors "healthfund/pkg/domain-errors"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Runner provides a transactional boundary spanning several stores.
// Stores called with the ctx passed to fn take part in the same transaction.
// Implementations may wrap a database transaction or, in-memory, a coarse lock.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DefaultTimeout bounds a transaction whose context carries no deadline.
const DefaultTimeout = 5 * time.Second

// Bound checks ctx for cancellation and applies DefaultTimeout (or timeout when
// positive) if ctx has no deadline. The returned cancel func must be called.
func Bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return ctx, func() {}, dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, cancel, nil
}

type lockedKey struct{}

// Locked is the in-memory Runner. A single mutex serializes transactions, so
// in-memory stores see each fn as one atomic unit provided fn performs its
// fallible writes before the infallible ones.
type Locked struct {
	mu      sync.Mutex
	Timeout time.Duration
}

// NewLocked creates an in-memory transaction runner.
func NewLocked() *Locked {
	return &Locked{}
}

func (l *Locked) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(lockedKey{}) == l {
		return fn(ctx)
	}

	ctx, cancel, err := Bound(ctx, l.Timeout)
	defer cancel()
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	return fn(context.WithValue(ctx, lockedKey{}, l))
}
