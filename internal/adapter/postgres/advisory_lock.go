package postgres

import (
	"context"
	"errors"
	"hash/fnv"

	"github.com/google/uuid"
)

const advisoryNamespace = "undo_journal"

// ErrNoTx is returned by AdvisoryLocker when ctx does not carry a transaction.
var ErrNoTx = errors.New("advisory lock requires a transaction")

// AdvisoryLocker serializes work per user across every process sharing the
// database. It takes a transaction-scoped advisory lock, so the lock is
// released by the commit or rollback of the transaction in ctx.
type AdvisoryLocker struct{}

// NewAdvisoryLocker creates an AdvisoryLocker.
func NewAdvisoryLocker() *AdvisoryLocker {
	return &AdvisoryLocker{}
}

// Lock blocks until the user's lock is held or ctx is done. The returned
// unlock func is a no-op: the transaction owns the lock.
func (l *AdvisoryLocker) Lock(ctx context.Context, userID uuid.UUID) (func(), error) {
	st, ok := txFromCtx(ctx)
	if !ok {
		return nil, ErrNoTx
	}

	if _, err := st.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, AdvisoryKey(userID)); err != nil {
		return nil, MapError(err, "advisory_lock", userID)
	}

	return func() {}, nil
}

// AdvisoryKey derives the 64-bit lock key for a user.
func AdvisoryKey(userID uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(advisoryNamespace + ":" + userID.String()))
	return int64(h.Sum64())
}

