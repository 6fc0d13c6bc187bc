package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/undojournal/internal/domain"
)

// TxManager manages database transactions using the context pattern.
// A RunInTx call inside a RunInTx callback joins the outer transaction
// instead of opening a second one, so a business operation and the journal
// record it writes always commit together.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// RunInTx executes fn within a database transaction.
// Isolation level: Read Committed (PostgreSQL default).
// On success: commits, then runs the AfterCommit hooks in registration order.
// On error from fn: rolls back and returns the error. Hooks are discarded.
// On panic from fn: rolls back and re-panics.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if InTx(ctx) {
		return fn(ctx)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w: %w", domain.ErrStorage, err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(r)
		}
	}()

	st := &txState{tx: tx}
	txCtx := withTx(ctx, st)

	if err := fn(txCtx); err != nil {
		// The caller's ctx may already be expired; rollback must still reach
		// the server so the connection and any xact locks are released.
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return rollbackError(err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w: %w", domain.ErrStorage, err)
	}

	for _, hook := range st.afterCommit {
		hook(ctx)
	}

	return nil
}

// AfterCommit schedules fn to run after the transaction carried by ctx
// commits. Outside a transaction fn runs immediately.
func (m *TxManager) AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	st, ok := txFromCtx(ctx)
	if !ok {
		fn(ctx)
		return
	}
	st.afterCommit = append(st.afterCommit, fn)
}

// rollbackError keeps err as the primary cause and adds the failed rollback
// as a storage error, so both stay visible to errors.Is.
func rollbackError(err, rbErr error) error {
	return fmt.Errorf("%w (rollback failed: %w: %w)", err, domain.ErrStorage, rbErr)
}
