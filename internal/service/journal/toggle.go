package journal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/heartmarshall/undojournal/internal/domain"
	"github.com/heartmarshall/undojournal/pkg/ctxutil"
)

// Undo reverses the given record, or the user's most recent active record
// when input.ActionID is nil.
func (s *Service) Undo(ctx context.Context, input ToggleInput) (*ToggleResult, error) {
	return s.toggle(ctx, domain.OpUndo, input)
}

// Redo re-applies the given record, or the user's most recently created
// undone record when input.ActionID is nil.
func (s *Service) Redo(ctx context.Context, input ToggleInput) (*ToggleResult, error) {
	return s.toggle(ctx, domain.OpRedo, input)
}

// toggle runs one undo or redo inside a transaction holding the user's lock.
// The handler, the status update and the lock share the transaction, so a
// handler failure, a timeout or a lost race leaves the record untouched.
func (s *Service) toggle(ctx context.Context, op domain.ToggleOp, input ToggleInput) (*ToggleResult, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "journal."+op.String(), trace.WithAttributes(
		attribute.String("user_id", userID.String()),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	var (
		result *ToggleResult
		unlock func()
	)
	// Released after commit so the next holder reads the committed status.
	defer func() {
		if unlock != nil {
			unlock()
		}
	}()

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if unlock, err = s.locker.Lock(ctx, userID); err != nil {
			return fmt.Errorf("lock history of user %s: %w", userID, err)
		}

		rec, err := s.resolveTarget(ctx, userID, op, input.ActionID)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int64("record_id", rec.ID), attribute.String("undo_handler", rec.UndoHandler))

		handler, err := s.handlers.Resolve(rec.UndoHandler)
		if err != nil {
			return fmt.Errorf("record %d: %w", rec.ID, err)
		}

		out, err := s.invoke(ctx, op, handler, rec)
		if err != nil {
			return err
		}

		updated, err := s.records.SetUndone(ctx, userID, rec.ID, op == domain.OpUndo, s.now())
		if err != nil {
			return fmt.Errorf("set status of record %d: %w", rec.ID, err)
		}

		s.tx.AfterCommit(ctx, func(ctx context.Context) {
			s.cache.Replace(ctx, updated)
		})

		result = &ToggleResult{
			RecordID:    updated.ID,
			ActionType:  updated.ActionType,
			Description: updated.Description,
			Result:      out,
			Record:      updated,
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		s.logFailure(ctx, op, userID, input.ActionID, err)
		return nil, err
	}

	s.log.InfoContext(ctx, "action "+op.String()+" applied",
		slog.String("user_id", userID.String()),
		slog.Int64("record_id", result.RecordID),
		slog.String("action_type", result.ActionType),
	)

	return result, nil
}

// resolveTarget finds and row-locks the record to toggle. The caller holds
// the user's lock.
func (s *Service) resolveTarget(ctx context.Context, userID uuid.UUID, op domain.ToggleOp, actionID *int64) (*domain.UndoRecord, error) {
	cutoff := s.cutoff()

	if actionID != nil {
		rec, err := s.records.GetByIDForUpdate(ctx, userID, *actionID)
		if err != nil {
			return nil, fmt.Errorf("get record %d: %w", *actionID, err)
		}
		if !rec.EligibleFor(op) || rec.ExpiredAt(cutoff) {
			return nil, fmt.Errorf("record %d cannot be %s: %w", rec.ID, pastTense(op), domain.ErrNotFound)
		}
		return rec, nil
	}

	if rec := s.cachedCandidate(ctx, userID, op, cutoff); rec != nil {
		return rec, nil
	}

	rec, err := s.records.GetLatestForUpdate(ctx, userID, op.TargetUndone(), cutoff)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("nothing to %s: %w", op, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get latest record: %w", err)
	}
	return rec, nil
}

// cachedCandidate returns the most recent eligible record from the cache,
// verified and row-locked against the store. The store must also hold no
// newer eligible record: a slice can miss rows committed while it was being
// filled, or carry an outdated status. Any disagreement drops the slice and
// returns nil so the caller falls back to the store.
func (s *Service) cachedCandidate(ctx context.Context, userID uuid.UUID, op domain.ToggleOp, cutoff time.Time) *domain.UndoRecord {
	cached, ok := s.cache.Recent(ctx, userID)
	if !ok {
		return nil
	}

	for _, c := range cached {
		if c.ExpiredAt(cutoff) {
			return nil
		}
		if !c.EligibleFor(op) {
			continue
		}

		rec, err := s.records.GetByIDForUpdate(ctx, userID, c.ID)
		if err == nil && rec.EligibleFor(op) {
			newer, err := s.records.HasNewer(ctx, userID, op.TargetUndone(), rec)
			if err == nil && !newer {
				return rec
			}
		}

		s.log.DebugContext(ctx, "stale cache entry",
			slog.String("user_id", userID.String()),
			slog.Int64("record_id", c.ID),
		)
		s.cache.Invalidate(ctx, userID)
		return nil
	}

	return nil
}

type handlerOutcome struct {
	out domain.Payload
	err error
}

// invoke runs the handler on its own goroutine so the operation timeout is
// honoured even if the handler ignores ctx. After ctx expires the handler gets
// HandlerStopGrace to return before the transaction is rolled back; one still
// running after that keeps running, but its writes are discarded.
func (s *Service) invoke(ctx context.Context, op domain.ToggleOp, h Handler, rec *domain.UndoRecord) (domain.Payload, error) {
	fn, payload := h.forOp(op, rec)

	done := make(chan handlerOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- handlerOutcome{err: fmt.Errorf("handler panicked: %v", r)}
			}
		}()
		out, err := fn(ctx, payload)
		done <- handlerOutcome{out: out, err: err}
	}()

	var res handlerOutcome
	select {
	case res = <-done:
	case <-ctx.Done():
		s.awaitHandlerStop(ctx, done, h.Name, rec.ID)
		return nil, fmt.Errorf("%s handler %q for record %d: %w", op, h.Name, rec.ID, ctx.Err())
	}

	switch {
	case res.err == nil:
		return res.out, nil
	case ctx.Err() != nil:
		return nil, fmt.Errorf("%s handler %q for record %d: %w", op, h.Name, rec.ID, ctx.Err())
	case errors.Is(res.err, domain.ErrStorage):
		return nil, fmt.Errorf("%s handler %q for record %d: %w", op, h.Name, rec.ID, res.err)
	default:
		return nil, &domain.HandlerError{Handler: h.Name, Op: op, RecordID: rec.ID, Err: res.err}
	}
}

// awaitHandlerStop waits for a cancelled handler to return, so it stops
// using the transaction before the rollback runs on the same connection.
func (s *Service) awaitHandlerStop(ctx context.Context, done <-chan handlerOutcome, handler string, recordID int64) {
	timer := time.NewTimer(s.cfg.HandlerStopGrace)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		s.log.WarnContext(ctx, "handler ignored cancellation",
			slog.String("handler", handler),
			slog.Int64("record_id", recordID),
			slog.Duration("grace", s.cfg.HandlerStopGrace),
		)
	}
}

func (s *Service) logFailure(ctx context.Context, op domain.ToggleOp, userID uuid.UUID, actionID *int64, err error) {
	attrs := []any{
		slog.String("op", op.String()),
		slog.String("user_id", userID.String()),
		slog.String("error", err.Error()),
	}
	if actionID != nil {
		attrs = append(attrs, slog.Int64("action_id", *actionID))
	}

	var handlerErr *domain.HandlerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.log.DebugContext(ctx, "nothing eligible", attrs...)
	case errors.As(err, &handlerErr):
		s.log.WarnContext(ctx, "handler refused", attrs...)
	case errors.Is(err, domain.ErrUnknownHandler):
		s.log.ErrorContext(ctx, "record references unregistered handler", attrs...)
	case errors.Is(err, context.DeadlineExceeded):
		s.log.WarnContext(ctx, "operation timed out", attrs...)
	default:
		s.log.ErrorContext(ctx, "operation failed", attrs...)
	}
}

func pastTense(op domain.ToggleOp) string {
	if op == domain.OpRedo {
		return "redone"
	}
	return "undone"
}
