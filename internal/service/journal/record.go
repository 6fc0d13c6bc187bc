package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/heartmarshall/undojournal/internal/domain"
	"github.com/heartmarshall/undojournal/pkg/ctxutil"
)

// RecordAction stores a reversible action for the context user and returns
// its ID. When ctx carries a transaction the record commits or rolls back
// with it; the cache is updated only after commit.
func (s *Service) RecordAction(ctx context.Context, input RecordInput) (int64, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return 0, domain.ErrUnauthorized
	}

	ctx, span := s.tracer.Start(ctx, "journal.RecordAction", trace.WithAttributes(
		attribute.String("user_id", userID.String()),
		attribute.String("action_type", input.ActionType),
	))
	defer span.End()

	if err := input.Validate(); err != nil {
		return 0, err
	}

	handler := strings.TrimSpace(input.UndoHandler)
	if !s.handlers.Has(handler) {
		return 0, domain.NewValidationError("undo_handler", fmt.Sprintf("%q is not registered", handler))
	}

	rec, err := s.records.Create(ctx, &domain.UndoRecord{
		UserID:      userID,
		ActionType:  strings.TrimSpace(input.ActionType),
		ActionData:  input.ActionData,
		UndoHandler: handler,
		UndoData:    input.UndoData,
		Description: strings.TrimSpace(input.Description),
		Metadata:    input.Metadata,
		CreatedAt:   s.now(),
	})
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("create undo record: %w", err)
	}

	s.tx.AfterCommit(ctx, func(ctx context.Context) {
		s.cache.Push(ctx, rec)
	})

	s.log.InfoContext(ctx, "action recorded",
		slog.String("user_id", userID.String()),
		slog.Int64("record_id", rec.ID),
		slog.String("action_type", rec.ActionType),
		slog.String("undo_handler", rec.UndoHandler),
	)

	return rec.ID, nil
}
