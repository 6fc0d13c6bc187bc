package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/undojournal/internal/domain"
	"github.com/heartmarshall/undojournal/internal/service/journal"
	"github.com/heartmarshall/undojournal/pkg/ctxutil"
)

// DeleteTask deletes a task and journals a full snapshot so it can be restored.
func (s *Service) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.tasks.GetByID(txCtx, userID, taskID)
		if err != nil {
			return fmt.Errorf("get task: %w", err)
		}

		if err := s.tasks.Delete(txCtx, userID, taskID); err != nil {
			return fmt.Errorf("delete task: %w", err)
		}

		ref, err := refPayload(current)
		if err != nil {
			return err
		}
		full, err := fullPayload(current)
		if err != nil {
			return err
		}

		if _, err := s.journal.RecordAction(txCtx, journal.RecordInput{
			ActionType:  ActionDelete,
			ActionData:  ref,
			UndoHandler: HandlerDelete,
			UndoData:    full,
			Description: fmt.Sprintf("Deleted task %q", current.Title),
		}); err != nil {
			return fmt.Errorf("journal task deletion: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "task deleted",
		slog.String("user_id", userID.String()),
		slog.String("task_id", taskID.String()),
	)

	return nil
}
