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

// CompleteTask marks an open task as completed and journals it.
func (s *Service) CompleteTask(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	var updated *domain.Task
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.tasks.GetByID(txCtx, userID, taskID)
		if err != nil {
			return fmt.Errorf("get task: %w", err)
		}
		if current.IsCompleted {
			return domain.NewValidationError("task", "already completed")
		}

		updated, err = s.tasks.SetCompleted(txCtx, userID, taskID, true, s.now())
		if err != nil {
			return fmt.Errorf("complete task: %w", err)
		}

		ref, err := refPayload(updated)
		if err != nil {
			return err
		}

		if _, err := s.journal.RecordAction(txCtx, journal.RecordInput{
			ActionType:  ActionComplete,
			ActionData:  ref,
			UndoHandler: HandlerComplete,
			UndoData:    ref,
			Description: fmt.Sprintf("Completed task %q", updated.Title),
		}); err != nil {
			return fmt.Errorf("journal task completion: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "task completed",
		slog.String("user_id", userID.String()),
		slog.String("task_id", taskID.String()),
	)

	return updated, nil
}
