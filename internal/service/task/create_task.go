package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/undojournal/internal/domain"
	"github.com/heartmarshall/undojournal/internal/service/journal"
	"github.com/heartmarshall/undojournal/pkg/ctxutil"
)

// CreateTask creates a task for the authenticated user and journals it.
func (s *Service) CreateTask(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	title := strings.TrimSpace(input.Title)

	var created *domain.Task
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.tasks.Insert(txCtx, &domain.Task{
			ID:          uuid.New(),
			UserID:      userID,
			Title:       title,
			Description: trimOrNil(input.Description),
			Deadline:    input.Deadline,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}

		actionData, err := fullPayload(created)
		if err != nil {
			return err
		}
		undoData, err := refPayload(created)
		if err != nil {
			return err
		}

		if _, err := s.journal.RecordAction(txCtx, journal.RecordInput{
			ActionType:  ActionCreate,
			ActionData:  actionData,
			UndoHandler: HandlerCreate,
			UndoData:    undoData,
			Description: fmt.Sprintf("Created task %q", title),
		}); err != nil {
			return fmt.Errorf("journal task creation: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "task created",
		slog.String("user_id", userID.String()),
		slog.String("task_id", created.ID.String()),
	)

	return created, nil
}
