package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/undojournal/internal/domain"
	"github.com/heartmarshall/undojournal/internal/service/journal"
)

// Action types written to the journal.
const (
	ActionCreate   = "create_task"
	ActionComplete = "complete_task"
	ActionDelete   = "delete_task"
)

// Journal handler names. Renaming one orphans existing records.
const (
	HandlerCreate   = "task.create"
	HandlerComplete = "task.complete"
	HandlerDelete   = "task.delete"
)

// ErrDiverged is returned by a handler when the task is no longer in the
// state the journaled action left it in.
var ErrDiverged = errors.New("task state diverged")

// RegisterHandlers adds the task undo/redo handlers to reg.
func (s *Service) RegisterHandlers(reg *journal.Registry) error {
	for _, h := range []struct {
		name       string
		undo, redo journal.HandlerFunc
	}{
		{HandlerCreate, s.undoCreate, s.redoCreate},
		{HandlerComplete, s.undoComplete, s.redoComplete},
		{HandlerDelete, s.undoDelete, s.redoDelete},
	} {
		if err := reg.Register(h.name, h.undo, h.redo); err != nil {
			return err
		}
	}
	return nil
}

// undoCreate deletes the created task.
func (s *Service) undoCreate(ctx context.Context, p domain.Payload) (domain.Payload, error) {
	var ref taskRef
	if err := p.Decode(&ref); err != nil {
		return nil, err
	}
	if err := s.tasks.Delete(ctx, ref.UserID, ref.TaskID); err != nil {
		return nil, diverged(err, "task %s no longer exists", ref.TaskID)
	}
	s.log.DebugContext(ctx, "task creation undone", slog.String("task_id", ref.TaskID.String()))
	return p, nil
}

// redoCreate re-inserts the task from its creation snapshot.
func (s *Service) redoCreate(ctx context.Context, p domain.Payload) (domain.Payload, error) {
	return s.restore(ctx, p)
}

func (s *Service) undoComplete(ctx context.Context, p domain.Payload) (domain.Payload, error) {
	return s.setCompleted(ctx, p, false)
}

func (s *Service) redoComplete(ctx context.Context, p domain.Payload) (domain.Payload, error) {
	return s.setCompleted(ctx, p, true)
}

// undoDelete restores the deleted task from its snapshot.
func (s *Service) undoDelete(ctx context.Context, p domain.Payload) (domain.Payload, error) {
	return s.restore(ctx, p)
}

// redoDelete deletes the task again.
func (s *Service) redoDelete(ctx context.Context, p domain.Payload) (domain.Payload, error) {
	var ref taskRef
	if err := p.Decode(&ref); err != nil {
		return nil, err
	}
	if err := s.tasks.Delete(ctx, ref.UserID, ref.TaskID); err != nil {
		return nil, diverged(err, "task %s no longer exists", ref.TaskID)
	}
	return p, nil
}

func (s *Service) restore(ctx context.Context, p domain.Payload) (domain.Payload, error) {
	var in snapshotPayload
	if err := p.Decode(&in); err != nil {
		return nil, err
	}
	restored, err := s.tasks.Insert(ctx, in.Task.task())
	if err != nil {
		return nil, diverged(err, "task %s exists again", in.Task.ID)
	}
	return fullPayload(restored)
}

func (s *Service) setCompleted(ctx context.Context, p domain.Payload, completed bool) (domain.Payload, error) {
	var ref taskRef
	if err := p.Decode(&ref); err != nil {
		return nil, err
	}
	updated, err := s.tasks.SetCompleted(ctx, ref.UserID, ref.TaskID, completed, s.now())
	if err != nil {
		state := "open"
		if !completed {
			state = "completed"
		}
		return nil, diverged(err, "task %s is no longer %s", ref.TaskID, state)
	}
	return fullPayload(updated)
}

// diverged turns a not-found or conflict from the store into ErrDiverged.
// Anything else, storage failures included, is returned as is.
func diverged(err error, format string, args ...any) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyExists) {
		return fmt.Errorf("%w: %s", ErrDiverged, fmt.Sprintf(format, args...))
	}
	return err
}
