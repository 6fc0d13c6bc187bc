// Package task implements the planner tasks that chat users create, complete
// and delete. Every mutation is journaled in the same transaction so it can
// be undone and redone.
package task

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/undojournal/internal/domain"
	"github.com/heartmarshall/undojournal/internal/service/journal"
)

type taskRepo interface {
	Insert(ctx context.Context, t *domain.Task) (*domain.Task, error)
	SetCompleted(ctx context.Context, userID, id uuid.UUID, completed bool, at time.Time) (*domain.Task, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
}

type actionRecorder interface {
	RecordAction(ctx context.Context, input journal.RecordInput) (int64, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides task management operations.
type Service struct {
	tasks   taskRepo
	journal actionRecorder
	tx      txManager
	now     func() time.Time
	log     *slog.Logger
}

// NewService creates a new Task service.
func NewService(
	log *slog.Logger,
	tasks taskRepo,
	journal actionRecorder,
	tx txManager,
) *Service {
	return &Service{
		tasks:   tasks,
		journal: journal,
		tx:      tx,
		now:     func() time.Time { return time.Now().UTC() },
		log:     log.With("service", "task"),
	}
}

// trimOrNil trims whitespace. Returns nil if result is empty.
func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
