package task

import (
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/undojournal/internal/domain"
)

// snapshot is the JSON form of a task stored in journal payloads.
type snapshot struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func snapshotOf(t *domain.Task) snapshot {
	return snapshot{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.Deadline,
		IsCompleted: t.IsCompleted,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (s snapshot) task() *domain.Task {
	return &domain.Task{
		ID:          s.ID,
		UserID:      s.UserID,
		Title:       s.Title,
		Description: s.Description,
		Deadline:    s.Deadline,
		IsCompleted: s.IsCompleted,
		CompletedAt: s.CompletedAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// taskRef addresses one task in a payload.
type taskRef struct {
	TaskID uuid.UUID `json:"task_id"`
	UserID uuid.UUID `json:"user_id"`
}

// snapshotPayload wraps a full task snapshot.
type snapshotPayload struct {
	Task snapshot `json:"task"`
}

func refPayload(t *domain.Task) (domain.Payload, error) {
	return domain.NewPayload(taskRef{TaskID: t.ID, UserID: t.UserID})
}

func fullPayload(t *domain.Task) (domain.Payload, error) {
	return domain.NewPayload(snapshotPayload{Task: snapshotOf(t)})
}
