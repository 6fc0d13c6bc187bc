package domain

import (
	"time"

	"github.com/google/uuid"
)

// Task is a planner item owned by a chat user. It is the sample business
// entity whose mutations are recorded in the undo journal.
type Task struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Title       string
	Description *string
	Deadline    *time.Time
	IsCompleted bool
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
