// Package task implements the planner task repository using PostgreSQL.
package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/undojournal/internal/adapter/postgres"
	"github.com/heartmarshall/undojournal/internal/domain"
)

const entity = "task"

// Repo provides task persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new task repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const taskColumns = `id, user_id, title, description, deadline, is_completed, completed_at, created_at, updated_at`

const insertSQL = `
INSERT INTO tasks (id, user_id, title, description, deadline, is_completed, completed_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + taskColumns

const getByIDSQL = `
SELECT ` + taskColumns + `
FROM tasks
WHERE id = $1 AND user_id = $2`

const listByUserSQL = `
SELECT ` + taskColumns + `
FROM tasks
WHERE user_id = $1
ORDER BY created_at DESC, id`

const setCompletedSQL = `
UPDATE tasks
SET is_completed = $3::boolean,
    completed_at = CASE WHEN $3::boolean THEN $4::timestamptz ELSE NULL END,
    updated_at = $4::timestamptz
WHERE id = $1 AND user_id = $2 AND is_completed = NOT $3::boolean
RETURNING ` + taskColumns

const deleteSQL = `
DELETE FROM tasks
WHERE id = $1 AND user_id = $2`

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Insert stores a task exactly as given, including its ID and timestamps, so a
// deleted task can be restored from a snapshot.
// Returns domain.ErrAlreadyExists if a task with the same ID exists.
func (r *Repo) Insert(ctx context.Context, t *domain.Task) (*domain.Task, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, insertSQL,
		t.ID,
		t.UserID,
		t.Title,
		t.Description,
		t.Deadline,
		t.IsCompleted,
		t.CompletedAt,
		t.CreatedAt.UTC().Truncate(time.Microsecond),
		t.UpdatedAt.UTC().Truncate(time.Microsecond),
	)

	created, err := scanTask(row)
	if err != nil {
		return nil, postgres.MapError(err, entity, t.ID)
	}

	return created, nil
}

// SetCompleted flips is_completed for a task currently in the opposite state.
// Returns domain.ErrNotFound if the task does not exist, belongs to another
// user, or is already in the requested state.
func (r *Repo) SetCompleted(ctx context.Context, userID, id uuid.UUID, completed bool, at time.Time) (*domain.Task, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, setCompletedSQL, id, userID, completed, at.UTC().Truncate(time.Microsecond))

	updated, err := scanTask(row)
	if err != nil {
		return nil, postgres.MapError(err, entity, id)
	}

	return updated, nil
}

// Delete removes a task.
// Returns domain.ErrNotFound if the task does not exist or belongs to another user.
func (r *Repo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	ct, err := querier.Exec(ctx, deleteSQL, id, userID)
	if err != nil {
		return postgres.MapError(err, entity, id)
	}

	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a task by primary key filtered by user_id.
// Returns domain.ErrNotFound if the task does not exist or belongs to another user.
func (r *Repo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	t, err := scanTask(querier.QueryRow(ctx, getByIDSQL, id, userID))
	if err != nil {
		return nil, postgres.MapError(err, entity, id)
	}

	return t, nil
}

// ListByUser returns all tasks of a user, newest first.
func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, listByUserSQL, userID)
	if err != nil {
		return nil, postgres.MapError(err, entity, userID)
	}
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, postgres.MapError(err, entity, userID)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, entity, userID)
	}

	return tasks, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	if err := row.Scan(
		&t.ID, &t.UserID, &t.Title, &t.Description, &t.Deadline,
		&t.IsCompleted, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
