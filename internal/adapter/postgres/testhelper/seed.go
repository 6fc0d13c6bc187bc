package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/undojournal/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUndoRecord inserts a journal record for rec.UserID and returns it with
// the generated ID. Zero fields are filled with defaults: a fresh user ID,
// a "test.noop" handler, empty payloads and created_at = now. IsUndone records
// get UndoneAt = CreatedAt unless set.
func SeedUndoRecord(t *testing.T, pool *pgxpool.Pool, rec domain.UndoRecord) domain.UndoRecord {
	t.Helper()
	ctx := context.Background()

	if rec.UserID == uuid.Nil {
		rec.UserID = uuid.New()
	}
	if rec.ActionType == "" {
		rec.ActionType = "test_action"
	}
	if rec.UndoHandler == "" {
		rec.UndoHandler = "test.noop"
	}
	if rec.Description == "" {
		rec.Description = "seeded action " + uniqueSuffix()
	}
	if rec.ActionData == nil {
		rec.ActionData = domain.Payload{}
	}
	if rec.UndoData == nil {
		rec.UndoData = domain.Payload{}
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC().Truncate(time.Microsecond)
	if rec.IsUndone && rec.UndoneAt == nil {
		at := rec.CreatedAt
		rec.UndoneAt = &at
	}

	actionData := mustJSON(t, rec.ActionData)
	undoData := mustJSON(t, rec.UndoData)
	var metadata []byte
	if rec.Metadata != nil {
		metadata = mustJSON(t, rec.Metadata)
	}

	err := pool.QueryRow(ctx,
		`INSERT INTO undo_records (user_id, action_type, action_data, undo_handler, undo_data,
		                           description, metadata, is_undone, created_at, undone_at, redone_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id`,
		rec.UserID, rec.ActionType, actionData, rec.UndoHandler, undoData,
		rec.Description, metadata, rec.IsUndone, rec.CreatedAt, rec.UndoneAt, rec.RedoneAt,
	).Scan(&rec.ID)
	if err != nil {
		t.Fatalf("testhelper: SeedUndoRecord insert: %v", err)
	}

	return rec
}

// SeedTask inserts an open task for userID and returns it.
func SeedTask(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID) domain.Task {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	task := domain.Task{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     "Test task " + uniqueSuffix(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO tasks (id, user_id, title, is_completed, created_at, updated_at)
		 VALUES ($1, $2, $3, false, $4, $5)`,
		task.ID, task.UserID, task.Title, task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedTask insert: %v", err)
	}

	return task
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("testhelper: marshal: %v", err)
	}
	return b
}
