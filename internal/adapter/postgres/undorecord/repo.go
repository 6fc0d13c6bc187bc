// Package undorecord implements the undo journal record store using PostgreSQL.
// Writes are append-only apart from the status flip; rows are removed only by
// the retention sweep.
package undorecord

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/undojournal/internal/adapter/postgres"
	"github.com/heartmarshall/undojournal/internal/domain"
)

const entity = "undo_record"

// Repo provides undo record persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new undo record repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const recordColumns = `id, user_id, action_type, action_data, undo_handler, undo_data,
description, metadata, is_undone, created_at, undone_at, redone_at`

const createSQL = `
INSERT INTO undo_records (user_id, action_type, action_data, undo_handler, undo_data,
                          description, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + recordColumns

const getByIDForUpdateSQL = `
SELECT ` + recordColumns + `
FROM undo_records
WHERE id = $1 AND user_id = $2
FOR UPDATE`

const getLatestForUpdateSQL = `
SELECT ` + recordColumns + `
FROM undo_records
WHERE user_id = $1 AND is_undone = $2 AND created_at >= $3
ORDER BY created_at DESC, id DESC
LIMIT 1
FOR UPDATE`

// hasNewerSQL compares (created_at, id) as a row so the
// (user_id, created_at DESC, id DESC) index serves it.
const hasNewerSQL = `
SELECT EXISTS (
    SELECT 1 FROM undo_records
    WHERE user_id = $1 AND is_undone = $2 AND (created_at, id) > ($3, $4)
)`

// setUndoneSQL flips the status only when the row is still in the opposite
// state, so a lost race updates nothing.
const setUndoneSQL = `
UPDATE undo_records
SET is_undone = $3::boolean,
    undone_at = CASE WHEN $3::boolean THEN $4::timestamptz ELSE NULL END,
    redone_at = CASE WHEN $3::boolean THEN redone_at ELSE $4::timestamptz END
WHERE id = $1 AND user_id = $2 AND is_undone = NOT $3::boolean
RETURNING ` + recordColumns

const deleteCreatedBeforeSQL = `
DELETE FROM undo_records
WHERE id IN (
    SELECT id FROM undo_records
    WHERE created_at < $1
    ORDER BY created_at
    LIMIT $2
    FOR UPDATE SKIP LOCKED
)
RETURNING id, user_id`

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts a new record and returns it with the generated ID.
// Joins the transaction carried by ctx when there is one.
func (r *Repo) Create(ctx context.Context, rec *domain.UndoRecord) (*domain.UndoRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	actionData, err := marshalPayload(rec.ActionData)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal action_data: %w", entity, err)
	}
	undoData, err := marshalPayload(rec.UndoData)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal undo_data: %w", entity, err)
	}
	var metadata []byte
	if rec.Metadata != nil {
		if metadata, err = json.Marshal(rec.Metadata); err != nil {
			return nil, fmt.Errorf("%s: marshal metadata: %w", entity, err)
		}
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	row := querier.QueryRow(ctx, createSQL,
		rec.UserID,
		rec.ActionType,
		actionData,
		rec.UndoHandler,
		undoData,
		rec.Description,
		metadata,
		createdAt.UTC().Truncate(time.Microsecond),
	)

	created, err := scanRecord(row)
	if err != nil {
		return nil, postgres.MapError(err, entity, rec.UserID)
	}

	return created, nil
}

// SetUndone sets is_undone to undone for a record currently in the opposite
// state. Undo stamps undone_at; redo clears it and stamps redone_at.
// Returns domain.ErrNotFound if the record does not exist, belongs to another
// user, or is already in the requested state.
func (r *Repo) SetUndone(ctx context.Context, userID uuid.UUID, id int64, undone bool, at time.Time) (*domain.UndoRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	row := querier.QueryRow(ctx, setUndoneSQL, id, userID, undone, at.UTC().Truncate(time.Microsecond))

	updated, err := scanRecord(row)
	if err != nil {
		return nil, postgres.MapError(err, entity, id)
	}

	return updated, nil
}

// DeleteCreatedBefore removes up to limit records created before threshold,
// oldest first, regardless of status, and reports what was removed.
// Rows locked by an in-flight undo or redo are skipped and picked up by a
// later run.
func (r *Repo) DeleteCreatedBefore(ctx context.Context, threshold time.Time, limit int) ([]domain.RecordRef, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := querier.Query(ctx, deleteCreatedBeforeSQL, threshold.UTC(), limit)
	if err != nil {
		return nil, postgres.MapError(err, entity, "expired")
	}

	refs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RecordRef, error) {
		var ref domain.RecordRef
		err := row.Scan(&ref.ID, &ref.UserID)
		return ref, err
	})
	if err != nil {
		return nil, postgres.MapError(err, entity, "expired")
	}

	return refs, nil
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByIDForUpdate returns a record owned by userID and row-locks it until the
// surrounding transaction ends.
// Returns domain.ErrNotFound if the record does not exist or belongs to another user.
func (r *Repo) GetByIDForUpdate(ctx context.Context, userID uuid.UUID, id int64) (*domain.UndoRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rec, err := scanRecord(querier.QueryRow(ctx, getByIDForUpdateSQL, id, userID))
	if err != nil {
		return nil, postgres.MapError(err, entity, id)
	}

	return rec, nil
}

// GetLatestForUpdate returns the user's most recent record with the given
// is_undone value (created_at DESC, id DESC) created at or after notBefore,
// and row-locks it. Returns domain.ErrNotFound if there is none.
func (r *Repo) GetLatestForUpdate(ctx context.Context, userID uuid.UUID, undone bool, notBefore time.Time) (*domain.UndoRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	rec, err := scanRecord(querier.QueryRow(ctx, getLatestForUpdateSQL, userID, undone, notBefore.UTC()))
	if err != nil {
		return nil, postgres.MapError(err, entity, userID)
	}

	return rec, nil
}

// HasNewer reports whether the user has a record with the given is_undone
// value ordered after rec (created_at, then id).
func (r *Repo) HasNewer(ctx context.Context, userID uuid.UUID, undone bool, rec *domain.UndoRecord) (bool, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	err := querier.QueryRow(ctx, hasNewerSQL, userID, undone, rec.CreatedAt.UTC(), rec.ID).Scan(&exists)
	if err != nil {
		return false, postgres.MapError(err, entity, userID)
	}

	return exists, nil
}

// ListByUser returns the user's records, most recent first.
// A non-positive filter.Limit returns every record.
func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.HistoryFilter) ([]*domain.UndoRecord, error) {
	querier := postgres.QuerierFromCtx(ctx, r.pool)

	query := sq.Select(recordColumns).
		From("undo_records").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.ActionType != nil {
		query = query.Where(sq.Eq{"action_type": *filter.ActionType})
	}
	if !filter.Since.IsZero() {
		query = query.Where(sq.GtOrEq{"created_at": filter.Since.UTC()})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build list query: %w", entity, err)
	}

	rows, err := querier.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, entity, userID)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, postgres.MapError(err, entity, userID)
	}

	return records, nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanRecord(row pgx.Row) (*domain.UndoRecord, error) {
	var (
		rec                            domain.UndoRecord
		actionData, undoData, metadata []byte
	)

	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.ActionType, &actionData, &rec.UndoHandler, &undoData,
		&rec.Description, &metadata, &rec.IsUndone, &rec.CreatedAt, &rec.UndoneAt, &rec.RedoneAt,
	)
	if err != nil {
		return nil, err
	}

	if rec.ActionData, err = unmarshalPayload(actionData); err != nil {
		return nil, fmt.Errorf("%s %d: action_data: %w", entity, rec.ID, err)
	}
	if rec.UndoData, err = unmarshalPayload(undoData); err != nil {
		return nil, fmt.Errorf("%s %d: undo_data: %w", entity, rec.ID, err)
	}
	if metadata != nil {
		if rec.Metadata, err = unmarshalPayload(metadata); err != nil {
			return nil, fmt.Errorf("%s %d: metadata: %w", entity, rec.ID, err)
		}
	}

	return &rec, nil
}

func scanRecords(rows pgx.Rows) ([]*domain.UndoRecord, error) {
	records := []*domain.UndoRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// ---------------------------------------------------------------------------
// JSONB helpers
// ---------------------------------------------------------------------------

// marshalPayload stores a nil payload as an empty object to satisfy NOT NULL.
func marshalPayload(p domain.Payload) ([]byte, error) {
	if p == nil {
		return []byte(`{}`), nil
	}
	return json.Marshal(p)
}

func unmarshalPayload(raw []byte) (domain.Payload, error) {
	p := domain.Payload{}
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}
