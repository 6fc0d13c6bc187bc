package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Payload is an opaque structured document stored as JSONB. The journal never
// interprets it; only the handler that receives it does.
type Payload map[string]any

// NewPayload converts any JSON-serialisable value into a Payload.
func NewPayload(v any) (Payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	p := Payload{}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	return p, nil
}

// Decode fills v from the payload using JSON field names.
func (p Payload) Decode(v any) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// ToggleOp names the direction of a status flip.
type ToggleOp string

const (
	OpUndo ToggleOp = "undo"
	OpRedo ToggleOp = "redo"
)

func (o ToggleOp) String() string { return string(o) }

// TargetUndone reports the is_undone value a record must have to be eligible
// for this operation.
func (o ToggleOp) TargetUndone() bool { return o == OpRedo }

// UndoRecord is one journal entry: a reversible action plus the data needed
// to reverse and re-apply it.
type UndoRecord struct {
	ID          int64
	UserID      uuid.UUID
	ActionType  string
	ActionData  Payload
	UndoHandler string
	UndoData    Payload
	Description string
	Metadata    Payload
	IsUndone    bool
	CreatedAt   time.Time
	UndoneAt    *time.Time
	RedoneAt    *time.Time
}

// EligibleFor reports whether the record can be the target of op.
func (r *UndoRecord) EligibleFor(op ToggleOp) bool {
	return r.IsUndone == op.TargetUndone()
}

// ExpiredAt reports whether the record falls outside the retention window
// that ends at cutoff.
func (r *UndoRecord) ExpiredAt(cutoff time.Time) bool {
	return r.CreatedAt.Before(cutoff)
}

// MoreRecentThan orders records by created_at DESC, then id DESC.
func (r *UndoRecord) MoreRecentThan(o *UndoRecord) bool {
	if !r.CreatedAt.Equal(o.CreatedAt) {
		return r.CreatedAt.After(o.CreatedAt)
	}
	return r.ID > o.ID
}

// RecordRef identifies a record that was removed by retention.
type RecordRef struct {
	ID     int64
	UserID uuid.UUID
}

// HistoryFilter narrows a history listing. A zero Since means no lower bound.
type HistoryFilter struct {
	Limit      int
	ActionType *string
	Since      time.Time
}
