package journal

import "github.com/heartmarshall/undojournal/internal/domain"

// ToggleResult describes a successful undo or redo.
type ToggleResult struct {
	RecordID    int64
	ActionType  string
	Description string
	// Result is whatever the handler returned; it may be nil.
	Result domain.Payload
	Record *domain.UndoRecord
}
