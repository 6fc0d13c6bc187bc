package journal

import (
	"strings"

	"github.com/heartmarshall/undojournal/internal/domain"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// RecordInput holds the parameters for recording a reversible action.
type RecordInput struct {
	ActionType  string
	ActionData  domain.Payload
	UndoHandler string
	UndoData    domain.Payload
	Description string
	Metadata    domain.Payload
}

// Validate checks all fields and collects all errors.
// Whether UndoHandler is registered is checked by RecordAction.
func (i RecordInput) Validate() error {
	var errs []domain.FieldError

	actionType := strings.TrimSpace(i.ActionType)
	if actionType == "" {
		errs = append(errs, domain.FieldError{Field: "action_type", Message: "required"})
	}
	if len(actionType) > 100 {
		errs = append(errs, domain.FieldError{Field: "action_type", Message: "max 100 characters"})
	}

	if strings.TrimSpace(i.UndoHandler) == "" {
		errs = append(errs, domain.FieldError{Field: "undo_handler", Message: "required"})
	}

	description := strings.TrimSpace(i.Description)
	if description == "" {
		errs = append(errs, domain.FieldError{Field: "description", Message: "required"})
	}
	if len(description) > 500 {
		errs = append(errs, domain.FieldError{Field: "description", Message: "max 500 characters"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// ToggleInput selects the target of an undo or redo. A nil ActionID means
// the most recent eligible record.
type ToggleInput struct {
	ActionID *int64
}

// Validate checks all fields and collects all errors.
func (i ToggleInput) Validate() error {
	if i.ActionID != nil && *i.ActionID <= 0 {
		return domain.NewValidationError("action_id", "must be positive")
	}
	return nil
}

// HistoryInput holds the parameters for listing a user's journal.
type HistoryInput struct {
	Limit      int
	ActionType *string
}

// Validate checks all fields and collects all errors.
func (i HistoryInput) Validate() error {
	var errs []domain.FieldError
	if i.Limit < 0 {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must be non-negative"})
	}
	if i.Limit > MaxHistoryLimit {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "max 100"})
	}
	if i.ActionType != nil && strings.TrimSpace(*i.ActionType) == "" {
		errs = append(errs, domain.FieldError{Field: "action_type", Message: "must not be blank"})
	}
	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}
