package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")

	// ErrUnknownHandler means a record names an undo handler that is not
	// registered in the running process. Not retryable.
	ErrUnknownHandler = errors.New("unknown undo handler")

	// ErrHandlerFailed is wrapped by every HandlerError.
	ErrHandlerFailed = errors.New("undo handler failed")

	// ErrStorage marks a durable-store failure. Operations fail closed.
	ErrStorage = errors.New("storage unavailable")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s — %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// HandlerError reports that a registered undo/redo function refused or failed
// to apply. The record it was invoked for keeps its previous status.
type HandlerError struct {
	Handler  string
	Op       ToggleOp
	RecordID int64
	Err      error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handler %q for record %d: %v", e.Op, e.Handler, e.RecordID, e.Err)
}

// Unwrap exposes both ErrHandlerFailed and the handler's own error to errors.Is/As.
func (e *HandlerError) Unwrap() []error { return []error{ErrHandlerFailed, e.Err} }

// Reason returns the handler's explanation without the wrapping context.
func (e *HandlerError) Reason() string {
	if e.Err == nil {
		return "handler failed"
	}
	return e.Err.Error()
}
