package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/heartmarshall/undojournal/internal/domain"
	"github.com/heartmarshall/undojournal/internal/service/journal"
)

type journalService interface {
	ListHistory(ctx context.Context, input journal.HistoryInput) ([]*domain.UndoRecord, error)
	Undo(ctx context.Context, input journal.ToggleInput) (*journal.ToggleResult, error)
	Redo(ctx context.Context, input journal.ToggleInput) (*journal.ToggleResult, error)
}

// JournalHandler serves history, undo and redo for the calling user.
type JournalHandler struct {
	svc journalService
	log *slog.Logger
}

// NewJournalHandler creates a JournalHandler.
func NewJournalHandler(svc journalService, logger *slog.Logger) *JournalHandler {
	return &JournalHandler{svc: svc, log: logger.With("handler", "journal")}
}

type toggleRequest struct {
	ActionID *int64 `json:"actionId"`
}

type recordResponse struct {
	ID          int64          `json:"id"`
	ActionType  string         `json:"actionType"`
	Description string         `json:"description"`
	IsUndone    bool           `json:"isUndone"`
	Metadata    domain.Payload `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UndoneAt    *time.Time     `json:"undoneAt,omitempty"`
	RedoneAt    *time.Time     `json:"redoneAt,omitempty"`
}

type toggleResponse struct {
	ActionID    int64          `json:"actionId"`
	ActionType  string         `json:"actionType"`
	Description string         `json:"description"`
	IsUndone    bool           `json:"isUndone"`
	Result      domain.Payload `json:"result,omitempty"`
}

// History handles GET /api/v1/history?limit=&action_type=.
func (h *JournalHandler) History(w http.ResponseWriter, r *http.Request) {
	var input journal.HistoryInput

	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			handleError(h.log, w, r, domain.NewValidationError("limit", "must be an integer"))
			return
		}
		input.Limit = limit
	}
	if q.Has("action_type") {
		actionType := q.Get("action_type")
		input.ActionType = &actionType
	}

	records, err := h.svc.ListHistory(r.Context(), input)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toRecordResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Undo handles POST /api/v1/undo.
func (h *JournalHandler) Undo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.Undo)
}

// Redo handles POST /api/v1/redo.
func (h *JournalHandler) Redo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.svc.Redo)
}

func (h *JournalHandler) toggle(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, journal.ToggleInput) (*journal.ToggleResult, error),
) {
	var req toggleRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := op(r.Context(), journal.ToggleInput{ActionID: req.ActionID})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := toggleResponse{
		ActionID:    result.RecordID,
		ActionType:  result.ActionType,
		Description: result.Description,
		Result:      result.Result,
	}
	if result.Record != nil {
		resp.IsUndone = result.Record.IsUndone
	}
	writeJSON(w, http.StatusOK, resp)
}

func toRecordResponse(rec *domain.UndoRecord) recordResponse {
	return recordResponse{
		ID:          rec.ID,
		ActionType:  rec.ActionType,
		Description: rec.Description,
		IsUndone:    rec.IsUndone,
		Metadata:    rec.Metadata,
		CreatedAt:   rec.CreatedAt,
		UndoneAt:    rec.UndoneAt,
		RedoneAt:    rec.RedoneAt,
	}
}
