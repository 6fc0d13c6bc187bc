package rest

import (
	"context"
	"log/slog"
	"net/http"
)

type sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// AdminHandler serves operator endpoints. Callers must pass RequireAdmin.
type AdminHandler struct {
	sweeper sweeper
	log     *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(sweeper sweeper, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		sweeper: sweeper,
		log:     logger.With("handler", "admin"),
	}
}

type sweepResponse struct {
	Deleted int64 `json:"deleted"`
}

// Sweep runs one retention pass.
// POST /admin/sweep
func (h *AdminHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.sweeper.SweepExpired(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	h.log.InfoContext(r.Context(), "manual sweep finished", slog.Int64("deleted", deleted))
	writeJSON(w, http.StatusOK, sweepResponse{Deleted: deleted})
}
