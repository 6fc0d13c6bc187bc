package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/undojournal/internal/transport/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Health  *HealthHandler
	Journal *JournalHandler
	Tasks   *TaskHandler
	Admin   *AdminHandler
}

// NewRouter registers all routes. global wraps every route (see
// middleware.Standard); limiter guards undo and redo only.
func NewRouter(h Handlers, limiter *middleware.RateLimiter, global middleware.Middleware) http.Handler {
	r := chi.NewRouter()

	if global != nil {
		r.Use(global)
	}

	r.Get("/live", h.Health.Live)
	r.Get("/ready", h.Health.Ready)
	r.Get("/health", h.Health.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/history", h.Journal.History)

		r.Group(func(r chi.Router) {
			r.Use(limiter.Limit)
			r.Post("/undo", h.Journal.Undo)
			r.Post("/redo", h.Journal.Redo)
		})

		r.Get("/tasks", h.Tasks.List)
		r.Post("/tasks", h.Tasks.Create)
		r.Post("/tasks/{id}/complete", h.Tasks.Complete)
		r.Delete("/tasks/{id}", h.Tasks.Delete)
	})

	r.With(middleware.RequireAdmin).Post("/admin/sweep", h.Admin.Sweep)

	return r
}
