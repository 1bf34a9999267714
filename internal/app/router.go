package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/quotedesk/quotedesk/internal/activity"
	"github.com/quotedesk/quotedesk/internal/auth"
	quotehttp "github.com/quotedesk/quotedesk/internal/quote/http"
	"github.com/quotedesk/quotedesk/internal/shared"
	"github.com/quotedesk/quotedesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	AuthHandler     *auth.Handler
	AuthMiddleware  auth.Middleware
	QuoteHandler    *quotehttp.Handler
	ActivityHandler *activity.Handler
	JobHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router with QuoteDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r, params.AuthMiddleware)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireUser)
			params.QuoteHandler.MountRoutes(r)
			if params.ActivityHandler != nil {
				params.ActivityHandler.MountRoutes(r)
			}
			if params.JobHandler != nil {
				r.Route("/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}
