package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/quotedesk/quotedesk/internal/auth"
	"github.com/quotedesk/quotedesk/internal/observability"
	"github.com/quotedesk/quotedesk/internal/quotes"
	"github.com/quotedesk/quotedesk/internal/settings"
	"github.com/quotedesk/quotedesk/internal/shared"
	"github.com/quotedesk/quotedesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	SessionManager  *shared.SessionManager
	CSRFManager     *shared.CSRFManager
	AuthHandler     *auth.Handler
	QuotesHandler   *quotes.Handler
	SettingsHandler *settings.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with quotedesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/quotes", params.QuotesHandler.MountRoutes)
	r.Route("/public", params.QuotesHandler.MountPublic)
	r.Route("/admin/settings", func(r chi.Router) {
		r.Use(auth.RequireOperator, auth.VerifyCSRF(params.CSRFManager, params.Logger))
		params.SettingsHandler.MountRoutes(r)
	})
	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			r.Use(auth.RequireOperator)
			params.JobHandler.MountRoutes(r)
		})
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
