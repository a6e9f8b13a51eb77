package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-campus/meridian-campus/internal/auth"
	"github.com/meridian-campus/meridian-campus/internal/dashboard"
	"github.com/meridian-campus/meridian-campus/internal/genqueue"
	"github.com/meridian-campus/meridian-campus/internal/observability"
	"github.com/meridian-campus/meridian-campus/internal/perspective"
	"github.com/meridian-campus/meridian-campus/internal/rbac"
	"github.com/meridian-campus/meridian-campus/internal/shared"
	"github.com/meridian-campus/meridian-campus/internal/users"
	"github.com/meridian-campus/meridian-campus/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	RBACHandler        *rbac.Handler
	PerspectiveHandler *perspective.Handler
	DashboardHandler   *dashboard.Handler
	GenQueueHandler    *genqueue.Handler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router for the portal API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
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
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.RBACHandler != nil {
		r.Route("/rbac", params.RBACHandler.MountRoutes)
	}
	if params.PerspectiveHandler != nil {
		r.Route("/perspective", params.PerspectiveHandler.MountRoutes)
	}
	if params.DashboardHandler != nil {
		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	}
	if params.GenQueueHandler != nil {
		r.Route("/genqueue", params.GenQueueHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
