package app

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taskforge-hq/taskforge/internal/auth"
	"github.com/taskforge-hq/taskforge/internal/dashboard"
	"github.com/taskforge-hq/taskforge/internal/observability"
	"github.com/taskforge-hq/taskforge/internal/projects"
	"github.com/taskforge-hq/taskforge/internal/tasks"
	"github.com/taskforge-hq/taskforge/internal/users"
	"github.com/taskforge-hq/taskforge/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AuthHandler      *auth.Handler
	ProjectsHandler  *projects.Handler
	TasksHandler     *tasks.Handler
	DashboardHandler *dashboard.Handler
	UsersHandler     *users.Handler
	JobHandler       *jobs.Handler

	AuthMiddleware auth.Middleware
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
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

	// Everything below requires a bearer token.
	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequirePrincipal)
		r.Route("/projects", params.ProjectsHandler.MountRoutes)
		r.Route("/tasks", params.TasksHandler.MountRoutes)
		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
