package dashboard

import (
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/taskforge-hq/taskforge/internal/platform/httpx"
	"github.com/taskforge-hq/taskforge/internal/rbac"
	"github.com/taskforge-hq/taskforge/internal/shared"
)

// Handler exposes dashboard endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	guard   rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.guard.RequirePermission(shared.PermViewDashboard))
	r.Get("/user", h.handleUser)
	r.Get("/admin", h.handleAdmin)
}

func (h *Handler) handleUser(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	board, err := h.service.ForUser(r.Context(), principal)
	if err != nil {
		h.logger.Error("user dashboard failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}

func (h *Handler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	board, err := h.service.ForAdmin(r.Context())
	if err != nil {
		h.logger.Error("admin dashboard failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, board)
}
