package tasks

import (
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/taskforge-hq/taskforge/internal/platform/httpx"
	"github.com/taskforge-hq/taskforge/internal/rbac"
	"github.com/taskforge-hq/taskforge/internal/shared"
)

// Handler wires HTTP endpoints for tasks and reviews.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		guard:     guard,
		validator: validator.New(),
	}
}

// MountRoutes registers task routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.RequirePermission(shared.PermCreateTask)).Post("/", h.handleCreate)
	r.Get("/my-tasks", h.handleMyTasks)
	r.Patch("/{id}/status", h.handleSetStatus)
	r.With(h.guard.RequirePermission(shared.PermReviewTask)).Post("/review", h.handleReview)
	r.Get("/reviews", h.handleListReviews)
}

type createRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	AssignedTo  int64  `json:"assignedTo" validate:"required"`
	ProjectID   int64  `json:"projectId" validate:"required"`
}

type taskResponse struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"projectId"`
	AssignedTo  int64     `json:"assignedTo"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toTaskResponse(t Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		AssignedTo:  t.AssignedTo,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	principal := shared.PrincipalFromContext(r.Context())
	task, err := h.service.Create(r.Context(), principal, req.ProjectID, req.AssignedTo, req.Title, req.Description)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTaskResponse(task))
}

func (h *Handler) handleMyTasks(w http.ResponseWriter, r *http.Request) {
	principal := shared.PrincipalFromContext(r.Context())
	list, err := h.service.ListMine(r.Context(), principal)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result := make([]taskResponse, 0, len(list))
	for _, task := range list {
		result = append(result, toTaskResponse(task))
	}
	httpx.JSON(w, http.StatusOK, result)
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid task id")
		return
	}
	var req setStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	principal := shared.PrincipalFromContext(r.Context())
	task, err := h.service.SetStatus(r.Context(), principal, taskID, req.Status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTaskResponse(task))
}

type reviewRequest struct {
	TaskID   int64  `json:"taskId" validate:"required"`
	Grade    string `json:"grade" validate:"required"`
	Comments string `json:"comments"`
}

type reviewResponse struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"taskId"`
	Grade     string    `json:"grade"`
	Comments  string    `json:"comments,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	review, err := h.service.Review(r.Context(), req.TaskID, req.Grade, req.Comments)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, reviewResponse{
		ID:        review.ID,
		TaskID:    review.TaskID,
		Grade:     string(review.Grade),
		Comments:  review.Comments,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	})
}

type reviewDetailResponse struct {
	reviewResponse
	TaskTitle     string `json:"taskTitle"`
	AssigneeName  string `json:"assigneeName"`
	AssigneeEmail string `json:"assigneeEmail"`
}

func (h *Handler) handleListReviews(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListReviews(r.Context())
	if err != nil {
		if h.logger != nil {
			h.logger.Error("list reviews", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	result := make([]reviewDetailResponse, 0, len(list))
	for _, detail := range list {
		result = append(result, reviewDetailResponse{
			reviewResponse: reviewResponse{
				ID:        detail.ID,
				TaskID:    detail.TaskID,
				Grade:     string(detail.Grade),
				Comments:  detail.Comments,
				CreatedAt: detail.CreatedAt,
				UpdatedAt: detail.UpdatedAt,
			},
			TaskTitle:     detail.TaskTitle,
			AssigneeName:  detail.AssigneeName,
			AssigneeEmail: detail.AssigneeEmail,
		})
	}
	httpx.JSON(w, http.StatusOK, result)
}
