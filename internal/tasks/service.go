package tasks

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/taskforge-hq/taskforge/internal/projects"
	"github.com/taskforge-hq/taskforge/internal/shared"
)

// RepositoryPort defines data access methods for tasks and reviews.
type RepositoryPort interface {
	Create(ctx context.Context, projectID, assignedTo int64, title, description string) (Task, error)
	GetByID(ctx context.Context, id int64) (Task, error)
	ListByAssignee(ctx context.Context, userID int64) ([]Task, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (Task, error)
	UpsertReview(ctx context.Context, taskID int64, grade Grade, comments string) (Review, error)
	ListReviews(ctx context.Context) ([]ReviewDetail, error)
}

// ProjectGate confirms the parent project exists and is visible to the
// principal attaching a task to it.
type ProjectGate interface {
	VisibleTo(ctx context.Context, principal *shared.Principal, projectID int64) (projects.Project, error)
}

// RoleChecker answers role membership questions through the same role
// resolution the authorization evaluator uses.
type RoleChecker interface {
	HasRole(ctx context.Context, userID int64, roleName string) (bool, error)
}

// Auditor records domain events into the audit trail.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service enforces task lifecycle and review rules.
type Service struct {
	repo     RepositoryPort
	projects ProjectGate
	roles    RoleChecker
	audit    Auditor
}

// NewService builds a Service instance. The auditor may be nil.
func NewService(repo RepositoryPort, projects ProjectGate, roles RoleChecker, audit Auditor) *Service {
	return &Service{repo: repo, projects: projects, roles: roles, audit: audit}
}

// Create inserts a task in PENDING state. The parent project must exist and
// be within the creator's visibility scope; a project outside that scope is an
// authorization failure, not a missing project.
func (s *Service) Create(ctx context.Context, principal *shared.Principal, projectID, assignedTo int64, title, description string) (Task, error) {
	if title == "" {
		return Task{}, fmt.Errorf("%w: title required", shared.ErrValidation)
	}
	if _, err := s.projects.VisibleTo(ctx, principal, projectID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Task{}, fmt.Errorf("%w: project not found", shared.ErrNotFound)
		}
		return Task{}, err
	}
	return s.repo.Create(ctx, projectID, assignedTo, title, description)
}

// ListMine returns the principal's assigned tasks.
func (s *Service) ListMine(ctx context.Context, principal *shared.Principal) ([]Task, error) {
	if principal == nil {
		return nil, shared.ErrUnauthenticated
	}
	return s.repo.ListByAssignee(ctx, principal.ID)
}

// SetStatus transitions a task between PENDING and COMPLETED. Only the
// assignee or an Admin may do so; any value in the status set is reachable at
// any time, including reverting COMPLETED back to PENDING.
func (s *Service) SetStatus(ctx context.Context, principal *shared.Principal, taskID int64, rawStatus string) (Task, error) {
	if principal == nil {
		return Task{}, shared.ErrUnauthenticated
	}
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return Task{}, err
	}

	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Task{}, fmt.Errorf("%w: task not found", shared.ErrNotFound)
		}
		return Task{}, err
	}

	if task.AssignedTo != principal.ID {
		isAdmin, err := s.roles.HasRole(ctx, principal.ID, shared.RoleAdmin)
		if err != nil {
			// Role resolution failure denies by propagating, never by
			// falling through to the update.
			return Task{}, err
		}
		if !isAdmin {
			return Task{}, fmt.Errorf("%w: not authorized to update this task", shared.ErrForbidden)
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, taskID, status)
	if err != nil {
		return Task{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  principal.ID,
			Action:   "task.status",
			Entity:   "task",
			EntityID: strconv.FormatInt(taskID, 10),
			Meta:     map[string]any{"status": string(status)},
		})
	}
	return updated, nil
}

// Review upserts the review for a completed task. Submitting twice for the
// same task replaces the previous grade and comments; there is never more
// than one review per task.
func (s *Service) Review(ctx context.Context, taskID int64, rawGrade, comments string) (Review, error) {
	grade, err := ParseGrade(rawGrade)
	if err != nil {
		return Review{}, err
	}

	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Review{}, fmt.Errorf("%w: task not found", shared.ErrNotFound)
		}
		return Review{}, err
	}
	if task.Status != StatusCompleted {
		return Review{}, fmt.Errorf("%w: task must be completed before review", shared.ErrValidation)
	}

	review, err := s.repo.UpsertReview(ctx, taskID, grade, comments)
	if err != nil {
		return Review{}, err
	}
	if s.audit != nil {
		if principal := shared.PrincipalFromContext(ctx); principal != nil {
			_ = s.audit.Record(ctx, shared.AuditLog{
				ActorID:  principal.ID,
				Action:   "task.review",
				Entity:   "task",
				EntityID: strconv.FormatInt(taskID, 10),
				Meta:     map[string]any{"grade": string(grade)},
			})
		}
	}
	return review, nil
}

// ListReviews returns all reviews with task and assignee context.
func (s *Service) ListReviews(ctx context.Context) ([]ReviewDetail, error) {
	return s.repo.ListReviews(ctx)
}
