package projects

import (
	"context"
	"fmt"

	"github.com/taskforge-hq/taskforge/internal/rbac"
	"github.com/taskforge-hq/taskforge/internal/shared"
)

// RepositoryPort defines data access methods for projects.
type RepositoryPort interface {
	Create(ctx context.Context, title, description string, visibility Visibility) (Project, error)
	GetByID(ctx context.Context, id int64) (Project, error)
	List(ctx context.Context, tiers []Visibility) ([]Project, error)
}

// VisibilityResolver maps a principal to its project visibility scope.
type VisibilityResolver interface {
	VisibilityFor(ctx context.Context, userID int64) (rbac.Scope, error)
}

// Service handles project business logic.
type Service struct {
	repo       RepositoryPort
	visibility VisibilityResolver
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, visibility VisibilityResolver) *Service {
	return &Service{repo: repo, visibility: visibility}
}

// Create inserts a project after validating the visibility tier.
func (s *Service) Create(ctx context.Context, title, description, visibility string) (Project, error) {
	if title == "" {
		return Project{}, fmt.Errorf("%w: title required", shared.ErrValidation)
	}
	tier, err := ParseVisibility(visibility)
	if err != nil {
		return Project{}, err
	}
	return s.repo.Create(ctx, title, description, tier)
}

// ListFor returns the projects visible to the principal. A principal with no
// recognized role gets shared.ErrNoAccess from the resolver; that is an
// authorization failure for the whole listing, not an empty result.
func (s *Service) ListFor(ctx context.Context, principal *shared.Principal) ([]Project, error) {
	if principal == nil {
		return nil, shared.ErrUnauthenticated
	}
	scope, err := s.visibility.VisibilityFor(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, TiersForScope(scope))
}

// VisibleTo reports whether the principal's scope accepts the project's tier,
// returning shared.ErrNotFound for unknown projects and shared.ErrNoAccess
// for projects outside the scope. Task creation goes through this gate; users
// can only attach tasks to projects they can see.
func (s *Service) VisibleTo(ctx context.Context, principal *shared.Principal, projectID int64) (Project, error) {
	if principal == nil {
		return Project{}, shared.ErrUnauthenticated
	}
	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return Project{}, err
	}
	scope, err := s.visibility.VisibilityFor(ctx, principal.ID)
	if err != nil {
		return Project{}, err
	}
	tiers := TiersForScope(scope)
	if tiers == nil {
		return project, nil
	}
	for _, tier := range tiers {
		if tier == project.Visibility {
			return project, nil
		}
	}
	return Project{}, shared.ErrNoAccess
}
