package rbac

import (
	"context"
	"fmt"
	"sort"

	"github.com/taskforge-hq/taskforge/internal/shared"
)

// RoleResolver resolves a principal's role assignments.
type RoleResolver interface {
	AssignedRoles(ctx context.Context, userID int64) ([]RoleGrant, error)
}

// PermissionResolver resolves the permissions granted to a role.
type PermissionResolver interface {
	RolePermissions(ctx context.Context, roleID int64) ([]PermissionGrant, error)
}

// Service evaluates authorization decisions against the role/permission graph.
// It owns no state; every call is a fresh read-then-decide sequence against
// the resolvers.
type Service struct {
	roles RoleResolver
	perms PermissionResolver
	diag  Diagnostics
}

// NewService constructs a Service. A nil diagnostics observer is replaced with
// a no-op implementation.
func NewService(roles RoleResolver, perms PermissionResolver, diag Diagnostics) *Service {
	if diag == nil {
		diag = NopDiagnostics{}
	}
	return &Service{roles: roles, perms: perms, diag: diag}
}

// Authorize decides whether the user holds the named permission through any of
// its roles. Evaluation is a set union over the role set; order is irrelevant.
// Any resolver failure propagates as an error and must be treated as DENY by
// callers (fail-closed), never as ALLOW.
func (s *Service) Authorize(ctx context.Context, userID int64, permission string) (Decision, error) {
	grants, err := s.roles.AssignedRoles(ctx, userID)
	if err != nil {
		return Decision{}, fmt.Errorf("rbac: resolve roles for user %d: %w", userID, err)
	}
	if len(grants) == 0 {
		s.diag.MissingRoles(ctx, userID)
		return Decision{Allowed: false, Reason: DenyNoRoles}, nil
	}

	for _, grant := range grants {
		if grant.Role == nil {
			s.diag.DanglingRole(ctx, userID, grant.RoleID)
			continue
		}
		perms, err := s.perms.RolePermissions(ctx, grant.RoleID)
		if err != nil {
			return Decision{}, fmt.Errorf("rbac: resolve permissions for role %d: %w", grant.RoleID, err)
		}
		for _, pg := range perms {
			if pg.Permission == nil {
				s.diag.DanglingPermission(ctx, grant.RoleID, pg.PermissionID)
				continue
			}
			if pg.Permission.Name == permission {
				return Decision{Allowed: true}, nil
			}
		}
	}

	s.diag.PermissionDenied(ctx, userID, permission)
	return Decision{Allowed: false, Reason: DenyNotGranted}, nil
}

// EffectivePermissions returns the deduplicated, sorted union of permission
// names across the user's roles, skipping dangling edges.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	grants, err := s.roles.AssignedRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: resolve roles for user %d: %w", userID, err)
	}
	seen := make(map[string]struct{})
	for _, grant := range grants {
		if grant.Role == nil {
			s.diag.DanglingRole(ctx, userID, grant.RoleID)
			continue
		}
		perms, err := s.perms.RolePermissions(ctx, grant.RoleID)
		if err != nil {
			return nil, fmt.Errorf("rbac: resolve permissions for role %d: %w", grant.RoleID, err)
		}
		for _, pg := range perms {
			if pg.Permission == nil {
				s.diag.DanglingPermission(ctx, grant.RoleID, pg.PermissionID)
				continue
			}
			seen[pg.Permission.Name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// RoleNames returns the names of the user's resolvable roles.
func (s *Service) RoleNames(ctx context.Context, userID int64) ([]string, error) {
	grants, err := s.roles.AssignedRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: resolve roles for user %d: %w", userID, err)
	}
	names := make([]string, 0, len(grants))
	for _, grant := range grants {
		if grant.Role == nil {
			s.diag.DanglingRole(ctx, userID, grant.RoleID)
			continue
		}
		names = append(names, grant.Role.Name)
	}
	return names, nil
}

// HasRole reports whether the user holds the named role.
func (s *Service) HasRole(ctx context.Context, userID int64, roleName string) (bool, error) {
	names, err := s.RoleNames(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, name := range names {
		if name == roleName {
			return true, nil
		}
	}
	return false, nil
}

// VisibilityFor maps the user's role set to a project visibility scope. Rules
// are checked most-privileged-first and the first match wins, so a principal
// holding both Employee and Intern gets the broader Employee view. A principal
// with no recognized role gets shared.ErrNoAccess, which is an authorization
// failure distinct from an empty listing.
func (s *Service) VisibilityFor(ctx context.Context, userID int64) (Scope, error) {
	names, err := s.RoleNames(ctx, userID)
	if err != nil {
		return 0, err
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	switch {
	case has(set, shared.RoleAdmin):
		return ScopeAll, nil
	case has(set, shared.RoleEmployee):
		return ScopeEmployee, nil
	case has(set, shared.RoleIntern):
		return ScopeIntern, nil
	}
	return 0, shared.ErrNoAccess
}

func has(set map[string]struct{}, name string) bool {
	_, ok := set[name]
	return ok
}
