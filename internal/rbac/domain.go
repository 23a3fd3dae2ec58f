package rbac

import "time"

// Role represents a high-level permission grouping. Roles are provisioned as
// data; the catalog is small but not a closed enumeration.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability in a flat namespace.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// RoleGrant is a user→role edge. Role is nil when the assignment points at a
// role that no longer exists; the evaluator skips such edges.
type RoleGrant struct {
	UserID int64
	RoleID int64
	Role   *Role
}

// PermissionGrant is a role→permission edge. Permission is nil for dangling
// references.
type PermissionGrant struct {
	RoleID       int64
	PermissionID int64
	Permission   *Permission
}

// Deny reasons recorded on a Decision. Callers surface ALLOW/DENY uniformly;
// the reason exists for diagnostics only.
const (
	DenyNoRoles    = "no roles assigned"
	DenyNotGranted = "permission not granted"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Scope is the project visibility level granted by a principal's role set,
// ordered most-privileged-first.
type Scope int

const (
	// ScopeAll sees every project regardless of tier.
	ScopeAll Scope = iota
	// ScopeEmployee sees INTERN and EMPLOYEE tiers.
	ScopeEmployee
	// ScopeIntern sees only the INTERN tier.
	ScopeIntern
)

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeEmployee:
		return "employee"
	case ScopeIntern:
		return "intern"
	}
	return "unknown"
}
