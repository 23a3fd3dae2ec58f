package rbac

import (
	"context"
	"log/slog"
)

// Diagnostics receives non-fatal integrity events observed during evaluation.
// Dangling edges only ever reduce the grant set, so they are reported and
// skipped rather than treated as errors.
type Diagnostics interface {
	DanglingRole(ctx context.Context, userID, roleID int64)
	DanglingPermission(ctx context.Context, roleID, permissionID int64)
	MissingRoles(ctx context.Context, userID int64)
	PermissionDenied(ctx context.Context, userID int64, permission string)
}

// SlogDiagnostics logs integrity events through slog.
type SlogDiagnostics struct {
	Logger *slog.Logger
}

// DanglingRole logs a user→role edge whose role no longer exists.
func (d SlogDiagnostics) DanglingRole(ctx context.Context, userID, roleID int64) {
	if d.Logger != nil {
		d.Logger.WarnContext(ctx, "rbac dangling role reference",
			slog.Int64("user_id", userID), slog.Int64("role_id", roleID))
	}
}

// DanglingPermission logs a role→permission edge whose permission no longer exists.
func (d SlogDiagnostics) DanglingPermission(ctx context.Context, roleID, permissionID int64) {
	if d.Logger != nil {
		d.Logger.WarnContext(ctx, "rbac dangling permission reference",
			slog.Int64("role_id", roleID), slog.Int64("permission_id", permissionID))
	}
}

// MissingRoles logs an evaluation against a principal with no assignments.
func (d SlogDiagnostics) MissingRoles(ctx context.Context, userID int64) {
	if d.Logger != nil {
		d.Logger.InfoContext(ctx, "rbac user has no roles", slog.Int64("user_id", userID))
	}
}

// PermissionDenied logs a DENY outcome.
func (d SlogDiagnostics) PermissionDenied(ctx context.Context, userID int64, permission string) {
	if d.Logger != nil {
		d.Logger.InfoContext(ctx, "rbac permission denied",
			slog.Int64("user_id", userID), slog.String("permission", permission))
	}
}

// NopDiagnostics discards all events.
type NopDiagnostics struct{}

func (NopDiagnostics) DanglingRole(context.Context, int64, int64)        {}
func (NopDiagnostics) DanglingPermission(context.Context, int64, int64)  {}
func (NopDiagnostics) MissingRoles(context.Context, int64)               {}
func (NopDiagnostics) PermissionDenied(context.Context, int64, string)   {}

var _ Diagnostics = SlogDiagnostics{}
var _ Diagnostics = NopDiagnostics{}
