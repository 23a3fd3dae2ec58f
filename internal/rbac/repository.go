package rbac

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskforge-hq/taskforge/internal/shared"
)

// Repository provides PostgreSQL backed resolution of the role/permission
// graph. Dangling edges are preserved through LEFT JOINs so the evaluator can
// observe and skip them.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AssignedRoles returns the user's role assignments, including assignments
// whose role row no longer exists (Role is nil for those).
func (r *Repository) AssignedRoles(ctx context.Context, userID int64) ([]RoleGrant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ur.user_id, ur.role_id, r.id, r.name, r.description, r.created_at, r.updated_at
		FROM user_roles ur
		LEFT JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY ur.role_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []RoleGrant
	for rows.Next() {
		var (
			userID, roleID       int64
			id                   *int64
			name, description    *string
			createdAt, updatedAt *time.Time
		)
		if err := rows.Scan(&userID, &roleID, &id, &name, &description, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		rg := RoleGrant{UserID: userID, RoleID: roleID}
		if id != nil {
			role := Role{ID: *id, Name: *name}
			if description != nil {
				role.Description = *description
			}
			if createdAt != nil {
				role.CreatedAt = *createdAt
			}
			if updatedAt != nil {
				role.UpdatedAt = *updatedAt
			}
			rg.Role = &role
		}
		grants = append(grants, rg)
	}
	return grants, rows.Err()
}

// RolePermissions returns the role's permission grants, including grants whose
// permission row no longer exists (Permission is nil for those).
func (r *Repository) RolePermissions(ctx context.Context, roleID int64) ([]PermissionGrant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT rp.role_id, rp.permission_id, p.id, p.name, p.description
		FROM role_permissions rp
		LEFT JOIN permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1
		ORDER BY rp.permission_id`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []PermissionGrant
	for rows.Next() {
		var (
			roleID, permissionID int64
			id                   *int64
			name, description    *string
		)
		if err := rows.Scan(&roleID, &permissionID, &id, &name, &description); err != nil {
			return nil, err
		}
		pg := PermissionGrant{RoleID: roleID, PermissionID: permissionID}
		if id != nil {
			perm := Permission{ID: *id, Name: *name}
			if description != nil {
				perm.Description = *description
			}
			pg.Permission = &perm
		}
		grants = append(grants, pg)
	}
	return grants, rows.Err()
}

// FindRoleByName fetches a role by its unique name.
func (r *Repository) FindRoleByName(ctx context.Context, name string) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM roles WHERE name = $1`, name).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

// AssignRole links a user to a role. The (user, role) pair is unique; a repeat
// assignment is a no-op.
func (r *Repository) AssignRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, role_id) DO NOTHING`, userID, roleID)
	return err
}

// DanglingEdges reports the counts of user→role and role→permission edges that
// reference missing rows. Used by the background integrity scan.
func (r *Repository) DanglingEdges(ctx context.Context) (roleEdges, permissionEdges int64, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM user_roles ur LEFT JOIN roles r ON r.id = ur.role_id WHERE r.id IS NULL),
			(SELECT COUNT(*) FROM role_permissions rp LEFT JOIN permissions p ON p.id = rp.permission_id WHERE p.id IS NULL)`).
		Scan(&roleEdges, &permissionEdges)
	return roleEdges, permissionEdges, err
}

var _ RoleResolver = (*Repository)(nil)
var _ PermissionResolver = (*Repository)(nil)
