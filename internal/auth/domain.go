package auth

import (
	"time"

	"github.com/taskforge-hq/taskforge/internal/shared"
)

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Roles a user may request at registration. Anything else, including "Admin",
// is clamped to the default; Admin is never self-assignable.
const DefaultRegistrationRole = shared.RoleIntern

var allowedRegistrationRoles = map[string]struct{}{
	shared.RoleEmployee: {},
	shared.RoleIntern:   {},
}

// ClampRegistrationRole returns the role a registration request actually gets.
func ClampRegistrationRole(requested string) string {
	if _, ok := allowedRegistrationRoles[requested]; ok {
		return requested
	}
	return DefaultRegistrationRole
}
