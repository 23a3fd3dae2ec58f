package users

import "time"

// User represents a user account for management listings.
type User struct {
	ID        int64
	Email     string
	Name      string
	IsActive  bool
	Roles     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
