package projects

import (
	"fmt"
	"time"

	"github.com/taskforge-hq/taskforge/internal/rbac"
	"github.com/taskforge-hq/taskforge/internal/shared"
)

// Visibility is a project's visibility tier. The set is a persisted contract.
type Visibility string

const (
	VisibilityIntern   Visibility = "INTERN"
	VisibilityEmployee Visibility = "EMPLOYEE"
)

// ParseVisibility validates a tier value. Absence of a tier is invalid.
func ParseVisibility(raw string) (Visibility, error) {
	switch Visibility(raw) {
	case VisibilityIntern, VisibilityEmployee:
		return Visibility(raw), nil
	}
	return "", fmt.Errorf("%w: invalid visibility %q", shared.ErrValidation, raw)
}

// TiersForScope maps a visibility scope to the tiers it may see. ScopeAll
// returns nil, meaning no filter at all.
func TiersForScope(scope rbac.Scope) []Visibility {
	switch scope {
	case rbac.ScopeAll:
		return nil
	case rbac.ScopeEmployee:
		return []Visibility{VisibilityIntern, VisibilityEmployee}
	case rbac.ScopeIntern:
		return []Visibility{VisibilityIntern}
	}
	return []Visibility{}
}

// Project is a container for tasks with a visibility tier.
type Project struct {
	ID          int64
	Title       string
	Description string
	Visibility  Visibility
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
