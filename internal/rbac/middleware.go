package rbac

import (
	"log/slog"
	"net/http"

	"github.com/taskforge-hq/taskforge/internal/platform/httpx"
	"github.com/taskforge-hq/taskforge/internal/shared"
)

// Middleware wires RBAC authorization guards for HTTP handlers. The guard runs
// synchronously before the wrapped handler; handlers must not re-check
// permissions themselves.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequirePermission ensures the current principal holds the named permission.
// Evaluator failures respond 500, never ALLOW.
func (m Middleware) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := shared.PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			decision, err := m.Service.Authorize(r.Context(), principal.ID, permission)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("rbac authorize", slog.String("permission", permission), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !decision.Allowed {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "Missing permission "+permission)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
