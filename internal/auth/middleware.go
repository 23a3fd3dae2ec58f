package auth

import (
	"net/http"
	"strings"

	"github.com/taskforge-hq/taskforge/internal/platform/httpx"
	"github.com/taskforge-hq/taskforge/internal/shared"
)

// Middleware guards routes behind bearer authentication. Requests without a
// valid token are rejected before any handler runs; downstream code never sees
// a nil-but-trusted principal.
type Middleware struct {
	Service *Service
}

// RequirePrincipal rejects requests without a valid bearer token and attaches
// the resolved principal to the context.
func (m Middleware) RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
			return
		}
		principal, err := m.Service.ResolvePrincipal(r.Context(), strings.TrimSpace(token))
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		ctx := shared.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
