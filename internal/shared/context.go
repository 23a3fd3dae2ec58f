package shared

import "context"

// Principal describes the authenticated actor attached to a request.
type Principal struct {
	ID    int64
	Email string
	Name  string
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context. A nil result means
// the request is unauthenticated; callers must not treat it as an empty-role
// principal.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
