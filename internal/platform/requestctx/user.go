// Package requestctx carries the authenticated principal through request contexts.
package requestctx

import (
	"context"
	"strings"
)

// Role names recognized on principals.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the externally issued identity attached to a request.
type Principal struct {
	ID   string
	Role string
}

// IsAdmin reports whether the principal carries the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

type principalContextKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalContextKey{}, principal)
}

// PrincipalFromContext returns the principal and whether one is present.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	principal, ok := ctx.Value(principalContextKey{}).(Principal)
	if !ok || strings.TrimSpace(principal.ID) == "" {
		return Principal{}, false
	}
	return principal, true
}

// UserIDFromContext returns the principal id, or "" for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	principal, _ := PrincipalFromContext(ctx)
	return principal.ID
}
