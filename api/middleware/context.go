package middleware

import (
	"context"

	"github.com/angelmondragon/churchhub-backend/internal/principals"
)

type contextKey string

const (
	ctxPrincipal contextKey = "principal"
	ctxAccessID  contextKey = "access_id"
)

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (principals.Principal, bool) {
	if ctx == nil {
		return principals.Principal{}, false
	}
	p, ok := ctx.Value(ctxPrincipal).(principals.Principal)
	if !ok || (!p.IsMember() && !p.IsAdministrator()) {
		return principals.Principal{}, false
	}
	return p, true
}

// WithPrincipal injects the principal into the context for downstream handlers.
func WithPrincipal(ctx context.Context, p principals.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}

// AccessIDFromContext returns the session id of a password administrator's access token.
// Identity-provider callers have none.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

func withAccessID(ctx context.Context, accessID string) context.Context {
	return context.WithValue(ctx, ctxAccessID, accessID)
}

func principalID(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok {
		return p.ID().String()
	}
	return ""
}
