package middleware

import (
	"context"
	"net/http"

	"github.com/angelmondragon/churchhub-backend/api/responses"
	"github.com/angelmondragon/churchhub-backend/api/validators"
	"github.com/angelmondragon/churchhub-backend/internal/principals"
	pkgAuth "github.com/angelmondragon/churchhub-backend/pkg/auth"
	"github.com/angelmondragon/churchhub-backend/pkg/auth/session"
	"github.com/angelmondragon/churchhub-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/identity"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/google/uuid"
)

// PrincipalLookup loads an existing principal. It never creates one.
type PrincipalLookup interface {
	Lookup(ctx context.Context, subjectID string) (principals.Principal, error)
	LookupAdministrator(ctx context.Context, id uuid.UUID) (principals.Principal, error)
}

// AuthParams wires both credential kinds accepted by Auth.
type AuthParams struct {
	JWT        config.JWTConfig
	Sessions   session.AccessSessionChecker
	Verifier   identity.Verifier
	Principals PrincipalLookup
	Logger     *logger.Logger
}

// Auth validates the bearer credential and seeds the request context with the principal.
// Identity-provider ID tokens resolve by subject; anything else must be an administrator
// access token backed by a live session.
func Auth(params AuthParams) func(http.Handler) http.Handler {
	logg := params.Logger
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := r.Context()
			var p principals.Principal
			if params.Verifier != nil && identity.LooksLikeIDToken(token) {
				p, err = lookupIdentity(ctx, params, token)
			} else {
				var accessID string
				p, accessID, err = lookupAdministrator(ctx, params, token)
				ctx = withAccessID(ctx, accessID)
			}
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = WithPrincipal(ctx, p)
			if logg != nil {
				ctx = logg.WithPrincipal(ctx, p.ID().String(), string(p.Kind))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func lookupIdentity(ctx context.Context, params AuthParams, token string) (principals.Principal, error) {
	id, err := params.Verifier.Verify(ctx, token)
	if err != nil {
		return principals.Principal{}, err
	}
	p, err := params.Principals.Lookup(ctx, id.SubjectID)
	if err != nil {
		return principals.Principal{}, err
	}
	return p, nil
}

func lookupAdministrator(ctx context.Context, params AuthParams, token string) (principals.Principal, string, error) {
	claims, err := pkgAuth.ParseAccessToken(params.JWT, token)
	if pkgAuth.IsExpired(err) {
		return principals.Principal{}, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "token expired")
	}
	if err != nil {
		return principals.Principal{}, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return principals.Principal{}, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if params.Sessions != nil {
		ok, err := params.Sessions.HasSession(ctx, claims.ID)
		if err != nil {
			return principals.Principal{}, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !ok {
			return principals.Principal{}, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable")
		}
	}
	p, err := params.Principals.LookupAdministrator(ctx, claims.AdminID)
	if err != nil {
		return principals.Principal{}, "", err
	}
	return p, claims.ID, nil
}
