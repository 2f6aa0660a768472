package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/churchhub-backend/api/middleware"
	"github.com/angelmondragon/churchhub-backend/api/responses"
	"github.com/angelmondragon/churchhub-backend/api/validators"
	"github.com/angelmondragon/churchhub-backend/internal/administrators"
	"github.com/angelmondragon/churchhub-backend/internal/auth"
	"github.com/angelmondragon/churchhub-backend/internal/members"
	"github.com/angelmondragon/churchhub-backend/internal/principals"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
	"github.com/google/uuid"
)

type authService interface {
	Login(ctx context.Context, idToken string) (*auth.LoginResponse, error)
	AdminLogin(ctx context.Context, req auth.AdminLoginRequest) (*auth.TokenResponse, error)
	RegisterAdministrator(ctx context.Context, req auth.AdminRegisterRequest) (*auth.TokenResponse, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*auth.TokenResponse, error)
	Logout(ctx context.Context, accessID string) error
	ChangePassword(ctx context.Context, adminID uuid.UUID, req auth.ChangePasswordRequest) error
}

type branchChanger interface {
	ChangeBranch(ctx context.Context, memberID uuid.UUID, raw string) (*models.Member, error)
}

type memberProfiles interface {
	UpdateProfile(ctx context.Context, id uuid.UUID, update members.ProfileUpdate) (*models.Member, error)
}

type administratorProfiles interface {
	UpdateProfile(ctx context.Context, id uuid.UUID, update administrators.ProfileUpdate) (*models.Administrator, error)
}

// AuthLogin verifies the identity-provider token in the Authorization header and
// resolves, creating on first sight, the caller's principal.
func AuthLogin(svc authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := validators.BearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp, err := svc.Login(r.Context(), token)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "login successful", resp)
	}
}

func AuthStatus(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "principal status", auth.SnapshotOf(p))
	}
}

// AuthSelectBranch lets a member pick a home branch. Changing it resets approval.
func AuthSelectBranch(svc branchChanger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req auth.SelectBranchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		member, err := svc.ChangeBranch(r.Context(), p.ID(), req.Branch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "branch selected", auth.SnapshotOf(principals.FromMember(member)))
	}
}

func AuthUpdateProfile(memberSvc memberProfiles, adminSvc administratorProfiles, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requirePrincipal(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req auth.ProfileRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var updated principals.Principal
		if p.IsAdministrator() {
			admin, err := adminSvc.UpdateProfile(r.Context(), p.ID(), administrators.ProfileUpdate{
				Name:      req.Name,
				Title:     req.Title,
				Bio:       req.Bio,
				AvatarURL: req.AvatarURL,
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			updated = principals.FromAdministrator(admin)
		} else {
			if req.Title != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Validation("invalid request",
					pkgerrors.FieldError{Field: "title", Message: "only administrators have a title"}))
				return
			}
			member, err := memberSvc.UpdateProfile(r.Context(), p.ID(), members.ProfileUpdate{
				Name:      req.Name,
				Bio:       req.Bio,
				AvatarURL: req.AvatarURL,
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			updated = principals.FromMember(member)
		}
		responses.WriteSuccess(w, "profile updated", auth.SnapshotOf(updated))
	}
}

func AdminAuthLogin(svc authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.AdminLoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp, err := svc.AdminLogin(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "login successful", resp)
	}
}

// AdminAuthRegister bootstraps a password super administrator. The router only mounts it outside prod.
func AdminAuthRegister(svc authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.AdminRegisterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp, err := svc.RegisterAdministrator(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, "administrator registered", resp)
	}
}

// AuthRefresh expects the (possibly expired) access token in the Authorization header.
func AuthRefresh(svc authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accessToken, err := validators.BearerToken(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req auth.RefreshRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resp, err := svc.Refresh(r.Context(), accessToken, req.RefreshToken)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "token refreshed", resp)
	}
}

// AuthLogout revokes the administrator session. Identity-provider sessions live
// with the provider, so there is nothing to revoke server side.
func AuthLogout(svc authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if accessID := middleware.AccessIDFromContext(r.Context()); accessID != "" {
			if err := svc.Logout(r.Context(), accessID); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		responses.WriteSuccess(w, "logged out", nil)
	}
}

func AuthChangePassword(svc authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := requireAdministrator(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req auth.ChangePasswordRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.ChangePassword(r.Context(), p.ID(), req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "password changed", nil)
	}
}
