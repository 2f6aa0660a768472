package auth

import (
	"github.com/angelmondragon/churchhub-backend/internal/administrators"
	"github.com/angelmondragon/churchhub-backend/internal/members"
	"github.com/angelmondragon/churchhub-backend/internal/principals"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
)

// PrincipalSnapshot is the client's view of who is signed in.
type PrincipalSnapshot struct {
	Kind          enums.PrincipalKind              `json:"kind"`
	Approved      bool                             `json:"approved"`
	RedirectHint  string                           `json:"redirect_hint"`
	Member        *members.MemberDTO               `json:"member,omitempty"`
	Administrator *administrators.AdministratorDTO `json:"administrator,omitempty"`
}

// SnapshotOf renders p with the redirect hint a plain lookup would produce.
func SnapshotOf(p principals.Principal) PrincipalSnapshot {
	return snapshot(principals.Resolution{Principal: p})
}

func snapshot(res principals.Resolution) PrincipalSnapshot {
	p := res.Principal
	out := PrincipalSnapshot{
		Kind:         p.Kind,
		Approved:     p.IsApproved(),
		RedirectHint: res.RedirectHint(),
	}
	switch {
	case p.IsMember():
		dto := members.FromModel(p.Member)
		out.Member = &dto
	case p.IsAdministrator():
		dto := administrators.FromModel(p.Administrator)
		out.Administrator = &dto
	}
	return out
}

// LoginResponse is returned after an identity-provider sign in.
type LoginResponse struct {
	Resolution principals.ResolutionKind `json:"resolution"`
	Principal  PrincipalSnapshot         `json:"principal"`
}

// AdminLoginRequest captures the credentials for password-based administrators.
type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse carries a freshly minted access token and its refresh token.
type TokenResponse struct {
	AccessToken   string                          `json:"access_token"`
	RefreshToken  string                          `json:"refresh_token"`
	TokenType     string                          `json:"token_type"`
	ExpiresIn     int                             `json:"expires_in"`
	Administrator administrators.AdministratorDTO `json:"administrator"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// ProfileRequest is the self-service profile edit. Title only applies to administrators.
type ProfileRequest struct {
	Name      *string `json:"name" validate:"omitempty,notblank,max=120"`
	Bio       *string `json:"bio" validate:"omitempty,max=2000"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
	Title     *string `json:"title" validate:"omitempty,max=120"`
}

type SelectBranchRequest struct {
	Branch string `json:"branch" validate:"required,oneof=branch1 branch2"`
}
