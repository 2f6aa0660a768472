package administrators

import (
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/google/uuid"
)

type AdministratorDTO struct {
	ID               uuid.UUID        `json:"id"`
	Email            string           `json:"email"`
	Name             string           `json:"name"`
	Title            string           `json:"title"`
	Bio              string           `json:"bio"`
	AvatarURL        *string          `json:"avatar_url,omitempty"`
	AdminLevel       enums.AdminLevel `json:"admin_level"`
	Permissions      []string         `json:"permissions"`
	Active           bool             `json:"active"`
	PasswordLogin    bool             `json:"password_login"`
	LastLoginAt      *time.Time       `json:"last_login_at,omitempty"`
	CreatedByAdminID *uuid.UUID       `json:"created_by_admin_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

func FromModel(a *models.Administrator) AdministratorDTO {
	perms := []string(a.Permissions)
	if perms == nil {
		perms = []string{}
	}
	return AdministratorDTO{
		ID:               a.ID,
		Email:            a.Email,
		Name:             a.Name,
		Title:            a.Title,
		Bio:              a.Bio,
		AvatarURL:        a.AvatarURL,
		AdminLevel:       a.AdminLevel,
		Permissions:      perms,
		Active:           a.Active,
		PasswordLogin:    a.PasswordHash != nil,
		LastLoginAt:      a.LastLoginAt,
		CreatedByAdminID: a.CreatedByAdminID,
		CreatedAt:        a.CreatedAt,
	}
}

// CreateRequest is submitted by an administrator holding createAdmins. When Password is
// empty the account is identity-only, unless GeneratePassword asks for a temporary one.
type CreateRequest struct {
	Email            string   `json:"email" validate:"required,email"`
	Name             string   `json:"name" validate:"required,notblank,max=120"`
	Title            string   `json:"title" validate:"max=120"`
	AdminLevel       string   `json:"admin_level" validate:"omitempty,oneof=standard super"`
	Permissions      []string `json:"permissions" validate:"dive,oneof=manageUsers manageBothBranches manageContent manageSermons createAdmins"`
	Password         string   `json:"password,omitempty"`
	GeneratePassword bool     `json:"generate_password"`
}

// CreateResult returns the new account plus the temporary password, shown once.
type CreateResult struct {
	Administrator     AdministratorDTO `json:"administrator"`
	TemporaryPassword string           `json:"temporary_password,omitempty"`
}

type PermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"required,dive,oneof=manageUsers manageBothBranches manageContent manageSermons createAdmins"`
}

type ProfileUpdate struct {
	Name      *string
	Title     *string
	Bio       *string
	AvatarURL *string
}
