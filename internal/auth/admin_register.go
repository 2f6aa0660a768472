package auth

import (
	"context"
	"strings"

	"github.com/angelmondragon/churchhub-backend/internal/administrators"
	pkgdb "github.com/angelmondragon/churchhub-backend/pkg/db"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/security"
)

// AdminRegisterRequest bootstraps a password super administrator. Only mounted outside prod.
type AdminRegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,notblank,max=120"`
	Title    string `json:"title" validate:"omitempty,max=120"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// RegisterAdministrator creates a super administrator with password login and signs it in.
func (s *Service) RegisterAdministrator(ctx context.Context, req AdminRegisterRequest) (*TokenResponse, error) {
	email := administrators.NormalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.Validation("invalid request", pkgerrors.FieldError{Field: "email", Message: "is required"})
	}
	if err := security.CheckPasswordPolicy(req.Password); err != nil {
		return nil, pkgerrors.Validation("invalid password", pkgerrors.FieldError{Field: "password", Message: err.Error()})
	}

	if _, err := s.admins.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !pkgdb.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup administrator")
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	admin := &models.Administrator{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		Title:        strings.TrimSpace(req.Title),
		PasswordHash: &hash,
		AdminLevel:   enums.AdminLevelSuper,
		Permissions:  models.PermissionsFrom(enums.AllAdminPermissions()),
		Active:       true,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create administrator")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "admin_id", admin.ID.String()), "bootstrap administrator registered")
	}

	sess, err := s.sessions.Start(ctx, admin.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh session")
	}
	return s.issue(admin, sess, s.now())
}
