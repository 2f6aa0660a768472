package administrators

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/config"
	pkgdb "github.com/angelmondragon/churchhub-backend/pkg/db"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/angelmondragon/churchhub-backend/pkg/security"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const tempPasswordLength = 16

var ErrEmailTaken = errors.New("email already registered")

type repository interface {
	Create(ctx context.Context, admin *models.Administrator) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Administrator, error)
	UpdateProfile(ctx context.Context, admin *models.Administrator) error
	UpdatePermissions(ctx context.Context, id uuid.UUID, perms pq.StringArray, now time.Time) (bool, error)
	List(ctx context.Context, search string, page pagination.Params) ([]models.Administrator, int64, error)
}

type Service struct {
	repo        repository
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

func NewService(repo repository, passwordCfg config.PasswordConfig) (*Service, error) {
	if repo == nil {
		return nil, errors.New("administrators repository required")
	}
	return &Service{repo: repo, passwordCfg: passwordCfg, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Administrator, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "administrator not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load administrator")
	}
	return admin, nil
}

func (s *Service) List(ctx context.Context, search string, page pagination.Params) (pagination.Page[AdministratorDTO], error) {
	rows, total, err := s.repo.List(ctx, search, page)
	if err != nil {
		return pagination.Page[AdministratorDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list administrators")
	}
	items := make([]AdministratorDTO, 0, len(rows))
	for i := range rows {
		items = append(items, FromModel(&rows[i]))
	}
	return pagination.Page[AdministratorDTO]{Items: items, Pagination: pagination.Build(page, total)}, nil
}

// Create adds an administrator on behalf of creator. Only super administrators may mint
// other super administrators or grant createAdmins.
func (s *Service) Create(ctx context.Context, creator *models.Administrator, req CreateRequest) (*CreateResult, error) {
	level := enums.AdminLevelStandard
	if req.AdminLevel != "" {
		parsed, err := enums.ParseAdminLevel(req.AdminLevel)
		if err != nil {
			return nil, pkgerrors.Validation("invalid admin level", pkgerrors.FieldError{Field: "admin_level", Message: "must be one of [standard super]"})
		}
		level = parsed
	}
	perms, err := ParsePermissions(req.Permissions)
	if err != nil {
		return nil, err
	}
	if len(req.Permissions) == 0 {
		perms = enums.DefaultAdminPermissions
	}
	if err := checkGrant(creator, level, perms); err != nil {
		return nil, err
	}

	admin := &models.Administrator{
		Email:            NormalizeEmail(req.Email),
		Name:             strings.TrimSpace(req.Name),
		Title:            strings.TrimSpace(req.Title),
		AdminLevel:       level,
		Permissions:      models.PermissionsFrom(perms),
		Active:           true,
		CreatedByAdminID: &creator.ID,
	}

	result := &CreateResult{}
	password := req.Password
	if password == "" && req.GeneratePassword {
		password, err = security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
		}
		result.TemporaryPassword = password
	}
	if password != "" {
		if err := security.CheckPasswordPolicy(password); err != nil {
			return nil, pkgerrors.Validation("invalid password", pkgerrors.FieldError{Field: "password", Message: err.Error()})
		}
		hash, err := security.HashPassword(password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		admin.PasswordHash = &hash
	}

	if err := s.repo.Create(ctx, admin); err != nil {
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, ErrEmailTaken, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create administrator")
	}
	result.Administrator = FromModel(admin)
	return result, nil
}

// SetPermissions replaces the permission set of target. An administrator may not strip
// their own createAdmins flag.
func (s *Service) SetPermissions(ctx context.Context, actor *models.Administrator, targetID uuid.UUID, raw []string) (*models.Administrator, error) {
	perms, err := ParsePermissions(raw)
	if err != nil {
		return nil, err
	}
	target, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := checkGrant(actor, target.AdminLevel, perms); err != nil {
		return nil, err
	}
	if actor.ID == target.ID && !contains(perms, enums.PermissionCreateAdmins) && actor.AdminLevel != enums.AdminLevelSuper {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot remove your own createAdmins permission")
	}

	stored := models.PermissionsFrom(perms)
	ok, err := s.repo.UpdatePermissions(ctx, target.ID, stored, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update permissions")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "administrator not found")
	}
	target.Permissions = stored
	return target, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*models.Administrator, error) {
	admin, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, pkgerrors.Validation("invalid profile", pkgerrors.FieldError{Field: "name", Message: "must not be blank"})
		}
		admin.Name = name
	}
	if update.Title != nil {
		admin.Title = strings.TrimSpace(*update.Title)
	}
	if update.Bio != nil {
		admin.Bio = strings.TrimSpace(*update.Bio)
	}
	if update.AvatarURL != nil {
		if avatar := strings.TrimSpace(*update.AvatarURL); avatar != "" {
			admin.AvatarURL = &avatar
		} else {
			admin.AvatarURL = nil
		}
	}
	admin.UpdatedAt = s.now()
	if err := s.repo.UpdateProfile(ctx, admin); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	return admin, nil
}

// ParsePermissions validates raw permission names.
func ParsePermissions(raw []string) ([]enums.AdminPermission, error) {
	perms := make([]enums.AdminPermission, 0, len(raw))
	for _, value := range raw {
		perm, err := enums.ParseAdminPermission(strings.TrimSpace(value))
		if err != nil {
			return nil, pkgerrors.Validation("invalid permissions", pkgerrors.FieldError{Field: "permissions", Message: err.Error()})
		}
		perms = append(perms, perm)
	}
	return perms, nil
}

func checkGrant(actor *models.Administrator, level enums.AdminLevel, perms []enums.AdminPermission) error {
	if actor == nil {
		return pkgerrors.New(pkgerrors.CodeForbidden, "administrator required")
	}
	if actor.AdminLevel == enums.AdminLevelSuper {
		return nil
	}
	if level == enums.AdminLevelSuper {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only super administrators can grant super level")
	}
	for _, p := range perms {
		if !actor.HasPermission(p) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cannot grant a permission you do not hold").
				WithDetails(map[string]string{"permission": string(p)})
		}
	}
	return nil
}

func contains(perms []enums.AdminPermission, target enums.AdminPermission) bool {
	for _, p := range perms {
		if p == target {
			return true
		}
	}
	return false
}
