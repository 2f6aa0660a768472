package administrators

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/churchhub-backend/internal/repo"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const passwordColumn = "password_hash"

// Repository persists administrators. Reads omit password_hash unless the caller
// explicitly asks for credentials.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *Repository) Create(ctx context.Context, admin *models.Administrator) error {
	admin.Email = NormalizeEmail(admin.Email)
	return r.DB(ctx).Create(admin).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Administrator, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *Repository) FindBySubject(ctx context.Context, subjectID string) (*models.Administrator, error) {
	return r.first(ctx, "external_subject_id = ?", subjectID)
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Administrator, error) {
	return r.first(ctx, "email = ?", NormalizeEmail(email))
}

// FindCredentialsByEmail is the only read that loads password_hash.
func (r *Repository) FindCredentialsByEmail(ctx context.Context, email string) (*models.Administrator, error) {
	var admin models.Administrator
	if err := r.DB(ctx).Where("email = ?", NormalizeEmail(email)).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindCredentialsByID loads password_hash for a password change.
func (r *Repository) FindCredentialsByID(ctx context.Context, id uuid.UUID) (*models.Administrator, error) {
	var admin models.Administrator
	if err := r.DB(ctx).First(&admin, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// LinkSubject attaches the external subject to an administrator row that has none yet.
func (r *Repository) LinkSubject(ctx context.Context, id uuid.UUID, subjectID string, now time.Time) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Administrator{}).
		Where("id = ? AND external_subject_id IS NULL", id).
		UpdateColumns(map[string]any{
			"external_subject_id": subjectID,
			"last_login_at":       now,
			"updated_at":          now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.Administrator{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *Repository) UpdateProfile(ctx context.Context, admin *models.Administrator) error {
	return r.DB(ctx).
		Model(admin).
		Select("name", "title", "bio", "avatar_url", "updated_at").
		Updates(admin).Error
}

func (r *Repository) UpdatePermissions(ctx context.Context, id uuid.UUID, perms pq.StringArray, now time.Time) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Administrator{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"permissions": perms, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string, now time.Time) error {
	return r.DB(ctx).
		Model(&models.Administrator{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{passwordColumn: hash, "updated_at": now}).Error
}

func (r *Repository) List(ctx context.Context, search string, page pagination.Params) ([]models.Administrator, int64, error) {
	query := r.DB(ctx).Model(&models.Administrator{})
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(name) LIKE ? OR email LIKE ?)", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var admins []models.Administrator
	if err := query.Omit(passwordColumn).Order("created_at DESC, id DESC").Scopes(page.Scope()).Find(&admins).Error; err != nil {
		return nil, 0, err
	}
	return admins, total, nil
}

func (r *Repository) first(ctx context.Context, query string, args ...any) (*models.Administrator, error) {
	var admin models.Administrator
	if err := r.DB(ctx).Omit(passwordColumn).Where(query, args...).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
