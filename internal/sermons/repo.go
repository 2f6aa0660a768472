package sermons

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/churchhub-backend/internal/repo"
	pkgdb "github.com/angelmondragon/churchhub-backend/pkg/db"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) Create(ctx context.Context, sermon *models.Sermon) error {
	return r.DB(ctx).Create(sermon).Error
}

func (r *Repository) FindActive(ctx context.Context, id uuid.UUID) (*models.Sermon, error) {
	var sermon models.Sermon
	if err := r.DB(ctx).Where("id = ? AND active = ?", id, true).First(&sermon).Error; err != nil {
		return nil, err
	}
	return &sermon, nil
}

// IncrementViews bumps view_count in place and returns the updated row.
func (r *Repository) IncrementViews(ctx context.Context, id uuid.UUID) (*models.Sermon, error) {
	result := r.DB(ctx).
		Model(&models.Sermon{}).
		Where("id = ? AND active = ?", id, true).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindActive(ctx, id)
}

func (r *Repository) Save(ctx context.Context, sermon *models.Sermon) error {
	return r.DB(ctx).
		Model(sermon).
		Select("title", "description", "category", "video_url", "thumbnail_url",
			"duration_seconds", "file_size_bytes", "downloadable", "tags", "updated_at").
		Updates(sermon).Error
}

func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Sermon{}).
		Where("id = ? AND active = ?", id, true).
		UpdateColumns(map[string]any{"active": false, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Sermon, int64, error) {
	query := r.DB(ctx).Model(&models.Sermon{}).Where("active = ?", true)
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(category))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	if tag := strings.ToLower(strings.TrimSpace(filter.Tag)); tag != "" {
		query = query.Scopes(pkgdb.ArrayContains("tags", tag))
	}

	return repo.FindPage[models.Sermon](query, page, "created_at DESC", "id DESC")
}

// Categories returns the distinct categories of active sermons.
func (r *Repository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.DB(ctx).
		Model(&models.Sermon{}).
		Where("active = ? AND category <> ''", true).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	return categories, err
}
