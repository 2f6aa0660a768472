package blogs

import (
	"context"
	"strings"

	"github.com/angelmondragon/churchhub-backend/internal/repo"
	pkgdb "github.com/angelmondragon/churchhub-backend/pkg/db"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
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

func (r *Repository) Create(ctx context.Context, blog *models.Blog) error {
	return r.DB(ctx).Create(blog).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	var blog models.Blog
	if err := r.DB(ctx).First(&blog, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &blog, nil
}

// IncrementPublishedViews counts a view on a published post and returns the fresh row.
func (r *Repository) IncrementPublishedViews(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	result := r.DB(ctx).
		Model(&models.Blog{}).
		Where("id = ? AND status = ?", id, enums.BlogStatusPublished).
		UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *Repository) Save(ctx context.Context, blog *models.Blog) error {
	return r.DB(ctx).
		Model(blog).
		Select("title", "content", "excerpt", "status", "tags", "featured_image_url",
			"read_time_minutes", "published_at", "updated_at").
		Updates(blog).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.DB(ctx).Where("id = ?", id).Delete(&models.Blog{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Blog, int64, error) {
	query := r.DB(ctx).Model(&models.Blog{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(excerpt) LIKE ?)", like, like)
	}
	if tag := strings.ToLower(strings.TrimSpace(filter.Tag)); tag != "" {
		query = query.Scopes(pkgdb.ArrayContains("tags", tag))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Blog
	err := query.
		Order("COALESCE(published_at, created_at) DESC").
		Order("id DESC").
		Scopes(page.Scope()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
