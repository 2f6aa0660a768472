package prayers

import (
	"context"
	"time"

	"github.com/angelmondragon/churchhub-backend/internal/repo"
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

// WithTx rebinds the repository to a transaction handle.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

func (r *Repository) Create(ctx context.Context, prayer *models.PrayerRequest) error {
	return r.DB(ctx).Create(prayer).Error
}

// FindByID ignores the visible flag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PrayerRequest, error) {
	var prayer models.PrayerRequest
	if err := r.DB(ctx).First(&prayer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &prayer, nil
}

func (r *Repository) FindVisible(ctx context.Context, id uuid.UUID) (*models.PrayerRequest, error) {
	var prayer models.PrayerRequest
	if err := r.DB(ctx).First(&prayer, "id = ? AND visible = ?", id, true).Error; err != nil {
		return nil, err
	}
	return &prayer, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.PrayerRequest, int64, error) {
	query := r.DB(ctx).Model(&models.PrayerRequest{}).Where("visible = ?", true)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	} else {
		query = query.Where("status <> ?", enums.PrayerStatusArchived)
	}
	if filter.Branch != nil {
		query = query.Where("submitter_branch = ?", *filter.Branch)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.PrayerRequest
	if err := query.Order("created_at DESC").Order("id DESC").Scopes(page.Scope()).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateActive applies columns while the prayer is still active and visible.
func (r *Repository) UpdateActive(ctx context.Context, id uuid.UUID, columns map[string]any) (bool, error) {
	result := r.DB(ctx).
		Model(&models.PrayerRequest{}).
		Where("id = ? AND status = ? AND visible = ?", id, enums.PrayerStatusActive, true).
		UpdateColumns(columns)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) Hide(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.DB(ctx).
		Model(&models.PrayerRequest{}).
		Where("id = ? AND visible = ?", id, true).
		UpdateColumns(map[string]any{"visible": false, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) Archive(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.DB(ctx).
		Model(&models.PrayerRequest{}).
		Where("id = ? AND visible = ? AND status <> ?", id, true, enums.PrayerStatusArchived).
		UpdateColumns(map[string]any{"status": enums.PrayerStatusArchived, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ArchiveAnsweredBefore archives up to limit prayers answered before cutoff.
func (r *Repository) ArchiveAnsweredBefore(ctx context.Context, cutoff time.Time, limit int, now time.Time) (int64, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.PrayerRequest{}).
		Where("status = ? AND answered_at IS NOT NULL AND answered_at < ?", enums.PrayerStatusAnswered, cutoff).
		Order("answered_at ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	result := r.DB(ctx).
		Model(&models.PrayerRequest{}).
		Where("id IN ? AND status = ?", ids, enums.PrayerStatusAnswered).
		UpdateColumns(map[string]any{"status": enums.PrayerStatusArchived, "updated_at": now})
	return result.RowsAffected, result.Error
}

func (r *Repository) DeleteInteraction(ctx context.Context, prayerID, memberID uuid.UUID) (bool, error) {
	result := r.DB(ctx).
		Where("prayer_id = ? AND member_id = ?", prayerID, memberID).
		Delete(&models.PrayerInteraction{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) InsertInteraction(ctx context.Context, interaction *models.PrayerInteraction) error {
	return r.DB(ctx).Create(interaction).Error
}

func (r *Repository) HasPrayed(ctx context.Context, prayerID, memberID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.PrayerInteraction{}).
		Where("prayer_id = ? AND member_id = ?", prayerID, memberID).
		Count(&count).Error
	return count > 0, err
}

// AdjustCount moves prayer_count by delta without letting it go negative.
func (r *Repository) AdjustCount(ctx context.Context, prayerID uuid.UUID, delta int) (int, error) {
	query := r.DB(ctx).Model(&models.PrayerRequest{}).Where("id = ?", prayerID)
	if delta < 0 {
		query = query.Where("prayer_count >= ?", -delta)
	}
	if err := query.UpdateColumn("prayer_count", gorm.Expr("prayer_count + ?", delta)).Error; err != nil {
		return 0, err
	}
	var count int
	err := r.DB(ctx).
		Model(&models.PrayerRequest{}).
		Where("id = ?", prayerID).
		Pluck("prayer_count", &count).Error
	return count, err
}
