package events

import (
	"context"
	"time"

	"github.com/angelmondragon/churchhub-backend/internal/repo"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/angelmondragon/churchhub-backend/pkg/visibility"
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

func (r *Repository) Create(ctx context.Context, event *models.Event) error {
	return r.DB(ctx).Create(event).Error
}

// FindByID ignores visibility and the active flag.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.DB(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// FindVisible returns an active event that passes filter. Events hidden by the filter
// surface as gorm.ErrRecordNotFound.
func (r *Repository) FindVisible(ctx context.Context, id uuid.UUID, filter visibility.BranchFilter) (*models.Event, error) {
	var event models.Event
	err := r.DB(ctx).
		Scopes(filter.Scope("")).
		Where("id = ? AND active = ?", id, true).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *Repository) List(ctx context.Context, visible visibility.BranchFilter, filter ListFilter, now time.Time, page pagination.Params) ([]models.Event, int64, error) {
	query := r.DB(ctx).
		Model(&models.Event{}).
		Scopes(visible.Scope("")).
		Where("active = ?", true)
	if filter.Branch != nil {
		query = query.Where("branch = ?", *filter.Branch)
	}
	if filter.Upcoming {
		query = query.Where("ends_at >= ?", now)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Event
	if err := query.Order("starts_at ASC").Order("id ASC").Scopes(page.Scope()).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Save writes the editable columns. When a capacity is set the write only lands if the
// current attendee count still fits under it.
func (r *Repository) Save(ctx context.Context, event *models.Event) (bool, error) {
	query := r.DB(ctx).Model(event)
	if event.MaxAttendees != nil {
		query = query.Where("attendee_count <= ?", *event.MaxAttendees)
	}
	result := query.
		Select("title", "description", "starts_at", "ends_at", "location", "branch", "max_attendees", "updated_at").
		Updates(event)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Event{}).
		Where("id = ? AND active = ?", id, true).
		UpdateColumns(map[string]any{"active": false, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) InsertAttendee(ctx context.Context, attendee *models.EventAttendee) error {
	return r.DB(ctx).Create(attendee).Error
}

func (r *Repository) DeleteAttendee(ctx context.Context, eventID, memberID uuid.UUID) (bool, error) {
	result := r.DB(ctx).
		Where("event_id = ? AND member_id = ?", eventID, memberID).
		Delete(&models.EventAttendee{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) IsRegistered(ctx context.Context, eventID, memberID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.EventAttendee{}).
		Where("event_id = ? AND member_id = ?", eventID, memberID).
		Count(&count).Error
	return count > 0, err
}

// ClaimSeat increments attendee_count unless the event is at capacity.
func (r *Repository) ClaimSeat(ctx context.Context, eventID uuid.UUID) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Event{}).
		Where("id = ? AND (max_attendees IS NULL OR attendee_count < max_attendees)", eventID).
		UpdateColumn("attendee_count", gorm.Expr("attendee_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ReleaseSeat(ctx context.Context, eventID uuid.UUID) error {
	return r.DB(ctx).
		Model(&models.Event{}).
		Where("id = ? AND attendee_count > 0", eventID).
		UpdateColumn("attendee_count", gorm.Expr("attendee_count - 1")).Error
}

func (r *Repository) AttendeeCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	var count int
	err := r.DB(ctx).
		Model(&models.Event{}).
		Where("id = ?", eventID).
		Pluck("attendee_count", &count).Error
	return count, err
}

// ListPendingCrossBranch returns undecided cross-branch requests, oldest first.
func (r *Repository) ListPendingCrossBranch(ctx context.Context, page pagination.Params) ([]models.Event, int64, error) {
	query := r.DB(ctx).
		Model(&models.Event{}).
		Where("active = ? AND cross_branch_requested = ? AND cross_branch_approved = ? AND approved_by_admin_id IS NULL", true, true, false)

	return repo.FindPage[models.Event](query, page, "created_at ASC", "id ASC")
}

// DecideCrossBranch records an admin decision on an undecided request.
func (r *Repository) DecideCrossBranch(ctx context.Context, eventID, adminID uuid.UUID, approved bool, now time.Time) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Event{}).
		Where("id = ? AND active = ? AND cross_branch_requested = ? AND approved_by_admin_id IS NULL", eventID, true, true).
		UpdateColumns(map[string]any{
			"cross_branch_approved": approved,
			"approved_by_admin_id":  adminID,
			"updated_at":            now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
