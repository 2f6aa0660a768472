package members

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/churchhub-backend/internal/repo"
	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes member persistence. Approval columns are written only by the
// approvals package; nothing here touches approval_status after insert.
type Repository struct {
	repo.Base
}

// NewRepository constructs a members repo bound to the provided GORM DB.
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

// ListFilter narrows the admin member listing.
type ListFilter struct {
	Status *enums.ApprovalStatus
	Branch *enums.Branch
	Search string
	Active *bool
}

// Create inserts a member. New rows always start pending.
func (r *Repository) Create(ctx context.Context, member *models.Member) error {
	member.Email = NormalizeEmail(member.Email)
	member.ApprovalStatus = enums.ApprovalStatusPending
	if member.Branch == "" {
		member.Branch = enums.BranchUnset
	}
	return r.DB(ctx).Create(member).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	var member models.Member
	if err := r.DB(ctx).First(&member, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *Repository) FindBySubject(ctx context.Context, subjectID string) (*models.Member, error) {
	var member models.Member
	if err := r.DB(ctx).Where("external_subject_id = ?", subjectID).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	var member models.Member
	if err := r.DB(ctx).Where("email = ?", NormalizeEmail(email)).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// LinkSubject attaches an external subject to a pre-registered member. It only succeeds
// while the row is still unlinked, so two concurrent first logins cannot both claim it.
func (r *Repository) LinkSubject(ctx context.Context, id uuid.UUID, subjectID string, now time.Time) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Member{}).
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

// TouchLogin refreshes last_login_at.
func (r *Repository) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.Member{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// UpdateProfile writes the self-editable profile columns only.
func (r *Repository) UpdateProfile(ctx context.Context, member *models.Member) error {
	return r.DB(ctx).
		Model(member).
		Select("name", "bio", "avatar_url", "updated_at").
		Updates(member).Error
}

// Deactivate soft-deletes a member.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	result := r.DB(ctx).
		Model(&models.Member{}).
		Where("id = ? AND active = ?", id, true).
		UpdateColumns(map[string]any{"active": false, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter, page pagination.Params) ([]models.Member, int64, error) {
	query := r.DB(ctx).Model(&models.Member{}).Scopes(filter.scope)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var members []models.Member
	if err := query.Order("created_at DESC, id DESC").Scopes(page.Scope()).Find(&members).Error; err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

// DeleteRejectedBefore hard-deletes up to limit members rejected before cutoff and
// returns the deleted ids. This is the only path that removes member rows.
//
// Event registrations and prayer marks held by those members are removed in the
// same transaction, and the attendee_count and prayer_count they contributed
// are given back, so the counters keep matching their rows.
func (r *Repository) DeleteRejectedBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Member{}).
			Where("approval_status = ? AND approved_at IS NOT NULL AND approved_at < ?", enums.ApprovalStatusRejected, cutoff).
			Order("approved_at ASC").
			Limit(limit).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		return releaseMemberFootprint(tx, ids)
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func releaseMemberFootprint(tx *gorm.DB, ids []uuid.UUID) error {
	steps := []struct {
		sql  string
		args []any
	}{
		{`UPDATE events SET attendee_count = attendee_count - (
			SELECT COUNT(*) FROM event_attendees a WHERE a.event_id = events.id AND a.member_id IN ?)
		WHERE id IN (SELECT event_id FROM event_attendees WHERE member_id IN ?)`, []any{ids, ids}},
		{`DELETE FROM event_attendees WHERE member_id IN ?`, []any{ids}},
		{`UPDATE prayer_requests SET prayer_count = prayer_count - (
			SELECT COUNT(*) FROM prayer_interactions i WHERE i.prayer_id = prayer_requests.id AND i.member_id IN ?)
		WHERE id IN (SELECT prayer_id FROM prayer_interactions WHERE member_id IN ?)`, []any{ids, ids}},
		{`DELETE FROM prayer_interactions WHERE member_id IN ?`, []any{ids}},
		{`UPDATE prayer_requests SET submitted_by_member_id = NULL WHERE submitted_by_member_id IN ?`, []any{ids}},
	}
	for _, step := range steps {
		if err := tx.Exec(step.sql, step.args...).Error; err != nil {
			return err
		}
	}
	return tx.
		Where("id IN ? AND approval_status = ?", ids, enums.ApprovalStatusRejected).
		Delete(&models.Member{}).Error
}

func (f ListFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Status != nil {
		db = db.Where("approval_status = ?", *f.Status)
	}
	if f.Branch != nil {
		db = db.Where("branch = ?", *f.Branch)
	}
	if f.Active != nil {
		db = db.Where("active = ?", *f.Active)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		db = db.Where("(LOWER(name) LIKE ? OR email LIKE ?)", like, like)
	}
	return db
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
