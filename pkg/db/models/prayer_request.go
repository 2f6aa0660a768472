package models

import (
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PrayerRequest is a board entry. PrayerCount mirrors the PrayerInteraction rows.
type PrayerRequest struct {
	ID                   uuid.UUID            `gorm:"type:uuid;primaryKey"`
	Title                string               `gorm:"column:title;not null"`
	Description          string               `gorm:"column:description;not null"`
	SubmittedByMemberID  *uuid.UUID           `gorm:"column:submitted_by_member_id;type:uuid"`
	SubmitterBranch      enums.Branch         `gorm:"column:submitter_branch;type:text;not null"`
	SubmitterDisplayName string               `gorm:"column:submitter_display_name;not null"`
	IsAnonymous          bool                 `gorm:"column:is_anonymous;not null"`
	PrayerCount          int                  `gorm:"column:prayer_count;not null"`
	Status               enums.PrayerStatus   `gorm:"column:status;type:text;not null"`
	AnsweredDescription  *string              `gorm:"column:answered_description"`
	AnsweredAt           *time.Time           `gorm:"column:answered_at"`
	Visible              bool                 `gorm:"column:visible;not null"`
	Priority             enums.PrayerPriority `gorm:"column:priority;type:text;not null"`
	CreatedAt            time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (PrayerRequest) TableName() string { return "prayer_requests" }

func (p *PrayerRequest) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PrayerInteraction records that a member prayed for a request. (prayer_id, member_id) is unique.
type PrayerInteraction struct {
	PrayerID uuid.UUID `gorm:"column:prayer_id;type:uuid;primaryKey"`
	MemberID uuid.UUID `gorm:"column:member_id;type:uuid;primaryKey"`
	PrayedAt time.Time `gorm:"column:prayed_at;not null"`
}

func (PrayerInteraction) TableName() string { return "prayer_interactions" }
