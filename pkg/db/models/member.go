package models

import (
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Member is a regular congregant whose access is gated by branch and approval.
type Member struct {
	ID                uuid.UUID            `gorm:"type:uuid;primaryKey"`
	ExternalSubjectID *string              `gorm:"column:external_subject_id;uniqueIndex"`
	Email             string               `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name              string               `gorm:"column:name;not null"`
	Bio               string               `gorm:"column:bio;not null"`
	AvatarURL         *string              `gorm:"column:avatar_url"`
	Branch            enums.Branch         `gorm:"column:branch;type:text;not null"`
	ApprovalStatus    enums.ApprovalStatus `gorm:"column:approval_status;type:text;not null"`
	RejectionReason   *string              `gorm:"column:rejection_reason"`
	ApprovedBy        *uuid.UUID           `gorm:"column:approved_by;type:uuid"`
	ApprovedAt        *time.Time           `gorm:"column:approved_at"`
	Active            bool                 `gorm:"column:active;not null"`
	LastLoginAt       *time.Time           `gorm:"column:last_login_at"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (Member) TableName() string { return "members" }

func (m *Member) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// IsApproved reports whether the member may reach gated content.
func (m *Member) IsApproved() bool {
	return m != nil && m.Active && m.ApprovalStatus == enums.ApprovalStatusApproved
}
