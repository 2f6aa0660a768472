package models

import (
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is a scheduled gathering scoped to a branch. AttendeeCount mirrors the
// number of EventAttendee rows and is only changed under a capacity guard.
type Event struct {
	ID                   uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Title                string              `gorm:"column:title;not null"`
	Description          string              `gorm:"column:description;not null"`
	StartsAt             time.Time           `gorm:"column:starts_at;not null"`
	EndsAt               time.Time           `gorm:"column:ends_at;not null"`
	Location             string              `gorm:"column:location;not null"`
	Branch               enums.Branch        `gorm:"column:branch;type:text;not null"`
	CreatedByPrincipalID uuid.UUID           `gorm:"column:created_by_principal_id;type:uuid;not null"`
	CreatorKind          enums.PrincipalKind `gorm:"column:creator_kind;type:text;not null"`
	CrossBranchRequested bool                `gorm:"column:cross_branch_requested;not null"`
	CrossBranchApproved  bool                `gorm:"column:cross_branch_approved;not null"`
	ApprovedByAdminID    *uuid.UUID          `gorm:"column:approved_by_admin_id;type:uuid"`
	MaxAttendees         *int                `gorm:"column:max_attendees"`
	AttendeeCount        int                 `gorm:"column:attendee_count;not null"`
	Active               bool                `gorm:"column:active;not null"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Event) TableName() string { return "events" }

func (e *Event) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// EventAttendee is one registration. (event_id, member_id) is unique.
type EventAttendee struct {
	EventID      uuid.UUID `gorm:"column:event_id;type:uuid;primaryKey"`
	MemberID     uuid.UUID `gorm:"column:member_id;type:uuid;primaryKey"`
	RegisteredAt time.Time `gorm:"column:registered_at;not null"`
}

func (EventAttendee) TableName() string { return "event_attendees" }
