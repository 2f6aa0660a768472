package events

import (
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/google/uuid"
)

type EventDTO struct {
	ID                   uuid.UUID           `json:"id"`
	Title                string              `json:"title"`
	Description          string              `json:"description"`
	StartsAt             time.Time           `json:"starts_at"`
	EndsAt               time.Time           `json:"ends_at"`
	Location             string              `json:"location"`
	Branch               enums.Branch        `json:"branch"`
	CreatedByPrincipalID uuid.UUID           `json:"created_by_principal_id"`
	CreatorKind          enums.PrincipalKind `json:"creator_kind"`
	CrossBranchRequested bool                `json:"cross_branch_requested"`
	CrossBranchApproved  bool                `json:"cross_branch_approved"`
	ApprovedByAdminID    *uuid.UUID          `json:"approved_by_admin_id,omitempty"`
	MaxAttendees         *int                `json:"max_attendees"`
	AttendeeCount        int                 `json:"attendee_count"`
	Registered           *bool               `json:"registered,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
}

func FromModel(e *models.Event) EventDTO {
	return EventDTO{
		ID:                   e.ID,
		Title:                e.Title,
		Description:          e.Description,
		StartsAt:             e.StartsAt,
		EndsAt:               e.EndsAt,
		Location:             e.Location,
		Branch:               e.Branch,
		CreatedByPrincipalID: e.CreatedByPrincipalID,
		CreatorKind:          e.CreatorKind,
		CrossBranchRequested: e.CrossBranchRequested,
		CrossBranchApproved:  e.CrossBranchApproved,
		ApprovedByAdminID:    e.ApprovedByAdminID,
		MaxAttendees:         e.MaxAttendees,
		AttendeeCount:        e.AttendeeCount,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}
}

type CreateRequest struct {
	Title        string    `json:"title" validate:"required,notblank,max=200"`
	Description  string    `json:"description" validate:"max=5000"`
	StartsAt     time.Time `json:"starts_at" validate:"required"`
	EndsAt       time.Time `json:"ends_at" validate:"required"`
	Location     string    `json:"location" validate:"max=300"`
	Branch       string    `json:"branch" validate:"omitempty,oneof=branch1 branch2 both"`
	MaxAttendees *int      `json:"max_attendees" validate:"omitempty,gte=1"`
}

type UpdateRequest struct {
	Title        *string    `json:"title" validate:"omitempty,notblank,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=5000"`
	StartsAt     *time.Time `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at"`
	Location     *string    `json:"location" validate:"omitempty,max=300"`
	Branch       *string    `json:"branch" validate:"omitempty,oneof=branch1 branch2 both"`
	MaxAttendees *int       `json:"max_attendees" validate:"omitempty,gte=1"`
	// ClearMaxAttendees removes the capacity limit.
	ClearMaxAttendees bool `json:"clear_max_attendees"`
}

// ListFilter narrows the event listing on top of the caller's branch filter.
type ListFilter struct {
	Branch   *enums.Branch
	Upcoming bool
}

type RegistrationResult struct {
	EventID       uuid.UUID `json:"event_id"`
	Registered    bool      `json:"registered"`
	AttendeeCount int       `json:"attendee_count"`
}
