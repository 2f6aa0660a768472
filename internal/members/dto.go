package members

import (
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/google/uuid"
)

// MemberDTO is the API representation of a member.
type MemberDTO struct {
	ID              uuid.UUID            `json:"id"`
	Email           string               `json:"email"`
	Name            string               `json:"name"`
	Bio             string               `json:"bio"`
	AvatarURL       *string              `json:"avatar_url,omitempty"`
	Branch          enums.Branch         `json:"branch"`
	ApprovalStatus  enums.ApprovalStatus `json:"approval_status"`
	RejectionReason *string              `json:"rejection_reason,omitempty"`
	ApprovedBy      *uuid.UUID           `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time           `json:"approved_at,omitempty"`
	Active          bool                 `json:"active"`
	Linked          bool                 `json:"linked"`
	LastLoginAt     *time.Time           `json:"last_login_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// FromModel maps a member row to its DTO.
func FromModel(m *models.Member) MemberDTO {
	return MemberDTO{
		ID:              m.ID,
		Email:           m.Email,
		Name:            m.Name,
		Bio:             m.Bio,
		AvatarURL:       m.AvatarURL,
		Branch:          m.Branch,
		ApprovalStatus:  m.ApprovalStatus,
		RejectionReason: m.RejectionReason,
		ApprovedBy:      m.ApprovedBy,
		ApprovedAt:      m.ApprovedAt,
		Active:          m.Active,
		Linked:          m.ExternalSubjectID != nil,
		LastLoginAt:     m.LastLoginAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// PreRegisterRequest lets an administrator create a member ahead of their first login.
type PreRegisterRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Name   string `json:"name" validate:"required,notblank,max=120"`
	Branch string `json:"branch" validate:"omitempty,oneof=branch1 branch2"`
}

// ProfileUpdate carries the self-editable member fields. Nil leaves a field unchanged.
type ProfileUpdate struct {
	Name      *string
	Bio       *string
	AvatarURL *string
}
