package prayers

import (
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/google/uuid"
)

const anonymousDisplayName = "Anonymous"

type PrayerDTO struct {
	ID                   uuid.UUID            `json:"id"`
	Title                string               `json:"title"`
	Description          string               `json:"description"`
	SubmittedByMemberID  *uuid.UUID           `json:"submitted_by_member_id,omitempty"`
	SubmitterBranch      enums.Branch         `json:"submitter_branch"`
	SubmitterDisplayName string               `json:"submitter_display_name"`
	IsAnonymous          bool                 `json:"is_anonymous"`
	IsOwn                bool                 `json:"is_own"`
	PrayerCount          int                  `json:"prayer_count"`
	PrayedByMe           *bool                `json:"prayed_by_me,omitempty"`
	Status               enums.PrayerStatus   `json:"status"`
	AnsweredDescription  *string              `json:"answered_description,omitempty"`
	AnsweredAt           *time.Time           `json:"answered_at,omitempty"`
	Priority             enums.PrayerPriority `json:"priority"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// FromModel renders a prayer for viewerID. The submitter id never leaves the server
// for anonymous requests.
func FromModel(p *models.PrayerRequest, viewerID uuid.UUID) PrayerDTO {
	dto := PrayerDTO{
		ID:                   p.ID,
		Title:                p.Title,
		Description:          p.Description,
		SubmittedByMemberID:  p.SubmittedByMemberID,
		SubmitterBranch:      p.SubmitterBranch,
		SubmitterDisplayName: p.SubmitterDisplayName,
		IsAnonymous:          p.IsAnonymous,
		IsOwn:                isSubmitter(p, viewerID),
		PrayerCount:          p.PrayerCount,
		Status:               p.Status,
		AnsweredDescription:  p.AnsweredDescription,
		AnsweredAt:           p.AnsweredAt,
		Priority:             p.Priority,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
	if p.IsAnonymous {
		dto.SubmittedByMemberID = nil
		dto.SubmitterDisplayName = anonymousDisplayName
	}
	return dto
}

type SubmitRequest struct {
	Title       string `json:"title" validate:"required,notblank,max=200"`
	Description string `json:"description" validate:"required,notblank,max=5000"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	IsAnonymous bool   `json:"is_anonymous"`
}

type UpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description" validate:"omitempty,notblank,max=5000"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

type AnsweredRequest struct {
	Description string `json:"answered_description" validate:"max=5000"`
}

// ListFilter narrows the board. Archived prayers are hidden unless asked for by status.
type ListFilter struct {
	Status   *enums.PrayerStatus
	Branch   *enums.Branch
	Priority *enums.PrayerPriority
}

type ToggleResult struct {
	PrayerID    uuid.UUID `json:"prayer_id"`
	Prayed      bool      `json:"prayed"`
	PrayerCount int       `json:"prayer_count"`
}
