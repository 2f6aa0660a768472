package sermons

import (
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/google/uuid"
)

type SermonDTO struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Category          string    `json:"category"`
	VideoURL          string    `json:"video_url"`
	ThumbnailURL      *string   `json:"thumbnail_url,omitempty"`
	DurationSeconds   int       `json:"duration_seconds"`
	FileSizeBytes     int64     `json:"file_size_bytes"`
	UploadedByAdminID uuid.UUID `json:"uploaded_by_admin_id"`
	Downloadable      bool      `json:"downloadable"`
	ViewCount         int64     `json:"view_count"`
	Tags              []string  `json:"tags"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func FromModel(s *models.Sermon) SermonDTO {
	tags := []string(s.Tags)
	if tags == nil {
		tags = []string{}
	}
	return SermonDTO{
		ID:                s.ID,
		Title:             s.Title,
		Description:       s.Description,
		Category:          s.Category,
		VideoURL:          s.VideoURL,
		ThumbnailURL:      s.ThumbnailURL,
		DurationSeconds:   s.DurationSeconds,
		FileSizeBytes:     s.FileSizeBytes,
		UploadedByAdminID: s.UploadedByAdminID,
		Downloadable:      s.Downloadable,
		ViewCount:         s.ViewCount,
		Tags:              tags,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

type CreateRequest struct {
	Title           string   `json:"title" validate:"required,notblank,max=200"`
	Description     string   `json:"description" validate:"max=5000"`
	Category        string   `json:"category" validate:"max=100"`
	VideoURL        string   `json:"video_url" validate:"required,url"`
	ThumbnailURL    *string  `json:"thumbnail_url" validate:"omitempty,url"`
	DurationSeconds int      `json:"duration_seconds" validate:"gte=0"`
	FileSizeBytes   int64    `json:"file_size_bytes" validate:"gte=0"`
	Downloadable    bool     `json:"downloadable"`
	Tags            []string `json:"tags" validate:"max=20,dive,max=50"`
}

type UpdateRequest struct {
	Title           *string   `json:"title" validate:"omitempty,notblank,max=200"`
	Description     *string   `json:"description" validate:"omitempty,max=5000"`
	Category        *string   `json:"category" validate:"omitempty,max=100"`
	VideoURL        *string   `json:"video_url" validate:"omitempty,url"`
	ThumbnailURL    *string   `json:"thumbnail_url" validate:"omitempty,url"`
	DurationSeconds *int      `json:"duration_seconds" validate:"omitempty,gte=0"`
	FileSizeBytes   *int64    `json:"file_size_bytes" validate:"omitempty,gte=0"`
	Downloadable    *bool     `json:"downloadable"`
	Tags            *[]string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}

// ListFilter narrows the sermon library.
type ListFilter struct {
	Category string
	Search   string
	Tag      string
}
