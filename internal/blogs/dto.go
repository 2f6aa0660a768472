package blogs

import (
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/db/models"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/google/uuid"
)

type BlogDTO struct {
	ID               uuid.UUID        `json:"id"`
	Title            string           `json:"title"`
	Content          string           `json:"content"`
	Excerpt          string           `json:"excerpt"`
	AuthorAdminID    uuid.UUID        `json:"author_admin_id"`
	Status           enums.BlogStatus `json:"status"`
	Tags             []string         `json:"tags"`
	FeaturedImageURL *string          `json:"featured_image_url,omitempty"`
	ViewCount        int64            `json:"view_count"`
	ReadTimeMinutes  int              `json:"read_time_minutes"`
	PublishedAt      *time.Time       `json:"published_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func FromModel(b *models.Blog) BlogDTO {
	tags := []string(b.Tags)
	if tags == nil {
		tags = []string{}
	}
	return BlogDTO{
		ID:               b.ID,
		Title:            b.Title,
		Content:          b.Content,
		Excerpt:          b.Excerpt,
		AuthorAdminID:    b.AuthorAdminID,
		Status:           b.Status,
		Tags:             tags,
		FeaturedImageURL: b.FeaturedImageURL,
		ViewCount:        b.ViewCount,
		ReadTimeMinutes:  b.ReadTimeMinutes,
		PublishedAt:      b.PublishedAt,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

type CreateRequest struct {
	Title            string   `json:"title" validate:"required,notblank,max=200"`
	Content          string   `json:"content" validate:"required,notblank"`
	Excerpt          string   `json:"excerpt" validate:"max=500"`
	Status           string   `json:"status" validate:"omitempty,oneof=draft published"`
	Tags             []string `json:"tags" validate:"max=20,dive,max=50"`
	FeaturedImageURL *string  `json:"featured_image_url" validate:"omitempty,url"`
}

type UpdateRequest struct {
	Title            *string   `json:"title" validate:"omitempty,notblank,max=200"`
	Content          *string   `json:"content" validate:"omitempty,notblank"`
	Excerpt          *string   `json:"excerpt" validate:"omitempty,max=500"`
	Status           *string   `json:"status" validate:"omitempty,oneof=draft published"`
	Tags             *[]string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
	FeaturedImageURL *string   `json:"featured_image_url" validate:"omitempty,url"`
}

type ListFilter struct {
	Status *enums.BlogStatus
	Search string
	Tag    string
}
