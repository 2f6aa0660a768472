package models

import (
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Blog struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Title            string           `gorm:"column:title;not null"`
	Content          string           `gorm:"column:content;not null"`
	Excerpt          string           `gorm:"column:excerpt;not null"`
	AuthorAdminID    uuid.UUID        `gorm:"column:author_admin_id;type:uuid;not null"`
	Status           enums.BlogStatus `gorm:"column:status;type:text;not null"`
	Tags             pq.StringArray   `gorm:"column:tags;type:text[];not null"`
	FeaturedImageURL *string          `gorm:"column:featured_image_url"`
	ViewCount        int64            `gorm:"column:view_count;not null"`
	ReadTimeMinutes  int              `gorm:"column:read_time_minutes;not null"`
	PublishedAt      *time.Time       `gorm:"column:published_at"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Blog) TableName() string { return "blogs" }

func (b *Blog) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Tags == nil {
		b.Tags = pq.StringArray{}
	}
	return nil
}
