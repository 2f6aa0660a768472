package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Sermon struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Title             string         `gorm:"column:title;not null"`
	Description       string         `gorm:"column:description;not null"`
	Category          string         `gorm:"column:category;not null"`
	VideoURL          string         `gorm:"column:video_url;not null"`
	ThumbnailURL      *string        `gorm:"column:thumbnail_url"`
	DurationSeconds   int            `gorm:"column:duration_seconds;not null"`
	FileSizeBytes     int64          `gorm:"column:file_size_bytes;not null"`
	UploadedByAdminID uuid.UUID      `gorm:"column:uploaded_by_admin_id;type:uuid;not null"`
	Downloadable      bool           `gorm:"column:downloadable;not null"`
	ViewCount         int64          `gorm:"column:view_count;not null"`
	Tags              pq.StringArray `gorm:"column:tags;type:text[];not null"`
	Active            bool           `gorm:"column:active;not null"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Sermon) TableName() string { return "sermons" }

func (s *Sermon) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Tags == nil {
		s.Tags = pq.StringArray{}
	}
	return nil
}
