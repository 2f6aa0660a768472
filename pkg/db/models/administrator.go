package models

import (
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Administrator is a pastor or staff principal. PasswordHash is only populated for
// password-based accounts and is excluded from list queries.
type Administrator struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey"`
	ExternalSubjectID *string          `gorm:"column:external_subject_id;uniqueIndex"`
	Email             string           `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name              string           `gorm:"column:name;not null"`
	Title             string           `gorm:"column:title;not null"`
	Bio               string           `gorm:"column:bio;not null"`
	AvatarURL         *string          `gorm:"column:avatar_url"`
	PasswordHash      *string          `gorm:"column:password_hash" json:"-"`
	AdminLevel        enums.AdminLevel `gorm:"column:admin_level;type:text;not null"`
	Permissions       pq.StringArray   `gorm:"column:permissions;type:text[];not null"`
	Active            bool             `gorm:"column:active;not null"`
	LastLoginAt       *time.Time       `gorm:"column:last_login_at"`
	CreatedByAdminID  *uuid.UUID       `gorm:"column:created_by_admin_id;type:uuid"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Administrator) TableName() string { return "administrators" }

func (a *Administrator) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Permissions == nil {
		a.Permissions = pq.StringArray{}
	}
	return nil
}

// HasPermission reports whether the administrator holds the capability. Super admins hold all of them.
func (a *Administrator) HasPermission(p enums.AdminPermission) bool {
	if a == nil || !a.Active {
		return false
	}
	if a.AdminLevel == enums.AdminLevelSuper {
		return true
	}
	for _, granted := range a.Permissions {
		if granted == string(p) {
			return true
		}
	}
	return false
}

// PermissionsFrom converts typed permissions into the stored array.
func PermissionsFrom(perms []enums.AdminPermission) pq.StringArray {
	out := make(pq.StringArray, 0, len(perms))
	seen := make(map[enums.AdminPermission]struct{}, len(perms))
	for _, p := range perms {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, string(p))
	}
	return out
}
