package migrate

import (
	"fmt"

	"gorm.io/gorm"
)

// sqliteSchema mirrors the goose migrations for the local sqlite driver, foreign
// keys included. sqlite only enforces them on connections opened with
// _foreign_keys=on. Arrays are stored in their Postgres text form so lib/pq's
// StringArray can scan them back.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS administrators (
  id TEXT PRIMARY KEY,
  external_subject_id TEXT UNIQUE,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  title TEXT NOT NULL DEFAULT '',
  bio TEXT NOT NULL DEFAULT '',
  avatar_url TEXT,
  password_hash TEXT,
  admin_level TEXT NOT NULL DEFAULT 'standard',
  permissions TEXT NOT NULL DEFAULT '{}',
  active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_by_admin_id TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  FOREIGN KEY (created_by_admin_id) REFERENCES administrators(id) ON DELETE SET NULL
)`,
	`CREATE TABLE IF NOT EXISTS members (
  id TEXT PRIMARY KEY,
  external_subject_id TEXT UNIQUE,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  bio TEXT NOT NULL DEFAULT '',
  avatar_url TEXT,
  branch TEXT NOT NULL DEFAULT 'unset',
  approval_status TEXT NOT NULL DEFAULT 'pending',
  rejection_reason TEXT,
  approved_by TEXT,
  approved_at DATETIME,
  active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  FOREIGN KEY (approved_by) REFERENCES administrators(id) ON DELETE SET NULL
)`,
	`CREATE TABLE IF NOT EXISTS sermons (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  video_url TEXT NOT NULL,
  thumbnail_url TEXT,
  duration_seconds INTEGER NOT NULL DEFAULT 0,
  file_size_bytes INTEGER NOT NULL DEFAULT 0,
  uploaded_by_admin_id TEXT NOT NULL,
  downloadable INTEGER NOT NULL DEFAULT 0,
  view_count INTEGER NOT NULL DEFAULT 0,
  tags TEXT NOT NULL DEFAULT '{}',
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  FOREIGN KEY (uploaded_by_admin_id) REFERENCES administrators(id)
)`,
	`CREATE TABLE IF NOT EXISTS events (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  starts_at DATETIME NOT NULL,
  ends_at DATETIME NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  branch TEXT NOT NULL,
  created_by_principal_id TEXT NOT NULL,
  creator_kind TEXT NOT NULL,
  cross_branch_requested INTEGER NOT NULL DEFAULT 0,
  cross_branch_approved INTEGER NOT NULL DEFAULT 0,
  approved_by_admin_id TEXT,
  max_attendees INTEGER,
  attendee_count INTEGER NOT NULL DEFAULT 0,
  active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  FOREIGN KEY (approved_by_admin_id) REFERENCES administrators(id) ON DELETE SET NULL
)`,
	`CREATE TABLE IF NOT EXISTS event_attendees (
  event_id TEXT NOT NULL,
  member_id TEXT NOT NULL,
  registered_at DATETIME NOT NULL,
  PRIMARY KEY (event_id, member_id),
  FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE,
  FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS blogs (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  content TEXT NOT NULL,
  excerpt TEXT NOT NULL DEFAULT '',
  author_admin_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  tags TEXT NOT NULL DEFAULT '{}',
  featured_image_url TEXT,
  view_count INTEGER NOT NULL DEFAULT 0,
  read_time_minutes INTEGER NOT NULL DEFAULT 0,
  published_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  FOREIGN KEY (author_admin_id) REFERENCES administrators(id)
)`,
	`CREATE TABLE IF NOT EXISTS prayer_requests (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  submitted_by_member_id TEXT,
  submitter_branch TEXT NOT NULL,
  submitter_display_name TEXT NOT NULL,
  is_anonymous INTEGER NOT NULL DEFAULT 0,
  prayer_count INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  answered_description TEXT,
  answered_at DATETIME,
  visible INTEGER NOT NULL DEFAULT 1,
  priority TEXT NOT NULL DEFAULT 'normal',
  created_at DATETIME,
  updated_at DATETIME,
  FOREIGN KEY (submitted_by_member_id) REFERENCES members(id) ON DELETE SET NULL
)`,
	`CREATE TABLE IF NOT EXISTS prayer_interactions (
  prayer_id TEXT NOT NULL,
  member_id TEXT NOT NULL,
  prayed_at DATETIME NOT NULL,
  PRIMARY KEY (prayer_id, member_id),
  FOREIGN KEY (prayer_id) REFERENCES prayer_requests(id) ON DELETE CASCADE,
  FOREIGN KEY (member_id) REFERENCES members(id) ON DELETE CASCADE
)`,
}

// ApplySQLite creates the schema on a sqlite connection. It is idempotent.
func ApplySQLite(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db is required")
	}
	for _, stmt := range sqliteSchema {
		if err := conn.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
