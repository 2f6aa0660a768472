package db

import (
	"strings"

	"gorm.io/gorm"
)

// ArrayContains filters rows whose text[] column holds value. On sqlite the array
// is stored in its Postgres text form and matched on element boundaries.
func ArrayContains(column, value string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if db.Dialector != nil && db.Dialector.Name() == DriverSQLite {
			pattern := "%," + strings.ReplaceAll(value, "%", "") + ",%"
			return db.Where("(',' || REPLACE(TRIM("+column+", '{}'), '\"', '') || ',') LIKE ?", pattern)
		}
		return db.Where("? = ANY("+column+")", value)
	}
}

// NormalizeTags trims, lower-cases and de-duplicates tags, dropping empties.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
