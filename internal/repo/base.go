// Package repo holds the pieces every gorm-backed repository embeds.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
)

// Base carries the connection a repository was built with.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx. A nil ctx yields the raw connection.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Transaction runs fn inside a transaction on the bound connection.
func (b Base) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return b.DB(ctx).Transaction(fn)
}

// FindPage counts every row matched by query and then loads the requested page
// in the given order. The count runs before ordering so it stays a plain COUNT.
func FindPage[T any](query *gorm.DB, page pagination.Params, order ...string) ([]T, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []T{}, 0, nil
	}

	rows := query.Session(&gorm.Session{})
	for _, o := range order {
		rows = rows.Order(o)
	}
	var items []T
	if err := rows.Scopes(page.Scope()).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
