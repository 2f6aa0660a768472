package pagination

import (
	"gorm.io/gorm"

	"github.com/angelmondragon/churchhub-backend/pkg/types"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any page query can request.
	MaxLimit = 100
)

// Params holds page-based pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize clamps the page to 1 and the limit to [1, MaxLimit].
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	p.Limit = NormalizeLimit(p.Limit)
	return p
}

func (p Params) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// Scope applies LIMIT/OFFSET for the normalized params.
func (p Params) Scope() func(*gorm.DB) *gorm.DB {
	n := p.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(n.Offset()).Limit(n.Limit)
	}
}

// Build returns the response pagination block for a query that matched total rows.
func Build(p Params, total int64) types.Pagination {
	n := p.Normalize()
	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(n.Limit) - 1) / int64(n.Limit))
	}
	return types.Pagination{
		CurrentPage: n.Page,
		TotalPages:  totalPages,
		PerPage:     n.Limit,
		TotalCount:  total,
		HasNext:     n.Page < totalPages,
		HasPrev:     n.Page > 1,
	}
}

// Page bundles one page of items with its pagination block.
type Page[T any] struct {
	Items      []T
	Pagination types.Pagination
}
