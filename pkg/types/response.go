package types

import "time"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Pagination describes a page of a larger result set.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	PerPage     int   `json:"per_page"`
	TotalCount  int64 `json:"total_count"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

type SuccessEnvelope struct {
	Status     string      `json:"status"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type ErrorEnvelope struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	Errors    any       `json:"errors,omitempty"`
	Details   any       `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
