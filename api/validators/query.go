package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/pagination"
)

const maxPage = 100000

// query reads one trimmed parameter; ok is false when it is absent or blank.
func query(r *http.Request, key string) (string, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	return raw, raw != ""
}

func queryError(key, message string) error {
	return pkgerrors.Validation("invalid query parameter "+key, pkgerrors.FieldError{Field: key, Message: message})
}

// QueryIntInRange parses key as an integer in [lo, hi], falling back to def when absent.
func QueryIntInRange(r *http.Request, key string, def, lo, hi int) (int, error) {
	raw, ok := query(r, key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		return 0, queryError(key, "must be a whole number")
	case n < lo || n > hi:
		return 0, queryError(key, fmt.Sprintf("must be between %d and %d", lo, hi))
	}
	return n, nil
}

// ParseQueryBool returns nil when the parameter is absent.
func ParseQueryBool(r *http.Request, key string) (*bool, error) {
	raw, ok := query(r, key)
	if !ok {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, queryError(key, "must be true or false")
	}
	return &b, nil
}

// ParsePagination reads ?page= and ?limit=.
func ParsePagination(r *http.Request) (pagination.Params, error) {
	var (
		p   pagination.Params
		err error
	)
	if p.Page, err = QueryIntInRange(r, "page", 1, 1, maxPage); err != nil {
		return pagination.Params{}, err
	}
	if p.Limit, err = QueryIntInRange(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit); err != nil {
		return pagination.Params{}, err
	}
	return p, nil
}
