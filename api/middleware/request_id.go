package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/churchhub-backend/pkg/logger"
)

const (
	requestIDHeader   = "X-Request-Id"
	maxRequestIDBytes = 128
)

// RequestID keeps a well-formed incoming X-Request-Id and mints a uuid
// otherwise. The id is echoed on the response and attached to the log context.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if !wellFormedRequestID(id) {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)
			if logg != nil {
				r = r.WithContext(logg.WithRequestID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// wellFormedRequestID accepts up to 128 bytes of printable ASCII without spaces.
func wellFormedRequestID(id string) bool {
	return id != "" && len(id) <= maxRequestIDBytes &&
		strings.IndexFunc(id, func(c rune) bool { return c < '!' || c > '~' }) < 0
}
