package middleware

import (
	"net/http"

	"github.com/angelmondragon/churchhub-backend/pkg/config"
	"github.com/go-chi/cors"
)

// CORS returns middleware that applies the configured SPA origin policy.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", IdempotencyHeader, "X-Requested-With", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader, ReplayedHeader, "Retry-After", "X-ChurchHub-Env"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
