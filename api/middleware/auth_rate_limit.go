package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/churchhub-backend/api/responses"
	"github.com/angelmondragon/churchhub-backend/api/validators"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/angelmondragon/churchhub-backend/pkg/logger"
)

// maxPeekBytes bounds how much of a login body is buffered to find the email.
const maxPeekBytes = 16 << 10

type fixedWindowStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy throttles one auth surface per client IP and per credential.
// The credential is the body email for administrator password flows and the
// bearer ID token for member logins, so both kinds are limited on the same knob.
type RateLimitPolicy struct {
	Name            string
	Window          time.Duration
	IPLimit         int
	CredentialLimit int
}

func (p RateLimitPolicy) enabled() bool {
	return p.Window > 0 && (p.IPLimit > 0 || p.CredentialLimit > 0)
}

func (p RateLimitPolicy) scope(dimension, value string) string {
	name := strings.ToLower(strings.TrimSpace(p.Name))
	if name == "" {
		name = "auth"
	}
	return name + ":" + dimension + ":" + value
}

// AuthRateLimit rejects requests over either limit with 429 and a Retry-After hint.
// A nil store disables throttling.
func AuthRateLimit(policy RateLimitPolicy, store fixedWindowStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.IPLimit > 0 {
				if ip := clientIP(r); ip != "" {
					if !checkWindow(ctx, w, logg, store, policy, "ip", ip, policy.IPLimit) {
						return
					}
				}
			}

			if policy.CredentialLimit > 0 {
				credential, err := credentialFingerprint(r)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unable to read request body"))
					return
				}
				if credential != "" && !checkWindow(ctx, w, logg, store, policy, "credential", credential, policy.CredentialLimit) {
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// checkWindow counts one attempt and reports whether the request may continue.
// It writes the error response itself when it returns false.
func checkWindow(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, store fixedWindowStore, policy RateLimitPolicy, dimension, value string, limit int) bool {
	allowed, count, err := store.FixedWindowAllow(ctx, policy.scope(dimension, value), int64(limit), policy.Window)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting unavailable"))
		return false
	}
	if allowed {
		return true
	}

	if logg != nil {
		fields := map[string]any{
			"policy":    policy.Name,
			"dimension": dimension,
			"attempts":  count,
			"limit":     limit,
		}
		if dimension == "ip" {
			fields["ip"] = value
		}
		logg.Warn(logg.WithFields(ctx, fields), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
	return false
}

// credentialFingerprint hashes whatever identifies the caller's credential.
// The body is restored so handlers can still decode it.
func credentialFingerprint(r *http.Request) (string, error) {
	if r.Body != nil && r.Body != http.NoBody {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
		if err != nil {
			return "", err
		}
		r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))

		var payload struct {
			Email string `json:"email"`
		}
		if json.Unmarshal(body, &payload) == nil {
			if email := strings.ToLower(strings.TrimSpace(payload.Email)); email != "" {
				return fingerprint("email:" + email), nil
			}
		}
	}
	if token, err := validators.BearerToken(r); err == nil {
		return fingerprint("token:" + token), nil
	}
	return "", nil
}

func fingerprint(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:16])
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
