// Package session keeps administrator refresh sessions in Redis, one key per
// access token id (jti). Refresh tokens are stored as SHA-256 digests.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const refreshTokenBytes = 32

var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// Store is the subset of the redis client sessions need. *redis.Client from
// pkg/redis satisfies it.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	DelIfValue(ctx context.Context, key, value string) (bool, error)
	AccessSessionKey(accessID string) string
}

// Session is an administrator refresh session keyed by the access token's jti.
type Session struct {
	AccessID     string
	AdminID      uuid.UUID
	RefreshToken string
}

// record is what lives under the access key.
type record struct {
	AdminID     uuid.UUID `json:"admin_id"`
	RefreshHash string    `json:"refresh_sha256"`
	IssuedAt    time.Time `json:"issued_at"`
}

type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// AccessSessionChecker is the read-only surface the auth middleware needs.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

// NewManager validates that refresh sessions outlive the access tokens they back.
func NewManager(store Store, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	ttl := cfg.RefreshTokenTTL()
	accessTTL := time.Duration(cfg.ExpirationMinutes) * time.Minute
	if ttl <= accessTTL {
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, accessTTL)
	}
	return &Manager{store: store, ttl: ttl, now: time.Now}, nil
}

// Start opens a session and returns the access id to embed as jti plus the plaintext refresh token.
func (m *Manager) Start(ctx context.Context, adminID uuid.UUID) (Session, error) {
	if adminID == uuid.Nil {
		return Session{}, fmt.Errorf("admin id is required")
	}
	token, err := newRefreshToken()
	if err != nil {
		return Session{}, err
	}
	value, err := json.Marshal(record{AdminID: adminID, RefreshHash: digest(token), IssuedAt: m.now().UTC()})
	if err != nil {
		return Session{}, fmt.Errorf("encode session: %w", err)
	}

	sess := Session{AccessID: uuid.NewString(), AdminID: adminID, RefreshToken: token}
	if err := m.store.Set(ctx, m.store.AccessSessionKey(sess.AccessID), string(value), m.ttl); err != nil {
		return Session{}, fmt.Errorf("store session: %w", err)
	}
	return sess, nil
}

// Rotate exchanges the refresh token bound to oldAccessID for a new session. The
// old key is claimed with compare-and-delete, so of two concurrent rotations
// with the same token only one succeeds.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, provided string) (Session, error) {
	if strings.TrimSpace(oldAccessID) == "" || strings.TrimSpace(provided) == "" {
		return Session{}, ErrInvalidRefreshToken
	}
	key := m.store.AccessSessionKey(oldAccessID)
	stored, err := m.store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}

	rec, ok := parseRecord(stored)
	if !ok || subtle.ConstantTimeCompare([]byte(rec.RefreshHash), []byte(digest(provided))) != 1 {
		return Session{}, ErrInvalidRefreshToken
	}
	claimed, err := m.store.DelIfValue(ctx, key, stored)
	if err != nil {
		return Session{}, fmt.Errorf("claim session: %w", err)
	}
	if !claimed {
		return Session{}, ErrInvalidRefreshToken
	}
	return m.Start(ctx, rec.AdminID)
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

// HasSession reports whether accessID still has a live refresh session.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if strings.TrimSpace(accessID) == "" {
		return false, nil
	}
	_, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	return true, nil
}

func parseRecord(value string) (record, bool) {
	var rec record
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		return record{}, false
	}
	return rec, rec.AdminID != uuid.Nil && rec.RefreshHash != ""
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating refresh token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
