package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

type providerClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

// JWKSVerifier validates RS256 ID tokens against the provider's published key set.
type JWKSVerifier struct {
	issuer   string
	audience string
	leeway   time.Duration
	keys     *keyCache
	now      func() time.Time
}

// NewJWKSVerifier builds a verifier for the configured project. No network call happens
// until the first token is verified.
func NewJWKSVerifier(cfg config.IdentityConfig, httpClient *http.Client) (*JWKSVerifier, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, fmt.Errorf("identity project id is required")
	}
	if strings.TrimSpace(cfg.JWKSURL) == "" {
		return nil, fmt.Errorf("identity jwks url is required")
	}
	if httpClient == nil {
		timeout := cfg.HTTPTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	now := func() time.Time { return time.Now().UTC() }
	return &JWKSVerifier{
		issuer:   cfg.Issuer(),
		audience: cfg.ProjectID,
		leeway:   cfg.Leeway,
		now:      now,
		keys: &keyCache{
			minRefresh:  time.Minute,
			fallbackTTL: ttl,
			now:         now,
			fetch:       fetchJWKS(httpClient, cfg.JWKSURL),
		},
	}, nil
}

// Verify returns the identity asserted by token. Failures are typed: Unauthorized for
// bad tokens and Dependency when the key set is unreachable.
func (v *JWKSVerifier) Verify(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, invalid(errors.New("empty token"))
	}

	claims := &providerClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithLeeway(v.leeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errUnknownKey
		}
		return v.keys.Key(ctx, kid)
	})
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return Identity{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "identity provider unavailable")
		}
		return Identity{}, invalid(err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, invalid(errors.New("token has no subject"))
	}

	return Identity{
		SubjectID:     claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		PictureURL:    claims.Picture,
	}, nil
}

// LooksLikeIDToken reports whether the unverified header names an RS256 key, which
// is how provider tokens differ from the HS256 administrator session tokens.
func LooksLikeIDToken(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	alg, _ := parsed.Header["alg"].(string)
	return alg == jwt.SigningMethodRS256.Alg()
}

func invalid(cause error) error {
	return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, fmt.Errorf("%w: %v", ErrInvalidCredential, cause), "invalid credential")
}
