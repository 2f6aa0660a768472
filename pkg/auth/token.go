package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/config"
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var signingMethod = jwt.SigningMethodHS256

// clockSkew tolerates small drift between API instances.
const clockSkew = 5 * time.Second

var (
	ErrMissingSecret = errors.New("jwt secret is required")
	ErrNoAdminID     = errors.New("token carries no admin id")
)

// MintAccessToken signs an administrator access token valid for cfg.ExpirationMinutes from now.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	ttl, err := accessTTL(cfg)
	if err != nil {
		return "", err
	}
	switch {
	case payload.AdminID == uuid.Nil:
		return "", fmt.Errorf("admin id is required")
	case !payload.Level.IsValid():
		return "", fmt.Errorf("invalid admin level %q", payload.Level)
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	claims := AccessTokenClaims{
		AdminID: payload.AdminID,
		Kind:    enums.PrincipalKindAdministrator,
		Level:   payload.Level,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Subject:   payload.AdminID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
}

func accessTTL(cfg config.JWTConfig) (time.Duration, error) {
	switch {
	case cfg.Secret == "":
		return 0, ErrMissingSecret
	case cfg.Issuer == "":
		return 0, fmt.Errorf("jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return 0, fmt.Errorf("jwt expiration minutes must be positive")
	}
	return time.Duration(cfg.ExpirationMinutes) * time.Minute, nil
}

// ParseAccessToken verifies signature, issuer and lifetime.
func ParseAccessToken(cfg config.JWTConfig, token string) (*AccessTokenClaims, error) {
	return parse(cfg, token, jwt.WithExpirationRequired(), jwt.WithLeeway(clockSkew))
}

// ParseAccessTokenAllowExpired verifies the signature and issuer only. Refresh
// uses it to recover the session id from a lapsed access token.
func ParseAccessTokenAllowExpired(cfg config.JWTConfig, token string) (*AccessTokenClaims, error) {
	claims, err := parse(cfg, token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	// WithoutClaimsValidation skips the issuer check too.
	if claims.Issuer != cfg.Issuer {
		return nil, fmt.Errorf("%w: issuer %q", jwt.ErrTokenInvalidIssuer, claims.Issuer)
	}
	return claims, nil
}

// IsExpired reports whether err came from an access token past its exp.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}

func parse(cfg config.JWTConfig, token string, opts ...jwt.ParserOption) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	parser := jwt.NewParser(append(opts,
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)...)

	claims := &AccessTokenClaims{}
	if _, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.Secret), nil
	}); err != nil {
		return nil, err
	}
	if claims.AdminID == uuid.Nil {
		return nil, ErrNoAdminID
	}
	return claims, nil
}
