package auth

import (
	"github.com/angelmondragon/churchhub-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting an administrator JWT.
type AccessTokenPayload struct {
	AdminID uuid.UUID
	Level   enums.AdminLevel
	JTI     string
}

// AccessTokenClaims is the typed JWT issued to password-authenticated administrators.
// Permissions are not embedded; they are reloaded per request so revocations apply at once.
type AccessTokenClaims struct {
	AdminID uuid.UUID           `json:"admin_id"`
	Kind    enums.PrincipalKind `json:"kind"`
	Level   enums.AdminLevel    `json:"level"`
	jwt.RegisteredClaims
}
