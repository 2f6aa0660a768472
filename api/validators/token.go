package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/churchhub-backend/pkg/errors"
)

// BearerToken returns the credential from "Authorization: Bearer <token>". A bare
// token without the scheme is accepted; any other scheme is not.
func BearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	switch {
	case header == "":
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	case !found:
		token = header
	case !strings.EqualFold(scheme, "bearer"):
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "unsupported authorization scheme")
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return token, nil
}
