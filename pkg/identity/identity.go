// Package identity verifies bearer credentials issued by the external identity provider.
package identity

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrInvalidCredential covers malformed, expired, revoked or foreign tokens.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrUnavailable means the provider's signing keys could not be fetched.
	ErrUnavailable = errors.New("identity provider unavailable")
)

// Identity is the verified subject plus the profile claims the provider asserts.
type Identity struct {
	SubjectID     string
	Email         string
	EmailVerified bool
	Name          string
	PictureURL    string
}

// NormalizedEmail lower-cases and trims the asserted email.
func (i Identity) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(i.Email))
}

// DisplayName falls back to the mailbox name when the provider sent no name.
func (i Identity) DisplayName() string {
	if name := strings.TrimSpace(i.Name); name != "" {
		return name
	}
	email := i.NormalizedEmail()
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return "Member"
}

// Verifier checks an opaque bearer token. It has no side effects.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}
