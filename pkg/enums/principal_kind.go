package enums

import "fmt"

// PrincipalKind distinguishes the two principal tables. It also records who created an event.
type PrincipalKind string

const (
	PrincipalKindMember        PrincipalKind = "member"
	PrincipalKindAdministrator PrincipalKind = "administrator"
)

var validPrincipalKinds = []PrincipalKind{
	PrincipalKindMember,
	PrincipalKindAdministrator,
}

// String implements fmt.Stringer.
func (p PrincipalKind) String() string {
	return string(p)
}

// IsValid reports whether the value matches a known PrincipalKind.
func (p PrincipalKind) IsValid() bool {
	for _, candidate := range validPrincipalKinds {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePrincipalKind converts raw input into a PrincipalKind.
func ParsePrincipalKind(value string) (PrincipalKind, error) {
	for _, candidate := range validPrincipalKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid principal kind %q", value)
}
