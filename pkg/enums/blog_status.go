package enums

import "fmt"

// BlogStatus tracks whether a post is visible to members.
type BlogStatus string

const (
	BlogStatusDraft     BlogStatus = "draft"
	BlogStatusPublished BlogStatus = "published"
)

// String implements fmt.Stringer.
func (b BlogStatus) String() string {
	return string(b)
}

// IsValid reports whether the value matches a known BlogStatus.
func (b BlogStatus) IsValid() bool {
	return b == BlogStatusDraft || b == BlogStatusPublished
}

// ParseBlogStatus converts raw input into a BlogStatus.
func ParseBlogStatus(value string) (BlogStatus, error) {
	status := BlogStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid blog status %q", value)
	}
	return status, nil
}
