package enums

import "fmt"

// PrayerStatus tracks the lifecycle of a prayer request.
type PrayerStatus string

const (
	PrayerStatusActive   PrayerStatus = "active"
	PrayerStatusAnswered PrayerStatus = "answered"
	PrayerStatusArchived PrayerStatus = "archived"
)

var validPrayerStatuses = []PrayerStatus{
	PrayerStatusActive,
	PrayerStatusAnswered,
	PrayerStatusArchived,
}

// String implements fmt.Stringer.
func (p PrayerStatus) String() string {
	return string(p)
}

// IsValid reports whether the value matches a known PrayerStatus.
func (p PrayerStatus) IsValid() bool {
	for _, candidate := range validPrayerStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePrayerStatus converts raw input into a PrayerStatus.
func ParsePrayerStatus(value string) (PrayerStatus, error) {
	for _, candidate := range validPrayerStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid prayer status %q", value)
}

// PrayerPriority ranks how urgently a request is shared.
type PrayerPriority string

const (
	PrayerPriorityLow    PrayerPriority = "low"
	PrayerPriorityNormal PrayerPriority = "normal"
	PrayerPriorityHigh   PrayerPriority = "high"
	PrayerPriorityUrgent PrayerPriority = "urgent"
)

var validPrayerPriorities = []PrayerPriority{
	PrayerPriorityLow,
	PrayerPriorityNormal,
	PrayerPriorityHigh,
	PrayerPriorityUrgent,
}

// String implements fmt.Stringer.
func (p PrayerPriority) String() string {
	return string(p)
}

// IsValid reports whether the value matches a known PrayerPriority.
func (p PrayerPriority) IsValid() bool {
	for _, candidate := range validPrayerPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePrayerPriority converts raw input into a PrayerPriority.
func ParsePrayerPriority(value string) (PrayerPriority, error) {
	for _, candidate := range validPrayerPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid prayer priority %q", value)
}
