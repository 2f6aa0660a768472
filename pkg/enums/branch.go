package enums

import "fmt"

// Branch identifies a congregation location. BranchBoth only appears on shared content
// and BranchUnset only on members who have not picked a location yet.
type Branch string

const (
	BranchOne   Branch = "branch1"
	BranchTwo   Branch = "branch2"
	BranchBoth  Branch = "both"
	BranchUnset Branch = "unset"
)

var validBranches = []Branch{BranchOne, BranchTwo, BranchBoth, BranchUnset}

// String implements fmt.Stringer.
func (b Branch) String() string {
	return string(b)
}

// IsValid reports whether the value matches a known Branch.
func (b Branch) IsValid() bool {
	for _, candidate := range validBranches {
		if candidate == b {
			return true
		}
	}
	return false
}

// IsSelectable reports whether a member may pick the branch as their home location.
func (b Branch) IsSelectable() bool {
	return b == BranchOne || b == BranchTwo
}

// IsEventBranch reports whether content may be scoped to the branch.
func (b Branch) IsEventBranch() bool {
	return b == BranchOne || b == BranchTwo || b == BranchBoth
}

// ParseBranch converts raw input into a Branch.
func ParseBranch(value string) (Branch, error) {
	for _, candidate := range validBranches {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid branch %q", value)
}
