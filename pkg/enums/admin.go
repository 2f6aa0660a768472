package enums

import "fmt"

// AdminLevel is the coarse privilege tier of an administrator.
type AdminLevel string

const (
	AdminLevelStandard AdminLevel = "standard"
	AdminLevelSuper    AdminLevel = "super"
)

// String implements fmt.Stringer.
func (a AdminLevel) String() string {
	return string(a)
}

// IsValid reports whether the value matches a known AdminLevel.
func (a AdminLevel) IsValid() bool {
	return a == AdminLevelStandard || a == AdminLevelSuper
}

// ParseAdminLevel converts raw input into an AdminLevel.
func ParseAdminLevel(value string) (AdminLevel, error) {
	level := AdminLevel(value)
	if !level.IsValid() {
		return "", fmt.Errorf("invalid admin level %q", value)
	}
	return level, nil
}

// AdminPermission is a named capability flag granted to an administrator.
type AdminPermission string

const (
	PermissionManageUsers        AdminPermission = "manageUsers"
	PermissionManageBothBranches AdminPermission = "manageBothBranches"
	PermissionManageContent      AdminPermission = "manageContent"
	PermissionManageSermons      AdminPermission = "manageSermons"
	PermissionCreateAdmins       AdminPermission = "createAdmins"
)

var validAdminPermissions = []AdminPermission{
	PermissionManageUsers,
	PermissionManageBothBranches,
	PermissionManageContent,
	PermissionManageSermons,
	PermissionCreateAdmins,
}

// DefaultAdminPermissions are granted to administrators created from the seed list.
var DefaultAdminPermissions = []AdminPermission{
	PermissionManageContent,
	PermissionManageSermons,
}

// AllAdminPermissions returns every known permission flag.
func AllAdminPermissions() []AdminPermission {
	out := make([]AdminPermission, len(validAdminPermissions))
	copy(out, validAdminPermissions)
	return out
}

// String implements fmt.Stringer.
func (p AdminPermission) String() string {
	return string(p)
}

// IsValid reports whether the value matches a known AdminPermission.
func (p AdminPermission) IsValid() bool {
	for _, candidate := range validAdminPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseAdminPermission converts raw input into an AdminPermission.
func ParseAdminPermission(value string) (AdminPermission, error) {
	for _, candidate := range validAdminPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid admin permission %q", value)
}
