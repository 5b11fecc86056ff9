package enums

import "fmt"

// SystemRole is a platform-wide role that overrides venue membership.
type SystemRole string

const (
	SystemRoleNone       SystemRole = "NONE"
	SystemRoleModerator  SystemRole = "MODERATOR"
	SystemRoleSuperAdmin SystemRole = "SUPER_ADMIN"
)

var validSystemRoles = []SystemRole{
	SystemRoleNone,
	SystemRoleModerator,
	SystemRoleSuperAdmin,
}

// String implements fmt.Stringer.
func (r SystemRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known SystemRole.
func (r SystemRole) IsValid() bool {
	for _, candidate := range validSystemRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsElevated reports whether the role grants cross-venue visibility.
func (r SystemRole) IsElevated() bool {
	return r == SystemRoleModerator || r == SystemRoleSuperAdmin
}

// ParseSystemRole converts raw input into a SystemRole.
func ParseSystemRole(value string) (SystemRole, error) {
	for _, candidate := range validSystemRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid system role %q", value)
}
