package enums

import (
	"fmt"
	"strings"
)

// VenueRole is a member's role inside one venue.
type VenueRole string

const (
	VenueRoleOwner VenueRole = "OWNER"
	VenueRoleStaff VenueRole = "STAFF"
)

var validVenueRoles = []VenueRole{
	VenueRoleOwner,
	VenueRoleStaff,
}

func (r VenueRole) String() string {
	return string(r)
}

func (r VenueRole) IsValid() bool {
	for _, candidate := range validVenueRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseVenueRole accepts any casing ("owner", "OWNER").
func ParseVenueRole(value string) (VenueRole, error) {
	normalized := VenueRole(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid venue role %q", value)
}
