package enums

import "fmt"

// MatrixRole keys the role-default permission matrix.
type MatrixRole string

const (
	MatrixRoleModerator    MatrixRole = "MODERATOR"
	MatrixRoleVenueOwner   MatrixRole = "VENUE_OWNER"
	MatrixRoleVenueManager MatrixRole = "VENUE_MANAGER"
	MatrixRoleStaff        MatrixRole = "STAFF"
)

// DefaultMatrixRoles lists every role that gets a row per permission on sync.
var DefaultMatrixRoles = []MatrixRole{
	MatrixRoleModerator,
	MatrixRoleVenueOwner,
	MatrixRoleVenueManager,
	MatrixRoleStaff,
}

var matrixRoleByVenueRole = map[string]MatrixRole{
	string(VenueRoleOwner): MatrixRoleVenueOwner,
	"MANAGER":              MatrixRoleVenueManager,
	string(VenueRoleStaff): MatrixRoleStaff,
}

func (r MatrixRole) String() string {
	return string(r)
}

func (r MatrixRole) IsValid() bool {
	for _, candidate := range DefaultMatrixRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

func ParseMatrixRole(value string) (MatrixRole, error) {
	for _, candidate := range DefaultMatrixRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid matrix role %q", value)
}

// MatrixRoleForVenueRole maps a membership role onto the matrix.
func MatrixRoleForVenueRole(role VenueRole) (MatrixRole, bool) {
	mapped, ok := matrixRoleByVenueRole[string(role)]
	return mapped, ok
}
