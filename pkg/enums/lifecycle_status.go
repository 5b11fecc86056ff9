package enums

import "fmt"

// LifecycleStatus is the shared soft-delete convention for venue-scoped rows.
// Only LifecycleActive rows are visible to normal queries.
type LifecycleStatus string

const (
	LifecycleActive   LifecycleStatus = "active"
	LifecycleArchived LifecycleStatus = "archived"
	LifecycleDeleted  LifecycleStatus = "deleted"
)

var validLifecycleStatuses = []LifecycleStatus{
	LifecycleActive,
	LifecycleArchived,
	LifecycleDeleted,
}

func (s LifecycleStatus) String() string {
	return string(s)
}

func (s LifecycleStatus) IsValid() bool {
	for _, candidate := range validLifecycleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func (s LifecycleStatus) IsActive() bool {
	return s == LifecycleActive
}

func ParseLifecycleStatus(value string) (LifecycleStatus, error) {
	for _, candidate := range validLifecycleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lifecycle status %q", value)
}
