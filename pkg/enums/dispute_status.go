package enums

import (
	"fmt"
	"strings"
)

// DisputeStatus tracks an adjustment dispute thread.
type DisputeStatus string

const (
	DisputeStatusOpen   DisputeStatus = "OPEN"
	DisputeStatusClosed DisputeStatus = "CLOSED"
)

func (s DisputeStatus) String() string {
	return string(s)
}

func (s DisputeStatus) IsValid() bool {
	return s == DisputeStatusOpen || s == DisputeStatusClosed
}

func ParseDisputeStatus(value string) (DisputeStatus, error) {
	normalized := DisputeStatus(strings.ToUpper(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid dispute status %q", value)
}
