package enums

import (
	"fmt"
	"strings"
)

// AdjustmentType classifies a payroll adjustment.
type AdjustmentType string

const (
	AdjustmentTypePenalty  AdjustmentType = "penalty"
	AdjustmentTypeWriteoff AdjustmentType = "writeoff"
	AdjustmentTypeBonus    AdjustmentType = "bonus"
)

var validAdjustmentTypes = []AdjustmentType{
	AdjustmentTypePenalty,
	AdjustmentTypeWriteoff,
	AdjustmentTypeBonus,
}

func (t AdjustmentType) String() string {
	return string(t)
}

func (t AdjustmentType) IsValid() bool {
	for _, candidate := range validAdjustmentTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Deducts reports whether the adjustment reduces net pay.
func (t AdjustmentType) Deducts() bool {
	return t == AdjustmentTypePenalty || t == AdjustmentTypeWriteoff
}

// AllowsVenueLevel reports whether the adjustment may omit a target member.
func (t AdjustmentType) AllowsVenueLevel() bool {
	return t == AdjustmentTypeWriteoff
}

func ParseAdjustmentType(value string) (AdjustmentType, error) {
	normalized := AdjustmentType(strings.ToLower(strings.TrimSpace(value)))
	if normalized.IsValid() {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid adjustment type %q", value)
}
