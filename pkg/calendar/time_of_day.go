package calendar

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// TimeOfDay is an HH:MM wall-clock time used by shift intervals.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func ParseTimeOfDay(value string) (TimeOfDay, error) {
	value = strings.TrimSpace(value)
	// accept HH:MM:SS from databases that store a time column
	if len(value) == len("15:04:05") {
		value = value[:5]
	}
	var tod TimeOfDay
	if len(value) != 5 || value[2] != ':' {
		return tod, fmt.Errorf("bad time format, expected HH:MM: %q", value)
	}
	if _, err := fmt.Sscanf(value, "%02d:%02d", &tod.Hour, &tod.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("bad time format, expected HH:MM: %q", value)
	}
	if tod.Hour < 0 || tod.Hour > 23 || tod.Minute < 0 || tod.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("time out of range: %q", value)
	}
	return tod, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	default:
		return fmt.Errorf("calendar: cannot scan %T into TimeOfDay", src)
	}
}
