package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithField("field", key)
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithField("field", key).WithField("min", min).WithField("max", max)
	}
	return value, nil
}

// ParseQueryMonth requires a YYYY-MM value.
func ParseQueryMonth(r *http.Request, key string) (calendar.Month, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return calendar.Month{}, pkgerrors.New(pkgerrors.CodeValidation, "query parameter is required").WithField("field", key)
	}
	month, err := calendar.ParseMonth(raw)
	if err != nil {
		return calendar.Month{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "month must be YYYY-MM").WithField("field", key)
	}
	return month, nil
}

// ParseQueryBool accepts 1/0, true/false and yes/no; empty means false.
func ParseQueryBool(r *http.Request, key string) (bool, error) {
	raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key)))
	switch raw {
	case "", "0", "false", "no":
		return false, nil
	case "1", "true", "yes":
		return true, nil
	}
	return false, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a boolean").WithField("field", key)
}
