package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

// URLParamUUID parses a chi path parameter. Malformed ids are reported as
// NOT_FOUND so probing never distinguishes them from missing rows.
func URLParamUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "resource not found").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

func URLParamDate(r *http.Request, key string) (calendar.Date, error) {
	date, err := calendar.ParseDate(strings.TrimSpace(chi.URLParam(r, key)))
	if err != nil {
		return calendar.Date{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date must be YYYY-MM-DD").WithDetails(map[string]any{"field": key})
	}
	return date, nil
}
