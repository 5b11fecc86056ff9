package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/angelmondragon/venueops-backend/api/responses"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
)

const (
	defaultRequestLimit  = 300
	defaultRequestWindow = time.Minute
)

// RateLimit caps authenticated traffic per user, falling back to the client
// IP when no caller is in context.
func RateLimit() func(http.Handler) http.Handler {
	return RateLimitWith(defaultRequestLimit, defaultRequestWindow)
}

func RateLimitWith(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if userID := UserIDFromContext(r.Context()); userID != "" {
				return "user:" + userID, nil
			}
			return "ip:" + clientIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
		}),
	)
}
