package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

const (
	requestIDHeader    = "X-Request-Id"
	maxRequestIDLength = 128
)

// inboundRequestIDHeaders are checked in order; proxies in front of the
// Mini App backend use either.
var inboundRequestIDHeaders = []string{requestIDHeader, "X-Correlation-Id"}

// RequestID echoes a safe caller-supplied id or mints a uuid, and tags the
// log context with it.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := inboundRequestID(r)
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, reqID)
			if logg != nil {
				r = r.WithContext(logg.WithRequestID(r.Context(), reqID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func inboundRequestID(r *http.Request) string {
	for _, header := range inboundRequestIDHeaders {
		if id := strings.TrimSpace(r.Header.Get(header)); validRequestID(id) {
			return id
		}
	}
	return ""
}

// validRequestID keeps ids printable so they are safe in headers and logs.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.' || c == ':':
		default:
			return false
		}
	}
	return true
}
