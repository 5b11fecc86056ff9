package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/api/responses"
	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/internal/users"
	pkgAuth "github.com/angelmondragon/venueops-backend/pkg/auth"
	"github.com/angelmondragon/venueops-backend/pkg/auth/session"
	"github.com/angelmondragon/venueops-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

// CallerLoader re-reads the user on every request so role changes and
// deletions take effect without waiting for token expiry.
type CallerLoader interface {
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
}

// Auth accepts the session cookie or a bearer token and seeds the request
// context with the caller.
func Auth(cfg config.JWTConfig, cookieName string, verifier session.AccessSessionChecker, loader CallerLoader, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, cookieName)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			if claims.ID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(r.Context(), claims.ID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			userID, err := claims.UserID()
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid subject"))
				return
			}

			caller := access.Caller{UserID: userID, TgUserID: claims.TgUserID}
			if loader != nil {
				user, err := loader.Me(r.Context(), userID)
				if err != nil {
					if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
						err = pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
					}
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				caller.TgUserID = user.TgUserID
				caller.SystemRole = user.SystemRole
			}

			ctx := access.WithCaller(r.Context(), caller)
			ctx = withAccessID(ctx, claims.ID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, userID.String())
				ctx = logg.WithSystemRole(ctx, string(caller.SystemRole))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest prefers the Authorization header over the session cookie.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if raw := strings.TrimSpace(r.Header.Get("Authorization")); raw != "" {
		token := raw
		if strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = strings.TrimSpace(token[7:])
		}
		return token
	}
	if cookieName == "" {
		return ""
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
