package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/venueops-backend/api/middleware"
	"github.com/angelmondragon/venueops-backend/api/responses"
	"github.com/angelmondragon/venueops-backend/api/validators"
	"github.com/angelmondragon/venueops-backend/internal/auth"
	pkgAuth "github.com/angelmondragon/venueops-backend/pkg/auth"
	"github.com/angelmondragon/venueops-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

const tokenHeader = "X-VenueOps-Token"

// AuthTelegram exchanges signed Mini App initData for a session cookie.
func AuthTelegram(svc auth.Service, cookie config.CookieConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}

		var body auth.TelegramLoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.TelegramLogin(r.Context(), body.InitData)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		http.SetCookie(w, sessionCookie(cookie, result.AccessToken, result.ExpiresAt))
		w.Header().Set(tokenHeader, result.AccessToken)
		responses.WriteNoContent(w)
	}
}

// AuthLogout revokes the presented session when it is still valid and always
// clears the cookie.
func AuthLogout(svc auth.Service, jwtCfg config.JWTConfig, cookie config.CookieConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("auth"))
			return
		}

		if token := middleware.TokenFromRequest(r, cookie.Name); token != "" {
			claims, err := pkgAuth.ParseAccessToken(jwtCfg, token)
			if err == nil && claims.ID != "" {
				if err := svc.Logout(r.Context(), claims.ID); err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
					return
				}
			}
		}

		http.SetCookie(w, expiredCookie(cookie))
		responses.WriteNoContent(w)
	}
}

func sessionCookie(cfg config.CookieConfig, token string, expiresAt time.Time) *http.Cookie {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	return &http.Cookie{
		Name:     cookieName(cfg),
		Value:    token,
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  expiresAt.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: sameSite(cfg.SameSite),
	}
}

func expiredCookie(cfg config.CookieConfig) *http.Cookie {
	return &http.Cookie{
		Name:     cookieName(cfg),
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: sameSite(cfg.SameSite),
	}
}

func cookieName(cfg config.CookieConfig) string {
	if cfg.Name == "" {
		return "access_token"
	}
	return cfg.Name
}

func sameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
