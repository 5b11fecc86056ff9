package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/venueops-backend/api/responses"
	"github.com/angelmondragon/venueops-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is satisfied by the db, redis and storage clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck names one dependency probed by the readiness endpoint.
type HealthCheck struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VenueOps-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every configured dependency and fails with 503 on the
// first one that does not answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VenueOps-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		results := make(map[string]string, len(checks))
		for _, check := range checks {
			if check.Pinger == nil {
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency unavailable").
					WithDetails(map[string]any{"check": check.Name}))
				return
			}
			results[check.Name] = "ok"
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": results})
	}
}
