package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/api/responses"
	"github.com/angelmondragon/venueops-backend/api/validators"
	"github.com/angelmondragon/venueops-backend/internal/access"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

type GrantResolver interface {
	Resolve(ctx context.Context, userID, venueID uuid.UUID) (*access.Grant, error)
}

// VenueGrant resolves the caller's authority for the {venueId} path
// parameter. Handlers below it read the grant from the context.
func VenueGrant(resolver GrantResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if resolver == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "grant resolver unavailable"))
				return
			}
			caller, ok := access.CallerFrom(ctx)
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
				return
			}
			venueID, err := validators.URLParamUUID(r, "venueId")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			grant, err := resolver.Resolve(ctx, caller.UserID, venueID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = access.WithGrant(ctx, grant)
			if logg != nil {
				ctx = logg.WithVenueID(ctx, venueID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
