package controllers

import (
	"net/http"

	"github.com/angelmondragon/venueops-backend/api/responses"
	"github.com/angelmondragon/venueops-backend/api/validators"
	"github.com/angelmondragon/venueops-backend/internal/permissions"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

type roleDefaultRequest struct {
	Role           string `json:"role" validate:"required"`
	PermissionCode string `json:"permission_code" validate:"required,max=64"`
	Granted        *bool  `json:"granted" validate:"required"`
}

// AdminPermissions returns the registry together with the default matrix.
func AdminPermissions(svc permissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("permissions"))
			return
		}
		overview, err := svc.Overview(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overview)
	}
}

func AdminPermissionsSync(svc permissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("permissions"))
			return
		}
		result, err := svc.Sync(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if logg != nil {
			logg.Info(logg.WithFields(r.Context(), map[string]any{
				"upserted":     result.Upserted,
				"deactivated":  result.Deactivated,
				"matrix_added": result.MatrixAdded,
			}), "permissions.synced")
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminSetRoleDefault(svc permissions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("permissions"))
			return
		}

		var body roleDefaultRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cell, err := svc.SetDefault(r.Context(), permissions.SetDefaultInput{
			Role:           body.Role,
			PermissionCode: body.PermissionCode,
			Granted:        *body.Granted,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, cell)
	}
}
