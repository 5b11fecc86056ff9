package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/api/responses"
	"github.com/angelmondragon/venueops-backend/api/validators"
	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/internal/memberships"
	"github.com/angelmondragon/venueops-backend/internal/payroll"
	"github.com/angelmondragon/venueops-backend/internal/users"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

type profileRequest struct {
	FullName  *string `json:"full_name" validate:"omitempty,max=128"`
	ShortName *string `json:"short_name" validate:"omitempty,max=64"`
}

type venuePermissionsResponse struct {
	VenueID       uuid.UUID        `json:"venue_id"`
	SystemRole    enums.SystemRole `json:"system_role"`
	VenueRole     *enums.VenueRole `json:"venue_role"`
	PositionID    *uuid.UUID       `json:"position_id"`
	PositionTitle *string          `json:"position_title"`
	Permissions   []string         `json:"permissions"`
	Flags         access.Flags     `json:"flags"`
	IsOwner       bool             `json:"is_owner"`
}

func newVenuePermissionsResponse(grant *access.Grant) venuePermissionsResponse {
	out := venuePermissionsResponse{
		VenueID:     grant.VenueID,
		SystemRole:  grant.SystemRole,
		VenueRole:   grant.VenueRole,
		Permissions: grant.Permissions,
		Flags:       grant.Flags,
		IsOwner:     grant.OwnerOrSuperAdmin(),
	}
	if out.Permissions == nil {
		out.Permissions = []string{}
	}
	if grant.Position != nil {
		id, title := grant.Position.ID, grant.Position.Title
		out.PositionID = &id
		out.PositionTitle = &title
	}
	return out
}

type notificationSettingsRequest struct {
	NotifyEnabled     *bool `json:"notify_enabled"`
	NotifyAdjustments *bool `json:"notify_adjustments"`
	NotifyShifts      *bool `json:"notify_shifts"`
}

func Me(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("users"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.Me(r.Context(), caller.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}

func MeProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("users"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := svc.Profile(r.Context(), caller.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// MeUpdateProfile serves both PATCH /me and PATCH /me/profile. Empty strings
// clear the stored name.
func MeUpdateProfile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("users"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body profileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.UpdateProfile(r.Context(), caller.UserID, users.UpdateProfileInput{
			FullName:  body.FullName,
			ShortName: body.ShortName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

func MeNotificationSettings(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("users"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		settings, err := svc.NotificationSettings(r.Context(), caller.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

func MeUpdateNotificationSettings(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("users"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body notificationSettingsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settings, err := svc.UpdateNotificationSettings(r.Context(), caller.UserID, users.UpdateNotificationSettingsInput{
			NotifyEnabled:     body.NotifyEnabled,
			NotifyAdjustments: body.NotifyAdjustments,
			NotifyShifts:      body.NotifyShifts,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

func MeVenues(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("memberships"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		venues, err := svc.MyVenues(r.Context(), caller.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, venues)
	}
}

// MeVenueMembers is the money-free roster visible to any member.
func MeVenueMembers(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("memberships"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		roster, err := svc.Roster(r.Context(), grant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, roster)
	}
}

// MeVenuePermissions returns the caller's resolved grant for the venue.
func MeVenuePermissions(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := access.Require(grant.IsMember(), "not a member of this venue"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newVenuePermissionsResponse(grant))
	}
}

func MeLeaveVenue(svc memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("memberships"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Leave(r.Context(), grant); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func MeShifts(svc payroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("payroll"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		month, err := validators.ParseQueryMonth(r, "month")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shifts, err := svc.MyShifts(r.Context(), caller.UserID, month)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, shifts)
	}
}

func MeSalarySummary(svc payroll.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("payroll"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		month, err := validators.ParseQueryMonth(r, "month")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.MySalarySummary(r.Context(), caller.UserID, month)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

