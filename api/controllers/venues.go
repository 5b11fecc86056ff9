package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/venueops-backend/api/responses"
	"github.com/angelmondragon/venueops-backend/api/validators"
	"github.com/angelmondragon/venueops-backend/internal/access"
	"github.com/angelmondragon/venueops-backend/internal/venues"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

type createVenueRequest struct {
	Name           string   `json:"name" validate:"required,notblank,max=200"`
	OwnerUsernames []string `json:"owner_usernames" validate:"omitempty,max=20,dive,required,max=64"`
}

type renameVenueRequest struct {
	Name string `json:"name" validate:"required,notblank,max=200"`
}

func VenueCreate(svc venues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("venues"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createVenueRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), caller, venues.CreateVenueInput{
			Name:           body.Name,
			OwnerUsernames: body.OwnerUsernames,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func VenueList(svc venues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("venues"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		includeArchived, err := validators.ParseQueryBool(r, "include_archived")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), caller, includeArchived)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list)
	}
}

func VenueGet(svc venues.Service, logg *logger.Logger) http.HandlerFunc {
	return venueAction(svc, logg, venues.Service.Get)
}

func VenueArchive(svc venues.Service, logg *logger.Logger) http.HandlerFunc {
	return venueAction(svc, logg, venues.Service.Archive)
}

func VenueUnarchive(svc venues.Service, logg *logger.Logger) http.HandlerFunc {
	return venueAction(svc, logg, venues.Service.Unarchive)
}

func VenueRename(svc venues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("venues"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body renameVenueRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		venue, err := svc.Rename(r.Context(), grant, body.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, venue)
	}
}

func VenueDelete(svc venues.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("venues"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), grant); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

type venueFunc func(svc venues.Service, ctx context.Context, grant *access.Grant) (*venues.VenueDTO, error)

func venueAction(svc venues.Service, logg *logger.Logger, fn venueFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("venues"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		venue, err := fn(svc, r.Context(), grant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, venue)
	}
}
