package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/venueops-backend/api/responses"
	"github.com/angelmondragon/venueops-backend/api/validators"
	"github.com/angelmondragon/venueops-backend/internal/adjustments"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

type disputeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func parseDisputeStatus(value, field string) (enums.DisputeStatus, error) {
	status, err := enums.ParseDisputeStatus(value)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid dispute status").
			WithDetails(map[string]any{"field": field})
	}
	return status, nil
}

func DisputeList(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("adjustments"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var status *enums.DisputeStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := parseDisputeStatus(raw, "status")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			status = &parsed
		}
		list, err := svc.ListDisputes(r.Context(), grant, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list)
	}
}

func DisputeGet(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("adjustments"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, "disputeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dispute, err := svc.GetDispute(r.Context(), grant, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dispute)
	}
}

func DisputeSetStatus(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("adjustments"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, "disputeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body disputeStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := parseDisputeStatus(body.Status, "status")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dispute, err := svc.SetDisputeStatus(r.Context(), grant, id, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dispute)
	}
}

func DisputeCommentCreate(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("adjustments"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.URLParamUUID(r, "disputeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body disputeMessageRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		comment, err := svc.AddComment(r.Context(), grant, id, body.Message)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, comment)
	}
}
