package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/api/responses"
	"github.com/angelmondragon/venueops-backend/api/validators"
	"github.com/angelmondragon/venueops-backend/internal/adjustments"
	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/venueops-backend/pkg/errors"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
	"github.com/angelmondragon/venueops-backend/pkg/types"
)

type createAdjustmentRequest struct {
	Type         string         `json:"type" validate:"required"`
	MemberUserID *uuid.UUID     `json:"member_user_id"`
	Date         *calendar.Date `json:"date" validate:"required"`
	Amount       int64          `json:"amount" validate:"gte=0"`
	Reason       *string        `json:"reason" validate:"omitempty,max=1000"`
}

type updateAdjustmentRequest struct {
	Type         *string                   `json:"type"`
	MemberUserID types.Nullable[uuid.UUID] `json:"member_user_id"`
	Date         *calendar.Date            `json:"date"`
	Amount       *int64                    `json:"amount" validate:"omitempty,gte=0"`
	Reason       *string                   `json:"reason" validate:"omitempty,max=1000"`
}

type disputeMessageRequest struct {
	Message string `json:"message" validate:"required,notblank,max=2000"`
}

func parseAdjustmentType(value, field string) (enums.AdjustmentType, error) {
	kind, err := enums.ParseAdjustmentType(value)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid adjustment type").
			WithDetails(map[string]any{"field": field})
	}
	return kind, nil
}

func adjustmentFilter(r *http.Request) (adjustments.ListFilter, error) {
	month, err := validators.ParseQueryMonth(r, "month")
	if err != nil {
		return adjustments.ListFilter{}, err
	}
	mine, err := validators.ParseQueryBool(r, "mine")
	if err != nil {
		return adjustments.ListFilter{}, err
	}
	filter := adjustments.ListFilter{Month: month, Mine: mine}
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		kind, err := parseAdjustmentType(raw, "type")
		if err != nil {
			return adjustments.ListFilter{}, err
		}
		filter.Type = &kind
	}
	return filter, nil
}

// AdjustmentList honours ?month=, ?type= and ?mine=1.
func AdjustmentList(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
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
		filter, err := adjustmentFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), grant, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list)
	}
}

func AdjustmentCreate(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
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

		var body createAdjustmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		kind, err := parseAdjustmentType(body.Type, "type")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adjustment, err := svc.Create(r.Context(), grant, adjustments.CreateInput{
			Type:         kind,
			MemberUserID: body.MemberUserID,
			Date:         *body.Date,
			Amount:       body.Amount,
			Reason:       body.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, adjustment)
	}
}

func AdjustmentGet(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
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
		id, err := validators.URLParamUUID(r, "adjustmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		adjustment, err := svc.Get(r.Context(), grant, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, adjustment)
	}
}

func AdjustmentUpdate(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
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
		id, err := validators.URLParamUUID(r, "adjustmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateAdjustmentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := adjustments.UpdateInput{
			MemberUserID: body.MemberUserID.Value,
			ClearMember:  body.MemberUserID.Cleared(),
			Date:         body.Date,
			Amount:       body.Amount,
			Reason:       body.Reason,
		}
		if body.Type != nil {
			kind, err := parseAdjustmentType(*body.Type, "type")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Type = &kind
		}

		adjustment, err := svc.Update(r.Context(), grant, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, adjustment)
	}
}

func AdjustmentDelete(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
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
		id, err := validators.URLParamUUID(r, "adjustmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), grant, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// disputeTarget reads {type}/{adjustmentId}; an unknown type is a missing
// resource rather than a validation failure.
func disputeTarget(r *http.Request) (enums.AdjustmentType, uuid.UUID, error) {
	kind, err := enums.ParseAdjustmentType(chi.URLParam(r, "type"))
	if err != nil {
		return "", uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "resource not found")
	}
	id, err := validators.URLParamUUID(r, "adjustmentId")
	if err != nil {
		return "", uuid.Nil, err
	}
	return kind, id, nil
}

func AdjustmentDisputeGet(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
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
		kind, id, err := disputeTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dispute, err := svc.AdjustmentDispute(r.Context(), grant, kind, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dispute)
	}
}

// AdjustmentDisputeOpen answers 201 when a new thread was opened and 200 when
// the message joined the existing OPEN thread.
func AdjustmentDisputeOpen(svc adjustments.Service, logg *logger.Logger) http.HandlerFunc {
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
		kind, id, err := disputeTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body disputeMessageRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dispute, created, err := svc.OpenDispute(r.Context(), grant, kind, id, body.Message)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, dispute)
	}
}
