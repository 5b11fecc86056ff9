package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/api/responses"
	"github.com/angelmondragon/venueops-backend/api/validators"
	"github.com/angelmondragon/venueops-backend/internal/positions"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

type positionFlagsRequest struct {
	CanMakeReports       *bool `json:"can_make_reports"`
	CanViewReports       *bool `json:"can_view_reports"`
	CanViewRevenue       *bool `json:"can_view_revenue"`
	CanEditSchedule      *bool `json:"can_edit_schedule"`
	CanViewAdjustments   *bool `json:"can_view_adjustments"`
	CanManageAdjustments *bool `json:"can_manage_adjustments"`
	CanResolveDisputes   *bool `json:"can_resolve_disputes"`
}

func (f positionFlagsRequest) input() positions.FlagsInput {
	return positions.FlagsInput{
		CanMakeReports:       f.CanMakeReports,
		CanViewReports:       f.CanViewReports,
		CanViewRevenue:       f.CanViewRevenue,
		CanEditSchedule:      f.CanEditSchedule,
		CanViewAdjustments:   f.CanViewAdjustments,
		CanManageAdjustments: f.CanManageAdjustments,
		CanResolveDisputes:   f.CanResolveDisputes,
	}
}

type createPositionRequest struct {
	positionFlagsRequest
	MemberUserID *uuid.UUID `json:"member_user_id" validate:"required"`
	Title        string     `json:"title" validate:"required,notblank,max=100"`
	Rate         int64      `json:"rate" validate:"gte=0"`
	Percent      int        `json:"percent" validate:"gte=0,lte=100"`
}

type updatePositionRequest struct {
	positionFlagsRequest
	Title   *string `json:"title" validate:"omitempty,max=100"`
	Rate    *int64  `json:"rate" validate:"omitempty,gte=0"`
	Percent *int    `json:"percent" validate:"omitempty,gte=0,lte=100"`
}

func PositionList(svc positions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("positions"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), grant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list)
	}
}

func PositionCreate(svc positions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("positions"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createPositionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		position, err := svc.Create(r.Context(), grant, positions.CreatePositionInput{
			MemberUserID: *body.MemberUserID,
			Title:        body.Title,
			Rate:         body.Rate,
			Percent:      body.Percent,
			Flags:        body.input(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, position)
	}
}

func PositionUpdate(svc positions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("positions"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		positionID, err := validators.URLParamUUID(r, "positionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updatePositionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		position, err := svc.Update(r.Context(), grant, positionID, positions.UpdatePositionInput{
			Title:   body.Title,
			Rate:    body.Rate,
			Percent: body.Percent,
			Flags:   body.input(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, position)
	}
}

func PositionDelete(svc positions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("positions"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		positionID, err := validators.URLParamUUID(r, "positionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), grant, positionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
