package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/venueops-backend/api/responses"
	"github.com/angelmondragon/venueops-backend/api/validators"
	"github.com/angelmondragon/venueops-backend/internal/scheduling"
	"github.com/angelmondragon/venueops-backend/pkg/calendar"
	"github.com/angelmondragon/venueops-backend/pkg/logger"
)

type intervalRequest struct {
	Title     string              `json:"title" validate:"required,notblank,max=100"`
	StartTime *calendar.TimeOfDay `json:"start_time" validate:"required"`
	EndTime   *calendar.TimeOfDay `json:"end_time" validate:"required"`
}

type updateIntervalRequest struct {
	Title     *string             `json:"title" validate:"omitempty,max=100"`
	StartTime *calendar.TimeOfDay `json:"start_time"`
	EndTime   *calendar.TimeOfDay `json:"end_time"`
}

type createShiftRequest struct {
	Date       *calendar.Date `json:"date" validate:"required"`
	IntervalID *uuid.UUID     `json:"interval_id" validate:"required"`
}

type updateShiftRequest struct {
	Date       *calendar.Date `json:"date"`
	IntervalID *uuid.UUID     `json:"interval_id"`
}

type assignRequest struct {
	MemberUserID *uuid.UUID `json:"member_user_id" validate:"required"`
}

type shiftCommentRequest struct {
	Text string `json:"text" validate:"required,notblank,max=2000"`
}

func IntervalList(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("scheduling"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListIntervals(r.Context(), grant)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list)
	}
}

func IntervalCreate(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("scheduling"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body intervalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		interval, err := svc.CreateInterval(r.Context(), grant, scheduling.IntervalInput{
			Title:     body.Title,
			StartTime: *body.StartTime,
			EndTime:   *body.EndTime,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, interval)
	}
}

func IntervalUpdate(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("scheduling"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		intervalID, err := validators.URLParamUUID(r, "intervalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateIntervalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		interval, err := svc.UpdateInterval(r.Context(), grant, intervalID, scheduling.UpdateIntervalInput{
			Title:     body.Title,
			StartTime: body.StartTime,
			EndTime:   body.EndTime,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, interval)
	}
}

func IntervalDelete(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("scheduling"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		intervalID, err := validators.URLParamUUID(r, "intervalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteInterval(r.Context(), grant, intervalID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func ShiftList(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("scheduling"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		month, err := validators.ParseQueryMonth(r, "month")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListShifts(r.Context(), grant, month)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, list)
	}
}

func ShiftCreate(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("scheduling"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createShiftRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shift, err := svc.CreateShift(r.Context(), grant, scheduling.CreateShiftInput{
			Date:       *body.Date,
			IntervalID: *body.IntervalID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, shift)
	}
}

func ShiftUpdate(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("scheduling"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shiftID, err := validators.URLParamUUID(r, "shiftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateShiftRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shift, err := svc.UpdateShift(r.Context(), grant, shiftID, scheduling.UpdateShiftInput{
			Date:       body.Date,
			IntervalID: body.IntervalID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shift)
	}
}

func ShiftDelete(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("scheduling"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shiftID, err := validators.URLParamUUID(r, "shiftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteShift(r.Context(), grant, shiftID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ShiftAssign answers 201 for a new assignment and 200 when the member was
// already on the shift.
func ShiftAssign(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("scheduling"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shiftID, err := validators.URLParamUUID(r, "shiftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body assignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignment, created, err := svc.Assign(r.Context(), grant, shiftID, *body.MemberUserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, assignment)
	}
}

func ShiftUnassign(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("scheduling"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shiftID, err := validators.URLParamUUID(r, "shiftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		memberID, err := validators.URLParamUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Unassign(r.Context(), grant, shiftID, memberID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func ShiftCommentList(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("scheduling"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shiftID, err := validators.URLParamUUID(r, "shiftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		comments, err := svc.ListComments(r.Context(), grant, shiftID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteList(w, comments)
	}
}

func ShiftCommentCreate(svc scheduling.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("scheduling"))
			return
		}
		grant, err := grantFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		shiftID, err := validators.URLParamUUID(r, "shiftId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body shiftCommentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		comment, err := svc.AddComment(r.Context(), grant, shiftID, body.Text)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, comment)
	}
}
