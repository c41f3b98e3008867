package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/freshbox/freshbox-backend/api/responses"
	"github.com/freshbox/freshbox-backend/api/validators"
	"github.com/freshbox/freshbox-backend/internal/schedule"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/logger"
)

// ScheduleCalendar returns holidays and availability overrides between from
// and to for the storefront date picker.
func ScheduleCalendar(svc schedule.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "schedule service unavailable"))
			return
		}
		from, err := validators.ParseQueryDate(r, "from", loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to", loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		calendar, err := svc.Calendar(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, calendar)
	}
}

type holidayRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Description string `json:"description" validate:"required,max=200"`
}

type availabilityRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Available bool   `json:"available"`
	Capacity  *int   `json:"capacity" validate:"omitempty,gte=0"`
}

func AdminHolidayUpsert(svc schedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "schedule service unavailable"))
			return
		}
		var payload holidayRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.UpsertHoliday(r.Context(), schedule.HolidayInput{
			Date:        payload.Date,
			Description: validators.SanitizeString(payload.Description, 200),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminHolidayDelete(svc schedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "schedule service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(chi.URLParam(r, "holidayId"), "holiday id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteHoliday(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func AdminAvailabilityUpsert(svc schedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "schedule service unavailable"))
			return
		}
		var payload availabilityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.UpsertAvailability(r.Context(), schedule.AvailabilityInput{
			Date:      payload.Date,
			Available: payload.Available,
			Capacity:  payload.Capacity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminAvailabilityDelete(svc schedule.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "schedule service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(chi.URLParam(r, "availabilityId"), "availability id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeleteAvailability(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
