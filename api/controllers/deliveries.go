package controllers

import (
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/freshbox/freshbox-backend/api/responses"
	"github.com/freshbox/freshbox-backend/api/validators"
	"github.com/freshbox/freshbox-backend/internal/deliveries"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/logger"
	"github.com/freshbox/freshbox-backend/pkg/pagination"
)

// AdminDeliveryList pages scheduled deliveries by day, search text, item type
// and status.
func AdminDeliveryList(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}
		page, err := validators.ParseQueryIntClamped(r, "page", 1, 1, math.MaxInt32)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryIntClamped(r, "limit", pagination.DefaultPageLimit, 1, pagination.MaxPageLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		q := r.URL.Query()
		result, err := svc.List(r.Context(), deliveries.ListInput{
			Page:     page,
			Limit:    limit,
			Date:     q.Get("date"),
			From:     q.Get("from"),
			To:       q.Get("to"),
			Query:    validators.SanitizeString(q.Get("q"), 200),
			ItemType: q.Get("itemType"),
			Status:   q.Get("status"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type deliveryStatusRequest struct {
	Status string `json:"status"`
}

// AdminDeliveryUpdate changes a delivery's status.
func AdminDeliveryUpdate(svc deliveries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(chi.URLParam(r, "deliveryId"), "delivery id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload deliveryStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.UpdateStatus(r.Context(), id, payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
