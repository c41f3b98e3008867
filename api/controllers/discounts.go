package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/freshbox/freshbox-backend/api/responses"
	"github.com/freshbox/freshbox-backend/api/validators"
	"github.com/freshbox/freshbox-backend/internal/discounts"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/logger"
)

// DiscountValidate prices the submitted lines and applies code to them.
func DiscountValidate(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}

		var payload validateDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Validate(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type validateDiscountRequest struct {
	Code  string                    `json:"code" validate:"max=64"`
	Items []validateDiscountLineReq `json:"items" validate:"dive"`
}

// OrderType is accepted so cart lines can be posted unchanged; pricing does
// not depend on it.
type validateDiscountLineReq struct {
	ProductID     uuid.UUID       `json:"productId" validate:"required"`
	AddonIDs      []uuid.UUID     `json:"addonIds"`
	Quantity      int             `json:"quantity" validate:"gte=0,max=100"`
	OrderType     enums.OrderType `json:"orderType,omitempty"`
	DeliveryDates []string        `json:"deliveryDates" validate:"max=31"`
}

func (v validateDiscountRequest) toInput() discounts.ValidateInput {
	items := make([]discounts.ValidateItem, len(v.Items))
	for i, item := range v.Items {
		items[i] = discounts.ValidateItem{
			ProductID:     item.ProductID,
			AddonIDs:      item.AddonIDs,
			Quantity:      item.Quantity,
			DeliveryDates: item.DeliveryDates,
		}
	}
	return discounts.ValidateInput{Code: validators.SanitizeString(v.Code, 64), Items: items}
}

func AdminDiscountList(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"discounts": list})
	}
}

func AdminDiscountCreate(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}
		var payload discountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Create(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminDiscountUpdate(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(chi.URLParam(r, "discountId"), "discount id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload discountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Update(r.Context(), id, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

func AdminDiscountDelete(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(chi.URLParam(r, "discountId"), "discount id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// AdminDiscountToggle flips the active flag.
func AdminDiscountToggle(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discount service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(chi.URLParam(r, "discountId"), "discount id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Toggle(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

type discountRequest struct {
	Code                string             `json:"code" validate:"required,max=64"`
	Description         *string            `json:"description,omitempty" validate:"omitempty,max=500"`
	Type                enums.DiscountType `json:"type" validate:"required,oneof=FIXED PERCENTAGE"`
	Value               int64              `json:"value" validate:"gte=0"`
	MinOrderPence       int64              `json:"minOrderPence" validate:"gte=0"`
	MaxDiscountCapPence *int64             `json:"maxDiscountCapPence,omitempty" validate:"omitempty,gte=0"`
	CategoryIDs         []uuid.UUID        `json:"categoryIds"`
}

func (d discountRequest) toInput() discounts.DiscountInput {
	return discounts.DiscountInput{
		Code:          d.Code,
		Description:   validators.SanitizeOptional(d.Description, 500),
		Type:          d.Type,
		Value:         d.Value,
		MinOrderPence: d.MinOrderPence,
		MaxCapPence:   d.MaxDiscountCapPence,
		CategoryIDs:   d.CategoryIDs,
	}
}
