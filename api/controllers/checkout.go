package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/freshbox/freshbox-backend/api/responses"
	"github.com/freshbox/freshbox-backend/api/validators"
	checkoutsvc "github.com/freshbox/freshbox-backend/internal/checkout"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/logger"
	"github.com/freshbox/freshbox-backend/pkg/types"
)

// Checkout creates a pending order and a hosted payment session for it.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Execute(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithOrderID(ctx, result.Order.ID.String())
			logg.Info(ctx, "checkout.session_created")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// Required customer fields and an empty cart are reported by the service so
// the storefront gets its specific messages.
type checkoutRequest struct {
	Items           []checkoutItemRequest  `json:"items" validate:"dive"`
	CustomerEmail   string                 `json:"customerEmail" validate:"max=254"`
	CustomerPhone   *string                `json:"customerPhone,omitempty" validate:"omitempty,max=32"`
	DeliveryAddress *types.DeliveryAddress `json:"deliveryAddress"`
	DiscountCode    *string                `json:"discountCode,omitempty" validate:"omitempty,max=64"`
}

type checkoutItemRequest struct {
	ProductID     uuid.UUID       `json:"productId" validate:"required"`
	Quantity      int             `json:"quantity" validate:"gte=0,max=100"`
	AddonIDs      []uuid.UUID     `json:"addonIds"`
	OrderType     enums.OrderType `json:"orderType" validate:"required"`
	DeliveryDates []string        `json:"deliveryDates" validate:"max=31"`
}

func (c checkoutRequest) toInput() checkoutsvc.CheckoutInput {
	items := make([]checkoutsvc.ItemInput, len(c.Items))
	for i, item := range c.Items {
		items[i] = checkoutsvc.ItemInput{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			AddonIDs:      item.AddonIDs,
			OrderType:     item.OrderType,
			DeliveryDates: item.DeliveryDates,
		}
	}
	return checkoutsvc.CheckoutInput{
		Items:           items,
		CustomerEmail:   validators.SanitizeString(c.CustomerEmail, 254),
		CustomerPhone:   validators.SanitizeOptional(c.CustomerPhone, 32),
		DeliveryAddress: c.DeliveryAddress,
		DiscountCode:    validators.SanitizeOptional(c.DiscountCode, 64),
	}
}
