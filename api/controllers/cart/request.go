package cart

import (
	"github.com/google/uuid"

	"github.com/freshbox/freshbox-backend/api/validators"
	cartsvc "github.com/freshbox/freshbox-backend/internal/cart"
	"github.com/freshbox/freshbox-backend/pkg/enums"
)

type addItemRequest struct {
	ProductID     uuid.UUID       `json:"productId" validate:"required"`
	AddonIDs      []uuid.UUID     `json:"addonIds"`
	Quantity      int             `json:"quantity" validate:"min=1,max=100"`
	OrderType     enums.OrderType `json:"orderType" validate:"required,oneof=ONE_TIME WEEKLY_PLAN CUSTOM_DAYS"`
	DeliveryDates []string        `json:"deliveryDates" validate:"required,min=1,max=31,dive,required"`
	Notes         *string         `json:"notes,omitempty" validate:"omitempty,max=500"`
}

func (a addItemRequest) toInput() cartsvc.AddItemInput {
	return cartsvc.AddItemInput{
		ProductID:     a.ProductID,
		AddonIDs:      a.AddonIDs,
		Quantity:      a.Quantity,
		OrderType:     a.OrderType,
		DeliveryDates: a.DeliveryDates,
		Notes:         validators.SanitizeOptional(a.Notes, 500),
	}
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=1,max=100"`
}

type applyDiscountRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}
