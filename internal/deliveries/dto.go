package deliveries

import (
	"time"

	"github.com/freshbox/freshbox-backend/internal/orders"
	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	"github.com/freshbox/freshbox-backend/pkg/types"
	"github.com/google/uuid"
)

// DeliveryOrder is the order context a driver needs.
type DeliveryOrder struct {
	orders.OrderSummaryDTO
	CustomerPhone   *string               `json:"customerPhone,omitempty"`
	DeliveryAddress types.DeliveryAddress `json:"deliveryAddress"`
}

// DeliveryDTO is one scheduled drop with its order and item.
type DeliveryDTO struct {
	ID           uuid.UUID            `json:"id"`
	OrderID      uuid.UUID            `json:"orderId"`
	OrderItemID  uuid.UUID            `json:"orderItemId"`
	DeliveryDate string               `json:"deliveryDate"`
	Status       enums.DeliveryStatus `json:"status"`
	DeliveredAt  *time.Time           `json:"deliveredAt"`
	Order        *DeliveryOrder       `json:"order,omitempty"`
	Item         *orders.OrderItemDTO `json:"item,omitempty"`
}

// DeliveryPage is one page of the admin delivery listing.
type DeliveryPage struct {
	Deliveries []DeliveryDTO `json:"deliveries"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"totalPages"`
}

func fromModel(d models.OrderDelivery) DeliveryDTO {
	dto := DeliveryDTO{
		ID:           d.ID,
		OrderID:      d.OrderID,
		OrderItemID:  d.OrderItemID,
		DeliveryDate: d.DeliveryDate.UTC().Format("2006-01-02"),
		Status:       d.Status,
		DeliveredAt:  d.DeliveredAt,
	}
	if d.Order != nil {
		dto.Order = &DeliveryOrder{
			OrderSummaryDTO: orders.SummaryFromModel(*d.Order),
			CustomerPhone:   d.Order.CustomerPhone,
			DeliveryAddress: d.Order.DeliveryAddress,
		}
	}
	if d.OrderItem != nil {
		item := orders.ItemFromModel(*d.OrderItem)
		dto.Item = &item
	}
	return dto
}
