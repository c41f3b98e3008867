package orders

import (
	"time"

	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	"github.com/freshbox/freshbox-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderSummaryDTO is one row of the admin order list.
type OrderSummaryDTO struct {
	ID            uuid.UUID           `json:"id"`
	OrderNumber   string              `json:"orderNumber"`
	CustomerEmail string              `json:"customerEmail"`
	SubtotalPence int64               `json:"subtotalPence"`
	DiscountPence int64               `json:"discountPence"`
	TotalPence    int64               `json:"totalPence"`
	TotalPounds   decimal.Decimal     `json:"totalPounds"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	OrderStatus   enums.OrderStatus   `json:"orderStatus"`
	ItemCount     int                 `json:"itemCount"`
	PaidAt        *time.Time          `json:"paidAt,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummaryDTO `json:"orders"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

// OrderDTO is the full order with its purchase-time snapshots.
type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	OrderNumber     string                `json:"orderNumber"`
	CustomerEmail   string                `json:"customerEmail"`
	CustomerPhone   *string               `json:"customerPhone,omitempty"`
	DeliveryAddress types.DeliveryAddress `json:"deliveryAddress"`
	DiscountID      *uuid.UUID            `json:"discountId,omitempty"`
	DiscountCode    *string               `json:"discountCode,omitempty"`
	SubtotalPence   int64                 `json:"subtotalPence"`
	DiscountPence   int64                 `json:"discountPence"`
	TotalPence      int64                 `json:"totalPence"`
	TotalPounds     decimal.Decimal       `json:"totalPounds"`
	PaymentStatus   enums.PaymentStatus   `json:"paymentStatus"`
	OrderStatus     enums.OrderStatus     `json:"orderStatus"`
	StripeSessionID *string               `json:"stripeSessionId,omitempty"`
	PaidAt          *time.Time            `json:"paidAt,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	Items           []OrderItemDTO        `json:"items"`
	Deliveries      []DeliveryDTO         `json:"deliveries"`
}

// OrderItemDTO is a purchased line.
type OrderItemDTO struct {
	ID              uuid.UUID             `json:"id"`
	ProductID       *uuid.UUID            `json:"productId"`
	ItemType        enums.OrderType       `json:"itemType"`
	Quantity        int                   `json:"quantity"`
	UnitPricePence  int64                 `json:"unitPricePence"`
	TotalPricePence int64                 `json:"totalPricePence"`
	Product         types.ProductSnapshot `json:"product"`
	DeliveryDates   []string              `json:"deliveryDates"`
	Addons          []OrderItemAddonDTO   `json:"addons"`
}

// OrderItemAddonDTO is an add-on as it was sold.
type OrderItemAddonDTO struct {
	ID      uuid.UUID           `json:"id"`
	AddonID *uuid.UUID          `json:"addonId"`
	Addon   types.AddonSnapshot `json:"addon"`
}

// DeliveryDTO is one scheduled delivery of an order item.
type DeliveryDTO struct {
	ID           uuid.UUID            `json:"id"`
	OrderItemID  uuid.UUID            `json:"orderItemId"`
	DeliveryDate string               `json:"deliveryDate"`
	Status       enums.DeliveryStatus `json:"status"`
	DeliveredAt  *time.Time           `json:"deliveredAt,omitempty"`
}

// FromModel maps an order with preloaded associations.
func FromModel(o models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		DeliveryAddress: o.DeliveryAddress,
		DiscountID:      o.DiscountID,
		DiscountCode:    o.DiscountCode,
		SubtotalPence:   o.SubtotalPence,
		DiscountPence:   o.DiscountPence,
		TotalPence:      o.TotalPence,
		TotalPounds:     types.PenceToPounds(o.TotalPence),
		PaymentStatus:   o.PaymentStatus,
		OrderStatus:     o.OrderStatus,
		StripeSessionID: o.StripeSessionID,
		PaidAt:          o.PaidAt,
		CreatedAt:       o.CreatedAt,
		Items:           make([]OrderItemDTO, 0, len(o.Items)),
		Deliveries:      make([]DeliveryDTO, 0, len(o.Deliveries)),
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, ItemFromModel(item))
	}
	for _, d := range o.Deliveries {
		dto.Deliveries = append(dto.Deliveries, DeliveryFromModel(d))
	}
	return dto
}

// ItemFromModel maps an order item and its add-ons.
func ItemFromModel(item models.OrderItem) OrderItemDTO {
	dates := item.DeliveryDates
	if dates == nil {
		dates = []string{}
	}
	out := OrderItemDTO{
		ID:              item.ID,
		ProductID:       item.ProductID,
		ItemType:        item.ItemType,
		Quantity:        item.Quantity,
		UnitPricePence:  item.UnitPricePence,
		TotalPricePence: item.TotalPricePence,
		Product:         item.ProductSnapshot,
		DeliveryDates:   dates,
		Addons:          make([]OrderItemAddonDTO, 0, len(item.Addons)),
	}
	for _, a := range item.Addons {
		out.Addons = append(out.Addons, OrderItemAddonDTO{ID: a.ID, AddonID: a.AddonID, Addon: a.AddonSnapshot})
	}
	return out
}

// DeliveryFromModel maps a delivery row.
func DeliveryFromModel(d models.OrderDelivery) DeliveryDTO {
	return DeliveryDTO{
		ID:           d.ID,
		OrderItemID:  d.OrderItemID,
		DeliveryDate: d.DeliveryDate.UTC().Format("2006-01-02"),
		Status:       d.Status,
		DeliveredAt:  d.DeliveredAt,
	}
}

// SummaryFromModel maps an order row for listings.
func SummaryFromModel(o models.Order) OrderSummaryDTO {
	return OrderSummaryDTO{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerEmail: o.CustomerEmail,
		SubtotalPence: o.SubtotalPence,
		DiscountPence: o.DiscountPence,
		TotalPence:    o.TotalPence,
		TotalPounds:   types.PenceToPounds(o.TotalPence),
		PaymentStatus: o.PaymentStatus,
		OrderStatus:   o.OrderStatus,
		ItemCount:     len(o.Items),
		PaidAt:        o.PaidAt,
		CreatedAt:     o.CreatedAt,
	}
}
