package payloads

import (
	"time"

	"github.com/google/uuid"
)

// OrderPaidEvent tells fulfilment an order is settled and which days to pack.
type OrderPaidEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CustomerEmail string    `json:"customer_email"`
	TotalPence    int64     `json:"total_pence"`
	PaidAt        time.Time `json:"paid_at"`
	DeliveryDates []string  `json:"delivery_dates"`
}

// OrderPaymentFailedEvent is emitted when the provider reports a failed or
// expired payment for a pending order.
type OrderPaymentFailedEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CustomerEmail string    `json:"customer_email"`
	TotalPence    int64     `json:"total_pence"`
}
