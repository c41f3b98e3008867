package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshbox/freshbox-backend/pkg/enums"
	"github.com/freshbox/freshbox-backend/pkg/types"
)

// Order is a customer purchase awaiting or holding payment.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string                `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerEmail   string                `gorm:"column:customer_email;not null"`
	CustomerPhone   *string               `gorm:"column:customer_phone"`
	DeliveryAddress types.DeliveryAddress `gorm:"column:delivery_address;type:jsonb;serializer:json;not null"`
	DiscountID      *uuid.UUID            `gorm:"column:discount_id;type:uuid"`
	DiscountCode    *string               `gorm:"column:discount_code"`
	SubtotalPence   int64                 `gorm:"column:subtotal_pence;not null"`
	DiscountPence   int64                 `gorm:"column:discount_pence;not null"`
	TotalPence      int64                 `gorm:"column:total_pence;not null"`
	PaymentStatus   enums.PaymentStatus   `gorm:"column:payment_status;not null"`
	OrderStatus     enums.OrderStatus     `gorm:"column:order_status;not null"`
	StripeSessionID *string               `gorm:"column:stripe_session_id"`
	PaidAt          *time.Time            `gorm:"column:paid_at"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Deliveries      []OrderDelivery       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
