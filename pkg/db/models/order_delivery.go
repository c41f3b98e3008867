package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshbox/freshbox-backend/pkg/enums"
)

// OrderDelivery is one scheduled fulfilment date for an order item.
type OrderDelivery struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID            `gorm:"column:order_id;type:uuid;not null"`
	OrderItemID  uuid.UUID            `gorm:"column:order_item_id;type:uuid;not null"`
	DeliveryDate time.Time            `gorm:"column:delivery_date;type:date;not null"`
	Status       enums.DeliveryStatus `gorm:"column:status;not null"`
	DeliveredAt  *time.Time           `gorm:"column:delivered_at"`
	Order        *Order               `gorm:"foreignKey:OrderID"`
	OrderItem    *OrderItem           `gorm:"foreignKey:OrderItemID"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderDelivery) TableName() string { return "order_deliveries" }

func (d *OrderDelivery) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
