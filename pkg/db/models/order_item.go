package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshbox/freshbox-backend/pkg/enums"
	"github.com/freshbox/freshbox-backend/pkg/types"
)

// OrderItem is one purchased cart line. The snapshot keeps historical orders
// unaffected by later catalog edits; ProductID is cleared if the product is deleted.
type OrderItem struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	ProductID       *uuid.UUID            `gorm:"column:product_id;type:uuid"`
	ItemType        enums.OrderType       `gorm:"column:item_type;not null"`
	Quantity        int                   `gorm:"column:quantity;not null"`
	UnitPricePence  int64                 `gorm:"column:unit_price_pence;not null"`
	TotalPricePence int64                 `gorm:"column:total_price_pence;not null"`
	ProductSnapshot types.ProductSnapshot `gorm:"column:product_snapshot;type:jsonb;serializer:json;not null"`
	DeliveryDates   []string              `gorm:"column:delivery_dates;type:jsonb;serializer:json;not null"`
	Addons          []OrderItemAddon      `gorm:"foreignKey:OrderItemID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// OrderItemAddon records an add-on chosen for an order item.
type OrderItemAddon struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderItemID   uuid.UUID           `gorm:"column:order_item_id;type:uuid;not null"`
	AddonID       *uuid.UUID          `gorm:"column:addon_id;type:uuid"`
	AddonSnapshot types.AddonSnapshot `gorm:"column:addon_snapshot;type:jsonb;serializer:json;not null"`
}

func (OrderItemAddon) TableName() string { return "order_item_addons" }

func (a *OrderItemAddon) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
