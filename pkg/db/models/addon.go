package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshbox/freshbox-backend/pkg/enums"
)

// Addon is an optional modifier offered with a product.
type Addon struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	PricePence  int64           `gorm:"column:price_pence;not null"`
	Type        enums.AddonType `gorm:"column:type;not null"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Addon) TableName() string { return "addons" }

// BeforeSave keeps the stored type consistent with the price.
func (a *Addon) BeforeSave(*gorm.DB) error {
	a.Type = enums.AddonTypeForPrice(a.PricePence)
	return nil
}

func (a *Addon) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
