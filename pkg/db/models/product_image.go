package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductImage is an ordered image URL attached to a product.
type ProductImage struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	URL       string    `gorm:"column:url;not null"`
	Metadata  *string   `gorm:"column:metadata"`
	Position  int       `gorm:"column:position;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ProductImage) TableName() string { return "product_images" }

func (i *ProductImage) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
