package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/freshbox/freshbox-backend/pkg/db/types"
	"github.com/freshbox/freshbox-backend/pkg/enums"
)

// Discount is a code-based price reduction. An empty CategoryIDs list applies
// to every category.
type Discount struct {
	ID                  uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code                string             `gorm:"column:code;not null;uniqueIndex"`
	Description         *string            `gorm:"column:description"`
	Type                enums.DiscountType `gorm:"column:type;not null"`
	Value               int64              `gorm:"column:value;not null"`
	MinOrderPence       int64              `gorm:"column:min_order_pence;not null"`
	MaxDiscountCapPence *int64             `gorm:"column:max_discount_cap_pence"`
	CategoryIDs         dbtypes.UUIDArray  `gorm:"column:category_ids;type:uuid[];not null"`
	IsActive            bool               `gorm:"column:is_active;not null"`
	CreatedAt           time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Discount) TableName() string { return "discounts" }

func (d *Discount) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}
