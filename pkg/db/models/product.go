package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a sellable menu item.
type Product struct {
	ID                  uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CategoryID          uuid.UUID      `gorm:"column:category_id;type:uuid;not null"`
	Name                string         `gorm:"column:name;not null"`
	Slug                string         `gorm:"column:slug;not null;uniqueIndex"`
	Description         *string        `gorm:"column:description"`
	BasePricePence      int64          `gorm:"column:base_price_pence;not null"`
	Tags                *string        `gorm:"column:tags"`
	MaxFreeAddons       int            `gorm:"column:max_free_addons;not null"`
	MaxPaidAddons       int            `gorm:"column:max_paid_addons;not null"`
	AvailabilityOneTime bool           `gorm:"column:availability_one_time;not null"`
	AvailabilityWeekly  bool           `gorm:"column:availability_weekly;not null"`
	IsActive            bool           `gorm:"column:is_active;not null"`
	Category            *Category      `gorm:"foreignKey:CategoryID"`
	Addons              []Addon        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Images              []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
