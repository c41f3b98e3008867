package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Holiday blocks deliveries on a calendar day.
type Holiday struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	HolidayDate time.Time `gorm:"column:holiday_date;type:date;not null;uniqueIndex"`
	Description string    `gorm:"column:description;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Holiday) TableName() string { return "holidays" }

func (h *Holiday) BeforeCreate(*gorm.DB) error {
	ensureID(&h.ID)
	return nil
}

// AvailableDeliveryDate overrides availability and capacity for one day.
// Days without a row are open with unlimited capacity.
type AvailableDeliveryDate struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DeliveryDate time.Time `gorm:"column:delivery_date;type:date;not null;uniqueIndex"`
	Available    bool      `gorm:"column:available;not null"`
	Capacity     *int      `gorm:"column:capacity"`
	OrdersBooked int       `gorm:"column:orders_booked;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (AvailableDeliveryDate) TableName() string { return "available_delivery_dates" }

func (a *AvailableDeliveryDate) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// FullyBooked reports whether a capacity is set and already reached.
func (a AvailableDeliveryDate) FullyBooked() bool {
	return a.Capacity != nil && *a.Capacity > 0 && a.OrdersBooked >= *a.Capacity
}
