package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/freshbox/freshbox-backend/pkg/db"
	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists holidays and per-day availability overrides.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// HolidaysOn returns the holidays falling on any of dates.
func (r *Repository) HolidaysOn(ctx context.Context, dates []time.Time) ([]models.Holiday, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	var out []models.Holiday
	err := r.db.WithContext(ctx).Where("holiday_date IN ?", dates).Find(&out).Error
	return out, err
}

// AvailabilityOn returns the availability rows for any of dates.
func (r *Repository) AvailabilityOn(ctx context.Context, dates []time.Time) ([]models.AvailableDeliveryDate, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	var out []models.AvailableDeliveryDate
	err := r.db.WithContext(ctx).Where("delivery_date IN ?", dates).Find(&out).Error
	return out, err
}

// ListHolidays returns holidays within [from, to], both optional.
func (r *Repository) ListHolidays(ctx context.Context, from, to *time.Time) ([]models.Holiday, error) {
	q := r.db.WithContext(ctx).Model(&models.Holiday{})
	if from != nil {
		q = q.Where("holiday_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("holiday_date <= ?", *to)
	}
	var out []models.Holiday
	err := q.Order("holiday_date ASC").Find(&out).Error
	return out, err
}

// ListAvailability returns availability rows within [from, to], both optional.
func (r *Repository) ListAvailability(ctx context.Context, from, to *time.Time) ([]models.AvailableDeliveryDate, error) {
	q := r.db.WithContext(ctx).Model(&models.AvailableDeliveryDate{})
	if from != nil {
		q = q.Where("delivery_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("delivery_date <= ?", *to)
	}
	var out []models.AvailableDeliveryDate
	err := q.Order("delivery_date ASC").Find(&out).Error
	return out, err
}

// UpsertHoliday creates the holiday for its date or updates the description.
func (r *Repository) UpsertHoliday(ctx context.Context, holiday *models.Holiday) error {
	var existing models.Holiday
	err := r.db.WithContext(ctx).First(&existing, "holiday_date = ?", holiday.HolidayDate).Error
	switch {
	case err == nil:
		holiday.ID = existing.ID
		holiday.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).
			Model(&models.Holiday{}).
			Where("id = ?", existing.ID).
			Update("description", holiday.Description).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Create(holiday).Error
	default:
		return err
	}
}

// DeleteHoliday removes a holiday.
func (r *Repository) DeleteHoliday(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.Holiday{}, id)
}

// UpsertAvailability creates or updates the override for its date. The
// booked counter of an existing row is preserved.
func (r *Repository) UpsertAvailability(ctx context.Context, row *models.AvailableDeliveryDate) error {
	var existing models.AvailableDeliveryDate
	err := r.db.WithContext(ctx).First(&existing, "delivery_date = ?", row.DeliveryDate).Error
	switch {
	case err == nil:
		row.ID = existing.ID
		row.OrdersBooked = existing.OrdersBooked
		row.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).
			Model(&models.AvailableDeliveryDate{}).
			Where("id = ?", existing.ID).
			Updates(map[string]any{
				"available": row.Available,
				"capacity":  row.Capacity,
			}).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Create(row).Error
	default:
		return err
	}
}

// DeleteAvailability removes an availability override.
func (r *Repository) DeleteAvailability(ctx context.Context, id uuid.UUID) error {
	return deleteByID(ctx, r.db, &models.AvailableDeliveryDate{}, id)
}

// IncrementBooked adds n bookings to date, creating an open row when the day
// has no override yet.
func (r *Repository) IncrementBooked(ctx context.Context, date time.Time, n int) error {
	if n <= 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.AvailableDeliveryDate{}).
		Where("delivery_date = ?", date).
		Update("orders_booked", gorm.Expr("orders_booked + ?", n))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	row := &models.AvailableDeliveryDate{DeliveryDate: date, Available: true, OrdersBooked: n}
	err := r.db.WithContext(ctx).Create(row).Error
	if err != nil && db.IsUniqueViolation(err, "") {
		return r.db.WithContext(ctx).
			Model(&models.AvailableDeliveryDate{}).
			Where("delivery_date = ?", date).
			Update("orders_booked", gorm.Expr("orders_booked + ?", n)).Error
	}
	return err
}

func deleteByID(ctx context.Context, conn *gorm.DB, model any, id uuid.UUID) error {
	res := conn.WithContext(ctx).Delete(model, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
