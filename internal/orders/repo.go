package orders

import (
	"context"
	"strings"
	"time"

	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	"github.com/freshbox/freshbox-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists orders with their items, add-ons and deliveries.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateGraph inserts the order, its items, item add-ons and deliveries. Call
// it inside a transaction so a partial order is never visible.
func (r *Repository) CreateGraph(ctx context.Context, order *models.Order) error {
	conn := r.db.WithContext(ctx)
	if err := conn.Omit(clause.Associations).Create(order).Error; err != nil {
		return err
	}

	var addons []models.OrderItemAddon
	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := conn.Omit(clause.Associations).Create(item).Error; err != nil {
			return err
		}
		for j := range item.Addons {
			item.Addons[j].OrderItemID = item.ID
			addons = append(addons, item.Addons[j])
		}
	}
	if len(addons) > 0 {
		if err := conn.Create(&addons).Error; err != nil {
			return err
		}
	}

	for i := range order.Deliveries {
		order.Deliveries[i].OrderID = order.ID
	}
	if len(order.Deliveries) > 0 {
		if err := conn.Omit(clause.Associations).Create(&order.Deliveries).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindByID loads an order with items, item add-ons and deliveries.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Items.Addons").
		Preload("Deliveries", func(db *gorm.DB) *gorm.DB { return db.Order("delivery_date ASC, id ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListFilter narrows the admin order list.
type ListFilter struct {
	PaymentStatus *enums.PaymentStatus
	Query         string
}

// List returns orders newest first using cursor pagination.
func (r *Repository) List(ctx context.Context, params pagination.Params, filter ListFilter) ([]models.Order, string, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return nil, "", err
	}

	q := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.PaymentStatus != nil {
		q = q.Where("payment_status = ?", *filter.PaymentStatus)
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(order_number) LIKE ? OR LOWER(customer_email) LIKE ?", like, like)
	}
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = q.Preload("Items").
		Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// FindPendingBefore returns up to limit PENDING orders created before cutoff,
// oldest first.
func (r *Repository) FindPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("payment_status = ? AND created_at < ?", enums.PaymentStatusPending, cutoff).
		Order("created_at ASC").Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// SetStripeSession records the hosted checkout session of an order.
func (r *Repository) SetStripeSession(ctx context.Context, id uuid.UUID, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("stripe_session_id", sessionID).Error
}

// MarkPaid moves a not-yet-paid order to PAID and ACTIVE. It reports false
// when the order was already paid.
func (r *Repository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, enums.PaymentStatusPaid).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"order_status":   enums.OrderStatusActive,
			"paid_at":        paidAt,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkFailed moves a PENDING order to FAILED. Paid orders are left alone.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, enums.PaymentStatusPending).
		Update("payment_status", enums.PaymentStatusFailed)
	return res.RowsAffected > 0, res.Error
}

// DeliveryDates returns the distinct delivery days booked by an order.
func (r *Repository) DeliveryDates(ctx context.Context, orderID uuid.UUID) ([]time.Time, error) {
	var rows []models.OrderDelivery
	err := r.db.WithContext(ctx).
		Select("delivery_date").
		Where("order_id = ?", orderID).
		Order("delivery_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	seen := make(map[time.Time]struct{}, len(rows))
	out := make([]time.Time, 0, len(rows))
	for _, row := range rows {
		day := row.DeliveryDate.UTC()
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	return out, nil
}
