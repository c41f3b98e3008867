package deliveries

import (
	"context"
	"strings"
	"time"

	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	"github.com/freshbox/freshbox-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilter narrows the delivery listing. From and To are inclusive days.
type ListFilter struct {
	From     *time.Time
	To       *time.Time
	Query    string
	ItemType *enums.OrderType
	Status   *enums.DeliveryStatus
}

// q is a plain substring, so LIKE wildcards in it match themselves.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) filtered(ctx context.Context, filter ListFilter) *gorm.DB {
	q := r.db.WithContext(ctx).
		Model(&models.OrderDelivery{}).
		Joins("JOIN orders ON orders.id = order_deliveries.order_id")
	if filter.From != nil {
		q = q.Where("order_deliveries.delivery_date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("order_deliveries.delivery_date <= ?", *filter.To)
	}
	if filter.Status != nil {
		q = q.Where("order_deliveries.status = ?", *filter.Status)
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Query)); term != "" {
		like := "%" + likeEscaper.Replace(term) + "%"
		q = q.Where(`(LOWER(orders.order_number) LIKE ? ESCAPE '\' OR LOWER(orders.customer_email) LIKE ? ESCAPE '\')`, like, like)
	}
	if filter.ItemType != nil {
		q = q.Where("EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = order_deliveries.order_id AND oi.item_type = ?)", *filter.ItemType)
	}
	return q
}

// List returns one page of deliveries by date, with their orders, order
// items and add-ons, plus the total match count.
func (r *Repository) List(ctx context.Context, page pagination.Page, filter ListFilter) ([]models.OrderDelivery, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []models.OrderDelivery{}, 0, nil
	}

	var rows []models.OrderDelivery
	err := r.filtered(ctx, filter).
		Preload("Order").
		Preload("OrderItem").
		Preload("OrderItem.Addons").
		Order("order_deliveries.delivery_date ASC").
		Order("order_deliveries.created_at ASC").
		Order("order_deliveries.id ASC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.OrderDelivery, error) {
	var row models.OrderDelivery
	err := r.db.WithContext(ctx).
		Preload("Order").
		Preload("OrderItem").
		Preload("OrderItem.Addons").
		First(&row, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateStatus sets the status and delivered_at of one delivery.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.DeliveryStatus, deliveredAt *time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.OrderDelivery{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       status,
			"delivered_at": deliveredAt,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
