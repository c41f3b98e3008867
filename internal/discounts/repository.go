package discounts

import (
	"context"
	"strings"

	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists discount codes.
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

// List returns every discount, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Discount, error) {
	var out []models.Discount
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("code ASC").Find(&out).Error
	return out, err
}

// FindByID loads a discount.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Discount, error) {
	var discount models.Discount
	if err := r.db.WithContext(ctx).First(&discount, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

// FindByCode loads a discount by its upper-cased code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Discount, error) {
	var discount models.Discount
	err := r.db.WithContext(ctx).
		First(&discount, "code = ?", strings.ToUpper(strings.TrimSpace(code))).Error
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

// Create inserts a discount.
func (r *Repository) Create(ctx context.Context, discount *models.Discount) error {
	return r.db.WithContext(ctx).Create(discount).Error
}

// Save writes every column of an existing discount.
func (r *Repository) Save(ctx context.Context, discount *models.Discount) error {
	return r.db.WithContext(ctx).Save(discount).Error
}

// Delete removes a discount.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Discount{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
