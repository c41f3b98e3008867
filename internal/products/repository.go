package products

import (
	"context"

	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListFilter narrows the admin product listing.
type ListFilter struct {
	CategoryID *uuid.UUID
	ActiveOnly bool
}

// Repository wires together all product-related persistence helpers.
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

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func orderedAddons(db *gorm.DB) *gorm.DB {
	return db.Order("price_pence ASC").Order("name ASC")
}

func activeAddons(db *gorm.DB) *gorm.DB {
	return orderedAddons(db.Where("is_active = ?", true))
}

// FindByID loads the product with its category, every add-on and images.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Addons", orderedAddons).
		Preload("Images", orderedImages).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActiveBySlug loads an active product with its active add-ons.
func (r *Repository) FindActiveBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Addons", activeAddons).
		Preload("Images", orderedImages).
		Where("slug = ? AND is_active = ?", slug, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActiveWithAddons loads an active product and the requested add-ons that
// belong to it and are still offered.
func (r *Repository) FindActiveWithAddons(ctx context.Context, id uuid.UUID, addonIDs []uuid.UUID) (*models.Product, error) {
	var product models.Product
	q := r.db.WithContext(ctx)
	if len(addonIDs) > 0 {
		q = q.Preload("Addons", func(db *gorm.DB) *gorm.DB {
			return db.Where("id IN ? AND is_active = ?", addonIDs, true)
		})
	}
	if err := q.Where("id = ? AND is_active = ?", id, true).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns products with images and add-ons, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Addons", orderedAddons).
		Preload("Images", orderedImages)
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []models.Product
	err := q.Order("created_at DESC").Order("name ASC").Find(&out).Error
	return out, err
}

// Create inserts the product together with any add-ons and images set on it.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// UpdateFields writes the editable product columns.
func (r *Repository) UpdateFields(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"category_id":           product.CategoryID,
			"name":                  product.Name,
			"slug":                  product.Slug,
			"description":           product.Description,
			"base_price_pence":      product.BasePricePence,
			"tags":                  product.Tags,
			"max_free_addons":       product.MaxFreeAddons,
			"max_paid_addons":       product.MaxPaidAddons,
			"availability_one_time": product.AvailabilityOneTime,
			"availability_weekly":   product.AvailabilityWeekly,
		}).Error
}

// SetActive flips the storefront visibility of a product.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SlugTaken reports whether another product already uses slug.
func (r *Repository) SlugTaken(ctx context.Context, slug string, exclude uuid.UUID) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReplaceImages swaps every image of the product for the provided set.
func (r *Repository) ReplaceImages(ctx context.Context, productID uuid.UUID, images []models.ProductImage) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}
	return tx.Create(&images).Error
}

// CreateAddon inserts a single add-on.
func (r *Repository) CreateAddon(ctx context.Context, addon *models.Addon) error {
	return r.db.WithContext(ctx).Create(addon).Error
}

// SaveAddon writes every column of an existing add-on.
func (r *Repository) SaveAddon(ctx context.Context, addon *models.Addon) error {
	return r.db.WithContext(ctx).Save(addon).Error
}

// DeleteAddon removes an add-on row.
func (r *Repository) DeleteAddon(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Addon{}, "id = ?", id).Error
}

// AddonInUse reports whether any order item references the add-on.
func (r *Repository) AddonInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItemAddon{}).
		Where("addon_id = ?", id).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// Delete removes the product, its add-ons and images.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx := r.db.WithContext(ctx)
	if err := tx.Where("product_id = ?", id).Delete(&models.Addon{}).Error; err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	res := tx.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
