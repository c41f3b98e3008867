package users

import (
	"context"
	"time"

	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes admin user persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an admin users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new admin and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateAdminDTO) (*models.AdminUser, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the admin matching the lower-cased email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var user models.AdminUser
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads an admin by UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error) {
	var user models.AdminUser
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin refreshes the admin's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.AdminUser{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// UpdatePassword replaces the stored hash and reactivates the account.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.AdminUser{}).
		Where("id = ?", id).
		Updates(map[string]any{"password_hash": hash, "is_active": true, "updated_at": time.Now().UTC()}).Error
}
