package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshbox/freshbox-backend/pkg/enums"
)

// AdminUser is a dashboard operator.
type AdminUser struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email        string          `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	Name         string          `gorm:"column:name;not null"`
	Role         enums.AdminRole `gorm:"column:role;not null"`
	IsActive     bool            `gorm:"column:is_active;not null"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (AdminUser) TableName() string { return "admin_users" }

func (u *AdminUser) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
