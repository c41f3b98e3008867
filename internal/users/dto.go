package users

import (
	"strings"
	"time"

	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	"github.com/google/uuid"
)

// AdminDTO is the transport shape that omits credentials.
type AdminDTO struct {
	ID          uuid.UUID       `json:"id"`
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Role        enums.AdminRole `json:"role"`
	IsActive    bool            `json:"isActive"`
	LastLoginAt *time.Time      `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// CreateAdminDTO holds the data required to persist a new admin.
type CreateAdminDTO struct {
	Email        string
	PasswordHash string
	Name         string
	IsActive     *bool
}

func FromModel(u *models.AdminUser) *AdminDTO {
	if u == nil {
		return nil
	}
	return &AdminDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func (c CreateAdminDTO) ToModel() *models.AdminUser {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}
	return &models.AdminUser{
		Email:        strings.ToLower(strings.TrimSpace(c.Email)),
		PasswordHash: c.PasswordHash,
		Name:         strings.TrimSpace(c.Name),
		Role:         enums.AdminRoleAdmin,
		IsActive:     isActive,
	}
}
