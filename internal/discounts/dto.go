package discounts

import (
	"time"

	"github.com/freshbox/freshbox-backend/internal/pricing"
	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	"github.com/google/uuid"
)

// DiscountDTO is the admin view of a discount code.
type DiscountDTO struct {
	ID                  uuid.UUID          `json:"id"`
	Code                string             `json:"code"`
	Description         *string            `json:"description,omitempty"`
	Type                enums.DiscountType `json:"type"`
	Value               int64              `json:"value"`
	MinOrderPence       int64              `json:"minOrderPence"`
	MaxDiscountCapPence *int64             `json:"maxDiscountCapPence"`
	CategoryIDs         []uuid.UUID        `json:"categoryIds"`
	IsActive            bool               `json:"isActive"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

// ValidationResult is returned when a code applies to the submitted items.
type ValidationResult struct {
	Valid         bool                 `json:"valid"`
	Message       string               `json:"message"`
	SubtotalPence int64                `json:"subtotalPence"`
	DiscountPence int64                `json:"discountAmountPence"`
	TotalPence    int64                `json:"totalAmountPence"`
	EligiblePence int64                `json:"eligibleSubtotalPence"`
	Discount      pricing.DiscountInfo `json:"discount"`
}

// FromModel maps the persistence model to its DTO.
func FromModel(m models.Discount) DiscountDTO {
	ids := []uuid.UUID(m.CategoryIDs)
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return DiscountDTO{
		ID:                  m.ID,
		Code:                m.Code,
		Description:         m.Description,
		Type:                m.Type,
		Value:               m.Value,
		MinOrderPence:       m.MinOrderPence,
		MaxDiscountCapPence: m.MaxDiscountCapPence,
		CategoryIDs:         ids,
		IsActive:            m.IsActive,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// ToPricing converts a stored discount for the evaluator.
func ToPricing(m models.Discount) pricing.Discount {
	return pricing.Discount{
		ID:            m.ID,
		Code:          m.Code,
		Description:   m.Description,
		Type:          m.Type,
		Value:         m.Value,
		MinOrderPence: m.MinOrderPence,
		MaxCapPence:   m.MaxDiscountCapPence,
		CategoryIDs:   []uuid.UUID(m.CategoryIDs),
		IsActive:      m.IsActive,
	}
}
