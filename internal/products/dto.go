package products

import (
	"time"

	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	"github.com/google/uuid"
)

// ProductDTO is the product payload returned to clients.
type ProductDTO struct {
	ID                  uuid.UUID        `json:"id"`
	CategoryID          uuid.UUID        `json:"categoryId"`
	Category            *CategorySummary `json:"category,omitempty"`
	Name                string           `json:"name"`
	Slug                string           `json:"slug"`
	Description         *string          `json:"description,omitempty"`
	BasePricePence      int64            `json:"basePricePence"`
	Tags                *string          `json:"tags,omitempty"`
	MaxFreeAddons       int              `json:"maxFreeAddons"`
	MaxPaidAddons       int              `json:"maxPaidAddons"`
	AvailabilityOneTime bool             `json:"availabilityOneTime"`
	AvailabilityWeekly  bool             `json:"availabilityWeekly"`
	IsActive            bool             `json:"isActive"`
	Addons              []AddonDTO       `json:"addons"`
	Images              []ImageDTO       `json:"images"`
	CreatedAt           time.Time        `json:"createdAt"`
	UpdatedAt           time.Time        `json:"updatedAt"`
}

// CategorySummary is the category reference embedded in product payloads.
type CategorySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// AddonDTO describes an add-on offered with a product.
type AddonDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	PricePence  int64           `json:"pricePence"`
	Type        enums.AddonType `json:"type"`
	IsActive    bool            `json:"isActive"`
}

// ImageDTO is a product image reference.
type ImageDTO struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	Metadata *string   `json:"metadata,omitempty"`
	Position int       `json:"position"`
}

// FromModel maps a product with its loaded associations to the DTO.
func FromModel(m models.Product) ProductDTO {
	addons := make([]AddonDTO, 0, len(m.Addons))
	for _, a := range m.Addons {
		addons = append(addons, AddonDTO{
			ID:          a.ID,
			Name:        a.Name,
			Description: a.Description,
			PricePence:  a.PricePence,
			Type:        enums.AddonTypeForPrice(a.PricePence),
			IsActive:    a.IsActive,
		})
	}
	images := make([]ImageDTO, 0, len(m.Images))
	for _, img := range m.Images {
		images = append(images, ImageDTO{
			ID:       img.ID,
			URL:      img.URL,
			Metadata: img.Metadata,
			Position: img.Position,
		})
	}
	dto := ProductDTO{
		ID:                  m.ID,
		CategoryID:          m.CategoryID,
		Name:                m.Name,
		Slug:                m.Slug,
		Description:         m.Description,
		BasePricePence:      m.BasePricePence,
		Tags:                m.Tags,
		MaxFreeAddons:       m.MaxFreeAddons,
		MaxPaidAddons:       m.MaxPaidAddons,
		AvailabilityOneTime: m.AvailabilityOneTime,
		AvailabilityWeekly:  m.AvailabilityWeekly,
		IsActive:            m.IsActive,
		Addons:              addons,
		Images:              images,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	if m.Category != nil {
		dto.Category = &CategorySummary{ID: m.Category.ID, Name: m.Category.Name, Slug: m.Category.Slug}
	}
	return dto
}
