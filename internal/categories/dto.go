package categories

import (
	"time"

	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/google/uuid"
)

// CategoryDTO is the category payload returned to clients.
type CategoryDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description *string   `json:"description,omitempty"`
	SortOrder   int       `json:"sortOrder"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MenuProductDTO is the product card shown on a category page.
type MenuProductDTO struct {
	ID                  uuid.UUID      `json:"id"`
	Name                string         `json:"name"`
	Slug                string         `json:"slug"`
	Description         *string        `json:"description,omitempty"`
	BasePricePence      int64          `json:"basePricePence"`
	Tags                *string        `json:"tags,omitempty"`
	AvailabilityOneTime bool           `json:"availabilityOneTime"`
	AvailabilityWeekly  bool           `json:"availabilityWeekly"`
	Images              []MenuImageDTO `json:"images"`
	AddonCount          int            `json:"addonCount"`
}

// MenuImageDTO is a product image reference.
type MenuImageDTO struct {
	URL      string  `json:"url"`
	Metadata *string `json:"metadata,omitempty"`
}

// CategoryMenuDTO is a category with its active products.
type CategoryMenuDTO struct {
	CategoryDTO
	Products []MenuProductDTO `json:"products"`
}

// FromModel maps the persistence model to its DTO.
func FromModel(m models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          m.ID,
		Name:        m.Name,
		Slug:        m.Slug,
		Description: m.Description,
		SortOrder:   m.SortOrder,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func menuFromModel(m models.Category) CategoryMenuDTO {
	products := make([]MenuProductDTO, 0, len(m.Products))
	for _, p := range m.Products {
		images := make([]MenuImageDTO, 0, len(p.Images))
		for _, img := range p.Images {
			images = append(images, MenuImageDTO{URL: img.URL, Metadata: img.Metadata})
		}
		products = append(products, MenuProductDTO{
			ID:                  p.ID,
			Name:                p.Name,
			Slug:                p.Slug,
			Description:         p.Description,
			BasePricePence:      p.BasePricePence,
			Tags:                p.Tags,
			AvailabilityOneTime: p.AvailabilityOneTime,
			AvailabilityWeekly:  p.AvailabilityWeekly,
			Images:              images,
			AddonCount:          len(p.Addons),
		})
	}
	return CategoryMenuDTO{CategoryDTO: FromModel(m), Products: products}
}
