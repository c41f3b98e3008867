package types

import "github.com/freshbox/freshbox-backend/pkg/enums"

// ProductSnapshot freezes the product fields an order item was priced with.
type ProductSnapshot struct {
	Name           string `json:"name"`
	Slug           string `json:"slug,omitempty"`
	BasePricePence int64  `json:"basePricePence"`
	MaxFreeAddons  int    `json:"maxFreeAddons"`
	MaxPaidAddons  int    `json:"maxPaidAddons"`
}

// AddonSnapshot freezes the add-on fields an order item was priced with.
type AddonSnapshot struct {
	Name       string          `json:"name"`
	PricePence int64           `json:"pricePence"`
	Type       enums.AddonType `json:"type"`
}
