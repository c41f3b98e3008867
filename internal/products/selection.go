package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/freshbox/freshbox-backend/internal/pricing"
	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Selection is a product with the add-ons a customer picked, priced from the
// catalog rather than from client input.
type Selection struct {
	Product models.Product
	Addons  []models.Addon
}

// PricingAddons converts the chosen add-ons for the calculator.
func (s Selection) PricingAddons() []pricing.Addon {
	out := make([]pricing.Addon, 0, len(s.Addons))
	for _, a := range s.Addons {
		out = append(out, pricing.Addon{ID: a.ID, Name: a.Name, PricePence: a.PricePence})
	}
	return out
}

// Limits returns the product's add-on caps.
func (s Selection) Limits() pricing.AddonLimits {
	return pricing.AddonLimits{
		ProductName: s.Product.Name,
		MaxFree:     s.Product.MaxFreeAddons,
		MaxPaid:     s.Product.MaxPaidAddons,
	}
}

// Line prices the selection for the given quantity and number of deliveries.
func (s Selection) Line(quantity, deliveries int) pricing.Line {
	return pricing.Line{
		ProductID:      s.Product.ID,
		CategoryID:     s.Product.CategoryID,
		ProductName:    s.Product.Name,
		BasePricePence: s.Product.BasePricePence,
		Addons:         s.PricingAddons(),
		Quantity:       quantity,
		Deliveries:     deliveries,
	}
}

// ProductSnapshot freezes the product fields stored on an order item.
func (s Selection) ProductSnapshot() types.ProductSnapshot {
	return types.ProductSnapshot{
		Name:           s.Product.Name,
		Slug:           s.Product.Slug,
		BasePricePence: s.Product.BasePricePence,
		MaxFreeAddons:  s.Product.MaxFreeAddons,
		MaxPaidAddons:  s.Product.MaxPaidAddons,
	}
}

// SupportsOrderType reports whether the product can be bought with orderType.
func (s Selection) SupportsOrderType(orderType enums.OrderType) bool {
	switch orderType {
	case enums.OrderTypeWeeklyPlan:
		return s.Product.AvailabilityWeekly
	case enums.OrderTypeOneTime, enums.OrderTypeCustomDays:
		return s.Product.AvailabilityOneTime
	default:
		return false
	}
}

// ResolveSelection loads an active product and the requested add-ons, then
// enforces the product's add-on limits.
func (s *service) ResolveSelection(ctx context.Context, productID uuid.UUID, addonIDs []uuid.UUID) (*Selection, error) {
	product, err := s.repo.FindActiveWithAddons(ctx, productID, addonIDs)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("Product not found: %s", productID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	byID := make(map[uuid.UUID]models.Addon, len(product.Addons))
	for _, a := range product.Addons {
		byID[a.ID] = a
	}
	selected := make([]models.Addon, 0, len(addonIDs))
	for _, id := range addonIDs {
		addon, ok := byID[id]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("One or more addons not found for product %s", product.Name)).
				WithDetails(map[string]any{"addonId": id})
		}
		selected = append(selected, addon)
	}

	selection := &Selection{Product: *product, Addons: selected}
	selection.Product.Addons = nil
	if err := pricing.ValidateAddonLimits(selection.Limits(), selection.PricingAddons()); err != nil {
		return nil, err
	}
	return selection, nil
}
