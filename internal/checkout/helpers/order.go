// Package helpers builds the records written by checkout: order numbers,
// order items with their purchase-time snapshots, and the hosted payment
// session request.
package helpers

import (
	"strconv"
	"time"

	product "github.com/freshbox/freshbox-backend/internal/products"
	"github.com/freshbox/freshbox-backend/internal/pricing"
	"github.com/freshbox/freshbox-backend/pkg/db/models"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	"github.com/freshbox/freshbox-backend/pkg/types"
	"github.com/google/uuid"
)

// OrderNumber derives a short order reference from the creation time.
func OrderNumber(now time.Time) string {
	return "ORD-" + strconv.FormatInt(now.UnixMilli(), 36)
}

// PricedItem is a checkout line resolved against the catalog.
type PricedItem struct {
	Selection *product.Selection
	OrderType enums.OrderType
	Quantity  int
	Dates     []time.Time
}

// Line prices the item for the calculator.
func (p PricedItem) Line() pricing.Line {
	return p.Selection.Line(p.Quantity, len(p.Dates))
}

// BuildItem turns a priced line into an order item plus one scheduled
// delivery per date. Snapshots freeze names and prices as sold.
func BuildItem(p PricedItem) (models.OrderItem, []models.OrderDelivery) {
	line := p.Line()
	itemID := uuid.New()
	productID := p.Selection.Product.ID

	dates := make([]string, 0, len(p.Dates))
	deliveries := make([]models.OrderDelivery, 0, len(p.Dates))
	for _, d := range p.Dates {
		dates = append(dates, d.UTC().Format("2006-01-02"))
		deliveries = append(deliveries, models.OrderDelivery{
			OrderItemID:  itemID,
			DeliveryDate: d,
			Status:       enums.DeliveryStatusScheduled,
		})
	}

	addons := make([]models.OrderItemAddon, 0, len(p.Selection.Addons))
	for _, a := range p.Selection.Addons {
		addonID := a.ID
		addons = append(addons, models.OrderItemAddon{
			AddonID: &addonID,
			AddonSnapshot: types.AddonSnapshot{
				Name:       a.Name,
				PricePence: a.PricePence,
				Type:       enums.AddonTypeForPrice(a.PricePence),
			},
		})
	}

	item := models.OrderItem{
		ID:              itemID,
		ProductID:       &productID,
		ItemType:        p.OrderType,
		Quantity:        p.Quantity,
		UnitPricePence:  pricing.UnitPrice(line),
		TotalPricePence: pricing.LineTotal(line),
		ProductSnapshot: p.Selection.ProductSnapshot(),
		DeliveryDates:   dates,
		Addons:          addons,
	}
	return item, deliveries
}
