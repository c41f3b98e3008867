package cart

import (
	"github.com/freshbox/freshbox-backend/internal/pricing"
)

// QuoteLine is a cart line with its computed prices.
type QuoteLine struct {
	Line
	Key            string `json:"key"`
	UnitPricePence int64  `json:"unitPrice"`
	LineTotalPence int64  `json:"lineTotal"`
}

// Quote is the priced view of a cart returned to the storefront.
type Quote struct {
	CartID          string                `json:"cartId"`
	Items           []QuoteLine           `json:"items"`
	TotalDeliveries int                   `json:"totalDeliveries"`
	SubtotalPence   int64                 `json:"subtotal"`
	DiscountCode    *string               `json:"discountCode,omitempty"`
	DiscountPence   int64                 `json:"discount"`
	TotalPence      int64                 `json:"total"`
	Discount        *pricing.DiscountInfo `json:"discountInfo,omitempty"`
	DiscountError   *string               `json:"discountError,omitempty"`

	// Keys of lines that can no longer be bought as stored.
	UnavailableItems []string `json:"unavailableItems,omitempty"`
}

func newQuote(cartID string, state State) *Quote {
	items := make([]QuoteLine, 0, len(state.Items))
	for _, item := range state.Items {
		priced := item.Pricing()
		items = append(items, QuoteLine{
			Line:           item,
			Key:            item.Key(),
			UnitPricePence: pricing.UnitPrice(priced),
			LineTotalPence: pricing.LineTotal(priced),
		})
	}
	subtotal := state.TotalPrice()
	return &Quote{
		CartID:          cartID,
		Items:           items,
		TotalDeliveries: state.TotalDeliveries(),
		SubtotalPence:   subtotal,
		DiscountCode:    state.DiscountCode,
		TotalPence:      subtotal,
	}
}
