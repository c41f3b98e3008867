// Package cart holds the guest cart as an explicit state value. State only
// changes through Reduce, and the JSON form stored in Redis is the single
// serialization boundary.
package cart

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/freshbox/freshbox-backend/internal/pricing"
	"github.com/freshbox/freshbox-backend/pkg/enums"
	"github.com/google/uuid"
)

// LineAddon is an add-on as priced when the line was added.
type LineAddon struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	PricePence int64     `json:"pricePence"`
}

// Line is one cart entry. Quantity is per delivery.
type Line struct {
	ProductID      uuid.UUID       `json:"productId"`
	CategoryID     uuid.UUID       `json:"categoryId"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	BasePricePence int64           `json:"basePricePence"`
	Addons         []LineAddon     `json:"addons"`
	Quantity       int             `json:"quantity"`
	OrderType      enums.OrderType `json:"orderType"`
	DeliveryDates  []string        `json:"deliveryDates"`
	Notes          *string         `json:"notes,omitempty"`
}

// Key identifies lines that merge on add: same product, add-ons, order type
// and delivery dates regardless of order.
func (l Line) Key() string {
	addonIDs := make([]string, 0, len(l.Addons))
	for _, a := range l.Addons {
		addonIDs = append(addonIDs, a.ID.String())
	}
	sort.Strings(addonIDs)

	dates := append([]string(nil), l.DeliveryDates...)
	sort.Strings(dates)

	return fmt.Sprintf("%s-%s-%s-%s", l.ProductID, strings.Join(addonIDs, ","), l.OrderType, strings.Join(dates, ","))
}

// Pricing converts the line for the calculator.
func (l Line) Pricing() pricing.Line {
	addons := make([]pricing.Addon, 0, len(l.Addons))
	for _, a := range l.Addons {
		addons = append(addons, pricing.Addon{ID: a.ID, Name: a.Name, PricePence: a.PricePence})
	}
	return pricing.Line{
		ProductID:      l.ProductID,
		CategoryID:     l.CategoryID,
		ProductName:    l.Name,
		BasePricePence: l.BasePricePence,
		Addons:         addons,
		Quantity:       l.Quantity,
		Deliveries:     len(l.DeliveryDates),
	}
}

// AddonIDs lists the selected add-on ids.
func (l Line) AddonIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(l.Addons))
	for _, a := range l.Addons {
		ids = append(ids, a.ID)
	}
	return ids
}

// State is the whole cart.
type State struct {
	Items        []Line  `json:"items"`
	DiscountCode *string `json:"discountCode,omitempty"`
}

// Lines converts every item for the calculator.
func (s State) Lines() []pricing.Line {
	out := make([]pricing.Line, 0, len(s.Items))
	for _, item := range s.Items {
		out = append(out, item.Pricing())
	}
	return out
}

// TotalPrice is the undiscounted cart total in pence.
func (s State) TotalPrice() int64 {
	return pricing.Subtotal(s.Lines())
}

// TotalDeliveries counts scheduled delivery days across all lines.
func (s State) TotalDeliveries() int {
	total := 0
	for _, item := range s.Items {
		total += len(item.DeliveryDates)
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}

// Marshal encodes the state for storage.
func Marshal(s State) ([]byte, error) {
	if s.Items == nil {
		s.Items = []Line{}
	}
	return json.Marshal(s)
}

// Unmarshal decodes a stored state. Empty input yields an empty cart.
func Unmarshal(data []byte) (State, error) {
	var s State
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("decode cart state: %w", err)
	}
	return s, nil
}
