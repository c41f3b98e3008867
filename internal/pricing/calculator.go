// Package pricing holds the storefront's price arithmetic: cart line totals,
// add-on limits and discount evaluation. All amounts are integer pence.
package pricing

import "github.com/google/uuid"

// Addon is a selected add-on as priced at evaluation time.
type Addon struct {
	ID         uuid.UUID
	Name       string
	PricePence int64
}

// Line is a priced cart line.
type Line struct {
	ProductID      uuid.UUID
	CategoryID     uuid.UUID
	ProductName    string
	BasePricePence int64
	Addons         []Addon
	Quantity       int
	Deliveries     int
}

// UnitPrice is the price of one unit for a single delivery.
func UnitPrice(line Line) int64 {
	total := line.BasePricePence
	for _, addon := range line.Addons {
		total += addon.PricePence
	}
	return total
}

// LineTotal is (base + add-ons) x quantity x deliveries.
func LineTotal(line Line) int64 {
	return UnitPrice(line) * int64(line.Quantity) * int64(line.Deliveries)
}

// Subtotal sums the line totals.
func Subtotal(lines []Line) int64 {
	var total int64
	for _, line := range lines {
		total += LineTotal(line)
	}
	return total
}

// ClampQuantity applies the checkout floor of one unit per line.
func ClampQuantity(qty int) int {
	if qty < 1 {
		return 1
	}
	return qty
}
