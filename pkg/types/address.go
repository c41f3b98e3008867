package types

import "strings"

// DeliveryAddress is the structured customer delivery address stored on orders.
type DeliveryAddress struct {
	Line1       string   `json:"line1"`
	Line2       *string  `json:"line2,omitempty"`
	City        string   `json:"city"`
	PostalCode  string   `json:"postal_code"`
	Country     string   `json:"country"`
	Lat         *float64 `json:"lat,omitempty"`
	Lng         *float64 `json:"lng,omitempty"`
	FullAddress *string  `json:"fullAddress,omitempty"`
}

// Complete reports whether the fields required for a delivery are present.
func (a DeliveryAddress) Complete() bool {
	return strings.TrimSpace(a.Line1) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.PostalCode) != ""
}

// Normalized trims every field and defaults the country to GB.
func (a DeliveryAddress) Normalized() DeliveryAddress {
	out := a
	out.Line1 = strings.TrimSpace(a.Line1)
	out.City = strings.TrimSpace(a.City)
	out.PostalCode = strings.ToUpper(strings.TrimSpace(a.PostalCode))
	out.Country = strings.ToUpper(strings.TrimSpace(a.Country))
	if out.Country == "" {
		out.Country = "GB"
	}
	out.Line2 = trimmedOrNil(a.Line2)
	out.FullAddress = trimmedOrNil(a.FullAddress)
	return out
}

// String renders a single-line address for logs and admin listings.
func (a DeliveryAddress) String() string {
	if a.FullAddress != nil && *a.FullAddress != "" {
		return *a.FullAddress
	}
	parts := []string{a.Line1}
	if a.Line2 != nil && *a.Line2 != "" {
		parts = append(parts, *a.Line2)
	}
	parts = append(parts, a.City, a.PostalCode)
	return strings.Join(parts, ", ")
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	v := strings.TrimSpace(*value)
	if v == "" {
		return nil
	}
	return &v
}
