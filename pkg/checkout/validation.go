// Package checkout holds order-intake rules shared by checkout and the
// address lookup endpoints.
package checkout

import (
	"fmt"
	"strings"

	pkgerrors "github.com/freshbox/freshbox-backend/pkg/errors"
	"github.com/freshbox/freshbox-backend/pkg/types"
)

const msgMissingFields = "Missing required fields (email or address)"

// DeliveryZone is the set of postcode prefixes the shop delivers to.
type DeliveryZone struct {
	prefixes []string
}

// NewDeliveryZone normalizes prefixes the same way postcodes are normalized.
func NewDeliveryZone(prefixes []string) DeliveryZone {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if n := NormalizePostcode(p); n != "" {
			out = append(out, n)
		}
	}
	return DeliveryZone{prefixes: out}
}

// NormalizePostcode upper-cases and strips all whitespace.
func NormalizePostcode(postcode string) string {
	return strings.Join(strings.Fields(strings.ToUpper(postcode)), "")
}

// Deliverable reports whether postcode starts with one of the zone prefixes.
func (z DeliveryZone) Deliverable(postcode string) bool {
	normalized := NormalizePostcode(postcode)
	if normalized == "" {
		return false
	}
	for _, prefix := range z.prefixes {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	return false
}

// Prefixes returns the normalized prefixes.
func (z DeliveryZone) Prefixes() []string {
	return append([]string(nil), z.prefixes...)
}

// ValidateContact checks the customer email and delivery address required to
// place an order and returns the normalized address.
func ValidateContact(email string, address *types.DeliveryAddress) (string, types.DeliveryAddress, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || address == nil || !address.Complete() {
		return "", types.DeliveryAddress{}, pkgerrors.New(pkgerrors.CodeValidation, msgMissingFields)
	}
	return email, address.Normalized(), nil
}

// ValidateZone rejects addresses outside the delivery zone.
func (z DeliveryZone) ValidateZone(address types.DeliveryAddress) error {
	if z.Deliverable(address.PostalCode) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("We do not deliver to %s yet", strings.TrimSpace(address.PostalCode))).
		WithDetails(map[string]any{"postcode": address.PostalCode, "deliverablePrefixes": z.prefixes})
}
