package enums

import "fmt"

// AddonType classifies an add-on as free or paid.
type AddonType string

const (
	AddonTypeFree AddonType = "FREE"
	AddonTypePaid AddonType = "PAID"
)

var validAddonTypes = []AddonType{
	AddonTypeFree,
	AddonTypePaid,
}

// String implements fmt.Stringer.
func (a AddonType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AddonType.
func (a AddonType) IsValid() bool {
	for _, candidate := range validAddonTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAddonType converts raw input into a AddonType.
func ParseAddonType(value string) (AddonType, error) {
	for _, candidate := range validAddonTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid addon type %q", value)
}

// AddonTypeForPrice derives the add-on type from its price: zero is free, anything above is paid.
func AddonTypeForPrice(pricePence int64) AddonType {
	if pricePence > 0 {
		return AddonTypePaid
	}
	return AddonTypeFree
}
