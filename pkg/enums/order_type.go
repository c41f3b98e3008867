package enums

import "fmt"

// OrderType describes how a cart line is scheduled for delivery.
type OrderType string

const (
	OrderTypeOneTime    OrderType = "ONE_TIME"
	OrderTypeWeeklyPlan OrderType = "WEEKLY_PLAN"
	OrderTypeCustomDays OrderType = "CUSTOM_DAYS"
)

var validOrderTypes = []OrderType{
	OrderTypeOneTime,
	OrderTypeWeeklyPlan,
	OrderTypeCustomDays,
}

// String implements fmt.Stringer.
func (o OrderType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderType.
func (o OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderType converts raw input into a OrderType.
func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}
