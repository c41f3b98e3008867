package enums

import "fmt"

// DeliveryStatus is the state of a single scheduled delivery.
type DeliveryStatus string

const (
	DeliveryStatusScheduled      DeliveryStatus = "SCHEDULED"
	DeliveryStatusOutForDelivery DeliveryStatus = "OUT_FOR_DELIVERY"
	DeliveryStatusDelivered      DeliveryStatus = "DELIVERED"
	DeliveryStatusCancelled      DeliveryStatus = "CANCELLED"
	DeliveryStatusFailed         DeliveryStatus = "FAILED"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusScheduled,
	DeliveryStatusOutForDelivery,
	DeliveryStatusDelivered,
	DeliveryStatusCancelled,
	DeliveryStatusFailed,
}

// String implements fmt.Stringer.
func (d DeliveryStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (d DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts raw input into a DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
