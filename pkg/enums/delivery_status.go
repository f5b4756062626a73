package enums

import "fmt"

// DeliveryStatus tracks the physical movement of an order.
type DeliveryStatus string

const (
	DeliveryStatusNotAssigned DeliveryStatus = "not_assigned"
	DeliveryStatusAssigned    DeliveryStatus = "assigned"
	DeliveryStatusPicked      DeliveryStatus = "picked"
	DeliveryStatusInTransit   DeliveryStatus = "in_transit"
	DeliveryStatusDelivered   DeliveryStatus = "delivered"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusNotAssigned,
	DeliveryStatusAssigned,
	DeliveryStatusPicked,
	DeliveryStatusInTransit,
	DeliveryStatusDelivered,
}

// DeliveryStatuses returns every delivery status in lifecycle order.
func DeliveryStatuses() []DeliveryStatus {
	return append([]DeliveryStatus(nil), validDeliveryStatuses...)
}

// String implements fmt.Stringer.
func (s DeliveryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DeliveryStatus.
func (s DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsActive reports whether a transporter is currently working the delivery.
func (s DeliveryStatus) IsActive() bool {
	return s == DeliveryStatusAssigned || s == DeliveryStatusPicked || s == DeliveryStatusInTransit
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
