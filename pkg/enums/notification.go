package enums

import "fmt"

// NotificationType enumerates the in-app notification kinds.
type NotificationType string

const (
	NotificationTypeOrderPlaced        NotificationType = "order_placed"
	NotificationTypeOrderConfirmed     NotificationType = "order_confirmed"
	NotificationTypeOrderCancelled     NotificationType = "order_cancelled"
	NotificationTypeOrderCompleted     NotificationType = "order_completed"
	NotificationTypeOrderDelivered     NotificationType = "order_delivered"
	NotificationTypeDeliveryAssigned   NotificationType = "delivery_assigned"
	NotificationTypeDeliveryPicked     NotificationType = "delivery_picked"
	NotificationTypeDeliveryInTransit  NotificationType = "delivery_in_transit"
	NotificationTypeDeliveryPayment    NotificationType = "delivery_payment"
	NotificationTypePaymentReceived    NotificationType = "payment_received"
	NotificationTypeProductApproved    NotificationType = "product_approved"
	NotificationTypeProductRejected    NotificationType = "product_rejected"
	NotificationTypeReviewReceived     NotificationType = "review_received"
	NotificationTypeSystemAnnouncement NotificationType = "system_announcement"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderPlaced,
	NotificationTypeOrderConfirmed,
	NotificationTypeOrderCancelled,
	NotificationTypeOrderCompleted,
	NotificationTypeOrderDelivered,
	NotificationTypeDeliveryAssigned,
	NotificationTypeDeliveryPicked,
	NotificationTypeDeliveryInTransit,
	NotificationTypeDeliveryPayment,
	NotificationTypePaymentReceived,
	NotificationTypeProductApproved,
	NotificationTypeProductRejected,
	NotificationTypeReviewReceived,
	NotificationTypeSystemAnnouncement,
}

func (n NotificationType) String() string {
	return string(n)
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
