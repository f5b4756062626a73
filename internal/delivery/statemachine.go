package delivery

import "github.com/Nafis5858/Krishak/pkg/enums"

// transitions lists the only forward moves a transporter may request.
// not_assigned -> assigned happens through AssignTransporter, never through
// a status update.
var transitions = map[enums.DeliveryStatus]enums.DeliveryStatus{
	enums.DeliveryStatusAssigned:  enums.DeliveryStatusPicked,
	enums.DeliveryStatusPicked:    enums.DeliveryStatusInTransit,
	enums.DeliveryStatusInTransit: enums.DeliveryStatusDelivered,
}

// updatableStatuses are the values UpdateStatus accepts.
var updatableStatuses = []enums.DeliveryStatus{
	enums.DeliveryStatusPicked,
	enums.DeliveryStatusInTransit,
	enums.DeliveryStatusDelivered,
}

// CanTransition reports whether a transporter may move from current to requested.
func CanTransition(current, requested enums.DeliveryStatus) bool {
	next, ok := transitions[current]
	return ok && next == requested
}

// NextStatus returns the single legal successor of current, if any.
func NextStatus(current enums.DeliveryStatus) (enums.DeliveryStatus, bool) {
	next, ok := transitions[current]
	return next, ok
}

// IsUpdatable reports whether status may be requested through UpdateStatus.
func IsUpdatable(status enums.DeliveryStatus) bool {
	for _, s := range updatableStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// UpdatableStatuses returns the statuses accepted by UpdateStatus.
func UpdatableStatuses() []enums.DeliveryStatus {
	return append([]enums.DeliveryStatus(nil), updatableStatuses...)
}

func notificationFor(status enums.DeliveryStatus) enums.NotificationType {
	switch status {
	case enums.DeliveryStatusPicked:
		return enums.NotificationTypeDeliveryPicked
	case enums.DeliveryStatusInTransit:
		return enums.NotificationTypeDeliveryInTransit
	case enums.DeliveryStatusDelivered:
		return enums.NotificationTypeOrderDelivered
	}
	return ""
}
