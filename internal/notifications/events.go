package notifications

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/enums"
	"github.com/Nafis5858/Krishak/pkg/types"
)

// Event is one notification fan-out: the same message to every recipient.
type Event struct {
	ID         uuid.UUID              `json:"eventId"`
	Kind       enums.NotificationType `json:"kind"`
	Recipients []uuid.UUID            `json:"recipients"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	OrderID    *uuid.UUID             `json:"orderId,omitempty"`
	ProductID  *uuid.UUID             `json:"productId,omitempty"`
	Metadata   map[string]any         `json:"metadata,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

var orderTemplates = map[enums.NotificationType][2]string{
	enums.NotificationTypeOrderPlaced:       {"New order received", "Order %s has been placed for your produce."},
	enums.NotificationTypeOrderConfirmed:    {"Order confirmed", "Your order %s was confirmed by the farmer."},
	enums.NotificationTypeOrderCancelled:    {"Order cancelled", "Order %s was cancelled."},
	enums.NotificationTypeOrderCompleted:    {"Order completed", "Order %s is complete."},
	enums.NotificationTypeOrderDelivered:    {"Order delivered", "Order %s has been delivered."},
	enums.NotificationTypeDeliveryAssigned:  {"Transporter assigned", "A transporter accepted delivery of order %s."},
	enums.NotificationTypeDeliveryPicked:    {"Order picked up", "Order %s was picked up from the farm."},
	enums.NotificationTypeDeliveryInTransit: {"Order on the way", "Order %s is in transit."},
	enums.NotificationTypeReviewReceived:    {"New review", "A buyer reviewed your produce from order %s."},
}

// NewOrderEvent builds an event about an order using the stock wording for kind.
func NewOrderEvent(kind enums.NotificationType, orderID uuid.UUID, orderNumber string, recipients ...uuid.UUID) Event {
	tpl, ok := orderTemplates[kind]
	if !ok {
		tpl = [2]string{"Order update", "Order %s was updated."}
	}
	id := orderID
	return Event{
		ID:         uuid.New(),
		Kind:       kind,
		Recipients: recipients,
		Title:      tpl[0],
		Message:    fmt.Sprintf(tpl[1], orderNumber),
		OrderID:    &id,
		Metadata:   map[string]any{"orderNumber": orderNumber},
		OccurredAt: time.Now().UTC(),
	}
}

// WithProduct attaches a product reference.
func (e Event) WithProduct(productID uuid.UUID) Event {
	id := productID
	e.ProductID = &id
	return e
}

// WithMeta adds one metadata entry without mutating e's map.
func (e Event) WithMeta(key string, value any) Event {
	meta := make(map[string]any, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	e.Metadata = meta
	return e
}

// Rows expands e into one notification per distinct, non-nil recipient.
func (e Event) Rows() []models.Notification {
	seen := make(map[uuid.UUID]struct{}, len(e.Recipients))
	rows := make([]models.Notification, 0, len(e.Recipients))
	for _, userID := range e.Recipients {
		if userID == uuid.Nil {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		rows = append(rows, models.Notification{
			UserID:    userID,
			Type:      e.Kind,
			Title:     e.Title,
			Message:   e.Message,
			OrderID:   e.OrderID,
			ProductID: e.ProductID,
			Metadata:  types.Metadata(e.Metadata),
		})
	}
	return rows
}

func (e Event) validate() error {
	if e.ID == uuid.Nil {
		return fmt.Errorf("event id required")
	}
	if !e.Kind.IsValid() {
		return fmt.Errorf("unknown notification kind %q", e.Kind)
	}
	if len(e.Recipients) == 0 {
		return fmt.Errorf("event %s has no recipients", e.ID)
	}
	return nil
}
