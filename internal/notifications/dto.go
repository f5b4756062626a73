package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/enums"
)

// NotificationDTO is the inbox item shape.
type NotificationDTO struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	OrderID   *uuid.UUID             `json:"orderId,omitempty"`
	ProductID *uuid.UUID             `json:"productId,omitempty"`
	Metadata  map[string]any         `json:"metadata,omitempty"`
	IsRead    bool                   `json:"isRead"`
	ReadAt    *time.Time             `json:"readAt,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

func FromModel(n models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		OrderID:   n.OrderID,
		ProductID: n.ProductID,
		Metadata:  n.Metadata,
		IsRead:    n.ReadAt != nil,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
