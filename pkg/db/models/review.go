package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/pkg/types"
)

// ReviewOrderBuyerIndex enforces one review per (order, buyer).
const ReviewOrderBuyerIndex = "idx_reviews_order_buyer"

// Review is a buyer's verdict on a delivered product.
type Review struct {
	ID         uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex:idx_reviews_order_buyer"`
	BuyerID    uuid.UUID            `gorm:"column:buyer_id;type:uuid;not null;uniqueIndex:idx_reviews_order_buyer"`
	ProductID  uuid.UUID            `gorm:"column:product_id;type:uuid;not null;index"`
	FarmerID   uuid.UUID            `gorm:"column:farmer_id;type:uuid;not null;index"`
	Rating     int                  `gorm:"column:rating;not null"`
	Comment    string               `gorm:"column:comment;not null"`
	Aspects    *types.ReviewAspects `gorm:"column:aspects;type:jsonb"`
	IsVerified bool                 `gorm:"column:is_verified;not null"`
	IsVisible  bool                 `gorm:"column:is_visible;not null"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
