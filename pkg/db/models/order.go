package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/pkg/enums"
	"github.com/Nafis5858/Krishak/pkg/types"
)

// Order links a buyer, a farmer's product and, once accepted, a transporter.
type Order struct {
	ID                    uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber           string                `gorm:"column:order_number;not null;uniqueIndex"`
	BuyerID               uuid.UUID             `gorm:"column:buyer_id;type:uuid;not null;index"`
	FarmerID              uuid.UUID             `gorm:"column:farmer_id;type:uuid;not null;index"`
	ProductID             uuid.UUID             `gorm:"column:product_id;type:uuid;not null"`
	TransporterID         *uuid.UUID            `gorm:"column:transporter_id;type:uuid;index"`
	Quantity              decimal.Decimal       `gorm:"column:quantity;type:numeric(12,2);not null"`
	Unit                  string                `gorm:"column:unit;not null"`
	OrderStatus           enums.OrderStatus     `gorm:"column:order_status;type:text;not null"`
	DeliveryStatus        enums.DeliveryStatus  `gorm:"column:delivery_status;type:text;not null"`
	DeliveryAddress       types.DeliveryAddress `gorm:"column:delivery_address;type:jsonb;not null"`
	PickupPhoto           *types.PhotoProof     `gorm:"column:pickup_photo;type:jsonb"`
	DeliveryProofPhoto    *types.PhotoProof     `gorm:"column:delivery_proof_photo;type:jsonb"`
	StatusHistory         types.StatusHistory   `gorm:"column:status_history;type:jsonb;not null"`
	PriceBreakdown        types.PriceBreakdown  `gorm:"column:price_breakdown;type:jsonb;not null"`
	EstimatedDeliveryDate *time.Time            `gorm:"column:estimated_delivery_date"`
	ActualDeliveryDate    *time.Time            `gorm:"column:actual_delivery_date"`
	TransporterRating     *int                  `gorm:"column:transporter_rating"`
	TransporterReview     *string               `gorm:"column:transporter_review"`
	TransporterRatedAt    *time.Time            `gorm:"column:transporter_rated_at"`
	CreatedAt             time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
