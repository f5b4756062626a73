package delivery

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Nafis5858/Krishak/internal/orders"
	"github.com/Nafis5858/Krishak/pkg/enums"
)

// StatusInput is a transporter's request to advance a delivery.
type StatusInput struct {
	Status   enums.DeliveryStatus `json:"status" validate:"required"`
	Note     string               `json:"note" validate:"max=500"`
	PhotoURL string               `json:"photo" validate:"omitempty,max=2048"`
}

// RateInput is the buyer's verdict on the transporter.
type RateInput struct {
	Rating int     `json:"rating" validate:"required,gte=1,lte=5"`
	Review *string `json:"review" validate:"omitempty,max=1000"`
}

// MyDeliveriesInput filters the transporter's own deliveries.
type MyDeliveriesInput struct {
	Status *enums.DeliveryStatus
	Limit  int
	Cursor string
}

// DeliveryListResult wraps a page of deliveries.
type DeliveryListResult struct {
	Items  []orders.OrderDTO `json:"items"`
	Cursor string            `json:"cursor"`
}

// StatsDTO is the transporter dashboard.
type StatsDTO struct {
	ActiveDeliveries    int64           `json:"activeDeliveries"`
	CompletedDeliveries int64           `json:"completedDeliveries"`
	TotalEarnings       decimal.Decimal `json:"totalEarnings"`
	PendingJobs         int             `json:"pendingJobs"`
	AverageRating       float64         `json:"averageRating"`
	TotalRatings        int64           `json:"totalRatings"`
}

// RatingResult echoes a stored transporter rating.
type RatingResult struct {
	OrderID       uuid.UUID `json:"orderId"`
	TransporterID uuid.UUID `json:"transporterId"`
	Rating        int       `json:"rating"`
	Review        *string   `json:"review,omitempty"`
	AverageRating float64   `json:"averageRating"`
	TotalRatings  int64     `json:"totalRatings"`
}
