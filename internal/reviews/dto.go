package reviews

import (
	"time"

	"github.com/google/uuid"

	product "github.com/Nafis5858/Krishak/internal/products"
	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/enums"
	"github.com/Nafis5858/Krishak/pkg/pagination"
	"github.com/Nafis5858/Krishak/pkg/types"
)

// ReviewerDTO is the public face of the reviewing buyer.
type ReviewerDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type ReviewDTO struct {
	ID         uuid.UUID            `json:"id"`
	OrderID    uuid.UUID            `json:"orderId"`
	ProductID  uuid.UUID            `json:"productId"`
	FarmerID   uuid.UUID            `json:"farmerId"`
	Buyer      ReviewerDTO          `json:"buyer"`
	Product    *product.SummaryDTO  `json:"product,omitempty"`
	Rating     int                  `json:"rating"`
	Comment    string               `json:"comment"`
	Aspects    *types.ReviewAspects `json:"aspects,omitempty"`
	IsVerified bool                 `json:"isVerified"`
	IsVisible  bool                 `json:"isVisible"`
	CreatedAt  time.Time            `json:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

func FromModel(r *models.Review) ReviewDTO {
	return ReviewDTO{
		ID:         r.ID,
		OrderID:    r.OrderID,
		ProductID:  r.ProductID,
		FarmerID:   r.FarmerID,
		Buyer:      ReviewerDTO{ID: r.BuyerID},
		Rating:     r.Rating,
		Comment:    r.Comment,
		Aspects:    r.Aspects,
		IsVerified: r.IsVerified,
		IsVisible:  r.IsVisible,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// CreateReviewInput is the buyer's review of an order's product.
type CreateReviewInput struct {
	ProductID uuid.UUID            `json:"productId" validate:"required"`
	OrderID   uuid.UUID            `json:"orderId" validate:"required"`
	Rating    int                  `json:"rating" validate:"required,min=1,max=5"`
	Comment   string               `json:"comment" validate:"required,max=1000"`
	Aspects   *types.ReviewAspects `json:"aspects"`
}

// ListInput pages a review listing.
type ListInput struct {
	Page  int
	Limit int
	Sort  enums.ReviewSort
}

// Stats summarises visible reviews of one product.
type Stats struct {
	AverageRating      float64                  `json:"averageRating"`
	TotalReviews       int64                    `json:"totalReviews"`
	RatingDistribution types.RatingDistribution `json:"ratingDistribution"`
}

type ProductReviewsResult struct {
	Items      []ReviewDTO         `json:"items"`
	Pagination pagination.PageInfo `json:"pagination"`
	Stats      Stats               `json:"stats"`
}

type BuyerReviewsResult struct {
	Items      []ReviewDTO         `json:"items"`
	Pagination pagination.PageInfo `json:"pagination"`
}

// Eligibility tells a buyer whether an order can still be reviewed.
type Eligibility struct {
	CanReview      bool                 `json:"canReview"`
	HasReviewed    bool                 `json:"hasReviewed"`
	OrderStatus    enums.OrderStatus    `json:"orderStatus"`
	DeliveryStatus enums.DeliveryStatus `json:"deliveryStatus"`
}

// VisibilityInput is the moderation toggle.
type VisibilityInput struct {
	Visible *bool `json:"visible" validate:"required"`
}
