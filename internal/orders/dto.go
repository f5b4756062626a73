package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	product "github.com/Nafis5858/Krishak/internal/products"
	"github.com/Nafis5858/Krishak/internal/users"
	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/enums"
	"github.com/Nafis5858/Krishak/pkg/types"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// OrderDTO is the order as shown to its parties.
type OrderDTO struct {
	ID                    uuid.UUID             `json:"id"`
	OrderNumber           string                `json:"orderNumber"`
	Buyer                 *users.PartyDTO       `json:"buyer,omitempty"`
	Farmer                *users.PartyDTO       `json:"farmer,omitempty"`
	Transporter           *users.PartyDTO       `json:"transporter,omitempty"`
	Product               *product.SummaryDTO   `json:"product,omitempty"`
	BuyerID               uuid.UUID             `json:"buyerId"`
	FarmerID              uuid.UUID             `json:"farmerId"`
	ProductID             uuid.UUID             `json:"productId"`
	TransporterID         *uuid.UUID            `json:"transporterId,omitempty"`
	Quantity              decimal.Decimal       `json:"quantity"`
	Unit                  string                `json:"unit"`
	OrderStatus           enums.OrderStatus     `json:"orderStatus"`
	DeliveryStatus        enums.DeliveryStatus  `json:"deliveryStatus"`
	DeliveryAddress       types.DeliveryAddress `json:"deliveryAddress"`
	PickupPhoto           *types.PhotoProof     `json:"pickupPhoto,omitempty"`
	DeliveryProofPhoto    *types.PhotoProof     `json:"deliveryProofPhoto,omitempty"`
	StatusHistory         types.StatusHistory   `json:"statusHistory"`
	PriceBreakdown        types.PriceBreakdown  `json:"priceBreakdown"`
	EstimatedDeliveryDate *time.Time            `json:"estimatedDeliveryDate,omitempty"`
	ActualDeliveryDate    *time.Time            `json:"actualDeliveryDate,omitempty"`
	TransporterRating     *int                  `json:"transporterRating,omitempty"`
	TransporterReview     *string               `json:"transporterReview,omitempty"`
	CreatedAt             time.Time             `json:"createdAt"`
	UpdatedAt             time.Time             `json:"updatedAt"`
}

// FromModel maps the row without party details.
func FromModel(o *models.Order) OrderDTO {
	history := o.StatusHistory
	if history == nil {
		history = types.StatusHistory{}
	}
	return OrderDTO{
		ID:                    o.ID,
		OrderNumber:           o.OrderNumber,
		BuyerID:               o.BuyerID,
		FarmerID:              o.FarmerID,
		ProductID:             o.ProductID,
		TransporterID:         o.TransporterID,
		Quantity:              o.Quantity,
		Unit:                  o.Unit,
		OrderStatus:           o.OrderStatus,
		DeliveryStatus:        o.DeliveryStatus,
		DeliveryAddress:       o.DeliveryAddress,
		PickupPhoto:           o.PickupPhoto,
		DeliveryProofPhoto:    o.DeliveryProofPhoto,
		StatusHistory:         history,
		PriceBreakdown:        o.PriceBreakdown,
		EstimatedDeliveryDate: o.EstimatedDeliveryDate,
		ActualDeliveryDate:    o.ActualDeliveryDate,
		TransporterRating:     o.TransporterRating,
		TransporterReview:     o.TransporterReview,
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
}

// Related holds the users and products referenced by a batch of orders.
type Related struct {
	Users    map[uuid.UUID]models.User
	Products map[uuid.UUID]models.Product
}

type userLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

// LoadRelated fetches every party and product referenced by rows in two queries.
func LoadRelated(ctx context.Context, userRepo userLoader, productRepo productLoader, rows []models.Order) (*Related, error) {
	userIDs := make([]uuid.UUID, 0, len(rows)*3)
	productIDs := make([]uuid.UUID, 0, len(rows))
	for _, o := range rows {
		userIDs = append(userIDs, o.BuyerID, o.FarmerID)
		if o.TransporterID != nil {
			userIDs = append(userIDs, *o.TransporterID)
		}
		productIDs = append(productIDs, o.ProductID)
	}
	usersByID, err := userRepo.FindByIDs(ctx, dedupe(userIDs))
	if err != nil {
		return nil, err
	}
	productsByID, err := productRepo.FindByIDs(ctx, dedupe(productIDs))
	if err != nil {
		return nil, err
	}
	return &Related{Users: usersByID, Products: productsByID}, nil
}

// Party returns the short view of id if it was loaded.
func (r *Related) Party(id uuid.UUID) *users.PartyDTO {
	if r == nil {
		return nil
	}
	u, ok := r.Users[id]
	if !ok {
		return nil
	}
	party := users.PartyFromModel(u)
	return &party
}

// Decorate maps o and fills in its parties and product.
func (r *Related) Decorate(o *models.Order) OrderDTO {
	dto := FromModel(o)
	dto.Buyer = r.Party(o.BuyerID)
	dto.Farmer = r.Party(o.FarmerID)
	if o.TransporterID != nil {
		dto.Transporter = r.Party(*o.TransporterID)
	}
	if r != nil {
		if p, ok := r.Products[o.ProductID]; ok {
			summary := product.SummaryFromModel(p)
			dto.Product = &summary
		}
	}
	return dto
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// PlaceOrderInput is the buyer's order request.
type PlaceOrderInput struct {
	ProductID       uuid.UUID             `json:"productId" validate:"required"`
	Quantity        decimal.Decimal       `json:"quantity"`
	DeliveryAddress types.DeliveryAddress `json:"deliveryAddress"`
}

// OrderListResult wraps a page of orders.
type OrderListResult struct {
	Items  []OrderDTO `json:"items"`
	Cursor string     `json:"cursor"`
}
