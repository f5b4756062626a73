package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/Nafis5858/Krishak/internal/products"
	"github.com/Nafis5858/Krishak/internal/users"
	"github.com/Nafis5858/Krishak/pkg/types"
)

// Aggregator rewrites product and farmer rating columns from the visible
// review set. Counters are always recomputed, never incremented.
type Aggregator struct {
	reviews  Repository
	products product.Repository
	users    users.Repository
}

func NewAggregator(reviews Repository, products product.Repository, userRepo users.Repository) (*Aggregator, error) {
	if reviews == nil || products == nil || userRepo == nil {
		return nil, fmt.Errorf("reviews, products and users repositories required")
	}
	return &Aggregator{reviews: reviews, products: products, users: userRepo}, nil
}

// WithTx binds every repository to tx.
func (a *Aggregator) WithTx(tx *gorm.DB) *Aggregator {
	return &Aggregator{
		reviews:  a.reviews.WithTx(tx),
		products: a.products.WithTx(tx),
		users:    a.users.WithTx(tx),
	}
}

// Result is a recomputed rating. Changed is false when the stored value already matched.
type Result struct {
	Average float64
	Count   int64
	Changed bool
}

func (a *Aggregator) Product(ctx context.Context, productID uuid.UUID) (Result, error) {
	current, err := a.products.FindByID(ctx, productID)
	if err != nil {
		return Result{}, err
	}
	agg, err := a.reviews.ProductAggregate(ctx, productID)
	if err != nil {
		return Result{}, err
	}
	res := Result{Average: types.AverageRating(agg.Total, agg.Count), Count: agg.Count}
	if current.AverageRating == res.Average && current.ReviewCount == res.Count {
		return res, nil
	}
	if err := a.products.UpdateRating(ctx, productID, res.Average, res.Count); err != nil {
		return Result{}, err
	}
	res.Changed = true
	return res, nil
}

func (a *Aggregator) Farmer(ctx context.Context, farmerID uuid.UUID) (Result, error) {
	current, err := a.users.FindByID(ctx, farmerID)
	if err != nil {
		return Result{}, err
	}
	agg, err := a.reviews.FarmerAggregate(ctx, farmerID)
	if err != nil {
		return Result{}, err
	}
	res := Result{Average: types.AverageRating(agg.Total, agg.Count), Count: agg.Count}
	if current.RatingAverage == res.Average && current.RatingCount == res.Count {
		return res, nil
	}
	if err := a.users.UpdateRating(ctx, farmerID, res.Average, res.Count); err != nil {
		return Result{}, err
	}
	res.Changed = true
	return res, nil
}

// ProductIDs and FarmerIDs enumerate everything a full reconcile must visit.
func (a *Aggregator) ProductIDs(ctx context.Context) ([]uuid.UUID, error) {
	return a.products.ListIDs(ctx)
}

func (a *Aggregator) FarmerIDs(ctx context.Context) ([]uuid.UUID, error) {
	return a.reviews.FarmerIDs(ctx)
}
