package reviews

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/pkg/db"
	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/enums"
	"github.com/Nafis5858/Krishak/pkg/pagination"
)

// ErrDuplicate is returned when (order, buyer) already has a review.
var ErrDuplicate = errors.New("review already exists for order")

// Repository persists reviews and computes their aggregates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, review *models.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	FindByOrderBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Review, error)
	ListForProduct(ctx context.Context, productID uuid.UUID, sort enums.ReviewSort, page pagination.Page) ([]models.Review, int64, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, page pagination.Page) ([]models.Review, int64, error)
	ProductAggregate(ctx context.Context, productID uuid.UUID) (Aggregate, error)
	FarmerAggregate(ctx context.Context, farmerID uuid.UUID) (Aggregate, error)
	Distribution(ctx context.Context, productID uuid.UUID) (map[int]int64, error)
	SetVisibility(ctx context.Context, id uuid.UUID, visible bool) (bool, error)
	FarmerIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Aggregate is the sum and count of visible ratings.
type Aggregate struct {
	Total int64
	Count int64
}

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, review *models.Review) error {
	err := r.db.WithContext(ctx).Create(review).Error
	// sqlite names the columns rather than the index.
	if db.IsUniqueViolation(err, models.ReviewOrderBuyerIndex) || db.IsUniqueViolation(err, "reviews.order_id") {
		return ErrDuplicate
	}
	return err
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repositoryImpl) FindByOrderBuyer(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "order_id = ? AND buyer_id = ?", orderID, buyerID).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func sortClause(sort enums.ReviewSort) string {
	switch sort {
	case enums.ReviewSortOldest:
		return "created_at ASC, id ASC"
	case enums.ReviewSortHighest:
		return "rating DESC, created_at DESC, id DESC"
	case enums.ReviewSortLowest:
		return "rating ASC, created_at DESC, id DESC"
	default:
		return "created_at DESC, id DESC"
	}
}

func (r *repositoryImpl) ListForProduct(ctx context.Context, productID uuid.UUID, sort enums.ReviewSort, page pagination.Page) ([]models.Review, int64, error) {
	return r.listVisible(ctx, "product_id", productID, sortClause(sort), page)
}

func (r *repositoryImpl) ListForBuyer(ctx context.Context, buyerID uuid.UUID, page pagination.Page) ([]models.Review, int64, error) {
	return r.listVisible(ctx, "buyer_id", buyerID, sortClause(enums.ReviewSortNewest), page)
}

func (r *repositoryImpl) listVisible(ctx context.Context, column string, id uuid.UUID, order string, page pagination.Page) ([]models.Review, int64, error) {
	scoped := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Review{}).Where(column+" = ? AND is_visible = ?", id, true)
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Review
	if err := scoped().Order(order).Offset(page.Offset()).Limit(page.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repositoryImpl) aggregate(ctx context.Context, column string, id uuid.UUID) (Aggregate, error) {
	var agg Aggregate
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COALESCE(SUM(rating), 0) AS total, COUNT(*) AS count").
		Where(column+" = ? AND is_visible = ?", id, true).
		Scan(&agg).Error
	return agg, err
}

func (r *repositoryImpl) ProductAggregate(ctx context.Context, productID uuid.UUID) (Aggregate, error) {
	return r.aggregate(ctx, "product_id", productID)
}

func (r *repositoryImpl) FarmerAggregate(ctx context.Context, farmerID uuid.UUID) (Aggregate, error) {
	return r.aggregate(ctx, "farmer_id", farmerID)
}

type ratingBucket struct {
	Rating int
	Total  int64
}

func (r *repositoryImpl) Distribution(ctx context.Context, productID uuid.UUID) (map[int]int64, error) {
	var buckets []ratingBucket
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("rating, COUNT(*) AS total").
		Where("product_id = ? AND is_visible = ?", productID, true).
		Group("rating").
		Scan(&buckets).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int]int64, len(buckets))
	for _, b := range buckets {
		out[b.Rating] = b.Total
	}
	return out, nil
}

func (r *repositoryImpl) SetVisibility(ctx context.Context, id uuid.UUID, visible bool) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ? AND is_visible = ?", id, !visible).
		Update("is_visible", visible)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FarmerIDs lists every farmer that has ever been reviewed, hidden reviews included.
func (r *repositoryImpl) FarmerIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Distinct("farmer_id").
		Pluck("farmer_id", &ids).Error
	return ids, err
}
