package reviews

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/internal/notifications"
	"github.com/Nafis5858/Krishak/internal/orders"
	product "github.com/Nafis5858/Krishak/internal/products"
	"github.com/Nafis5858/Krishak/internal/users"
	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/enums"
	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
	"github.com/Nafis5858/Krishak/pkg/pagination"
	"github.com/Nafis5858/Krishak/pkg/types"
)

const maxCommentLength = 1000

type Service interface {
	Create(ctx context.Context, buyerID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error)
	ListForProduct(ctx context.Context, productID uuid.UUID, input ListInput) (*ProductReviewsResult, error)
	ListForBuyer(ctx context.Context, buyerID uuid.UUID, input ListInput) (*BuyerReviewsResult, error)
	CheckCanReview(ctx context.Context, buyerID, orderID uuid.UUID) (*Eligibility, error)
	SetVisibility(ctx context.Context, reviewID uuid.UUID, visible bool) (*ReviewDTO, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type dispatcher interface {
	Dispatch(ctx context.Context, events ...notifications.Event)
}

type ServiceParams struct {
	Repo       Repository
	Orders     orders.Repository
	Products   product.Repository
	Users      users.Repository
	Tx         txRunner
	Dispatcher dispatcher
}

type service struct {
	repo       Repository
	orders     orders.Repository
	products   product.Repository
	users      users.Repository
	aggregator *Aggregator
	tx         txRunner
	dispatcher dispatcher
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	aggregator, err := NewAggregator(params.Repo, params.Products, params.Users)
	if err != nil {
		return nil, err
	}
	return &service{
		repo:       params.Repo,
		orders:     params.Orders,
		products:   params.Products,
		users:      params.Users,
		aggregator: aggregator,
		tx:         params.Tx,
		dispatcher: params.Dispatcher,
	}, nil
}

func validateCreate(input *CreateReviewInput) error {
	input.Comment = strings.TrimSpace(input.Comment)
	switch {
	case input.ProductID == uuid.Nil || input.OrderID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "productId and orderId are required")
	case input.Rating < 1 || input.Rating > 5:
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	case input.Comment == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "comment is required")
	case utf8.RuneCountInString(input.Comment) > maxCommentLength:
		return pkgerrors.New(pkgerrors.CodeValidation, "comment cannot exceed 1000 characters")
	}
	if a := input.Aspects; a != nil {
		for name, v := range map[string]*int{"quality": a.Quality, "freshness": a.Freshness, "packaging": a.Packaging, "value": a.Worth} {
			if v != nil && (*v < 1 || *v > 5) {
				return pkgerrors.New(pkgerrors.CodeValidation, "aspect ratings must be between 1 and 5").
					WithDetails(map[string]any{"aspect": name})
			}
		}
	}
	return nil
}

func reviewable(order *models.Order) bool {
	return order.OrderStatus == enums.OrderStatusCompleted || order.DeliveryStatus == enums.DeliveryStatusDelivered
}

func (s *service) Create(ctx context.Context, buyerID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error) {
	if err := validateCreate(&input); err != nil {
		return nil, err
	}

	var (
		review      *models.Review
		orderNumber string
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindByID(ctx, input.OrderID)
		if err != nil {
			return orders.MapLookupError(err)
		}
		if order.BuyerID != buyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not authorized to review this order")
		}
		if !reviewable(order) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only completed or delivered orders can be reviewed").
				WithDetails(map[string]any{"orderStatus": order.OrderStatus, "deliveryStatus": order.DeliveryStatus})
		}
		if order.ProductID != input.ProductID {
			return pkgerrors.New(pkgerrors.CodeValidation, "product does not match the order")
		}
		orderNumber = order.OrderNumber

		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByOrderBuyer(ctx, order.ID, buyerID); err == nil {
			return duplicateReview()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
		}

		review = &models.Review{
			OrderID:    order.ID,
			BuyerID:    buyerID,
			ProductID:  order.ProductID,
			FarmerID:   order.FarmerID,
			Rating:     input.Rating,
			Comment:    input.Comment,
			Aspects:    input.Aspects,
			IsVerified: true,
			IsVisible:  true,
		}
		if err := repo.Create(ctx, review); err != nil {
			if errors.Is(err, ErrDuplicate) {
				return duplicateReview()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}
		return s.recompute(ctx, tx, review)
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx,
		notifications.NewOrderEvent(enums.NotificationTypeReviewReceived, review.OrderID, orderNumber, review.FarmerID).
			WithProduct(review.ProductID).
			WithMeta("rating", review.Rating))

	dto := FromModel(review)
	if buyer, err := s.users.FindByID(ctx, buyerID); err == nil {
		dto.Buyer.Name = buyer.Name
	}
	return &dto, nil
}

func duplicateReview() error {
	return pkgerrors.New(pkgerrors.CodeDuplicate, "you have already reviewed this order")
}

func (s *service) recompute(ctx context.Context, tx *gorm.DB, review *models.Review) error {
	agg := s.aggregator.WithTx(tx)
	if _, err := agg.Product(ctx, review.ProductID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute product rating")
	}
	if _, err := agg.Farmer(ctx, review.FarmerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute farmer rating")
	}
	return nil
}

func (s *service) ListForProduct(ctx context.Context, productID uuid.UUID, input ListInput) (*ProductReviewsResult, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	sort := input.Sort
	if sort == "" {
		sort = enums.ReviewSortNewest
	}
	page := pagination.NewPage(input.Page, input.Limit)
	rows, total, err := s.repo.ListForProduct(ctx, productID, sort, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list product reviews")
	}
	items, err := s.decorate(ctx, rows, false)
	if err != nil {
		return nil, err
	}
	stats, err := s.stats(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &ProductReviewsResult{Items: items, Pagination: page.Info(total), Stats: *stats}, nil
}

func (s *service) stats(ctx context.Context, productID uuid.UUID) (*Stats, error) {
	buckets, err := s.repo.Distribution(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rating distribution")
	}
	distribution := types.NewRatingDistribution()
	var sum, count int64
	for rating, n := range buckets {
		if rating < 1 || rating > 5 {
			continue
		}
		distribution[strconv.Itoa(rating)] = n
		sum += int64(rating) * n
		count += n
	}
	return &Stats{
		AverageRating:      types.AverageRating(sum, count),
		TotalReviews:       count,
		RatingDistribution: distribution,
	}, nil
}

func (s *service) ListForBuyer(ctx context.Context, buyerID uuid.UUID, input ListInput) (*BuyerReviewsResult, error) {
	page := pagination.NewPage(input.Page, input.Limit)
	rows, total, err := s.repo.ListForBuyer(ctx, buyerID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buyer reviews")
	}
	items, err := s.decorate(ctx, rows, true)
	if err != nil {
		return nil, err
	}
	return &BuyerReviewsResult{Items: items, Pagination: page.Info(total)}, nil
}

func (s *service) decorate(ctx context.Context, rows []models.Review, withProduct bool) ([]ReviewDTO, error) {
	buyerIDs := make([]uuid.UUID, 0, len(rows))
	productIDs := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		buyerIDs = append(buyerIDs, r.BuyerID)
		productIDs = append(productIDs, r.ProductID)
	}
	buyers, err := s.users.FindByIDs(ctx, buyerIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reviewers")
	}
	var productsByID map[uuid.UUID]models.Product
	if withProduct {
		productsByID, err = s.products.FindByIDs(ctx, productIDs)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reviewed products")
		}
	}

	items := make([]ReviewDTO, 0, len(rows))
	for i := range rows {
		dto := FromModel(&rows[i])
		if buyer, ok := buyers[rows[i].BuyerID]; ok {
			dto.Buyer.Name = buyer.Name
		}
		if p, ok := productsByID[rows[i].ProductID]; ok {
			summary := product.SummaryFromModel(p)
			dto.Product = &summary
		}
		items = append(items, dto)
	}
	return items, nil
}

func (s *service) CheckCanReview(ctx context.Context, buyerID, orderID uuid.UUID) (*Eligibility, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, orders.MapLookupError(err)
	}
	if order.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not authorized")
	}
	hasReviewed := true
	if _, err := s.repo.FindByOrderBuyer(ctx, orderID, buyerID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
		}
		hasReviewed = false
	}
	return &Eligibility{
		CanReview:      reviewable(order) && !hasReviewed,
		HasReviewed:    hasReviewed,
		OrderStatus:    order.OrderStatus,
		DeliveryStatus: order.DeliveryStatus,
	}, nil
}

func (s *service) SetVisibility(ctx context.Context, reviewID uuid.UUID, visible bool) (*ReviewDTO, error) {
	var review *models.Review
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		review, err = repo.FindByID(ctx, reviewID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
		}
		if review.IsVisible == visible {
			return nil
		}
		changed, err := repo.SetVisibility(ctx, reviewID, visible)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update review visibility")
		}
		if !changed {
			return nil
		}
		review.IsVisible = visible
		return s.recompute(ctx, tx, review)
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(review)
	return &dto, nil
}
