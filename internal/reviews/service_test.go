package reviews

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/internal/notifications"
	"github.com/Nafis5858/Krishak/internal/orders"
	product "github.com/Nafis5858/Krishak/internal/products"
	"github.com/Nafis5858/Krishak/internal/users"
	"github.com/Nafis5858/Krishak/pkg/db/dbtest"
	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/enums"
	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
	"github.com/Nafis5858/Krishak/pkg/types"
)

type recordingDispatcher struct {
	events []notifications.Event
}

func (r *recordingDispatcher) Dispatch(_ context.Context, events ...notifications.Event) {
	r.events = append(r.events, events...)
}

type fixture struct {
	conn       *gorm.DB
	svc        Service
	repo       Repository
	dispatcher *recordingDispatcher
	farmer     *models.User
	buyer      *models.User
	product    *models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Client(t)
	conn := client.DB()
	repo := NewRepository(conn)
	dispatcher := &recordingDispatcher{}
	svc, err := NewService(ServiceParams{
		Repo:       repo,
		Orders:     orders.NewRepository(conn),
		Products:   product.NewRepository(conn),
		Users:      users.NewRepository(conn),
		Tx:         client,
		Dispatcher: dispatcher,
	})
	require.NoError(t, err)

	farmer := dbtest.User(t, conn, enums.UserRoleFarmer)
	return &fixture{
		conn:       conn,
		svc:        svc,
		repo:       repo,
		dispatcher: dispatcher,
		farmer:     farmer,
		buyer:      dbtest.User(t, conn, enums.UserRoleBuyer, func(u *models.User) { u.Name = "Karim" }),
		product:    dbtest.Product(t, conn, farmer.ID),
	}
}

func (f *fixture) delivered(t *testing.T, buyerID uuid.UUID) *models.Order {
	t.Helper()
	return dbtest.Order(t, f.conn, buyerID, f.product, func(o *models.Order) {
		o.OrderStatus = enums.OrderStatusCompleted
		o.DeliveryStatus = enums.DeliveryStatusDelivered
	})
}

func (f *fixture) review(t *testing.T, order *models.Order, rating int) *ReviewDTO {
	t.Helper()
	dto, err := f.svc.Create(context.Background(), order.BuyerID, CreateReviewInput{
		ProductID: f.product.ID,
		OrderID:   order.ID,
		Rating:    rating,
		Comment:   "fresh and well packed",
	})
	require.NoError(t, err)
	return dto
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), typed.Message())
}

func TestCreateReviewRecomputesAggregates(t *testing.T) {
	f := newFixture(t)
	quality := 5
	order := f.delivered(t, f.buyer.ID)

	dto, err := f.svc.Create(context.Background(), f.buyer.ID, CreateReviewInput{
		ProductID: f.product.ID,
		OrderID:   order.ID,
		Rating:    4,
		Comment:   "  sweet mangoes  ",
		Aspects:   &types.ReviewAspects{Quality: &quality},
	})
	require.NoError(t, err)
	require.True(t, dto.IsVerified)
	require.Equal(t, "sweet mangoes", dto.Comment)
	require.Equal(t, "Karim", dto.Buyer.Name)
	require.Equal(t, f.farmer.ID, dto.FarmerID)

	other := dbtest.User(t, f.conn, enums.UserRoleBuyer)
	f.review(t, f.delivered(t, other.ID), 5)

	var p models.Product
	require.NoError(t, f.conn.First(&p, "id = ?", f.product.ID).Error)
	require.Equal(t, 4.5, p.AverageRating)
	require.EqualValues(t, 2, p.ReviewCount)

	var farmer models.User
	require.NoError(t, f.conn.First(&farmer, "id = ?", f.farmer.ID).Error)
	require.Equal(t, 4.5, farmer.RatingAverage)
	require.EqualValues(t, 2, farmer.RatingCount)

	require.Len(t, f.dispatcher.events, 2)
	require.Equal(t, enums.NotificationTypeReviewReceived, f.dispatcher.events[0].Kind)
	require.Equal(t, []uuid.UUID{f.farmer.ID}, f.dispatcher.events[0].Recipients)
	require.Contains(t, f.dispatcher.events[0].Message, order.OrderNumber)
}

func TestCreateReviewDuplicate(t *testing.T) {
	f := newFixture(t)
	order := f.delivered(t, f.buyer.ID)
	f.review(t, order, 4)

	_, err := f.svc.Create(context.Background(), f.buyer.ID, CreateReviewInput{
		ProductID: f.product.ID,
		OrderID:   order.ID,
		Rating:    2,
		Comment:   "changed my mind",
	})
	requireCode(t, err, pkgerrors.CodeDuplicate)

	var count int64
	require.NoError(t, f.conn.Model(&models.Review{}).Where("order_id = ?", order.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRepositoryCreateMapsUniqueIndexToDuplicate(t *testing.T) {
	f := newFixture(t)
	order := f.delivered(t, f.buyer.ID)
	row := func() *models.Review {
		return &models.Review{
			OrderID: order.ID, BuyerID: f.buyer.ID, ProductID: f.product.ID, FarmerID: f.farmer.ID,
			Rating: 3, Comment: "ok", IsVisible: true,
		}
	}
	require.NoError(t, f.repo.Create(context.Background(), row()))
	require.ErrorIs(t, f.repo.Create(context.Background(), row()), ErrDuplicate)
}

func TestCreateReviewChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stranger := dbtest.User(t, f.conn, enums.UserRoleBuyer)
	pending := dbtest.Order(t, f.conn, f.buyer.ID, f.product)
	delivered := f.delivered(t, f.buyer.ID)

	cases := []struct {
		name  string
		buyer uuid.UUID
		input CreateReviewInput
		code  pkgerrors.Code
	}{
		{"rating out of range", f.buyer.ID, CreateReviewInput{ProductID: f.product.ID, OrderID: delivered.ID, Rating: 0, Comment: "x"}, pkgerrors.CodeValidation},
		{"comment too long", f.buyer.ID, CreateReviewInput{ProductID: f.product.ID, OrderID: delivered.ID, Rating: 3, Comment: strings.Repeat("a", 1001)}, pkgerrors.CodeValidation},
		{"missing comment", f.buyer.ID, CreateReviewInput{ProductID: f.product.ID, OrderID: delivered.ID, Rating: 3, Comment: "   "}, pkgerrors.CodeValidation},
		{"unknown order", f.buyer.ID, CreateReviewInput{ProductID: f.product.ID, OrderID: uuid.New(), Rating: 3, Comment: "x"}, pkgerrors.CodeNotFound},
		{"someone else's order", stranger.ID, CreateReviewInput{ProductID: f.product.ID, OrderID: delivered.ID, Rating: 3, Comment: "x"}, pkgerrors.CodeForbidden},
		{"not delivered", f.buyer.ID, CreateReviewInput{ProductID: f.product.ID, OrderID: pending.ID, Rating: 3, Comment: "x"}, pkgerrors.CodeStateConflict},
		{"product mismatch", f.buyer.ID, CreateReviewInput{ProductID: uuid.New(), OrderID: delivered.ID, Rating: 3, Comment: "x"}, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tc.buyer, tc.input)
			requireCode(t, err, tc.code)
		})
	}

	bad := 7
	_, err := f.svc.Create(ctx, f.buyer.ID, CreateReviewInput{
		ProductID: f.product.ID, OrderID: delivered.ID, Rating: 3, Comment: "x",
		Aspects: &types.ReviewAspects{Freshness: &bad},
	})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestListForProductSortsAndSummarises(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, rating := range []int{3, 5, 1} {
		buyer := dbtest.User(t, f.conn, enums.UserRoleBuyer)
		f.review(t, f.delivered(t, buyer.ID), rating)
	}

	result, err := f.svc.ListForProduct(ctx, f.product.ID, ListInput{Sort: enums.ReviewSortHighest})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	require.Equal(t, []int{5, 3, 1}, []int{result.Items[0].Rating, result.Items[1].Rating, result.Items[2].Rating})
	require.NotEmpty(t, result.Items[0].Buyer.Name)
	require.Equal(t, 3.0, result.Stats.AverageRating)
	require.EqualValues(t, 3, result.Stats.TotalReviews)
	require.Equal(t, types.RatingDistribution{"1": 1, "2": 0, "3": 1, "4": 0, "5": 1}, result.Stats.RatingDistribution)

	newest, err := f.svc.ListForProduct(ctx, f.product.ID, ListInput{Limit: 2})
	require.NoError(t, err)
	require.Len(t, newest.Items, 2)
	require.Equal(t, 1, newest.Items[0].Rating)
	require.EqualValues(t, 3, newest.Pagination.Total)
	require.Equal(t, 2, newest.Pagination.TotalPages)

	oldest, err := f.svc.ListForProduct(ctx, f.product.ID, ListInput{Sort: enums.ReviewSortOldest, Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, oldest.Items, 1)
	require.Equal(t, 1, oldest.Items[0].Rating)

	_, err = f.svc.ListForProduct(ctx, uuid.New(), ListInput{})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestListForBuyerIncludesProduct(t *testing.T) {
	f := newFixture(t)
	f.review(t, f.delivered(t, f.buyer.ID), 4)

	result, err := f.svc.ListForBuyer(context.Background(), f.buyer.ID, ListInput{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.NotNil(t, result.Items[0].Product)
	require.Equal(t, f.product.CropName, result.Items[0].Product.CropName)
}

func TestCheckCanReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.delivered(t, f.buyer.ID)

	before, err := f.svc.CheckCanReview(ctx, f.buyer.ID, order.ID)
	require.NoError(t, err)
	require.True(t, before.CanReview)
	require.False(t, before.HasReviewed)

	f.review(t, order, 5)
	after, err := f.svc.CheckCanReview(ctx, f.buyer.ID, order.ID)
	require.NoError(t, err)
	require.False(t, after.CanReview)
	require.True(t, after.HasReviewed)
	require.Equal(t, enums.DeliveryStatusDelivered, after.DeliveryStatus)

	_, err = f.svc.CheckCanReview(ctx, f.farmer.ID, order.ID)
	requireCode(t, err, pkgerrors.CodeForbidden)
}

func TestSetVisibilityRecomputes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	low := f.review(t, f.delivered(t, f.buyer.ID), 1)
	other := dbtest.User(t, f.conn, enums.UserRoleBuyer)
	f.review(t, f.delivered(t, other.ID), 5)

	hidden, err := f.svc.SetVisibility(ctx, low.ID, false)
	require.NoError(t, err)
	require.False(t, hidden.IsVisible)

	var p models.Product
	require.NoError(t, f.conn.First(&p, "id = ?", f.product.ID).Error)
	require.Equal(t, 5.0, p.AverageRating)
	require.EqualValues(t, 1, p.ReviewCount)

	listed, err := f.svc.ListForProduct(ctx, f.product.ID, ListInput{})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)

	_, err = f.svc.SetVisibility(ctx, low.ID, true)
	require.NoError(t, err)
	require.NoError(t, f.conn.First(&p, "id = ?", f.product.ID).Error)
	require.Equal(t, 3.0, p.AverageRating)

	_, err = f.svc.SetVisibility(ctx, uuid.New(), false)
	requireCode(t, err, pkgerrors.CodeNotFound)
}
