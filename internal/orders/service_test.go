package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/internal/notifications"
	product "github.com/Nafis5858/Krishak/internal/products"
	"github.com/Nafis5858/Krishak/internal/users"
	"github.com/Nafis5858/Krishak/pkg/db/dbtest"
	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/enums"
	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
	"github.com/Nafis5858/Krishak/pkg/pagination"
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
	dispatcher *recordingDispatcher
	farmer     *models.User
	buyer      *models.User
	product    *models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Client(t)
	conn := client.DB()
	dispatcher := &recordingDispatcher{}
	svc, err := NewService(ServiceParams{
		Repo:       NewRepository(conn),
		Products:   product.NewRepository(conn),
		Users:      users.NewRepository(conn),
		Tx:         client,
		Dispatcher: dispatcher,
		Fees:       Fees{Transport: decimal.NewFromInt(100), PlatformPercent: decimal.NewFromInt(2)},
	})
	require.NoError(t, err)

	farmer := dbtest.User(t, conn, enums.UserRoleFarmer)
	return &fixture{
		conn:       conn,
		svc:        svc,
		dispatcher: dispatcher,
		farmer:     farmer,
		buyer:      dbtest.User(t, conn, enums.UserRoleBuyer),
		product: dbtest.Product(t, conn, farmer.ID, func(p *models.Product) {
			p.PricePerUnit = decimal.RequireFromString("45.50")
			p.QuantityAvailable = decimal.NewFromInt(20)
		}),
	}
}

func (f *fixture) place(t *testing.T, qty string) *OrderDTO {
	t.Helper()
	order, err := f.svc.PlaceOrder(context.Background(), f.buyer.ID, PlaceOrderInput{
		ProductID:       f.product.ID,
		Quantity:        decimal.RequireFromString(qty),
		DeliveryAddress: types.DeliveryAddress{Address: "12 Lake Road", District: "Dhaka", Phone: "01700000000"},
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) stock(t *testing.T) decimal.Decimal {
	t.Helper()
	var p models.Product
	require.NoError(t, f.conn.First(&p, "id = ?", f.product.ID).Error)
	return p.QuantityAvailable
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}

func TestPlaceOrderComputesBreakdownAndReservesStock(t *testing.T) {
	f := newFixture(t)
	order := f.place(t, "4")

	require.Equal(t, enums.OrderStatusPending, order.OrderStatus)
	require.Equal(t, enums.DeliveryStatusNotAssigned, order.DeliveryStatus)
	require.True(t, order.PriceBreakdown.Subtotal.Equal(decimal.RequireFromString("182")))
	require.True(t, order.PriceBreakdown.PlatformFee.Equal(decimal.RequireFromString("3.64")))
	require.True(t, order.PriceBreakdown.Total.Equal(decimal.RequireFromString("285.64")))
	require.Equal(t, f.farmer.ID, order.FarmerID)
	require.NotNil(t, order.Buyer)
	require.NotNil(t, order.Product)
	require.Empty(t, order.StatusHistory)
	require.True(t, f.stock(t).Equal(decimal.NewFromInt(16)))

	require.Len(t, f.dispatcher.events, 1)
	require.Equal(t, enums.NotificationTypeOrderPlaced, f.dispatcher.events[0].Kind)
	require.Equal(t, []uuid.UUID{f.farmer.ID}, f.dispatcher.events[0].Recipients)
}

func TestPlaceOrderRejectsShortStock(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), f.buyer.ID, PlaceOrderInput{
		ProductID:       f.product.ID,
		Quantity:        decimal.NewFromInt(21),
		DeliveryAddress: types.DeliveryAddress{Address: "12 Lake Road", District: "Dhaka"},
	})
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
	require.True(t, f.stock(t).Equal(decimal.NewFromInt(20)), "failed placement must not touch stock")
	require.Empty(t, f.dispatcher.events)
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.PlaceOrder(context.Background(), f.buyer.ID, PlaceOrderInput{ProductID: f.product.ID, Quantity: decimal.NewFromInt(1)})
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = f.svc.PlaceOrder(context.Background(), f.buyer.ID, PlaceOrderInput{
		ProductID:       uuid.New(),
		Quantity:        decimal.NewFromInt(1),
		DeliveryAddress: types.DeliveryAddress{Address: "x", District: "y"},
	})
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestDecideConfirmAndCancel(t *testing.T) {
	f := newFixture(t)
	first := f.place(t, "5")
	second := f.place(t, "5")

	confirmed, err := f.svc.Decide(context.Background(), f.farmer.ID, first.ID, enums.OrderDecisionConfirm)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusConfirmed, confirmed.OrderStatus)

	_, err = f.svc.Decide(context.Background(), f.farmer.ID, first.ID, enums.OrderDecisionCancel)
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code(), "only pending orders can be decided")

	_, err = f.svc.Decide(context.Background(), f.buyer.ID, second.ID, enums.OrderDecisionCancel)
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	cancelled, err := f.svc.Decide(context.Background(), f.farmer.ID, second.ID, enums.OrderDecisionCancel)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancelled, cancelled.OrderStatus)
	require.True(t, f.stock(t).Equal(decimal.NewFromInt(15)), "cancel restores the reserved quantity")

	kinds := []enums.NotificationType{}
	for _, e := range f.dispatcher.events {
		kinds = append(kinds, e.Kind)
	}
	require.Equal(t, []enums.NotificationType{
		enums.NotificationTypeOrderPlaced,
		enums.NotificationTypeOrderPlaced,
		enums.NotificationTypeOrderConfirmed,
		enums.NotificationTypeOrderCancelled,
	}, kinds)
}

func TestGetAndListByRole(t *testing.T) {
	f := newFixture(t)
	order := f.place(t, "1")
	f.place(t, "1")

	_, err := f.svc.Get(context.Background(), Actor{UserID: f.buyer.ID, Role: enums.UserRoleBuyer}, order.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleBuyer}, order.ID)
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	_, err = f.svc.Get(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleTransporter}, order.ID)
	require.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	page, err := f.svc.List(context.Background(), Actor{UserID: f.farmer.ID, Role: enums.UserRoleFarmer}, pagination.Params{Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.NotEmpty(t, page.Cursor)

	rest, err := f.svc.List(context.Background(), Actor{UserID: f.farmer.ID, Role: enums.UserRoleFarmer}, pagination.Params{Limit: 1, Cursor: page.Cursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	require.NotEqual(t, page.Items[0].ID, rest.Items[0].ID)

	none, err := f.svc.List(context.Background(), Actor{UserID: uuid.New(), Role: enums.UserRoleTransporter}, pagination.Params{})
	require.NoError(t, err)
	require.Empty(t, none.Items)
}
