package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/internal/notifications"
	product "github.com/Nafis5858/Krishak/internal/products"
	"github.com/Nafis5858/Krishak/internal/users"
	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/enums"
	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
	"github.com/Nafis5858/Krishak/pkg/pagination"
	"github.com/Nafis5858/Krishak/pkg/types"
)

// Service covers order placement, the farmer's decision and order reads.
type Service interface {
	PlaceOrder(ctx context.Context, buyerID uuid.UUID, input PlaceOrderInput) (*OrderDTO, error)
	Decide(ctx context.Context, farmerID, orderID uuid.UUID, decision enums.OrderDecision) (*OrderDTO, error)
	Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, actor Actor, params pagination.Params) (*OrderListResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type dispatcher interface {
	Dispatch(ctx context.Context, events ...notifications.Event)
}

// Fees is the marketplace fee schedule applied at placement.
type Fees struct {
	Transport       decimal.Decimal
	PlatformPercent decimal.Decimal
}

type ServiceParams struct {
	Repo       Repository
	Products   product.Repository
	Users      users.Repository
	Tx         txRunner
	Dispatcher dispatcher
	Fees       Fees
	Now        func() time.Time
}

type service struct {
	repo       Repository
	products   product.Repository
	users      users.Repository
	tx         txRunner
	dispatcher dispatcher
	fees       Fees
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:       params.Repo,
		products:   params.Products,
		users:      params.Users,
		tx:         params.Tx,
		dispatcher: params.Dispatcher,
		fees:       params.Fees,
		now:        now,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, buyerID uuid.UUID, input PlaceOrderInput) (*OrderDTO, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	addr := input.DeliveryAddress
	addr.Address = strings.TrimSpace(addr.Address)
	addr.District = strings.TrimSpace(addr.District)
	if addr.Address == "" || addr.District == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address and district are required")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		products := s.products.WithTx(tx)
		p, err := products.FindByID(ctx, input.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !p.IsActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available")
		}
		if p.FarmerID == buyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cannot order your own produce")
		}

		qty := input.Quantity.Round(2)
		reserved, err := products.Reserve(ctx, p.ID, qty)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve quantity")
		}
		if !reserved {
			return pkgerrors.New(pkgerrors.CodeConflict, "insufficient quantity available").
				WithDetails(map[string]any{"available": p.QuantityAvailable.String(), "requested": qty.String()})
		}

		order = &models.Order{
			OrderNumber:     newOrderNumber(s.now()),
			BuyerID:         buyerID,
			FarmerID:        p.FarmerID,
			ProductID:       p.ID,
			Quantity:        qty,
			Unit:            p.Unit,
			OrderStatus:     enums.OrderStatusPending,
			DeliveryStatus:  enums.DeliveryStatusNotAssigned,
			DeliveryAddress: addr,
			StatusHistory:   types.StatusHistory{},
			PriceBreakdown:  types.NewPriceBreakdown(p.PricePerUnit, qty, s.fees.Transport, s.fees.PlatformPercent),
		}
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx,
		notifications.NewOrderEvent(enums.NotificationTypeOrderPlaced, order.ID, order.OrderNumber, order.FarmerID).
			WithProduct(order.ProductID))
	return s.view(ctx, order)
}

func (s *service) Decide(ctx context.Context, farmerID, orderID uuid.UUID, decision enums.OrderDecision) (*OrderDTO, error) {
	if !decision.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be confirm or cancel")
	}
	target := enums.OrderStatusConfirmed
	kind := enums.NotificationTypeOrderConfirmed
	if decision == enums.OrderDecisionCancel {
		target = enums.OrderStatusCancelled
		kind = enums.NotificationTypeOrderCancelled
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = repo.FindByID(ctx, orderID)
		if err != nil {
			return MapLookupError(err)
		}
		if order.FarmerID != farmerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to farmer")
		}
		if order.OrderStatus != enums.OrderStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order decision not allowed in current state").
				WithDetails(map[string]any{"orderStatus": order.OrderStatus})
		}
		ok, err := repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusPending, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order was decided concurrently")
		}
		if target == enums.OrderStatusCancelled {
			if err := s.products.WithTx(tx).Release(ctx, order.ProductID, order.Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore product quantity")
			}
		}
		order.OrderStatus = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, notifications.NewOrderEvent(kind, order.ID, order.OrderNumber, order.BuyerID))
	return s.view(ctx, order)
}

func (s *service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, MapLookupError(err)
	}
	if !IsParty(order, actor) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a party to this order")
	}
	return s.view(ctx, order)
}

func (s *service) List(ctx context.Context, actor Actor, params pagination.Params) (*OrderListResult, error) {
	query := ListParams{Role: actor.Role, UserID: actor.UserID, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	related, err := LoadRelated(ctx, s.users, s.products, rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order parties")
	}
	items := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		items = append(items, related.Decorate(&rows[i]))
	}
	result := &OrderListResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) view(ctx context.Context, order *models.Order) (*OrderDTO, error) {
	related, err := LoadRelated(ctx, s.users, s.products, []models.Order{*order})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order parties")
	}
	dto := related.Decorate(order)
	return &dto, nil
}

// IsParty reports whether actor may see order.
func IsParty(order *models.Order, actor Actor) bool {
	switch actor.Role {
	case enums.UserRoleAdmin:
		return true
	case enums.UserRoleBuyer:
		return order.BuyerID == actor.UserID
	case enums.UserRoleFarmer:
		return order.FarmerID == actor.UserID
	case enums.UserRoleTransporter:
		return order.TransporterID != nil && *order.TransporterID == actor.UserID
	}
	return false
}

// MapLookupError turns a repository lookup failure into the API error.
func MapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("KR-%s-%s", now.UTC().Format("20060102"), suffix)
}
