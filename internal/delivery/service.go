package delivery

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
	"github.com/Nafis5858/Krishak/internal/orders"
	product "github.com/Nafis5858/Krishak/internal/products"
	"github.com/Nafis5858/Krishak/internal/users"
	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/enums"
	pkgerrors "github.com/Nafis5858/Krishak/pkg/errors"
	"github.com/Nafis5858/Krishak/pkg/geo"
	"github.com/Nafis5858/Krishak/pkg/logger"
	"github.com/Nafis5858/Krishak/pkg/pagination"
	"github.com/Nafis5858/Krishak/pkg/types"
)

const (
	estimatedDeliveryWindow = 48 * time.Hour

	opAccept = "accept"
	opStatus = "status"
)

// Service drives an order through the delivery lifecycle on behalf of transporters.
type Service interface {
	AssignTransporter(ctx context.Context, orderID, transporterID uuid.UUID) (*orders.OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID, transporterID uuid.UUID, input StatusInput) (*orders.OrderDTO, error)
	ListAvailableJobs(ctx context.Context, transporterID uuid.UUID) (*JobsResult, error)
	ListMyDeliveries(ctx context.Context, transporterID uuid.UUID, input MyDeliveriesInput) (*DeliveryListResult, error)
	DeliveryDetails(ctx context.Context, orderID, transporterID uuid.UUID) (*orders.OrderDTO, error)
	Stats(ctx context.Context, transporterID uuid.UUID) (*StatsDTO, error)
	RateTransporter(ctx context.Context, orderID, buyerID uuid.UUID, input RateInput) (*RatingResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type dispatcher interface {
	Dispatch(ctx context.Context, events ...notifications.Event)
}

type recorder interface {
	Transition(from, to string)
	Rejected(operation, code string)
}

type ServiceParams struct {
	Orders     orders.Repository
	Users      users.Repository
	Products   product.Repository
	Tx         txRunner
	Dispatcher dispatcher
	Metrics    recorder
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	orders     orders.Repository
	users      users.Repository
	products   product.Repository
	tx         txRunner
	dispatcher dispatcher
	metrics    recorder
	logg       *logger.Logger
	now        func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
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
		orders:     params.Orders,
		users:      params.Users,
		products:   params.Products,
		tx:         params.Tx,
		dispatcher: params.Dispatcher,
		metrics:    params.Metrics,
		logg:       params.Logger,
		now:        now,
	}, nil
}

func (s *service) AssignTransporter(ctx context.Context, orderID, transporterID uuid.UUID) (*orders.OrderDTO, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		userRepo := s.users.WithTx(tx)

		current, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return orders.MapLookupError(err)
		}
		if err := assignable(current); err != nil {
			return err
		}

		transporter, err := userRepo.FindByID(ctx, transporterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeUnauthorized, "transporter not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transporter")
		}
		if transporter.Role != enums.UserRoleTransporter {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only transporters can accept jobs")
		}

		farmer, err := userRepo.FindByID(ctx, current.FarmerID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load farmer")
		}
		var pickup *types.Coordinates
		if farmer != nil {
			pickup = farmer.FarmLocation.Point()
		}
		report := evaluateLegs(transporter.BaseLocation.Point(), pickup, current.DeliveryAddress.Coordinates)
		if !report.within {
			return pkgerrors.New(pkgerrors.CodeOutOfServiceArea, *report.text).WithDetails(map[string]any{
				"maxServiceRadiusKm": geo.MaxDistanceKM,
				"toFarmerKm":         report.distances.ToFarmer,
				"toBuyerKm":          report.distances.ToBuyer,
			})
		}

		now := s.now()
		history := current.StatusHistory.Append(types.StatusHistoryEntry{
			Status:    enums.DeliveryStatusAssigned.String(),
			Timestamp: now,
			Note:      "Assigned to transporter: " + transporter.Name,
			UpdatedBy: &transporterID,
		})
		claimed, err := repo.AssignTransporter(ctx, orders.AssignParams{
			OrderID:       orderID,
			TransporterID: transporterID,
			History:       history,
			EstimatedAt:   now.Add(estimatedDeliveryWindow),
			Now:           now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign transporter")
		}
		if !claimed {
			latest, err := repo.FindByID(ctx, orderID)
			if err != nil {
				return orders.MapLookupError(err)
			}
			if err := assignable(latest); err != nil {
				return err
			}
			return pkgerrors.New(pkgerrors.CodeAlreadyAssigned, "order was accepted by another transporter")
		}

		order, err = repo.FindByID(ctx, orderID)
		if err != nil {
			return orders.MapLookupError(err)
		}
		return nil
	})
	if err != nil {
		s.reject(opAccept, err)
		return nil, err
	}
	s.transition(enums.DeliveryStatusNotAssigned, enums.DeliveryStatusAssigned)
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": order.ID.String(), "transporter_id": transporterID.String()})
		s.logg.Info(logCtx, "delivery.assigned")
	}

	s.dispatcher.Dispatch(ctx,
		notifications.NewOrderEvent(enums.NotificationTypeDeliveryAssigned, order.ID, order.OrderNumber, order.BuyerID, order.FarmerID).
			WithMeta("transporterId", transporterID.String()))
	return s.committedView(ctx, order), nil
}

// assignable classifies why an order cannot be claimed. AlreadyAssigned wins
// over NotAvailable so a losing racer learns that someone else took the job.
func assignable(order *models.Order) error {
	if order.TransporterID != nil {
		return pkgerrors.New(pkgerrors.CodeAlreadyAssigned, "order already has a transporter")
	}
	if order.DeliveryStatus != enums.DeliveryStatusNotAssigned || order.OrderStatus != enums.OrderStatusConfirmed {
		return pkgerrors.New(pkgerrors.CodeNotAvailable, "order is not available for assignment").WithDetails(map[string]any{
			"deliveryStatus": order.DeliveryStatus,
			"orderStatus":    order.OrderStatus,
		})
	}
	return nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID, transporterID uuid.UUID, input StatusInput) (*orders.OrderDTO, error) {
	order, from, err := s.updateStatus(ctx, orderID, transporterID, input)
	if err != nil {
		s.reject(opStatus, err)
		return nil, err
	}
	s.transition(from, input.Status)

	recipients := []uuid.UUID{order.BuyerID}
	if input.Status == enums.DeliveryStatusDelivered {
		recipients = append(recipients, order.FarmerID)
	}
	s.dispatcher.Dispatch(ctx,
		notifications.NewOrderEvent(notificationFor(input.Status), order.ID, order.OrderNumber, recipients...))
	return s.committedView(ctx, order), nil
}

func (s *service) updateStatus(ctx context.Context, orderID, transporterID uuid.UUID, input StatusInput) (*models.Order, enums.DeliveryStatus, error) {
	if !IsUpdatable(input.Status) {
		return nil, "", pkgerrors.New(pkgerrors.CodeInvalidStatus, "invalid delivery status").
			WithDetails(map[string]any{"allowed": UpdatableStatuses()})
	}
	photoURL := strings.TrimSpace(input.PhotoURL)

	var (
		order *models.Order
		from  enums.DeliveryStatus
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		current, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return orders.MapLookupError(err)
		}
		if current.TransporterID == nil || *current.TransporterID != transporterID {
			return pkgerrors.New(pkgerrors.CodeNotAssigned, "order is not assigned to you")
		}
		from = current.DeliveryStatus
		if !CanTransition(from, input.Status) {
			return invalidTransition(from, input.Status)
		}
		if input.Status == enums.DeliveryStatusPicked && photoURL == "" {
			return pkgerrors.New(pkgerrors.CodePhotoRequired, "pickup photo is required")
		}

		now := s.now()
		note := strings.TrimSpace(input.Note)
		if note == "" {
			note = "Status updated to " + input.Status.String()
		}
		entry := types.StatusHistoryEntry{
			Status:    input.Status.String(),
			Timestamp: now,
			Note:      note,
			UpdatedBy: &transporterID,
		}
		update := orders.StatusUpdate{
			OrderID:       orderID,
			TransporterID: transporterID,
			From:          from,
			To:            input.Status,
			Now:           now,
		}
		if photoURL != "" {
			entry.Photo = &photoURL
			proof := &types.PhotoProof{URL: photoURL, UploadedBy: transporterID, UploadedAt: now}
			switch input.Status {
			case enums.DeliveryStatusPicked:
				update.PickupPhoto = proof
			case enums.DeliveryStatusDelivered:
				update.DeliveryProofPhoto = proof
			}
		}
		if input.Status == enums.DeliveryStatusDelivered {
			update.CompletedAt = &now
		}
		update.History = current.StatusHistory.Append(entry)

		swapped, err := repo.UpdateDeliveryStatus(ctx, update)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update delivery status")
		}
		if !swapped {
			latest, err := repo.FindByID(ctx, orderID)
			if err != nil {
				return orders.MapLookupError(err)
			}
			return invalidTransition(latest.DeliveryStatus, input.Status)
		}

		order, err = repo.FindByID(ctx, orderID)
		if err != nil {
			return orders.MapLookupError(err)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return order, from, nil
}

func invalidTransition(current, requested enums.DeliveryStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, fmt.Sprintf("cannot move delivery from %s to %s", current, requested)).
		WithDetails(map[string]any{"current": current, "requested": requested})
}

func (s *service) ListAvailableJobs(ctx context.Context, transporterID uuid.UUID) (*JobsResult, error) {
	transporter, err := s.loadTransporter(ctx, transporterID)
	if err != nil {
		return nil, err
	}
	rows, err := s.orders.ListAvailable(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list available jobs")
	}
	related, err := orders.LoadRelated(ctx, s.users, s.products, rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load job parties")
	}

	candidates := make([]Candidate, 0, len(rows))
	for i := range rows {
		var pickup *types.Coordinates
		if farmer, ok := related.Users[rows[i].FarmerID]; ok {
			pickup = farmer.FarmLocation.Point()
		}
		candidates = append(candidates, Candidate{
			Order:   related.Decorate(&rows[i]),
			Pickup:  pickup,
			Dropoff: rows[i].DeliveryAddress.Coordinates,
		})
	}

	base := transporter.BaseLocation.Point()
	jobs := FilterJobs(base, candidates)
	return &JobsResult{
		Count:               len(jobs),
		Jobs:                jobs,
		TransporterLocation: base,
		MaxServiceRadius:    geo.MaxDistanceKM,
	}, nil
}

func (s *service) ListMyDeliveries(ctx context.Context, transporterID uuid.UUID, input MyDeliveriesInput) (*DeliveryListResult, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery status filter")
	}
	params := orders.ListParams{
		Role:           enums.UserRoleTransporter,
		UserID:         transporterID,
		DeliveryStatus: input.Status,
		Limit:          input.Limit,
	}
	if input.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		params.Cursor = cursor
	}
	rows, next, err := s.orders.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deliveries")
	}
	related, err := orders.LoadRelated(ctx, s.users, s.products, rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery parties")
	}
	items := make([]orders.OrderDTO, 0, len(rows))
	for i := range rows {
		items = append(items, related.Decorate(&rows[i]))
	}
	result := &DeliveryListResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) DeliveryDetails(ctx context.Context, orderID, transporterID uuid.UUID) (*orders.OrderDTO, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, orders.MapLookupError(err)
	}
	mine := order.TransporterID != nil && *order.TransporterID == transporterID
	open := order.TransporterID == nil && order.DeliveryStatus == enums.DeliveryStatusNotAssigned
	if !mine && !open {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "delivery belongs to another transporter")
	}
	return s.view(ctx, order)
}

func (s *service) Stats(ctx context.Context, transporterID uuid.UUID) (*StatsDTO, error) {
	transporter, err := s.loadTransporter(ctx, transporterID)
	if err != nil {
		return nil, err
	}
	summary, err := s.orders.TransporterSummary(ctx, transporterID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarise deliveries")
	}
	available, err := s.orders.ListAvailable(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list available jobs")
	}

	earnings := decimal.Zero
	for _, fees := range summary.DeliveredFees {
		earnings = earnings.Add(fees.TransportFee)
	}
	return &StatsDTO{
		ActiveDeliveries:    summary.Active,
		CompletedDeliveries: summary.Completed,
		TotalEarnings:       earnings,
		PendingJobs:         countInDistricts(available, transporter.ServiceDistricts),
		AverageRating:       types.AverageRating(summary.RatingSum, summary.RatingCount),
		TotalRatings:        summary.RatingCount,
	}, nil
}

func countInDistricts(rows []models.Order, districts types.StringList) int {
	if len(districts) == 0 {
		return len(rows)
	}
	count := 0
	for _, o := range rows {
		for _, d := range districts {
			if strings.EqualFold(strings.TrimSpace(o.DeliveryAddress.District), strings.TrimSpace(d)) {
				count++
				break
			}
		}
	}
	return count
}

func (s *service) RateTransporter(ctx context.Context, orderID, buyerID uuid.UUID, input RateInput) (*RatingResult, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	var review *string
	if input.Review != nil {
		if trimmed := strings.TrimSpace(*input.Review); trimmed != "" {
			review = &trimmed
		}
	}

	result := &RatingResult{OrderID: orderID, Rating: input.Rating, Review: review}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			return orders.MapLookupError(err)
		}
		if order.BuyerID != buyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can rate this delivery")
		}
		if order.DeliveryStatus != enums.DeliveryStatusDelivered || order.TransporterID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery has not been completed").
				WithDetails(map[string]any{"deliveryStatus": order.DeliveryStatus})
		}
		if order.TransporterRating != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "transporter already rated for this order")
		}
		stored, err := repo.RateTransporter(ctx, orders.TransporterRating{
			OrderID: orderID,
			BuyerID: buyerID,
			Rating:  input.Rating,
			Review:  review,
			Now:     s.now(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store transporter rating")
		}
		if !stored {
			return pkgerrors.New(pkgerrors.CodeConflict, "transporter already rated for this order")
		}

		transporterID := *order.TransporterID
		summary, err := repo.TransporterSummary(ctx, transporterID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recompute transporter rating")
		}
		avg := types.AverageRating(summary.RatingSum, summary.RatingCount)
		if err := s.users.WithTx(tx).UpdateRating(ctx, transporterID, avg, summary.RatingCount); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update transporter rating")
		}
		result.TransporterID = transporterID
		result.AverageRating = avg
		result.TotalRatings = summary.RatingCount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) loadTransporter(ctx context.Context, transporterID uuid.UUID) (*models.User, error) {
	transporter, err := s.users.FindByID(ctx, transporterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "transporter not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transporter")
	}
	if transporter.Role != enums.UserRoleTransporter {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "transporter role required")
	}
	return transporter, nil
}

func (s *service) view(ctx context.Context, order *models.Order) (*orders.OrderDTO, error) {
	related, err := orders.LoadRelated(ctx, s.users, s.products, []models.Order{*order})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order parties")
	}
	dto := related.Decorate(order)
	return &dto, nil
}

// committedView decorates an order whose change is already committed. Failing
// to load the parties must not turn a successful write into an error, so the
// bare order is returned instead.
func (s *service) committedView(ctx context.Context, order *models.Order) *orders.OrderDTO {
	dto, err := s.view(ctx, order)
	if err == nil {
		return dto
	}
	if s.logg != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"order_id": order.ID.String(),
			"error":    err.Error(),
		}), "delivery.view_degraded")
	}
	bare := orders.FromModel(order)
	return &bare
}

func (s *service) transition(from, to enums.DeliveryStatus) {
	if s.metrics == nil {
		return
	}
	s.metrics.Transition(from.String(), to.String())
}

func (s *service) reject(operation string, err error) {
	if s.metrics == nil {
		return
	}
	code := pkgerrors.CodeInternal
	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
	}
	s.metrics.Rejected(operation, string(code))
}
