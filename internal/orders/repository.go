package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/enums"
	"github.com/Nafis5858/Krishak/pkg/pagination"
	"github.com/Nafis5858/Krishak/pkg/types"
)

// Repository defines persistence operations for orders and their delivery state.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params ListParams) ([]models.Order, *pagination.Cursor, error)
	ListAvailable(ctx context.Context) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
	AssignTransporter(ctx context.Context, params AssignParams) (bool, error)
	UpdateDeliveryStatus(ctx context.Context, params StatusUpdate) (bool, error)
	RateTransporter(ctx context.Context, params TransporterRating) (bool, error)
	TransporterSummary(ctx context.Context, transporterID uuid.UUID) (*TransporterSummary, error)
	ListWithPhotos(ctx context.Context, after uuid.UUID, limit int) ([]models.Order, error)
	ClearPhoto(ctx context.Context, id uuid.UUID, column string, url string) (bool, error)
	TransporterIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ListParams selects the orders visible to one party.
type ListParams struct {
	Role           enums.UserRole
	UserID         uuid.UUID
	DeliveryStatus *enums.DeliveryStatus
	Limit          int
	Cursor         *pagination.Cursor
}

// AssignParams is the conditional claim of an unassigned order.
type AssignParams struct {
	OrderID       uuid.UUID
	TransporterID uuid.UUID
	History       types.StatusHistory
	EstimatedAt   time.Time
	Now           time.Time
}

// StatusUpdate is a compare-and-swap on delivery_status.
type StatusUpdate struct {
	OrderID            uuid.UUID
	TransporterID      uuid.UUID
	From               enums.DeliveryStatus
	To                 enums.DeliveryStatus
	History            types.StatusHistory
	PickupPhoto        *types.PhotoProof
	DeliveryProofPhoto *types.PhotoProof
	CompletedAt        *time.Time
	Now                time.Time
}

// TransporterRating stores a buyer's one-time verdict on the delivery.
type TransporterRating struct {
	OrderID uuid.UUID
	BuyerID uuid.UUID
	Rating  int
	Review  *string
	Now     time.Time
}

// TransporterSummary is the raw material for the transporter dashboard.
type TransporterSummary struct {
	Active        int64
	Completed     int64
	DeliveredFees []types.PriceBreakdown
	RatingSum     int64
	RatingCount   int64
}

const (
	ColumnPickupPhoto        = "pickup_photo"
	ColumnDeliveryProofPhoto = "delivery_proof_photo"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]models.Order, *pagination.Cursor, error) {
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Order{})
	switch params.Role {
	case enums.UserRoleBuyer:
		query = query.Where("buyer_id = ?", params.UserID)
	case enums.UserRoleFarmer:
		query = query.Where("farmer_id = ?", params.UserID)
	case enums.UserRoleTransporter:
		query = query.Where("transporter_id = ?", params.UserID)
	case enums.UserRoleAdmin:
	default:
		return nil, nil, nil
	}
	if params.DeliveryStatus != nil {
		query = query.Where("delivery_status = ?", *params.DeliveryStatus)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(normalized + 1).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	if len(rows) > normalized {
		last := rows[normalized-1]
		return rows[:normalized], &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

// ListAvailable returns the open job board: confirmed, unassigned, newest first.
func (r *repository) ListAvailable(ctx context.Context) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where("order_status = ? AND delivery_status = ? AND transporter_id IS NULL",
			enums.OrderStatusConfirmed, enums.DeliveryStatusNotAssigned).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND order_status = ?", id, from).
		UpdateColumns(map[string]any{
			"order_status": to,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AssignTransporter claims the order only if nobody else has. Concurrent callers
// race on the WHERE clause; exactly one sees a row affected.
func (r *repository) AssignTransporter(ctx context.Context, params AssignParams) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND transporter_id IS NULL AND delivery_status = ? AND order_status = ?",
			params.OrderID, enums.DeliveryStatusNotAssigned, enums.OrderStatusConfirmed).
		UpdateColumns(map[string]any{
			"transporter_id":          params.TransporterID,
			"delivery_status":         enums.DeliveryStatusAssigned,
			"status_history":          params.History,
			"estimated_delivery_date": params.EstimatedAt,
			"updated_at":              params.Now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) UpdateDeliveryStatus(ctx context.Context, params StatusUpdate) (bool, error) {
	updates := map[string]any{
		"delivery_status": params.To,
		"status_history":  params.History,
		"updated_at":      params.Now,
	}
	if params.PickupPhoto != nil {
		updates[ColumnPickupPhoto] = *params.PickupPhoto
	}
	if params.DeliveryProofPhoto != nil {
		updates[ColumnDeliveryProofPhoto] = *params.DeliveryProofPhoto
	}
	if params.CompletedAt != nil {
		updates["order_status"] = enums.OrderStatusCompleted
		updates["actual_delivery_date"] = *params.CompletedAt
	}

	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND transporter_id = ? AND delivery_status = ?", params.OrderID, params.TransporterID, params.From).
		UpdateColumns(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) RateTransporter(ctx context.Context, params TransporterRating) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND buyer_id = ? AND delivery_status = ? AND transporter_rating IS NULL",
			params.OrderID, params.BuyerID, enums.DeliveryStatusDelivered).
		UpdateColumns(map[string]any{
			"transporter_rating":   params.Rating,
			"transporter_review":   params.Review,
			"transporter_rated_at": params.Now,
			"updated_at":           params.Now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

type statusCount struct {
	DeliveryStatus enums.DeliveryStatus
	Total          int64
}

type ratingAggregate struct {
	Total int64
	Count int64
}

func (r *repository) TransporterSummary(ctx context.Context, transporterID uuid.UUID) (*TransporterSummary, error) {
	var counts []statusCount
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("delivery_status, COUNT(*) AS total").
		Where("transporter_id = ?", transporterID).
		Group("delivery_status").
		Scan(&counts).Error; err != nil {
		return nil, err
	}

	summary := &TransporterSummary{}
	for _, c := range counts {
		switch {
		case c.DeliveryStatus == enums.DeliveryStatusDelivered:
			summary.Completed = c.Total
		case c.DeliveryStatus.IsActive():
			summary.Active += c.Total
		}
	}

	var delivered []models.Order
	if err := r.db.WithContext(ctx).
		Select("id", "price_breakdown").
		Where("transporter_id = ? AND delivery_status = ?", transporterID, enums.DeliveryStatusDelivered).
		Find(&delivered).Error; err != nil {
		return nil, err
	}
	summary.DeliveredFees = make([]types.PriceBreakdown, 0, len(delivered))
	for _, o := range delivered {
		summary.DeliveredFees = append(summary.DeliveredFees, o.PriceBreakdown)
	}

	var agg ratingAggregate
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(transporter_rating), 0) AS total, COUNT(transporter_rating) AS count").
		Where("transporter_id = ?", transporterID).
		Scan(&agg).Error; err != nil {
		return nil, err
	}
	summary.RatingSum = agg.Total
	summary.RatingCount = agg.Count
	return summary, nil
}

// ListWithPhotos pages through orders holding any proof photo, ordered by id.
func (r *repository) ListWithPhotos(ctx context.Context, after uuid.UUID, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).
		Select("id", ColumnPickupPhoto, ColumnDeliveryProofPhoto).
		Where("(pickup_photo IS NOT NULL OR delivery_proof_photo IS NOT NULL)")
	if after != uuid.Nil {
		query = query.Where("id > ?", after)
	}
	var rows []models.Order
	if err := query.Order("id ASC").Limit(pagination.NormalizeLimit(limit)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ClearPhoto nulls a proof column if it still holds url. The URL check is part
// of the UPDATE so a photo replaced after the caller looked is left alone.
func (r *repository) ClearPhoto(ctx context.Context, id uuid.UUID, column string, url string) (bool, error) {
	if column != ColumnPickupPhoto && column != ColumnDeliveryProofPhoto {
		return false, gorm.ErrInvalidField
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Where(r.photoURLEquals(column), url).
		UpdateColumn(column, gorm.Expr("NULL"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// photoURLEquals reads the url field of a jsonb proof column. column is one of
// the two proof columns.
func (r *repository) photoURLEquals(column string) string {
	if r.db.Dialector.Name() == "sqlite" {
		return "json_extract(" + column + ", '$.url') = ?"
	}
	return column + "->>'url' = ?"
}

// TransporterIDs returns every transporter that has been assigned an order,
// rated or not, so aggregates with no ratings behind them are repaired too.
func (r *repository) TransporterIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Distinct("transporter_id").
		Where("transporter_id IS NOT NULL").
		Pluck("transporter_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
