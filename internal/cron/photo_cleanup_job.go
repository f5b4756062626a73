package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/Nafis5858/Krishak/internal/orders"
	"github.com/Nafis5858/Krishak/pkg/db/models"
	"github.com/Nafis5858/Krishak/pkg/logger"
	"github.com/Nafis5858/Krishak/pkg/pagination"
	"github.com/Nafis5858/Krishak/pkg/storage"
)

const photoCleanupBatchSize = pagination.MaxLimit

type PhotoCleanupJobParams struct {
	Logger    *logger.Logger
	Orders    orders.Repository
	Store     storage.ObjectStore
	BatchSize int
}

func NewPhotoCleanupJob(params PhotoCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	batch := params.BatchSize
	if batch <= 0 || batch > pagination.MaxLimit {
		batch = photoCleanupBatchSize
	}
	return &photoCleanupJob{
		logg:   params.Logger,
		orders: params.Orders,
		store:  params.Store,
		batch:  batch,
	}, nil
}

type photoCleanupJob struct {
	logg   *logger.Logger
	orders orders.Repository
	store  storage.ObjectStore
	batch  int
}

func (j *photoCleanupJob) Name() string { return "photo-reference-cleanup" }

// Run clears proof photo references whose objects are gone from storage.
// Row failures are logged and collected; the scan continues past them.
func (j *photoCleanupJob) Run(ctx context.Context) (Result, error) {
	var (
		res   Result
		errs  error
		after uuid.UUID
	)
	for {
		rows, err := j.orders.ListWithPhotos(ctx, after, j.batch)
		if err != nil {
			return res, multierr.Append(errs, fmt.Errorf("list orders with photos: %w", err))
		}
		for _, row := range rows {
			after = row.ID
			for _, ref := range photoRefs(row) {
				res.Examined++
				cleared, err := j.check(ctx, row.ID, ref)
				if err != nil {
					logCtx := j.logg.WithFields(ctx, map[string]any{
						"order_id": row.ID.String(),
						"column":   ref.column,
					})
					j.logg.Error(logCtx, "photo cleanup row failed", err)
					errs = multierr.Append(errs, err)
					continue
				}
				if cleared {
					res.Repaired++
				}
			}
		}
		if len(rows) < j.batch {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"photos_examined": res.Examined,
		"photos_cleared":  res.Repaired,
	})
	j.logg.Info(logCtx, "photo reference cleanup complete")
	return res, errs
}

type photoRef struct {
	column string
	url    string
}

func photoRefs(order models.Order) []photoRef {
	refs := make([]photoRef, 0, 2)
	if order.PickupPhoto != nil && order.PickupPhoto.URL != "" {
		refs = append(refs, photoRef{column: orders.ColumnPickupPhoto, url: order.PickupPhoto.URL})
	}
	if order.DeliveryProofPhoto != nil && order.DeliveryProofPhoto.URL != "" {
		refs = append(refs, photoRef{column: orders.ColumnDeliveryProofPhoto, url: order.DeliveryProofPhoto.URL})
	}
	return refs
}

func (j *photoCleanupJob) check(ctx context.Context, orderID uuid.UUID, ref photoRef) (bool, error) {
	exists, err := j.store.Exists(ctx, ref.url)
	if errors.Is(err, storage.ErrForeignURL) {
		// Uploaded elsewhere; this store cannot vouch either way.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check %s for order %s: %w", ref.column, orderID, err)
	}
	if exists {
		return false, nil
	}
	cleared, err := j.orders.ClearPhoto(ctx, orderID, ref.column, ref.url)
	if err != nil {
		return false, fmt.Errorf("clear %s for order %s: %w", ref.column, orderID, err)
	}
	return cleared, nil
}
