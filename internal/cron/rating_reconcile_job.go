package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/Nafis5858/Krishak/internal/orders"
	"github.com/Nafis5858/Krishak/internal/reviews"
	"github.com/Nafis5858/Krishak/internal/users"
	"github.com/Nafis5858/Krishak/pkg/logger"
	"github.com/Nafis5858/Krishak/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type RatingReconcileJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Aggregator *reviews.Aggregator
	Orders     orders.Repository
	Users      users.Repository
}

// NewRatingReconcileJob rebuilds product, farmer and transporter ratings from
// their source rows and rewrites any stored value that drifted.
func NewRatingReconcileJob(params RatingReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Aggregator == nil {
		return nil, fmt.Errorf("review aggregator required")
	}
	if params.Orders == nil || params.Users == nil {
		return nil, fmt.Errorf("orders and users repositories required")
	}
	return &ratingReconcileJob{
		logg:       params.Logger,
		db:         params.DB,
		aggregator: params.Aggregator,
		orders:     params.Orders,
		users:      params.Users,
	}, nil
}

type ratingReconcileJob struct {
	logg       *logger.Logger
	db         txRunner
	aggregator *reviews.Aggregator
	orders     orders.Repository
	users      users.Repository
}

func (j *ratingReconcileJob) Name() string { return "rating-reconcile" }

func (j *ratingReconcileJob) Run(ctx context.Context) (Result, error) {
	var (
		res  Result
		errs error
	)

	productIDs, err := j.aggregator.ProductIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list products: %w", err)
	}
	for _, id := range productIDs {
		errs = multierr.Append(errs, j.reconcile(ctx, &res, "product", id, func(tx *gorm.DB) (bool, error) {
			out, err := j.aggregator.WithTx(tx).Product(ctx, id)
			return out.Changed, err
		}))
	}

	farmerIDs, err := j.aggregator.FarmerIDs(ctx)
	if err != nil {
		return res, multierr.Append(errs, fmt.Errorf("list farmers: %w", err))
	}
	for _, id := range farmerIDs {
		errs = multierr.Append(errs, j.reconcile(ctx, &res, "farmer", id, func(tx *gorm.DB) (bool, error) {
			out, err := j.aggregator.WithTx(tx).Farmer(ctx, id)
			return out.Changed, err
		}))
	}

	transporterIDs, err := j.orders.TransporterIDs(ctx)
	if err != nil {
		return res, multierr.Append(errs, fmt.Errorf("list transporters: %w", err))
	}
	for _, id := range transporterIDs {
		errs = multierr.Append(errs, j.reconcile(ctx, &res, "transporter", id, func(tx *gorm.DB) (bool, error) {
			return j.transporter(ctx, tx, id)
		}))
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"products":     len(productIDs),
		"farmers":      len(farmerIDs),
		"transporters": len(transporterIDs),
		"repaired":     res.Repaired,
	})
	j.logg.Info(logCtx, "rating reconcile complete")
	return res, errs
}

func (j *ratingReconcileJob) reconcile(ctx context.Context, res *Result, kind string, id uuid.UUID, fn func(tx *gorm.DB) (bool, error)) error {
	res.Examined++
	var changed bool
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		changed, err = fn(tx)
		return err
	})
	if err != nil {
		return fmt.Errorf("reconcile %s %s: %w", kind, id, err)
	}
	if changed {
		res.Repaired++
	}
	return nil
}

func (j *ratingReconcileJob) transporter(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	userRepo := j.users.WithTx(tx)
	current, err := userRepo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	summary, err := j.orders.WithTx(tx).TransporterSummary(ctx, id)
	if err != nil {
		return false, err
	}
	average := types.AverageRating(summary.RatingSum, summary.RatingCount)
	if current.RatingAverage == average && current.RatingCount == summary.RatingCount {
		return false, nil
	}
	if err := userRepo.UpdateRating(ctx, id, average, summary.RatingCount); err != nil {
		return false, err
	}
	return true, nil
}
