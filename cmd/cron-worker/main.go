package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/Nafis5858/Krishak/internal/cron"
	"github.com/Nafis5858/Krishak/internal/orders"
	product "github.com/Nafis5858/Krishak/internal/products"
	"github.com/Nafis5858/Krishak/internal/reviews"
	"github.com/Nafis5858/Krishak/internal/users"
	"github.com/Nafis5858/Krishak/pkg/config"
	"github.com/Nafis5858/Krishak/pkg/db"
	"github.com/Nafis5858/Krishak/pkg/env"
	"github.com/Nafis5858/Krishak/pkg/logger"
	"github.com/Nafis5858/Krishak/pkg/metrics"
	"github.com/Nafis5858/Krishak/pkg/migrate"
	"github.com/Nafis5858/Krishak/pkg/redis"
	"github.com/Nafis5858/Krishak/pkg/storage"
	"github.com/Nafis5858/Krishak/pkg/storage/gcs"
	"github.com/Nafis5858/Krishak/pkg/storage/local"
)

const lockKeyFormat = "cron-worker:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	closers = append(closers, redisClient.Close)

	store, err := openObjectStore(ctx, cfg, logg)
	if err != nil {
		return fmt.Errorf("bootstrap object store: %w", err)
	}

	userRepo := users.NewRepository(dbClient.DB())
	productRepo := product.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	aggregator, err := reviews.NewAggregator(reviews.NewRepository(dbClient.DB()), productRepo, userRepo)
	if err != nil {
		return err
	}

	ratingJob, err := cron.NewRatingReconcileJob(cron.RatingReconcileJobParams{
		Logger:     logg,
		DB:         dbClient,
		Aggregator: aggregator,
		Orders:     orderRepo,
		Users:      userRepo,
	})
	if err != nil {
		return err
	}
	photoJob, err := cron.NewPhotoCleanupJob(cron.PhotoCleanupJobParams{
		Logger: logg,
		Orders: orderRepo,
		Store:  store,
	})
	if err != nil {
		return err
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(fmt.Sprintf(lockKeyFormat, cfg.App.Env)), 0)
	if err != nil {
		return fmt.Errorf("create cron lock: %w", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(ratingJob, photoJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return fmt.Errorf("create cron service: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Cron.Interval.String(),
	})

	metricsServer := &http.Server{
		Addr:              ":" + env.Get("PORT", cfg.App.Port),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if serveErr := metricsServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logg.Error(ctx, "cron metrics listener stopped", serveErr)
		}
	}()
	closers = append(closers, func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
	return nil
}

func openObjectStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.ObjectStore, error) {
	if cfg.Storage.IsGCS() {
		return gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	}
	return local.New(cfg.Storage)
}
