package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/Nafis5858/Krishak/api/routes"
	"github.com/Nafis5858/Krishak/internal/delivery"
	"github.com/Nafis5858/Krishak/internal/geocode"
	"github.com/Nafis5858/Krishak/internal/notifications"
	"github.com/Nafis5858/Krishak/internal/orders"
	"github.com/Nafis5858/Krishak/internal/photos"
	product "github.com/Nafis5858/Krishak/internal/products"
	"github.com/Nafis5858/Krishak/internal/reviews"
	"github.com/Nafis5858/Krishak/internal/users"
	"github.com/Nafis5858/Krishak/pkg/config"
	"github.com/Nafis5858/Krishak/pkg/db"
	"github.com/Nafis5858/Krishak/pkg/env"
	"github.com/Nafis5858/Krishak/pkg/logger"
	"github.com/Nafis5858/Krishak/pkg/metrics"
	"github.com/Nafis5858/Krishak/pkg/migrate"
	"github.com/Nafis5858/Krishak/pkg/nominatim"
	"github.com/Nafis5858/Krishak/pkg/pubsub"
	"github.com/Nafis5858/Krishak/pkg/redis"
	"github.com/Nafis5858/Krishak/pkg/storage"
	"github.com/Nafis5858/Krishak/pkg/storage/gcs"
	"github.com/Nafis5858/Krishak/pkg/storage/local"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
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
		return err
	}
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	closers = append(closers, redisClient.Close)

	store, uploadsDir, closeStore, err := openObjectStore(ctx, cfg, logg)
	if err != nil {
		return err
	}
	closers = append(closers, closeStore)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deliveryMetrics := metrics.NewDeliveryMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	notificationRepo := notifications.NewRepository(dbClient.DB())
	emitter, closeEmitter, err := notificationEmitter(ctx, cfg, logg, notificationRepo)
	if err != nil {
		return err
	}
	closers = append(closers, closeEmitter)
	dispatcher := notifications.NewDispatcher(emitter, logg, deliveryMetrics)

	userRepo := users.NewRepository(dbClient.DB())
	productRepo := product.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	reviewRepo := reviews.NewRepository(dbClient.DB())

	transportFee, platformPercent, err := cfg.Marketplace.Fees()
	if err != nil {
		return err
	}

	userService, err := users.NewService(userRepo)
	if err != nil {
		return err
	}
	productService, err := product.NewService(productRepo)
	if err != nil {
		return err
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Repo:       orderRepo,
		Products:   productRepo,
		Users:      userRepo,
		Tx:         dbClient,
		Dispatcher: dispatcher,
		Fees:       orders.Fees{Transport: transportFee, PlatformPercent: platformPercent},
	})
	if err != nil {
		return err
	}
	deliveryService, err := delivery.NewService(delivery.ServiceParams{
		Orders:     orderRepo,
		Users:      userRepo,
		Products:   productRepo,
		Tx:         dbClient,
		Dispatcher: dispatcher,
		Metrics:    deliveryMetrics,
		Logger:     logg,
	})
	if err != nil {
		return err
	}
	reviewService, err := reviews.NewService(reviews.ServiceParams{
		Repo:       reviewRepo,
		Orders:     orderRepo,
		Products:   productRepo,
		Users:      userRepo,
		Tx:         dbClient,
		Dispatcher: dispatcher,
	})
	if err != nil {
		return err
	}
	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		return err
	}
	photoService, err := photos.NewService(orderRepo, store, cfg.Media.MaxUploadBytes())
	if err != nil {
		return err
	}
	nominatimClient, err := nominatim.NewClient(cfg.Geocode.UserAgent,
		nominatim.WithBaseURL(cfg.Geocode.BaseURL),
		nominatim.WithTimeout(cfg.Geocode.Timeout),
	)
	if err != nil {
		return err
	}
	geocodeService, err := geocode.NewService(nominatimClient, redisClient, cfg.Geocode.CacheTTL, logg)
	if err != nil {
		return err
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			Metrics:        httpMetrics,
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
			UploadsDir:     uploadsDir,
			Delivery:       deliveryService,
			Orders:         orderService,
			Products:       productService,
			Users:          userService,
			Reviews:        reviewService,
			Notifications:  notificationService,
			Photos:         photoService,
			Geocode:        geocodeService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"storage":      cfg.Storage.Backend,
		"notification": cfg.Notifications.Transport,
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// openObjectStore returns the configured photo store. uploadsDir is non-empty
// only for the local backend, which the router then serves.
func openObjectStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.ObjectStore, string, func() error, error) {
	if cfg.Storage.IsGCS() {
		client, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return nil, "", nil, err
		}
		return client, "", client.Close, nil
	}
	store, err := local.New(cfg.Storage)
	if err != nil {
		return nil, "", nil, err
	}
	return store, store.Dir(), func() error { return nil }, nil
}

func notificationEmitter(ctx context.Context, cfg *config.Config, logg *logger.Logger, repo notifications.Repository) (notifications.Emitter, func() error, error) {
	if !cfg.Notifications.UsesPubSub() {
		emitter, err := notifications.NewDirectEmitter(repo)
		return emitter, func() error { return nil }, err
	}
	client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, pubsub.ModePublish, logg)
	if err != nil {
		return nil, nil, err
	}
	emitter, err := notifications.NewPubSubEmitter(client.NotificationPublisher())
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return emitter, client.Close, nil
}
