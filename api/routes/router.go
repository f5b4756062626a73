package routes

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Nafis5858/Krishak/api/controllers"
	"github.com/Nafis5858/Krishak/api/middleware"
	"github.com/Nafis5858/Krishak/internal/delivery"
	"github.com/Nafis5858/Krishak/internal/geocode"
	"github.com/Nafis5858/Krishak/internal/notifications"
	"github.com/Nafis5858/Krishak/internal/orders"
	"github.com/Nafis5858/Krishak/internal/photos"
	product "github.com/Nafis5858/Krishak/internal/products"
	"github.com/Nafis5858/Krishak/internal/reviews"
	"github.com/Nafis5858/Krishak/internal/users"
	"github.com/Nafis5858/Krishak/pkg/config"
	"github.com/Nafis5858/Krishak/pkg/enums"
	"github.com/Nafis5858/Krishak/pkg/logger"
	pkgredis "github.com/Nafis5858/Krishak/pkg/redis"
)

// RedisStore is what the HTTP layer needs from redis.
type RedisStore interface {
	pkgredis.IdempotencyStore
	controllers.Pinger
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type requestObserver interface {
	Observe(method, route string, status int, duration time.Duration)
}

// Params carries everything the router wires. Metrics, MetricsHandler and
// UploadsDir are optional.
type Params struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      controllers.Pinger
	Redis   RedisStore
	Metrics requestObserver

	MetricsHandler http.Handler
	// UploadsDir is served under Config.Storage.LocalPublicPath when the local
	// object store is in use.
	UploadsDir string

	Delivery      delivery.Service
	Orders        orders.Service
	Products      product.Service
	Users         users.Service
	Reviews       reviews.Service
	Notifications notifications.Service
	Photos        photos.Service
	Geocode       geocode.Service
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	if p.Metrics != nil {
		r.Use(middleware.Metrics(p.Metrics))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    p.DB,
			"redis": p.Redis,
		}))
	})
	if p.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", p.MetricsHandler)
	}
	if p.UploadsDir != "" && !cfg.Storage.IsGCS() {
		prefix := "/" + strings.Trim(cfg.Storage.LocalPublicPath, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(p.UploadsDir))))
	}

	acceptPolicy := middleware.NewRateLimitPolicy("accept", cfg.RateLimit.AcceptWindow, cfg.RateLimit.AcceptLimit)
	uploadPolicy := middleware.NewRateLimitPolicy("photo-upload", cfg.RateLimit.UploadWindow, cfg.RateLimit.UploadLimit)

	// Public reads.
	r.Get("/api/v1/reviews/product/{productId}", controllers.ProductReviews(p.Reviews, logg))
	r.Get("/api/v1/reviews/buyer/{buyerId}", controllers.BuyerReviews(p.Reviews, logg))
	r.Get("/api/v1/products", controllers.ListProducts(p.Products, logg))
	r.Get("/api/v1/products/{productId}", controllers.GetProduct(p.Products, logg))
	r.Route("/api/v1/geocode", func(r chi.Router) {
		r.Get("/search", controllers.GeocodeSearch(p.Geocode, logg))
		r.Get("/reverse", controllers.GeocodeReverse(p.Geocode, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Route("/api/v1/transporter", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleTransporter))
			r.Get("/stats", controllers.TransporterStats(p.Delivery, logg))
			r.Get("/jobs", controllers.TransporterJobs(p.Delivery, logg))
			r.Get("/jobs/{orderId}", controllers.TransporterJobDetail(p.Delivery, logg))
			r.With(middleware.RateLimit(acceptPolicy, p.Redis, logg)).
				Post("/jobs/{orderId}/accept", controllers.AcceptJob(p.Delivery, logg))
			r.Put("/jobs/{orderId}/status", controllers.UpdateJobStatus(p.Delivery, logg))
			r.With(middleware.RateLimit(uploadPolicy, p.Redis, logg)).
				Post("/jobs/{orderId}/photo", controllers.UploadJobPhoto(p.Photos, cfg.Media.MaxUploadBytes(), logg))
			r.Get("/my-deliveries", controllers.MyDeliveries(p.Delivery, logg))
		})

		r.Route("/api/v1/farmer", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleFarmer))
			r.Post("/products", controllers.CreateProduct(p.Products, logg))
			r.Post("/orders/{orderId}/decision", controllers.FarmerOrderDecision(p.Orders, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleBuyer))
			r.Post("/api/v1/reviews", controllers.CreateReview(p.Reviews, logg))
			r.Get("/api/v1/reviews/check/{orderId}", controllers.CheckCanReview(p.Reviews, logg))
			r.Post("/api/v1/orders", controllers.PlaceOrder(p.Orders, logg))
			r.Post("/api/v1/orders/{orderId}/rate-transporter", controllers.RateTransporter(p.Delivery, logg))
		})

		r.Get("/api/v1/orders", controllers.ListOrders(p.Orders, logg))
		r.Get("/api/v1/orders/{orderId}", controllers.GetOrder(p.Orders, logg))

		r.Route("/api/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Get("/unread-count", controllers.UnreadNotificationCount(p.Notifications, logg))
			r.Put("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
			r.Put("/{notificationId}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Delete("/{notificationId}", controllers.DeleteNotification(p.Notifications, logg))
		})

		r.Route("/api/v1/users/me", func(r chi.Router) {
			r.Get("/", controllers.CurrentUser(p.Users, logg))
			r.Put("/location", controllers.UpdateUserLocation(p.Users, logg))
		})

		r.Route("/api/admin/v1", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.UserRoleAdmin))
			r.Patch("/reviews/{reviewId}/visibility", controllers.SetReviewVisibility(p.Reviews, logg))
		})
	})

	return r
}
