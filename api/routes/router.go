package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parkyoungho/marushop-backend/api/controllers"
	cartcontrollers "github.com/parkyoungho/marushop-backend/api/controllers/cart"
	checkoutcontrollers "github.com/parkyoungho/marushop-backend/api/controllers/checkout"
	ordercontrollers "github.com/parkyoungho/marushop-backend/api/controllers/orders"
	webhookcontrollers "github.com/parkyoungho/marushop-backend/api/controllers/webhooks"
	"github.com/parkyoungho/marushop-backend/api/middleware"
	"github.com/parkyoungho/marushop-backend/internal/cart"
	"github.com/parkyoungho/marushop-backend/internal/catalog"
	checkoutsvc "github.com/parkyoungho/marushop-backend/internal/checkout"
	"github.com/parkyoungho/marushop-backend/internal/notifications"
	"github.com/parkyoungho/marushop-backend/internal/orders"
	"github.com/parkyoungho/marushop-backend/internal/webhooks"
	"github.com/parkyoungho/marushop-backend/pkg/config"
	"github.com/parkyoungho/marushop-backend/pkg/db"
	"github.com/parkyoungho/marushop-backend/pkg/logger"
	"github.com/parkyoungho/marushop-backend/pkg/metrics"
	"github.com/parkyoungho/marushop-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DBPinger     db.Pinger
	RedisPinger  redis.Pinger
	Catalog      *catalog.Repository
	CartService  cart.Service
	Checkout     checkoutsvc.Service
	Orders       orders.Service
	Notifier     notifications.Service
	StripeGuard  *webhooks.IdempotencyGuard
	TossGuard    *webhooks.IdempotencyGuard
	HTTPMetrics  *metrics.HTTPMetrics
	PromRegistry *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if deps.HTTPMetrics != nil {
		r.Use(middleware.Metrics(deps.HTTPMetrics))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	if deps.PromRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.PromRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(deps.Checkout, deps.StripeGuard, logg))
		r.Post("/toss", webhookcontrollers.TossWebhook(deps.Checkout, deps.TossGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CartIdentity(cfg.Cart, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Catalog, logg))
			r.Get("/{productId}", controllers.ProductDetail(deps.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(deps.CartService, logg))
			r.Post("/items", cartcontrollers.CartAddItem(deps.CartService, logg))
			r.Patch("/items/{itemId}", cartcontrollers.CartUpdateItem(deps.CartService, logg))
			r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(deps.CartService, logg))
			r.Post("/merge", cartcontrollers.CartMerge(deps.CartService, logg))
		})

		r.Post("/checkout/complete", checkoutcontrollers.Complete(deps.Checkout, deps.CartService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifier, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifier, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifier, logg))
		})
	})

	return r
}
