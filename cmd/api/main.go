package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/parkyoungho/marushop-backend/api/routes"
	"github.com/parkyoungho/marushop-backend/internal/cart"
	"github.com/parkyoungho/marushop-backend/internal/catalog"
	"github.com/parkyoungho/marushop-backend/internal/checkout"
	"github.com/parkyoungho/marushop-backend/internal/inventory"
	"github.com/parkyoungho/marushop-backend/internal/notifications"
	"github.com/parkyoungho/marushop-backend/internal/orders"
	"github.com/parkyoungho/marushop-backend/internal/payments"
	"github.com/parkyoungho/marushop-backend/internal/sideeffects"
	"github.com/parkyoungho/marushop-backend/internal/users"
	"github.com/parkyoungho/marushop-backend/internal/webhooks"
	"github.com/parkyoungho/marushop-backend/pkg/config"
	"github.com/parkyoungho/marushop-backend/pkg/db"
	"github.com/parkyoungho/marushop-backend/pkg/email"
	"github.com/parkyoungho/marushop-backend/pkg/logger"
	"github.com/parkyoungho/marushop-backend/pkg/metrics"
	"github.com/parkyoungho/marushop-backend/pkg/migrate"
	"github.com/parkyoungho/marushop-backend/pkg/redis"
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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(promRegistry)
	checkoutMetrics := metrics.NewCheckoutMetrics(promRegistry)

	var sender email.Sender
	if sgSender, err := email.NewSendgridSender(cfg.Sendgrid); err == nil {
		sender = sgSender
	} else {
		logg.Warn(context.Background(), "sendgrid not configured, logging emails instead")
		sender = email.LogSender{Logger: logg}
	}

	conn := dbClient.DB()
	catalogRepo := catalog.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	userRepo := users.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	notifRepo := notifications.NewRepository(conn)
	payLedger := payments.NewLedger(conn)
	invLedger := inventory.NewLedger(conn)

	cartService, err := cart.NewService(cartRepo, dbClient, catalogRepo, invLedger)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	notifService, err := notifications.NewService(notifRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orderRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	dispatcher := sideeffects.NewDispatcher(sender, notifService, redisClient, logg, cfg.Alerts)

	checkoutService, err := checkout.NewService(
		dbClient,
		cartRepo,
		orderRepo,
		userRepo,
		payLedger,
		invLedger,
		catalogRepo,
		dispatcher,
		checkoutMetrics,
		logg,
		cfg.Checkout,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	stripeGuard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Checkout.WebhookIdempotencyTTL, "webhook:stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook guard", err)
		os.Exit(1)
	}
	tossGuard, err := webhooks.NewIdempotencyGuard(redisClient, cfg.Checkout.WebhookIdempotencyTTL, "webhook:toss")
	if err != nil {
		logg.Error(context.Background(), "failed to create toss webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DBPinger:     dbClient,
			RedisPinger:  redisClient,
			Catalog:      catalogRepo,
			CartService:  cartService,
			Checkout:     checkoutService,
			Orders:       ordersService,
			Notifier:     notifService,
			StripeGuard:  stripeGuard,
			TossGuard:    tossGuard,
			HTTPMetrics:  httpMetrics,
			PromRegistry: promRegistry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
