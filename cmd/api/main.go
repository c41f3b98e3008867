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

	"github.com/freshbox/freshbox-backend/api/controllers"
	"github.com/freshbox/freshbox-backend/api/routes"
	"github.com/freshbox/freshbox-backend/internal/address"
	"github.com/freshbox/freshbox-backend/internal/auth"
	"github.com/freshbox/freshbox-backend/internal/cart"
	"github.com/freshbox/freshbox-backend/internal/categories"
	"github.com/freshbox/freshbox-backend/internal/checkout"
	"github.com/freshbox/freshbox-backend/internal/deliveries"
	"github.com/freshbox/freshbox-backend/internal/discounts"
	"github.com/freshbox/freshbox-backend/internal/media"
	"github.com/freshbox/freshbox-backend/internal/orders"
	"github.com/freshbox/freshbox-backend/internal/products"
	"github.com/freshbox/freshbox-backend/internal/schedule"
	"github.com/freshbox/freshbox-backend/internal/users"
	stripewebhook "github.com/freshbox/freshbox-backend/internal/webhooks/stripe"
	"github.com/freshbox/freshbox-backend/pkg/auth/session"
	pkgcheckout "github.com/freshbox/freshbox-backend/pkg/checkout"
	"github.com/freshbox/freshbox-backend/pkg/config"
	"github.com/freshbox/freshbox-backend/pkg/db"
	"github.com/freshbox/freshbox-backend/pkg/logger"
	"github.com/freshbox/freshbox-backend/pkg/maps"
	"github.com/freshbox/freshbox-backend/pkg/metrics"
	"github.com/freshbox/freshbox-backend/pkg/migrate"
	"github.com/freshbox/freshbox-backend/pkg/outbox"
	"github.com/freshbox/freshbox-backend/pkg/redis"
	"github.com/freshbox/freshbox-backend/pkg/storage/gcs"
	"github.com/freshbox/freshbox-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	loc := cfg.Delivery.TimeLocation()
	zone := pkgcheckout.NewDeliveryZone(cfg.Delivery.PostcodePrefixes)
	gdb := dbClient.DB()

	categoryRepo := categories.NewRepository(gdb)
	productRepo := products.NewRepository(gdb)
	discountRepo := discounts.NewRepository(gdb)
	scheduleRepo := schedule.NewRepository(gdb)
	orderRepo := orders.NewRepository(gdb)
	deliveryRepo := deliveries.NewRepository(gdb)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(gdb),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return err
	}

	categoryService, err := categories.NewService(categoryRepo)
	if err != nil {
		return err
	}
	productService, err := products.NewService(productRepo, dbClient, categoryRepo)
	if err != nil {
		return err
	}
	discountService, err := discounts.NewService(discountRepo, categoryRepo, productService)
	if err != nil {
		return err
	}
	scheduleService, err := schedule.NewService(scheduleRepo, loc)
	if err != nil {
		return err
	}
	orderEvents := outbox.NewService(outbox.NewRepository(gdb), logg)
	orderService, err := orders.NewService(orderRepo, dbClient, scheduleRepo, orderEvents)
	if err != nil {
		return err
	}
	deliveryService, err := deliveries.NewService(deliveryRepo, loc)
	if err != nil {
		return err
	}

	cartStore, err := cart.NewRedisStore(redisClient, cfg.Redis.CartTTL)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cartStore, productService, scheduleService, discountService)
	if err != nil {
		return err
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:        dbClient,
		Orders:    orderRepo,
		Catalog:   productService,
		Dates:     scheduleService,
		Discounts: discountService,
		Sessions:  stripeClient,
		Zone:      zone,
		BaseURL:   cfg.App.BaseURL(),
		Metrics:   storefrontMetrics,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Orders:  orderService,
		Metrics: storefrontMetrics,
		Logger:  logg,
	})
	if err != nil {
		return err
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Redis.StripeEventTTL)
	if err != nil {
		return err
	}

	// Geocoding is optional; postcode checks keep working without a key.
	var addressService address.Service
	if mapsClient, err := maps.NewClient(cfg.GoogleMaps.APIKey, maps.WithGeocodeURL(cfg.GoogleMaps.GeocodeBaseURL)); err != nil {
		logg.Warn(ctx, "google maps key missing, geocode proxy disabled")
		addressService = address.NewService(nil, zone)
	} else {
		addressService = address.NewService(mapsClient, zone)
	}

	ready := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	var mediaService media.Service
	if cfg.GCS.BucketName == "" {
		logg.Warn(ctx, "gcs bucket not configured, image uploads disabled")
	} else {
		gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return err
		}
		if mediaService, err = media.NewService(gcsClient, cfg.GCS.MaxUploadBytes); err != nil {
			return err
		}
		ready["gcs"] = gcsClient
	}

	router := routes.NewRouter(routes.Params{
		Config:     cfg,
		Logger:     logg,
		Store:      redisClient,
		Sessions:   sessionManager,
		Ready:      ready,
		Registerer: registry,
		Gatherer:   registry,

		Auth:       authService,
		Categories: categoryService,
		Products:   productService,
		Discounts:  discountService,
		Schedule:   scheduleService,
		Cart:       cartService,
		Checkout:   checkoutService,
		Orders:     orderService,
		Deliveries: deliveryService,
		Address:    addressService,
		Media:      mediaService,

		StripeWebhook:       webhookService,
		StripeSigningSecret: stripeClient,
		StripeWebhookGuard:  webhookGuard,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": cfg.Stripe.Environment(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
