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

	"github.com/freshbox/freshbox-backend/pkg/config"
	"github.com/freshbox/freshbox-backend/pkg/db"
	"github.com/freshbox/freshbox-backend/pkg/logger"
	"github.com/freshbox/freshbox-backend/pkg/metrics"
	"github.com/freshbox/freshbox-backend/pkg/migrate"
	"github.com/freshbox/freshbox-backend/pkg/outbox"
	"github.com/freshbox/freshbox-backend/pkg/outbox/registry"
	"github.com/freshbox/freshbox-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "outbox-publisher"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "outbox-publisher",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		logg.Error(context.Background(), "failed to build event registry", err)
		os.Exit(1)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	dlqRepo := outbox.NewDLQRepository(dbClient.DB())
	warnDeadLetters(context.Background(), logg, dlqRepo)

	relay, err := NewRelay(RelayParams{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		PubSub:      pubsubClient,
		Events:      outbox.NewRepository(dbClient.DB()),
		Resolver:    eventRegistry,
		DeadLetters: dlqRepo,
		Metrics:     metrics.NewOutboxMetrics(promRegistry),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order event relay", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "outbox-publisher",
		"topic":       cfg.PubSub.OrdersTopic,
	})

	metricsServer := &http.Server{
		Addr:              ":" + cfg.Outbox.MetricsPort,
		Handler:           metrics.Handler(promRegistry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logg.Info(ctx, "relaying order events")

	if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "order event relay stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "order event relay shut down")
}

const dlqStartupSample = 10

// warnDeadLetters surfaces recent dead-lettered events at startup so they are
// not only visible in the database.
func warnDeadLetters(ctx context.Context, logg *logger.Logger, dlq *outbox.DLQRepository) {
	recent, err := dlq.List(ctx, dlqStartupSample)
	if err != nil {
		logg.Error(ctx, "failed to read outbox dlq", err)
		return
	}
	if len(recent) == 0 {
		return
	}
	logg.Warn(logg.WithFields(ctx, map[string]any{
		"recent":         len(recent),
		"latestEventId":  recent[0].EventID.String(),
		"latestReason":   string(recent[0].ErrorReason),
		"latestFailedAt": recent[0].FailedAt,
	}), "dead-lettered outbox events present")
}
