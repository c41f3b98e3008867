package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/freshbox/freshbox-backend/internal/cron"
	"github.com/freshbox/freshbox-backend/internal/orders"
	"github.com/freshbox/freshbox-backend/internal/schedule"
	"github.com/freshbox/freshbox-backend/pkg/config"
	"github.com/freshbox/freshbox-backend/pkg/db"
	"github.com/freshbox/freshbox-backend/pkg/logger"
	"github.com/freshbox/freshbox-backend/pkg/metrics"
	"github.com/freshbox/freshbox-backend/pkg/migrate"
	"github.com/freshbox/freshbox-backend/pkg/outbox"
	"github.com/freshbox/freshbox-backend/pkg/redis"
)

const lockKeyFormat = "cron-worker:lock:%s"

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

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry, err := buildJobs(cfg, logg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build cron jobs", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.CounterKey(fmt.Sprintf(lockKeyFormat, envOrLocal(cfg.App.Env))), cfg.Cron.Interval)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "cron-worker",
		"interval":    cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildJobs(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	gdb := dbClient.DB()
	outboxRepo := outbox.NewRepository(gdb)

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Retention:  cfg.Cron.OutboxRetention,
	})
	if err != nil {
		return nil, err
	}
	registry := cron.NewRegistry(retentionJob)

	if cfg.Cron.PendingOrderTTL <= 0 {
		logg.Info(context.Background(), "pending order expiry disabled")
		return registry, nil
	}

	orderRepo := orders.NewRepository(gdb)
	orderService, err := orders.NewService(orderRepo, dbClient, schedule.NewRepository(gdb), outbox.NewService(outboxRepo, logg))
	if err != nil {
		return nil, err
	}
	pendingJob, err := cron.NewPendingOrderJob(cron.PendingOrderJobParams{
		Logger:  logg,
		Reader:  orderRepo,
		Payment: orderService,
		TTL:     cfg.Cron.PendingOrderTTL,
	})
	if err != nil {
		return nil, err
	}
	registry.Register(pendingJob)
	return registry, nil
}

func envOrLocal(env string) string {
	if env == "" {
		return "local"
	}
	return env
}
