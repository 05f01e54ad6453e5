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

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/catalog"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/cron"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/orders"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/metrics"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/migrate"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/redis"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/square"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	squareClient, err := square.NewClient(ctx, cfg.Square, logg)
	requireResource(ctx, logg, "square client", err)

	gormDB := dbClient.DB()
	catalogRepo := catalog.NewRepository(gormDB)
	outboxRepo := outbox.NewRepository(gormDB)
	jobMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:     orders.NewRepository(gormDB),
		DB:       dbClient,
		Gateway:  squareClient,
		Listings: catalogRepo,
		Outbox:   outbox.NewService(outboxRepo, logg),
		Logger:   logg,
		Payments: cfg.Payments,
	})
	requireResource(ctx, logg, "orders service", err)

	orderTTLJob, err := cron.NewOrderTTLJob(cron.OrderTTLJobParams{
		Logger:  logg,
		Orders:  ordersService,
		Metrics: jobMetrics,
		TTL:     cfg.Cron.OrderTTL,
	})
	requireResource(ctx, logg, "order ttl job", err)

	soldCountJob, err := cron.NewSoldCountJob(cron.SoldCountJobParams{
		Logger:   logg,
		Listings: catalogRepo,
		Metrics:  jobMetrics,
	})
	requireResource(ctx, logg, "sold count job", err)

	retentionJob, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:     logg,
		DB:         dbClient,
		Repository: outboxRepo,
		Metrics:    jobMetrics,
	})
	requireResource(ctx, logg, "outbox retention job", err)

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), cfg.Cron.LockTTL)
	requireResource(ctx, logg, "cron lock", err)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(orderTTLJob, soldCountJob, retentionJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Cron.Interval,
	})
	requireResource(ctx, logg, "cron service", err)

	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"interval":    cfg.Cron.Interval.String(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
