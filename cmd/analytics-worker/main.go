package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/analytics/worker"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/analytics/writer"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/bigquery"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox/idempotency"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox/registry"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/pubsub"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/redis"
)

const serviceKind = "analytics-worker"

// analytics-worker consumes the marketplace event topic and appends one
// BigQuery row per order and purchase event.
func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind

	logg := logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"serviceKind":  serviceKind,
		"subscription": cfg.PubSub.AnalyticsSubscription,
	})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "analytics worker failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer closeWith(ctx, logg, "redis", redisClient.Close)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		return fmt.Errorf("bootstrap pubsub: %w", err)
	}
	defer closeWith(ctx, logg, "pubsub", pubsubClient.Close)

	if err := pubsubClient.EnsureSubscription(ctx, cfg.PubSub.AnalyticsSubscription); err != nil {
		return fmt.Errorf("analytics subscription: %w", err)
	}
	subscriber := pubsubClient.AnalyticsSubscriber()
	if subscriber == nil {
		return errors.New("analytics subscription not configured")
	}

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		return fmt.Errorf("bootstrap bigquery: %w", err)
	}
	defer closeWith(ctx, logg, "bigquery", bqClient.Close)

	guard, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return fmt.Errorf("idempotency guard: %w", err)
	}
	rows, err := writer.New(bqClient, writer.RetryPolicy{})
	if err != nil {
		return fmt.Errorf("bigquery writer: %w", err)
	}
	events, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		return fmt.Errorf("event registry: %w", err)
	}

	service, err := worker.NewService(worker.ServiceParams{
		Subscription: subscriber,
		Registry:     events,
		Writer:       rows,
		Idempotency:  guard,
		Logger:       logg,
	})
	if err != nil {
		return fmt.Errorf("build worker: %w", err)
	}

	logg.Info(ctx, "analytics worker ready")
	return service.Run(ctx)
}

func closeWith(ctx context.Context, logg *logger.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(ctx, "error closing "+name, err)
	}
}
