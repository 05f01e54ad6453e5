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

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/routes"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/auth"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/catalog"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/delivery"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/mappings"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/orders"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/purchases"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/relay"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/users"
	squarewebhook "github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/webhooks/square"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/wishlist"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/auth/session"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/google"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/metrics"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/migrate"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox/idempotency"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/redis"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/square"
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

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
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
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	identityVerifier, err := google.NewIdentityVerifier(ctx, cfg.Google)
	requireService(ctx, logg, "google identity verifier", err)
	mailer, err := google.NewGmailMailer(ctx, cfg.Google, cfg.GCP)
	requireService(ctx, logg, "gmail mailer", err)
	driveReader, err := google.NewDriveReader(ctx, cfg.Google, cfg.GCP)
	requireService(ctx, logg, "drive reader", err)

	squareClient, err := square.NewClient(ctx, cfg.Square, logg)
	requireService(ctx, logg, "square client", err)

	registry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	marketplaceMetrics := metrics.NewMarketplaceMetrics(registry)

	gormDB := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)
	catalogRepo := catalog.NewRepository(gormDB)
	mappingsRepo := mappings.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	purchasesRepo := purchases.NewRepository(gormDB)

	authService, err := auth.NewService(auth.ServiceParams{
		Verifier:       identityVerifier,
		UserRepo:       users.NewRepository(gormDB),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		App:            cfg.App,
		Logger:         logg,
	})
	requireService(ctx, logg, "auth service", err)

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:            catalogRepo,
		DB:              dbClient,
		Outbox:          outboxService,
		Logger:          logg,
		DefaultCurrency: enums.Currency(cfg.Payments.DefaultCurrency),
	})
	requireService(ctx, logg, "catalog service", err)

	mappingsService, err := mappings.NewService(mappings.ServiceParams{
		Repo:     mappingsRepo,
		Listings: catalogRepo,
		Logger:   logg,
	})
	requireService(ctx, logg, "mappings service", err)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:     ordersRepo,
		DB:       dbClient,
		Gateway:  squareClient,
		Listings: catalogRepo,
		Outbox:   outboxService,
		Logger:   logg,
		Metrics:  marketplaceMetrics,
		Payments: cfg.Payments,
	})
	requireService(ctx, logg, "orders service", err)

	purchasesService, err := purchases.NewService(purchases.ServiceParams{
		Repo:     purchasesRepo,
		Listings: catalogRepo,
		Mappings: mappingsRepo,
		Orders:   ordersRepo,
		Payments: ordersService,
		DB:       dbClient,
		Outbox:   outboxService,
		Logger:   logg,
		Metrics:  marketplaceMetrics,
	})
	requireService(ctx, logg, "purchases service", err)

	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Repo:     wishlist.NewRepository(gormDB),
		Listings: catalogRepo,
		DB:       dbClient,
		Logger:   logg,
	})
	requireService(ctx, logg, "wishlist service", err)

	relayService, err := relay.NewService(relay.ServiceParams{
		Mailer:  mailer,
		Google:  cfg.Google,
		Limits:  cfg.Relay,
		Logger:  logg,
		Metrics: marketplaceMetrics,
	})
	requireService(ctx, logg, "relay service", err)

	deliveryService, err := delivery.NewService(delivery.ServiceParams{
		Purchases: purchasesService,
		Drive:     driveReader,
		Logger:    logg,
	})
	requireService(ctx, logg, "delivery service", err)

	webhookGuard, err := idempotency.NewManager(redisClient, cfg.Eventing.WebhookIdempotencyTTL)
	requireService(ctx, logg, "webhook idempotency guard", err)
	webhookService, err := squarewebhook.NewService(squarewebhook.ServiceParams{
		Verifier:    squareClient,
		Orders:      ordersService,
		Idempotency: webhookGuard,
		Logger:      logg,
	})
	requireService(ctx, logg, "square webhook service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":       cfg.App.Env,
		"addr":      addr,
		"squareEnv": squareClient.Environment(),
	})

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Sessions:      sessionManager,
			HTTPMetrics:   httpMetrics,
			Metrics:       metrics.Handler(registry),
			Auth:          authService,
			Catalog:       catalogService,
			Mappings:      mappingsService,
			Orders:        ordersService,
			Purchases:     purchasesService,
			Wishlist:      wishlistService,
			Relay:         relayService,
			Delivery:      deliveryService,
			SquareWebhook: webhookService,
		}),
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "api server shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}

func requireService(ctx context.Context, logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "failed to create "+name, err)
	os.Exit(1)
}
