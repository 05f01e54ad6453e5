package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/controllers"
	webhookcontrollers "github.com/MedamoniSharan/Project-Bazzar-Deploy/api/controllers/webhooks"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/middleware"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/auth"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/catalog"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/delivery"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/mappings"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/orders"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/purchases"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/relay"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/wishlist"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/auth/session"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/metrics"
	pkgredis "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/redis"
)

// RedisStore is the subset of the redis client the HTTP layer depends on.
type RedisStore interface {
	pkgredis.IdempotencyStore
	Ping(ctx context.Context) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       RedisStore
	Sessions    session.AccessSessionChecker
	HTTPMetrics *metrics.HTTPMetrics
	Metrics     http.Handler

	Auth          auth.Service
	Catalog       catalog.Service
	Mappings      mappings.Service
	Orders        orders.Service
	Purchases     purchases.Service
	Wishlist      wishlist.Service
	Relay         relay.Service
	Delivery      delivery.Service
	SquareWebhook webhookcontrollers.SquareWebhookService
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
		middleware.Logging(logg, p.HTTPMetrics),
	)

	googlePolicy := middleware.NewRateLimitPolicy(
		"google",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		0,
	)
	relayPolicy := middleware.NewRateLimitPolicy(
		"relay",
		cfg.AuthRateLimit.RelayWindow,
		cfg.AuthRateLimit.RelayIPLimit,
		0,
	)
	purchasePolicy := middleware.NewRateLimitPolicy(
		"purchase",
		cfg.AuthRateLimit.PurchaseWindow,
		cfg.AuthRateLimit.PurchaseIPLimit,
		0,
	)
	idempotent := middleware.Idempotency(p.Redis, cfg.Eventing.RequestIdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, map[string]controllers.Pinger{
			"db":    p.DB,
			"redis": p.Redis,
		}, logg))
	})
	if p.Metrics != nil {
		r.Handle("/metrics", p.Metrics)
	}

	r.With(
		middleware.RateLimit(relayPolicy, p.Redis, logg),
		idempotent,
	).Post("/send-email", controllers.SendEmail(p.Relay, logg))

	r.Route("/api", func(r chi.Router) {
		r.Post("/webhooks/square", webhookcontrollers.SquareWebhook(p.SquareWebhook, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(googlePolicy, p.Redis, logg)).Post("/google", controllers.AuthGoogle(p.Auth, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
				r.Get("/me", controllers.AuthMe(p.Auth, logg))
				r.Post("/logout", controllers.AuthLogout(p.Auth, logg))
			})
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", controllers.ListProjects(p.Catalog, logg))
			r.Get("/{id}", controllers.GetProject(p.Catalog, logg))
			r.Group(func(r chi.Router) {
				r.Use(
					middleware.Auth(cfg.JWT, p.Sessions, logg),
					middleware.RequireAdmin(logg),
					idempotent,
				)
				r.Post("/", controllers.CreateProject(p.Catalog, logg))
				r.Put("/{id}", controllers.ReplaceProject(p.Catalog, logg))
				r.Patch("/{id}", controllers.PatchProject(p.Catalog, logg))
				r.Delete("/{id}", controllers.DeleteProject(p.Catalog, logg))
			})
		})

		r.Route("/mappings", func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, p.Sessions, logg),
				middleware.RequireAdmin(logg),
				idempotent,
			)
			r.Get("/", controllers.ListMappings(p.Mappings, logg))
			r.Post("/", controllers.CreateMapping(p.Mappings, logg))
			r.Get("/{id}", controllers.GetMapping(p.Mappings, logg))
			r.Put("/{id}", controllers.UpdateMapping(p.Mappings, logg))
			r.Delete("/{id}", controllers.DeleteMapping(p.Mappings, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, p.Sessions, logg),
				idempotent,
			)

			r.Route("/payments", func(r chi.Router) {
				r.Use(middleware.RateLimit(purchasePolicy, p.Redis, logg))
				r.Post("/create-order", controllers.CreateOrder(p.Orders, logg))
				r.Post("/verify", controllers.VerifyPayment(p.Orders, logg))
			})

			r.Route("/purchases", func(r chi.Router) {
				r.With(middleware.RateLimit(purchasePolicy, p.Redis, logg)).Post("/store", controllers.StorePurchase(p.Purchases, logg))
				r.Get("/user/{email}", controllers.ListUserPurchases(p.Purchases, logg))
				r.Get("/{id}/download", controllers.DownloadPurchase(p.Delivery, logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Post("/toggle", controllers.WishlistToggle(p.Wishlist, logg))
				r.Get("/{email}", controllers.WishlistList(p.Wishlist, logg))
			})
		})
	})

	return r
}
