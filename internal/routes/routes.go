package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mobile-bank/mobile_bank/internal/auth"
	"github.com/mobile-bank/mobile_bank/internal/config"
	"github.com/mobile-bank/mobile_bank/internal/docstore"
	"github.com/mobile-bank/mobile_bank/internal/identity"
	"github.com/mobile-bank/mobile_bank/internal/metrics"
	"github.com/mobile-bank/mobile_bank/internal/middleware"
	"github.com/mobile-bank/mobile_bank/internal/notification"
	"github.com/mobile-bank/mobile_bank/internal/profile"
	"github.com/mobile-bank/mobile_bank/internal/seed"
	"github.com/mobile-bank/mobile_bank/internal/teller"
)

const metricsNamespace = "mobile_bank"

// Deps aggregates shared dependencies required to wire routes. DB, Cache and
// NATS may be nil in development.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	NATS     *nats.Conn
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// Services exposes the long-lived components main needs for lifecycle
// management.
type Services struct {
	Sessions *auth.Service
}

type backends struct {
	docs       docstore.Store
	identities identity.Repository
	journal    teller.Repository
}

// Setup configures middlewares and all application routes.
func Setup(ctx context.Context, app *fiber.App, d Deps) (*Services, error) {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return nil, fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	b, err := buildBackends(ctx, d)
	if err != nil {
		return nil, err
	}

	var notifier notification.Notifier = notification.NewLoggerNotifier(d.Logger)
	if d.NATS != nil {
		notifier = notification.NewNATSNotifier(d.NATS)
	}
	m := metrics.New(metricsNamespace, d.Registry)

	identitySvc := identity.NewService(b.identities)
	sessions := auth.NewService(auth.Config{
		Issuer: d.Cfg.AppName,
		Secret: []byte(d.Cfg.JWTSecret),
		TTL:    d.Cfg.SessionTTL,
	}, identitySvc, b.docs, notifier, m, d.Logger)
	tellerSvc := teller.NewService(b.docs, b.journal, notifier, d.Logger)
	profileSvc := profile.NewService(b.docs, identitySvc, notifier, d.Logger)

	if d.Cfg.IsDev() && d.DB == nil {
		if err := seed.NewSeeder(profileSvc, tellerSvc, d.Logger).Run(ctx); err != nil {
			return nil, err
		}
	}

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	requireSession := middleware.SessionAuth(sessions)
	var idempotent fiber.Handler
	if d.Cache != nil {
		idempotent = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}

	RegisterAuthRoutes(api, auth.NewHandler(sessions), requireSession, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit))
	RegisterAccountRoutes(api, sessions, teller.NewHandler(tellerSvc), requireSession, idempotent)
	RegisterOfficerRoutes(api, profile.NewHandler(profileSvc), requireSession, idempotent)

	return &Services{Sessions: sessions}, nil
}

// buildBackends picks Postgres and Redis when configured and in-memory
// stand-ins otherwise. Postgres tables are created on first start.
func buildBackends(ctx context.Context, d Deps) (backends, error) {
	if d.DB == nil {
		docs, _ := docstore.NewMemoryStore()
		return backends{
			docs:       docs,
			identities: identity.NewMemoryRepository(),
			journal:    teller.NewMemoryRepository(),
		}, nil
	}

	var feed docstore.Feed = docstore.NewMemoryFeed()
	if d.Cache != nil {
		feed = docstore.NewRedisFeed(d.Cache)
	}
	docs := docstore.NewPostgresStore(d.DB, feed, d.Logger)
	identities := identity.NewPostgresRepository(d.DB)
	journal := teller.NewPostgresRepository(d.DB)

	for _, s := range []interface{ EnsureSchema(context.Context) error }{docs, identities, journal} {
		if err := s.EnsureSchema(ctx); err != nil {
			return backends{}, err
		}
	}
	return backends{docs: docs, identities: identities, journal: journal}, nil
}
