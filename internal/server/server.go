package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/mobile-bank/mobile_bank/internal/config"
	"github.com/mobile-bank/mobile_bank/internal/routes"
)

// Server wraps the Fiber application, the session registry and its sweeper.
type Server struct {
	app      *fiber.App
	cfg      config.Config
	services *routes.Services
	sweeper  *SessionSweeper
	logger   *slog.Logger
}

// New instantiates the HTTP server and delegates route wiring to
// routes.Setup. db, cache and nc may be nil in development.
func New(ctx context.Context, cfg config.Config, db *pgxpool.Pool, cache *redis.Client, nc *nats.Conn, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:     cfg.AppName,
		ReadTimeout: 30 * time.Second,
		// The account event stream holds responses open.
		WriteTimeout: 0,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	services, err := routes.Setup(ctx, app, routes.Deps{
		Cfg:      cfg,
		DB:       db,
		Cache:    cache,
		NATS:     nc,
		Registry: reg,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	sweeper, err := NewSessionSweeper(services.Sessions, cfg.SweepSchedule, logger)
	if err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, services: services, sweeper: sweeper, logger: logger}, nil
}

// Listen starts the sweeper and the HTTP server.
func (s *Server) Listen() error {
	s.sweeper.Start()
	return s.app.Listen(s.cfg.Address())
}

// Shutdown stops the sweeper, logs every client out so open event streams
// finish, then stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sweeper.Stop()
	s.services.Sessions.Close(ctx)
	return s.app.ShutdownWithContext(ctx)
}
