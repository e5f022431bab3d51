package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/credmesh/credmesh/internal/config"
	"github.com/credmesh/credmesh/internal/routes"
	"github.com/credmesh/credmesh/internal/verification"
)

// Server wraps the Fiber application and shared dependencies for one of the
// two services.
type Server struct {
	app *fiber.App
	cfg config.Config
}

// NewIssuance instantiates the issuance service HTTP server.
func NewIssuance(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	return build(cfg, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger}, routes.SetupIssuance)
}

// NewVerification instantiates the verification service HTTP server. A nil
// authority selects the HTTP client against cfg.IssuanceURL.
func NewVerification(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger, authority verification.Authority) (*Server, error) {
	deps := routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger, Authority: authority}
	return build(cfg, deps, routes.SetupVerification)
}

func build(cfg config.Config, deps routes.Deps, setup func(*fiber.App, routes.Deps) error) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	if err := setup(app, deps); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
