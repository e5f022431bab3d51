package routes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/credmesh/credmesh/internal/config"
	"github.com/credmesh/credmesh/internal/credential"
	"github.com/credmesh/credmesh/internal/metrics"
	"github.com/credmesh/credmesh/internal/middleware"
	"github.com/credmesh/credmesh/internal/verification"
	"github.com/credmesh/credmesh/internal/verifylog"
)

const verifyRateLimitPerMin = 120

// Deps aggregates shared dependencies required to wire routes. Authority is
// normally nil and resolved from the config; tests inject a fake.
type Deps struct {
	Cfg       config.Config
	DB        *pgxpool.Pool
	Cache     *redis.Client
	Logger    *slog.Logger
	Authority verification.Authority
}

// SetupIssuance wires the issuance service: middlewares, health, metrics and
// the credential endpoints. Without a database (development only) the
// in-memory store backs the service.
func SetupIssuance(app *fiber.App, d Deps) error {
	if err := setupCommon(app, d); err != nil {
		return err
	}
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	var store credential.Store
	if d.DB != nil {
		pg := credential.NewPostgresStore(d.DB)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("ensure credentials schema: %w", err)
		}
		store = pg
	} else {
		store = credential.NewMemoryStore()
	}

	svc := credential.NewService(store, d.Cfg.WorkerID)
	handler := credential.NewHandler(svc, d.Cfg.WorkerID)

	api := app.Group("/api")
	api.Post("/issue-credential", handler.Issue)
	api.Get("/credentials", handler.List)
	api.Get("/credentials/:id", handler.Get)

	return nil
}

// SetupVerification wires the verification service: the authority boundary
// client, the verification log and the verify endpoints.
func SetupVerification(app *fiber.App, d Deps) error {
	if err := setupCommon(app, d); err != nil {
		return err
	}

	var logStore verifylog.Store
	if d.DB != nil {
		pg := verifylog.NewPostgresStore(d.DB)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("ensure verification log schema: %w", err)
		}
		logStore = pg
	} else {
		logStore = verifylog.NewMemoryStore()
	}

	authority := d.Authority
	if authority == nil {
		authority = verification.NewHTTPAuthority(d.Cfg.IssuanceURL, d.Cfg.AuthorityTimeout)
	}

	svc := verification.NewService(authority, logStore, d.Cfg.WorkerID, d.Logger)
	handler := verification.NewHandler(svc, logStore, d.Cfg.WorkerID)

	limiter := middleware.RateLimit(d.Cache, verifyRateLimitPerMin, "verify")

	api := app.Group("/api")
	api.Post("/verify", limiter, handler.Verify)
	api.Post("/verify/batch", limiter, handler.VerifyBatch)
	api.Get("/verify/logs", handler.Logs)

	return nil
}

func setupCommon(app *fiber.App, d Deps) error {
	// main also checks, but route wiring is the last line of defense
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.Env)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.Env)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	return nil
}
