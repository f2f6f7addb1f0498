// Package internal wires the application together.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"pagelink/internal/config"
	"pagelink/internal/database"
	"pagelink/internal/jobs"
	"pagelink/internal/logger"
	"pagelink/internal/pkg/geoip"
	"pagelink/internal/seeder"
)

// Application holds the wired components of the pagelink service.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	DBManager *database.Manager
	Fiber     *fiber.App

	geo       *geoip.Resolver
	scheduler *jobs.Scheduler
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	cfg := config.GetConfig()
	return NewAppWithConfig(cfg)
}

// NewAppWithConfig creates a new application with the provided config
func NewAppWithConfig(cfg *config.Config) (*Application, error) {
	log := logger.New(cfg)

	dbManager := database.NewManager(cfg, log)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	geo := geoip.NewResolver(cfg, log)

	scheduler := jobs.NewScheduler(dbManager, log)

	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
		// Unexpected errors and recovered panics surface here: log and
		// answer with the uniform 500 body.
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
			}
			if code == fiber.StatusInternalServerError {
				log.Error("Unhandled request error", slog.String("path", c.Path()), slog.Any("error", err))
				return c.Status(code).JSON(fiber.Map{"error": "Internal server error"})
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(recover.New())

	MountRoutes(app, dbManager.GetConnection(), geo, log)

	return &Application{
		Config:    cfg,
		Logger:    log,
		DBManager: dbManager,
		Fiber:     app,
		geo:       geo,
		scheduler: scheduler,
	}, nil
}

// Start runs migrations, optional seeding, background jobs and the HTTP
// listener. Blocks until the listener stops.
func (a *Application) Start() error {
	if err := a.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if a.Config.SeedDemoData && !a.Config.IsProduction() {
		if err := seeder.Seed(a.DBManager.GetConnection(), a.Logger); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	a.scheduler.Start()

	addr := ":" + a.Config.AppPort
	a.Logger.Info("Starting HTTP listener", slog.String("addr", addr))
	return a.Fiber.Listen(addr)
}

// Shutdown stops the listener, background jobs and closes resources.
func (a *Application) Shutdown(ctx context.Context) error {
	a.scheduler.Stop()
	a.geo.Close()

	if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("error shutting down http server: %w", err)
	}
	return a.DBManager.Close()
}
