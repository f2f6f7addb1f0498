package internal

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"gorm.io/gorm"

	"pagelink/internal/config"
	pagelinkhttp "pagelink/internal/http"
	"pagelink/internal/http/middleware"
	"pagelink/internal/pkg/geoip"
)

// publicCORSConfig is the permissive CORS setup shared by public
// endpoints so the tracking snippet can post cross-origin.
var publicCORSConfig = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referer, User-Agent",
}

// MountRoutes mounts all application routes.
func MountRoutes(app *fiber.App, db *gorm.DB, resolver *geoip.Resolver, logger *slog.Logger) {
	cfg := config.GetConfig()

	// Rate limiter for the public ingestion API (70 requests per minute
	// per IP). Development and test skip it so it cannot interfere with
	// local testing.
	publicRateLimiter := func(c *fiber.Ctx) error {
		return c.Next()
	}
	if cfg.IsProduction() {
		publicRateLimiter = limiter.New(limiter.Config{
			Max:        70,
			Expiration: time.Minute,
		})
	}

	app.Get("/healthz", pagelinkhttp.HealthAction(db, logger))

	api := app.Group("/api/v1")

	// Public event ingestion.
	api.Post("/events",
		cors.New(publicCORSConfig),
		publicRateLimiter,
		pagelinkhttp.IngestEventAction(db, resolver, logger),
	)

	// Workspace dashboard: no auth middleware on purpose; a failed
	// workspace lookup falls back to demo data instead of 401.
	api.Get("/analytics", pagelinkhttp.WorkspaceAnalyticsAction(db, logger))

	// Per-document endpoints are strictly authorized.
	auth := middleware.WorkspaceAuth(db, logger)
	docs := api.Group("/documents", auth)
	docs.Get("/:id/analytics", pagelinkhttp.DocumentAnalyticsAction(db, logger))
	docs.Get("/:id/abtest", pagelinkhttp.GetABTestAction(db, logger))
	docs.Post("/:id/abtest", pagelinkhttp.ConfigureABTestAction(db, logger))
	docs.Patch("/:id/abtest/traffic", pagelinkhttp.EditTrafficAction(db, logger))
	docs.Post("/:id/abtest/winner", pagelinkhttp.DeclareWinnerAction(db, logger))
}
