// Package middleware contains the HTTP middlewares shared by API routes.
package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pagelink/internal/workspaces"
)

// WorkspaceLocal is the fiber locals key the authenticated workspace is
// stored under.
const WorkspaceLocal = "workspace"

// WorkspaceAuth validates the Authorization bearer token and stores the
// resolved workspace in locals. Routes behind it return 401 on failure;
// the workspace analytics endpoint deliberately does not use it and falls
// back to demo data instead.
func WorkspaceAuth(db *gorm.DB, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Authorization header",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid Authorization header format. Expected: Bearer <token>",
			})
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "API token is empty",
			})
		}

		workspace, err := workspaces.Authenticate(db, token)
		if err != nil {
			logger.Debug("Workspace authentication failed", slog.Any("error", err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid API token",
			})
		}

		c.Locals(WorkspaceLocal, workspace)
		return c.Next()
	}
}
