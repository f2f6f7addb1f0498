package http

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pagelink/internal/analytics"
	"pagelink/internal/documents"
	"pagelink/internal/http/middleware"
	"pagelink/internal/workspaces"
)

// ABTestResponse is the A/B admin payload: the persisted test plus the
// derived confidence signal.
type ABTestResponse struct {
	State           string           `json:"state"`
	WinnerVariantID *uint            `json:"winner_variant_id,omitempty"`
	Variants        []ABVariantStats `json:"variants"`
	Confidence      float64          `json:"confidence"`
}

type ABVariantStats struct {
	ID             uint    `json:"id"`
	Name           string  `json:"name"`
	TrafficPercent int     `json:"trafficPercent"`
	Views          int     `json:"views"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversionRate"`
}

type configureABTestRequest struct {
	Variants []string `json:"variants"`
}

type trafficEditRequest struct {
	VariantID uint `json:"variant_id"`
	Percent   int  `json:"percent"`
}

type declareWinnerRequest struct {
	VariantID uint `json:"variant_id"`
}

// GetABTestAction serves GET /api/v1/documents/:id/abtest. An
// unconfigured test is a valid state, not an error.
func GetABTestAction(db *gorm.DB, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, errResp := authorizeDocument(c, db, logger)
		if errResp != nil {
			return errResp(c)
		}

		test, err := documents.GetTest(db, doc.ID)
		if errors.Is(err, documents.ErrTestNotConfigured) {
			return c.JSON(ABTestResponse{State: documents.TestStateNotConfigured, Variants: []ABVariantStats{}})
		}
		if err != nil {
			logger.Error("Failed to load ab test", slog.Uint64("document_id", uint64(doc.ID)), slog.Any("error", err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}

		return c.JSON(toABTestResponse(test))
	}
}

// ConfigureABTestAction serves POST /api/v1/documents/:id/abtest.
func ConfigureABTestAction(db *gorm.DB, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, errResp := authorizeDocument(c, db, logger)
		if errResp != nil {
			return errResp(c)
		}

		var req configureABTestRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if len(req.Variants) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "At least one variant is required"})
		}

		test, err := documents.ConfigureVariants(db, doc.ID, req.Variants)
		if err != nil {
			if errors.Is(err, documents.ErrTestConcluded) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Test already concluded"})
			}
			logger.Error("Failed to configure ab test", slog.Uint64("document_id", uint64(doc.ID)), slog.Any("error", err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}

		return c.Status(fiber.StatusCreated).JSON(toABTestResponse(test))
	}
}

// EditTrafficAction serves PATCH /api/v1/documents/:id/abtest/traffic.
func EditTrafficAction(db *gorm.DB, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, errResp := authorizeDocument(c, db, logger)
		if errResp != nil {
			return errResp(c)
		}

		var req trafficEditRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		test, err := documents.SaveTrafficEdit(db, doc.ID, req.VariantID, req.Percent)
		if err != nil {
			switch {
			case errors.Is(err, documents.ErrTestNotConfigured):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Test not configured"})
			case errors.Is(err, documents.ErrTestConcluded):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Test already concluded"})
			case errors.Is(err, documents.ErrVariantNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Variant not found"})
			}
			logger.Error("Failed to edit traffic split", slog.Uint64("document_id", uint64(doc.ID)), slog.Any("error", err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}

		return c.JSON(toABTestResponse(test))
	}
}

// DeclareWinnerAction serves POST /api/v1/documents/:id/abtest/winner.
// This is the only transition into the concluded state; the confidence
// signal never concludes a test on its own.
func DeclareWinnerAction(db *gorm.DB, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, errResp := authorizeDocument(c, db, logger)
		if errResp != nil {
			return errResp(c)
		}

		var req declareWinnerRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		test, err := documents.DeclareWinner(db, doc.ID, req.VariantID)
		if err != nil {
			switch {
			case errors.Is(err, documents.ErrTestNotConfigured):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Test not configured"})
			case errors.Is(err, documents.ErrTestConcluded):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Test already concluded"})
			case errors.Is(err, documents.ErrVariantNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Variant not found"})
			}
			logger.Error("Failed to declare winner", slog.Uint64("document_id", uint64(doc.ID)), slog.Any("error", err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}

		return c.JSON(toABTestResponse(test))
	}
}

func toABTestResponse(test *documents.ABTest) ABTestResponse {
	stats := make([]analytics.VariantStats, len(test.Variants))
	out := make([]ABVariantStats, len(test.Variants))
	for i := range test.Variants {
		v := &test.Variants[i]
		stats[i] = analytics.VariantStats{ID: v.ID, Name: v.Name, Views: v.Views, Conversions: v.Conversions}
		out[i] = ABVariantStats{
			ID:             v.ID,
			Name:           v.Name,
			TrafficPercent: v.TrafficPercent,
			Views:          v.Views,
			Conversions:    v.Conversions,
			ConversionRate: v.ConversionRate(),
		}
	}

	return ABTestResponse{
		State:           test.State,
		WinnerVariantID: test.WinnerVariantID,
		Variants:        out,
		Confidence:      analytics.Confidence(stats),
	}
}

// authorizeDocument resolves the :id document and enforces ownership.
// Returns either the document or a responder for the failure.
func authorizeDocument(c *fiber.Ctx, db *gorm.DB, logger *slog.Logger) (*documents.Document, func(*fiber.Ctx) error) {
	workspace, ok := c.Locals(middleware.WorkspaceLocal).(*workspaces.Workspace)
	if !ok {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
		}
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
		}
	}

	doc, err := documents.GetByID(db, uint(id))
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return nil, func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Document not found"})
			}
		}
		logger.Error("Document lookup failed", slog.Uint64("document_id", id), slog.Any("error", err))
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}
	}
	if doc.WorkspaceID != workspace.ID {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
	}

	return doc, nil
}
