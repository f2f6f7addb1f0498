package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"pagelink/internal/documents"
	"pagelink/internal/events"
	"pagelink/internal/pkg/geoip"
)

// IngestEventRequest is the public event ingestion body. The tracking
// snippet sends most fields; referrer and user agent fall back to the
// request headers when absent.
type IngestEventRequest struct {
	WorkspaceID  uint    `json:"workspace_id"`
	DocumentID   *uint   `json:"document_id"`
	AssetID      *uint   `json:"asset_id"`
	LinkID       *uint   `json:"link_id"`
	CollectionID *uint   `json:"collection_id"`
	VariantID    *uint   `json:"variant_id"`
	EventType    string  `json:"event_type"`
	VisitorID    *string `json:"visitor_id"`
	Referrer     string  `json:"referrer"`
	UTMSource    string  `json:"utm_source"`
	UserAgent    string  `json:"user_agent"`
	CountryCode  string  `json:"country_code"`
	CountryName  string  `json:"country_name"`
	City         string  `json:"city"`
	TimeOnPage   float64 `json:"time_on_page"`
	ScrollDepth  float64 `json:"scroll_depth"`
}

// IngestEventAction serves POST /api/v1/events. The type vocabulary is
// open: unknown types are stored as-is and stay inert in aggregation.
func IngestEventAction(db *gorm.DB, resolver *geoip.Resolver, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req IngestEventRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.WorkspaceID == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "workspace_id is required"})
		}
		if req.EventType == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "event_type is required"})
		}

		ev := events.AnalyticsEvent{
			ID:           uuid.NewString(),
			WorkspaceID:  req.WorkspaceID,
			DocumentID:   req.DocumentID,
			AssetID:      req.AssetID,
			LinkID:       req.LinkID,
			CollectionID: req.CollectionID,
			VariantID:    req.VariantID,
			Type:         events.Type(req.EventType),
			VisitorID:    req.VisitorID,
			Referrer:     req.Referrer,
			UTMSource:    req.UTMSource,
			UserAgent:    req.UserAgent,
			CountryCode:  req.CountryCode,
			CountryName:  req.CountryName,
			City:         req.City,
			TimeOnPage:   req.TimeOnPage,
			ScrollDepth:  req.ScrollDepth,
			CreatedAt:    time.Now().UTC(),
		}

		if ev.Referrer == "" {
			ev.Referrer = c.Get("Referer")
		}
		if ev.UserAgent == "" {
			ev.UserAgent = c.Get("User-Agent")
		}
		if ev.CountryCode == "" && resolver != nil {
			if loc, ok := resolver.Lookup(c.IP()); ok {
				ev.CountryCode = loc.CountryCode
				ev.CountryName = loc.CountryName
				ev.City = loc.City
			}
		}

		if err := db.Create(&ev).Error; err != nil {
			logger.Error("Failed to store event",
				slog.Uint64("workspace_id", uint64(ev.WorkspaceID)),
				slog.Any("error", err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}

		// Keep A/B variant counters current at write time; the variant
		// conversion rate itself is always recomputed on read.
		if ev.VariantID != nil {
			var counterErr error
			switch {
			case ev.Type.CountsAsView():
				counterErr = documents.RecordView(db, *ev.VariantID)
			case ev.Type.IsConversion():
				counterErr = documents.RecordConversion(db, *ev.VariantID)
			}
			if counterErr != nil {
				logger.Warn("Failed to update variant counters",
					slog.Uint64("variant_id", uint64(*ev.VariantID)),
					slog.Any("error", counterErr))
			}
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": ev.ID})
	}
}
