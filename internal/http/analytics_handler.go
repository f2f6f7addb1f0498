package http

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pagelink/internal/analytics"
	"pagelink/internal/config"
	"pagelink/internal/events"
	"pagelink/internal/pkg/async"
	"pagelink/internal/timeframe"
	"pagelink/internal/workspaces"
)

// WorkspaceAnalyticsResponse is the workspace dashboard payload. Field
// names are part of the frontend contract; do not rename.
type WorkspaceAnalyticsResponse struct {
	Overview       OverviewStats     `json:"overview"`
	ViewsOverTime  []ViewsPoint      `json:"views_over_time"`
	TopAssets      []AssetStat       `json:"top_assets"`
	TopLinks       []LinkStat        `json:"top_links"`
	TopCollections []CollectionStat  `json:"top_collections"`
	TrafficSources []TrafficSource   `json:"traffic_sources"`
	Devices        []DeviceBreakdown `json:"devices"`
	Browsers       []BrowserStat     `json:"browsers"`
	Countries      []CountryStat     `json:"countries"`
}

type OverviewStats struct {
	TotalViews      int     `json:"total_views"`
	TotalDownloads  int     `json:"total_downloads"`
	UniqueVisitors  int     `json:"unique_visitors"`
	AvgViewsPerDay  float64 `json:"avg_views_per_day"`
	ViewsChange     float64 `json:"views_change"`
	DownloadsChange float64 `json:"downloads_change"`
	VisitorsChange  float64 `json:"visitors_change"`
}

type ViewsPoint struct {
	Date           string `json:"date"`
	Views          int    `json:"views"`
	Downloads      int    `json:"downloads"`
	UniqueVisitors int    `json:"unique_visitors"`
}

type AssetStat struct {
	ID        uint   `json:"id"`
	Filename  string `json:"filename"`
	Views     int    `json:"views"`
	Downloads int    `json:"downloads"`
}

type LinkStat struct {
	ID             uint   `json:"id"`
	Slug           string `json:"slug"`
	Target         string `json:"target"`
	Views          int    `json:"views"`
	UniqueVisitors int    `json:"unique_visitors"`
}

type CollectionStat struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Views int    `json:"views"`
}

type TrafficSource struct {
	Source     string `json:"source"`
	Visits     int    `json:"visits"`
	Percentage int    `json:"percentage"`
}

type DeviceBreakdown struct {
	Device     string `json:"device"`
	Visits     int    `json:"visits"`
	Percentage int    `json:"percentage"`
}

type BrowserStat struct {
	Browser    string `json:"browser"`
	Visits     int    `json:"visits"`
	Percentage int    `json:"percentage"`
}

type CountryStat struct {
	Country    string `json:"country"`
	Code       string `json:"code"`
	Visits     int    `json:"visits"`
	Percentage int    `json:"percentage"`
}

// Placeholder period-over-period deltas for the workspace overview. The
// real-data path has never computed these; the per-document endpoint is
// the one with a genuine previous-period comparison. Kept fixed until
// product decides otherwise.
const (
	placeholderViewsChange     = 12.5
	placeholderDownloadsChange = 8.3
	placeholderVisitorsChange  = 15.2
)

// WorkspaceAnalyticsAction serves GET /api/v1/analytics. Any upstream
// failure - missing or invalid token, workspace lookup error, event query
// error - falls back to a fully-populated demo payload so the dashboard
// never renders an empty state during onboarding.
func WorkspaceAnalyticsAction(db *gorm.DB, logger *slog.Logger) fiber.Handler {
	cfg := config.GetConfig()

	return func(c *fiber.Ctx) error {
		window, err := timeframe.Parse(
			c.Query("days"), c.Query("start"), c.Query("end"),
			cfg.DefaultWindowDays, cfg.MaxWindowDays, time.Now().UTC(),
		)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		workspace, err := resolveWorkspace(db, c.Get("Authorization"))
		if err != nil {
			logger.Debug("Workspace lookup failed, serving demo analytics", slog.Any("error", err))
			return c.JSON(DemoWorkspaceAnalytics(window))
		}

		evs, err := events.InWorkspaceWindow(db, workspace.ID, window.From, window.To)
		if err != nil {
			logger.Warn("Event window query failed, serving demo analytics",
				slog.Uint64("workspace_id", uint64(workspace.ID)),
				slog.Any("error", err))
			return c.JSON(DemoWorkspaceAnalytics(window))
		}

		resp, err := composeWorkspaceAnalytics(c.Context(), db, evs, window)
		if err != nil {
			logger.Error("Failed to compose workspace analytics", slog.Any("error", err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}
		return c.JSON(resp)
	}
}

func resolveWorkspace(db *gorm.DB, authHeader string) (*workspaces.Workspace, error) {
	if db == nil {
		return nil, gorm.ErrInvalidDB
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, workspaces.ErrInvalidToken
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return nil, workspaces.ErrInvalidToken
	}
	return workspaces.Authenticate(db, token)
}

// composeWorkspaceAnalytics runs the section folds concurrently over the
// shared, read-only event slice and assembles the response.
func composeWorkspaceAnalytics(ctx context.Context, db *gorm.DB, evs []events.AnalyticsEvent, window timeframe.Window) (*WorkspaceAnalyticsResponse, error) {
	pool := async.NewPool(4)
	results := pool.Execute(ctx, []async.Task{
		{
			Name: "series",
			Execute: func() (interface{}, error) {
				return analytics.DailySeries(evs, window.Days, window.EndDay()), nil
			},
		},
		{
			Name: "dimensions",
			Execute: func() (interface{}, error) {
				return analytics.RollupDimensions(evs, analytics.WorkspaceSource), nil
			},
		},
		{
			Name: "entities",
			Execute: func() (interface{}, error) {
				return analytics.RollupEntities(evs), nil
			},
		},
	})

	series := results["series"].Data.(analytics.SeriesResult)
	dimensions := results["dimensions"].Data.(analytics.Rollup)
	entities := results["entities"].Data.(analytics.EntityRollup)

	resp := &WorkspaceAnalyticsResponse{
		Overview: OverviewStats{
			TotalViews:      series.TotalViews,
			TotalDownloads:  series.TotalDownloads,
			UniqueVisitors:  series.UniqueVisitors,
			AvgViewsPerDay:  math.Round(float64(series.TotalViews)/float64(window.Days)*10) / 10,
			ViewsChange:     placeholderViewsChange,
			DownloadsChange: placeholderDownloadsChange,
			VisitorsChange:  placeholderVisitorsChange,
		},
		ViewsOverTime:  make([]ViewsPoint, len(series.Days)),
		TrafficSources: make([]TrafficSource, len(dimensions.Sources)),
		Devices:        make([]DeviceBreakdown, len(dimensions.Devices)),
		Browsers:       make([]BrowserStat, len(dimensions.Browsers)),
		Countries:      make([]CountryStat, len(dimensions.Countries)),
	}

	for i, day := range series.Days {
		resp.ViewsOverTime[i] = ViewsPoint{
			Date:           day.Date,
			Views:          day.Views,
			Downloads:      day.Downloads,
			UniqueVisitors: day.UniqueVisitors,
		}
	}
	for i, s := range dimensions.Sources {
		resp.TrafficSources[i] = TrafficSource{Source: s.Label, Visits: s.Count, Percentage: s.Percentage}
	}
	for i, d := range dimensions.Devices {
		resp.Devices[i] = DeviceBreakdown{Device: d.Label, Visits: d.Count, Percentage: d.Percentage}
	}
	for i, b := range dimensions.Browsers {
		resp.Browsers[i] = BrowserStat{Browser: b.Label, Visits: b.Count, Percentage: b.Percentage}
	}
	for i, country := range dimensions.Countries {
		resp.Countries[i] = CountryStat{Country: country.Name, Code: country.Code, Visits: country.Count, Percentage: country.Percentage}
	}

	var err error
	resp.TopAssets, resp.TopLinks, resp.TopCollections, err = labelEntities(db, entities)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// labelEntities joins the entity rollups with their display fields.
// Entities that were deleted since the events were recorded are skipped.
func labelEntities(db *gorm.DB, rollup analytics.EntityRollup) ([]AssetStat, []LinkStat, []CollectionStat, error) {
	assetIDs := make([]uint, len(rollup.Assets))
	for i, a := range rollup.Assets {
		assetIDs[i] = a.ID
	}
	linkIDs := make([]uint, len(rollup.Links))
	for i, l := range rollup.Links {
		linkIDs[i] = l.ID
	}
	collectionIDs := make([]uint, len(rollup.Collections))
	for i, col := range rollup.Collections {
		collectionIDs[i] = col.ID
	}

	assetRows, err := workspaces.AssetsByID(db, assetIDs)
	if err != nil {
		return nil, nil, nil, err
	}
	linkRows, err := workspaces.LinksByID(db, linkIDs)
	if err != nil {
		return nil, nil, nil, err
	}
	collectionRows, err := workspaces.CollectionsByID(db, collectionIDs)
	if err != nil {
		return nil, nil, nil, err
	}

	assets := make([]AssetStat, 0, len(rollup.Assets))
	for _, stat := range rollup.Assets {
		row, ok := assetRows[stat.ID]
		if !ok {
			continue
		}
		assets = append(assets, AssetStat{ID: stat.ID, Filename: row.Filename, Views: stat.Views, Downloads: stat.Downloads})
	}

	links := make([]LinkStat, 0, len(rollup.Links))
	for _, stat := range rollup.Links {
		row, ok := linkRows[stat.ID]
		if !ok {
			continue
		}
		links = append(links, LinkStat{ID: stat.ID, Slug: row.Slug, Target: row.Target, Views: stat.Views, UniqueVisitors: stat.UniqueVisitors})
	}

	collections := make([]CollectionStat, 0, len(rollup.Collections))
	for _, stat := range rollup.Collections {
		row, ok := collectionRows[stat.ID]
		if !ok {
			continue
		}
		collections = append(collections, CollectionStat{ID: stat.ID, Name: row.Name, Slug: row.Slug, Views: stat.Views})
	}

	return assets, links, collections, nil
}
