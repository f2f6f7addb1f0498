package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"pagelink/internal/analytics"
	"pagelink/internal/config"
	"pagelink/internal/documents"
	"pagelink/internal/events"
	"pagelink/internal/pkg/async"
	"pagelink/internal/timeframe"
)

// DocumentAnalyticsResponse is the per-document dashboard payload. Field
// names are part of the frontend contract; do not rename.
type DocumentAnalyticsResponse struct {
	Document        DocumentInfo    `json:"document"`
	Period          PeriodInfo      `json:"period"`
	Summary         DocumentSummary `json:"summary"`
	DailyStats      []DailyStat     `json:"dailyStats"`
	HourlyStats     []HourlyStat    `json:"hourlyStats"`
	ReferrerStats   []ReferrerStat  `json:"referrerStats"`
	GeoStats        []GeoStat       `json:"geoStats"`
	DeviceStats     []DimensionStat `json:"deviceStats"`
	BrowserStats    []DimensionStat `json:"browserStats"`
	EngagementStats EngagementStats `json:"engagementStats"`
	FunnelStats     FunnelStats     `json:"funnelStats"`
}

type DocumentInfo struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type PeriodInfo struct {
	Days  int    `json:"days"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type DocumentSummary struct {
	TotalViews     int      `json:"totalViews"`
	UniqueVisitors int      `json:"uniqueVisitors"`
	TotalDownloads int      `json:"totalDownloads"`
	ViewsTrend     *float64 `json:"viewsTrend"`
	VisitorsTrend  *float64 `json:"visitorsTrend"`
}

type DailyStat struct {
	Date      string `json:"date"`
	Views     int    `json:"views"`
	Downloads int    `json:"downloads"`
	Visitors  int    `json:"visitors"`
}

type HourlyStat struct {
	Hour     int `json:"hour"`
	Views    int `json:"views"`
	Visitors int `json:"visitors"`
}

// ReferrerStat groups by raw referrer hostname, not by the canonical
// labels the workspace dashboard uses. The two schemes are incompatible
// on purpose.
type ReferrerStat struct {
	Source     string `json:"source"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type GeoStat struct {
	Country    string `json:"country"`
	Code       string `json:"code"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type DimensionStat struct {
	Label      string `json:"label"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type EngagementStats struct {
	BounceRate     int     `json:"bounceRate"`
	AvgTimeOnPage  float64 `json:"avgTimeOnPage"`
	AvgScrollDepth float64 `json:"avgScrollDepth"`
}

type FunnelStats struct {
	Stages         []FunnelStage `json:"stages"`
	ConversionRate float64       `json:"conversionRate"`
}

type FunnelStage struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
	Rate  int    `json:"rate"`
}

// DocumentAnalyticsAction serves GET /api/v1/documents/:id/analytics.
// Unlike the workspace endpoint, access control is strict: a bad token is
// 401 (handled by middleware), a missing document 404, someone else's
// document 403. Only event-store failures after authorization fall back
// to demo data.
func DocumentAnalyticsAction(db *gorm.DB, logger *slog.Logger) fiber.Handler {
	cfg := config.GetConfig()

	return func(c *fiber.Ctx) error {
		doc, errResp := authorizeDocument(c, db, logger)
		if errResp != nil {
			return errResp(c)
		}

		window, err := timeframe.Parse(c.Query("days"), "", "", cfg.DefaultWindowDays, cfg.MaxWindowDays, time.Now().UTC())
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		previous := window.Previous()

		// The current and previous period fetches are independent; run
		// them concurrently.
		pool := async.NewPool(2)
		results := pool.Execute(c.Context(), []async.Task{
			{
				Name: "current",
				Execute: func() (interface{}, error) {
					return events.InDocumentWindow(db, doc.ID, window.From, window.To)
				},
			},
			{
				Name: "previous",
				Execute: func() (interface{}, error) {
					return events.InDocumentWindow(db, doc.ID, previous.From, previous.To)
				},
			},
		})

		current := results["current"]
		if current.Err != nil {
			logger.Warn("Event window query failed, serving demo analytics",
				slog.Uint64("document_id", uint64(doc.ID)),
				slog.Any("error", current.Err))
			return c.JSON(DemoDocumentAnalytics(doc, window))
		}
		currentEvents := current.Data.([]events.AnalyticsEvent)

		var previousEvents []events.AnalyticsEvent
		if prev := results["previous"]; prev.Err == nil && prev.Data != nil {
			previousEvents = prev.Data.([]events.AnalyticsEvent)
		}

		return c.JSON(composeDocumentAnalytics(doc, currentEvents, previousEvents, window))
	}
}

func composeDocumentAnalytics(doc *documents.Document, current, previous []events.AnalyticsEvent, window timeframe.Window) *DocumentAnalyticsResponse {
	series := analytics.DailySeries(current, window.Days, window.EndDay())
	hourly := analytics.HourlySeries(current)
	dimensions := analytics.RollupDimensions(current, analytics.DocumentSource)
	engagement := analytics.ComputeEngagement(current)
	funnel := analytics.ComputeFunnel(current)

	prevSeries := analytics.DailySeries(previous, window.Days, window.Previous().EndDay())

	resp := &DocumentAnalyticsResponse{
		Document: DocumentInfo{ID: doc.ID, Title: doc.Title, Slug: doc.Slug},
		Period: PeriodInfo{
			Days:  window.Days,
			Start: window.From.Format(timeframe.DayFormat),
			End:   window.To.Format(timeframe.DayFormat),
		},
		Summary: DocumentSummary{
			TotalViews:     series.TotalViews,
			UniqueVisitors: series.UniqueVisitors,
			TotalDownloads: series.TotalDownloads,
			ViewsTrend:     analytics.Change(series.TotalViews, prevSeries.TotalViews),
			VisitorsTrend:  analytics.Change(series.UniqueVisitors, prevSeries.UniqueVisitors),
		},
		DailyStats:    make([]DailyStat, len(series.Days)),
		HourlyStats:   make([]HourlyStat, len(hourly)),
		ReferrerStats: make([]ReferrerStat, len(dimensions.Sources)),
		GeoStats:      make([]GeoStat, len(dimensions.Countries)),
		DeviceStats:   make([]DimensionStat, len(dimensions.Devices)),
		BrowserStats:  make([]DimensionStat, len(dimensions.Browsers)),
		EngagementStats: EngagementStats{
			BounceRate:     engagement.BounceRate,
			AvgTimeOnPage:  engagement.AvgTimeOnPage,
			AvgScrollDepth: engagement.AvgScrollDepth,
		},
		FunnelStats: FunnelStats{
			Stages:         make([]FunnelStage, len(funnel.Stages)),
			ConversionRate: funnel.ConversionRate,
		},
	}

	for i, day := range series.Days {
		resp.DailyStats[i] = DailyStat{Date: day.Date, Views: day.Views, Downloads: day.Downloads, Visitors: day.UniqueVisitors}
	}
	for i, hour := range hourly {
		resp.HourlyStats[i] = HourlyStat{Hour: hour.Hour, Views: hour.Views, Visitors: hour.UniqueVisitors}
	}
	for i, s := range dimensions.Sources {
		resp.ReferrerStats[i] = ReferrerStat{Source: s.Label, Count: s.Count, Percentage: s.Percentage}
	}
	for i, g := range dimensions.Countries {
		resp.GeoStats[i] = GeoStat{Country: g.Name, Code: g.Code, Count: g.Count, Percentage: g.Percentage}
	}
	for i, d := range dimensions.Devices {
		resp.DeviceStats[i] = DimensionStat{Label: d.Label, Count: d.Count, Percentage: d.Percentage}
	}
	for i, b := range dimensions.Browsers {
		resp.BrowserStats[i] = DimensionStat{Label: b.Label, Count: b.Count, Percentage: b.Percentage}
	}
	for i, stage := range funnel.Stages {
		resp.FunnelStats.Stages[i] = FunnelStage{Stage: stage.Stage, Count: stage.Count, Rate: stage.Rate}
	}

	return resp
}
