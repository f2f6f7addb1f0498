package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"pagelink/internal/documents"
	"pagelink/internal/events"
	pagelinkhttp "pagelink/internal/http"
	"pagelink/internal/http/middleware"
	"pagelink/internal/testsupport"
)

func setupApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := testsupport.SetupTestDB(t)
	logger := testsupport.GetLogger()

	app := fiber.New()
	app.Get("/healthz", pagelinkhttp.HealthAction(db, logger))

	api := app.Group("/api/v1")
	api.Post("/events", pagelinkhttp.IngestEventAction(db, nil, logger))
	api.Get("/analytics", pagelinkhttp.WorkspaceAnalyticsAction(db, logger))

	docs := api.Group("/documents", middleware.WorkspaceAuth(db, logger))
	docs.Get("/:id/analytics", pagelinkhttp.DocumentAnalyticsAction(db, logger))
	docs.Get("/:id/abtest", pagelinkhttp.GetABTestAction(db, logger))
	docs.Post("/:id/abtest", pagelinkhttp.ConfigureABTestAction(db, logger))
	docs.Patch("/:id/abtest/traffic", pagelinkhttp.EditTrafficAction(db, logger))
	docs.Post("/:id/abtest/winner", pagelinkhttp.DeclareWinnerAction(db, logger))

	return app, db
}

func jsonRequest(method, target string, body any) *http.Request {
	var reader io.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody[map[string]any](t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["db_status"])
}

func TestWorkspaceAnalyticsWithRealData(t *testing.T) {
	app, db := setupApp(t)
	ws, token := testsupport.CreateTestWorkspace(t, db, "Acme")
	doc := testsupport.CreateTestDocument(t, db, ws.ID, "Pitch Deck")

	now := time.Now().UTC()
	testsupport.CreateEvent(t, db, ws.ID, &doc.ID, events.TypeView, now.Add(-time.Hour),
		testsupport.WithVisitor("v1"),
		testsupport.WithReferrer("https://www.google.com/search"),
		testsupport.WithUserAgent("Mozilla/5.0 (Windows NT 10.0) Chrome/120.0.0.0 Safari/537.36"),
		testsupport.WithCountry("US", "United States"))
	testsupport.CreateEvent(t, db, ws.ID, &doc.ID, events.TypeDownload, now.Add(-2*time.Hour),
		testsupport.WithVisitor("v1"))

	req := httptest.NewRequest("GET", "/api/v1/analytics?days=7", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody[pagelinkhttp.WorkspaceAnalyticsResponse](t, resp)

	assert.Equal(t, 1, body.Overview.TotalViews)
	assert.Equal(t, 1, body.Overview.TotalDownloads)
	assert.Equal(t, 1, body.Overview.UniqueVisitors)
	require.Len(t, body.ViewsOverTime, 7)

	require.Len(t, body.TrafficSources, 1)
	assert.Equal(t, "Google", body.TrafficSources[0].Source)
	require.Len(t, body.Countries, 1)
	assert.Equal(t, "United States", body.Countries[0].Country)
}

func TestWorkspaceAnalyticsFallsBackToDemo(t *testing.T) {
	app, _ := setupApp(t)

	tests := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"garbage token", "Bearer not-a-real-token"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/analytics?days=14", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", tc.token)
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			// demo fallback, never 401
			require.Equal(t, fiber.StatusOK, resp.StatusCode)

			body := decodeBody[pagelinkhttp.WorkspaceAnalyticsResponse](t, resp)
			assert.Len(t, body.ViewsOverTime, 14)
			assert.NotEmpty(t, body.TrafficSources)
			assert.Positive(t, body.Overview.TotalViews)
		})
	}
}

func TestWorkspaceAnalyticsRejectsBadWindow(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest("GET", "/api/v1/analytics?days=abc", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDocumentAnalyticsAuthorization(t *testing.T) {
	app, db := setupApp(t)
	ws, token := testsupport.CreateTestWorkspace(t, db, "Acme")
	doc := testsupport.CreateTestDocument(t, db, ws.ID, "Pitch Deck")
	_, otherToken := testsupport.CreateTestWorkspace(t, db, "Rival")

	tests := []struct {
		name     string
		target   string
		token    string
		expected int
	}{
		{"no token", fmt.Sprintf("/api/v1/documents/%d/analytics", doc.ID), "", fiber.StatusUnauthorized},
		{"invalid token", fmt.Sprintf("/api/v1/documents/%d/analytics", doc.ID), "bogus", fiber.StatusUnauthorized},
		{"foreign document", fmt.Sprintf("/api/v1/documents/%d/analytics", doc.ID), otherToken, fiber.StatusForbidden},
		{"missing document", "/api/v1/documents/99999/analytics", token, fiber.StatusNotFound},
		{"non-numeric id", "/api/v1/documents/abc/analytics", token, fiber.StatusNotFound},
		{"owner", fmt.Sprintf("/api/v1/documents/%d/analytics", doc.ID), token, fiber.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.target, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, resp.StatusCode)
		})
	}
}

func TestDocumentAnalyticsPayload(t *testing.T) {
	app, db := setupApp(t)
	ws, token := testsupport.CreateTestWorkspace(t, db, "Acme")
	doc := testsupport.CreateTestDocument(t, db, ws.ID, "Pitch Deck")

	now := time.Now().UTC()
	testsupport.CreateEvent(t, db, ws.ID, &doc.ID, events.TypeView, now.Add(-time.Hour),
		testsupport.WithVisitor("v1"),
		testsupport.WithReferrer("https://www.google.com/search"),
		testsupport.WithTimeOnPage(90))
	testsupport.CreateEvent(t, db, ws.ID, &doc.ID, events.TypeScroll, now.Add(-50*time.Minute),
		testsupport.WithVisitor("v1"),
		testsupport.WithScrollDepth(75))
	testsupport.CreateEvent(t, db, ws.ID, &doc.ID, events.TypeView, now.Add(-30*time.Minute),
		testsupport.WithVisitor("v2"))

	req := httptest.NewRequest("GET", fmt.Sprintf("/api/v1/documents/%d/analytics?days=7", doc.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody[pagelinkhttp.DocumentAnalyticsResponse](t, resp)

	assert.Equal(t, doc.ID, body.Document.ID)
	assert.Equal(t, "Pitch Deck", body.Document.Title)
	assert.Equal(t, 7, body.Period.Days)

	assert.Equal(t, 2, body.Summary.TotalViews)
	assert.Equal(t, 2, body.Summary.UniqueVisitors)
	// no previous-period data, so trends are null
	assert.Nil(t, body.Summary.ViewsTrend)
	assert.Nil(t, body.Summary.VisitorsTrend)

	require.Len(t, body.DailyStats, 7)
	require.Len(t, body.HourlyStats, 24)

	// per-document referrers are raw hostnames
	require.NotEmpty(t, body.ReferrerStats)
	labels := make([]string, 0, len(body.ReferrerStats))
	for _, r := range body.ReferrerStats {
		labels = append(labels, r.Source)
	}
	assert.Contains(t, labels, "www.google.com")
	assert.Contains(t, labels, "direct")

	// v1 engaged via scroll, v2 bounced: round((1 - 1/2) * 100) = 50
	assert.Equal(t, 50, body.EngagementStats.BounceRate)
	assert.Equal(t, 90.0, body.EngagementStats.AvgTimeOnPage)
	assert.Equal(t, 75.0, body.EngagementStats.AvgScrollDepth)

	require.Len(t, body.FunnelStats.Stages, 4)
	assert.Equal(t, "visited", body.FunnelStats.Stages[0].Stage)
	assert.Equal(t, 2, body.FunnelStats.Stages[0].Count)
}

func TestDocumentAnalyticsTrends(t *testing.T) {
	app, db := setupApp(t)
	ws, token := testsupport.CreateTestWorkspace(t, db, "Acme")
	doc := testsupport.CreateTestDocument(t, db, ws.ID, "Pitch Deck")

	now := time.Now().UTC()
	// 3 views this period, 2 in the previous one
	for i := 0; i < 3; i++ {
		testsupport.CreateEvent(t, db, ws.ID, &doc.ID, events.TypeView, now.Add(-time.Duration(i+1)*time.Hour),
			testsupport.WithVisitor(fmt.Sprintf("v%d", i)))
	}
	for i := 0; i < 2; i++ {
		testsupport.CreateEvent(t, db, ws.ID, &doc.ID, events.TypeView, now.AddDate(0, 0, -8).Add(-time.Duration(i)*time.Hour),
			testsupport.WithVisitor(fmt.Sprintf("p%d", i)))
	}

	req := httptest.NewRequest("GET", fmt.Sprintf("/api/v1/documents/%d/analytics?days=7", doc.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody[pagelinkhttp.DocumentAnalyticsResponse](t, resp)

	require.NotNil(t, body.Summary.ViewsTrend)
	assert.Equal(t, 50.0, *body.Summary.ViewsTrend)
	require.NotNil(t, body.Summary.VisitorsTrend)
	assert.Equal(t, 50.0, *body.Summary.VisitorsTrend)
}

func TestABTestLifecycle(t *testing.T) {
	app, db := setupApp(t)
	ws, token := testsupport.CreateTestWorkspace(t, db, "Acme")
	doc := testsupport.CreateTestDocument(t, db, ws.ID, "Pitch Deck")
	base := fmt.Sprintf("/api/v1/documents/%d/abtest", doc.ID)

	authed := func(req *http.Request) *http.Request {
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	t.Run("unconfigured is a valid state", func(t *testing.T) {
		resp, err := app.Test(authed(httptest.NewRequest("GET", base, nil)), -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody[pagelinkhttp.ABTestResponse](t, resp)
		assert.Equal(t, documents.TestStateNotConfigured, body.State)
		assert.Empty(t, body.Variants)
	})

	var variantID uint

	t.Run("configure splits traffic equally", func(t *testing.T) {
		req := authed(jsonRequest("POST", base, map[string]any{
			"variants": []string{"Original", "Short Intro", "Long Form"},
		}))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		body := decodeBody[pagelinkhttp.ABTestResponse](t, resp)
		assert.Equal(t, documents.TestStateRunning, body.State)
		require.Len(t, body.Variants, 3)
		assert.Equal(t, 34, body.Variants[0].TrafficPercent)
		assert.Equal(t, 33, body.Variants[1].TrafficPercent)
		assert.Equal(t, 33, body.Variants[2].TrafficPercent)
		assert.Zero(t, body.Confidence)

		variantID = body.Variants[0].ID
	})

	t.Run("traffic edit clamps and rebalances", func(t *testing.T) {
		req := authed(jsonRequest("PATCH", base+"/traffic", map[string]any{
			"variant_id": variantID,
			"percent":    150,
		}))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody[pagelinkhttp.ABTestResponse](t, resp)
		assert.Equal(t, 100, body.Variants[0].TrafficPercent)
		assert.Equal(t, 0, body.Variants[1].TrafficPercent)
		assert.Equal(t, 0, body.Variants[2].TrafficPercent)
	})

	t.Run("unknown variant in traffic edit", func(t *testing.T) {
		req := authed(jsonRequest("PATCH", base+"/traffic", map[string]any{
			"variant_id": 99999,
			"percent":    50,
		}))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("declare winner concludes", func(t *testing.T) {
		req := authed(jsonRequest("POST", base+"/winner", map[string]any{
			"variant_id": variantID,
		}))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		body := decodeBody[pagelinkhttp.ABTestResponse](t, resp)
		assert.Equal(t, documents.TestStateConcluded, body.State)
		require.NotNil(t, body.WinnerVariantID)
		assert.Equal(t, variantID, *body.WinnerVariantID)
	})

	t.Run("concluded test rejects further mutation", func(t *testing.T) {
		req := authed(jsonRequest("POST", base+"/winner", map[string]any{
			"variant_id": variantID,
		}))
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

		req = authed(jsonRequest("POST", base, map[string]any{
			"variants": []string{"A", "B"},
		}))
		resp, err = app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})
}

func TestIngestEvent(t *testing.T) {
	app, db := setupApp(t)
	ws, _ := testsupport.CreateTestWorkspace(t, db, "Acme")
	doc := testsupport.CreateTestDocument(t, db, ws.ID, "Pitch Deck")

	t.Run("stores the event", func(t *testing.T) {
		req := jsonRequest("POST", "/api/v1/events", map[string]any{
			"workspace_id": ws.ID,
			"document_id":  doc.ID,
			"event_type":   "view",
			"visitor_id":   "v1",
			"referrer":     "https://t.co/abc",
		})
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		body := decodeBody[map[string]string](t, resp)
		require.NotEmpty(t, body["id"])

		var stored events.AnalyticsEvent
		require.NoError(t, db.First(&stored, "id = ?", body["id"]).Error)
		assert.Equal(t, events.TypeView, stored.Type)
		assert.Equal(t, ws.ID, stored.WorkspaceID)
	})

	t.Run("falls back to request headers", func(t *testing.T) {
		req := jsonRequest("POST", "/api/v1/events", map[string]any{
			"workspace_id": ws.ID,
			"event_type":   "view",
		})
		req.Header.Set("Referer", "https://www.linkedin.com/feed/")
		req.Header.Set("User-Agent", "test-agent")

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		body := decodeBody[map[string]string](t, resp)
		var stored events.AnalyticsEvent
		require.NoError(t, db.First(&stored, "id = ?", body["id"]).Error)
		assert.Equal(t, "https://www.linkedin.com/feed/", stored.Referrer)
		assert.Equal(t, "test-agent", stored.UserAgent)
	})

	t.Run("unknown event types are accepted", func(t *testing.T) {
		req := jsonRequest("POST", "/api/v1/events", map[string]any{
			"workspace_id": ws.ID,
			"event_type":   "heartbeat",
		})
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	})

	t.Run("validates required fields", func(t *testing.T) {
		resp, err := app.Test(jsonRequest("POST", "/api/v1/events", map[string]any{
			"event_type": "view",
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

		resp, err = app.Test(jsonRequest("POST", "/api/v1/events", map[string]any{
			"workspace_id": ws.ID,
		}), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("updates variant counters", func(t *testing.T) {
		test, err := documents.ConfigureVariants(db, doc.ID, []string{"A", "B"})
		require.NoError(t, err)
		variantID := test.Variants[0].ID

		for _, eventType := range []string{"view", "conversion"} {
			resp, err := app.Test(jsonRequest("POST", "/api/v1/events", map[string]any{
				"workspace_id": ws.ID,
				"document_id":  doc.ID,
				"variant_id":   variantID,
				"event_type":   eventType,
			}), -1)
			require.NoError(t, err)
			require.Equal(t, fiber.StatusCreated, resp.StatusCode)
		}

		reloaded, err := documents.GetTest(db, doc.ID)
		require.NoError(t, err)
		for _, v := range reloaded.Variants {
			if v.ID == variantID {
				assert.Equal(t, 1, v.Views)
				assert.Equal(t, 1, v.Conversions)
			}
		}
	})
}
