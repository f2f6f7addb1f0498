// Package seeder populates a fresh install with a demo workspace and a
// realistic spread of analytics events so the dashboards have something
// to show before any real traffic arrives.
package seeder

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pagelink/internal/documents"
	"pagelink/internal/events"
	"pagelink/internal/workspaces"
)

const (
	demoWorkspaceName = "Demo Workspace"
	demoVisitorPool   = 120
	demoSessions      = 400
)

// Seed creates the demo workspace with documents, assets, links and
// collections, then generates visitor sessions across the last 30 days.
// It is idempotent: if the demo workspace already exists it does nothing.
func Seed(db *gorm.DB, logger *slog.Logger) error {
	start := time.Now()

	var existing workspaces.Workspace
	err := db.Where("name = ?", demoWorkspaceName).First(&existing).Error
	if err == nil {
		logger.Info("Demo workspace already seeded", slog.Uint64("workspaceId", uint64(existing.ID)))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for demo workspace: %w", err)
	}

	logger.Info("Seeding demo workspace...")

	ws, token, err := seedWorkspace(db)
	if err != nil {
		return err
	}
	logger.Info("Demo workspace created",
		slog.Uint64("workspaceId", uint64(ws.ID)),
		slog.String("apiToken", token))

	docs, err := seedDocuments(db, ws.ID)
	if err != nil {
		return err
	}
	if err := seedCatalog(db, ws.ID); err != nil {
		return err
	}
	if err := seedABTest(db, docs[0].ID); err != nil {
		return err
	}

	created, err := generateSessions(db, ws.ID, docs)
	if err != nil {
		return err
	}

	logger.Info("Seeding completed",
		slog.Int("events", created),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func seedWorkspace(db *gorm.DB) (*workspaces.Workspace, string, error) {
	ws := workspaces.Workspace{Name: demoWorkspaceName, Slug: "demo-workspace"}
	if err := db.Create(&ws).Error; err != nil {
		return nil, "", fmt.Errorf("failed to create demo workspace: %w", err)
	}

	token, err := workspaces.GenerateAPIToken(db, ws.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate demo API token: %w", err)
	}
	return &ws, token, nil
}

func seedDocuments(db *gorm.DB, workspaceID uint) ([]documents.Document, error) {
	docs := []documents.Document{
		{WorkspaceID: workspaceID, Title: "Series A Pitch Deck", Slug: "series-a-pitch-deck", Kind: "pitch_deck"},
		{WorkspaceID: workspaceID, Title: "Product One-Pager", Slug: "product-one-pager", Kind: "one_pager"},
		{WorkspaceID: workspaceID, Title: "Q3 Case Study", Slug: "q3-case-study", Kind: "case_study"},
	}
	for i := range docs {
		if err := db.Create(&docs[i]).Error; err != nil {
			return nil, fmt.Errorf("failed to create demo document %s: %w", docs[i].Slug, err)
		}
	}
	return docs, nil
}

func seedCatalog(db *gorm.DB, workspaceID uint) error {
	assets := []workspaces.Asset{
		{WorkspaceID: workspaceID, Filename: "Whitepaper.pdf"},
		{WorkspaceID: workspaceID, Filename: "Pricing Sheet.pdf"},
	}
	for i := range assets {
		if err := db.Create(&assets[i]).Error; err != nil {
			return fmt.Errorf("failed to create demo asset: %w", err)
		}
	}

	links := []workspaces.ShortLink{
		{WorkspaceID: workspaceID, Slug: "launch", Target: "https://example.com/launch"},
		{WorkspaceID: workspaceID, Slug: "demo", Target: "https://example.com/book-demo"},
	}
	for i := range links {
		if err := db.Create(&links[i]).Error; err != nil {
			return fmt.Errorf("failed to create demo link: %w", err)
		}
	}

	collections := []workspaces.Collection{
		{WorkspaceID: workspaceID, Name: "Investor Pack", Slug: "investor-pack"},
	}
	for i := range collections {
		if err := db.Create(&collections[i]).Error; err != nil {
			return fmt.Errorf("failed to create demo collection: %w", err)
		}
	}
	return nil
}

func seedABTest(db *gorm.DB, documentID uint) error {
	_, err := documents.ConfigureVariants(db, documentID, []string{"Original", "Short Intro"})
	if err != nil {
		return fmt.Errorf("failed to configure demo A/B test: %w", err)
	}
	return nil
}

// generateSessions creates visitor journeys: each session picks a visitor,
// a document, an entry referrer and a handful of events spread over a few
// minutes, with timestamps scattered across the last 30 days.
func generateSessions(db *gorm.DB, workspaceID uint, docs []documents.Document) (int, error) {
	visitors := make([]string, demoVisitorPool)
	for i := range visitors {
		visitors[i] = uuid.NewString()
	}

	userAgents := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/605.1",
		"Mozilla/5.0 (iPad; CPU OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Mobile/15E148 Safari/605.1",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
		"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0",
	}

	referrers := []string{
		"", // direct visit
		"https://www.google.com/search?q=pitch+deck",
		"https://t.co/abc123",
		"https://www.linkedin.com/feed/",
		"https://www.facebook.com/",
		"https://partner-blog.example.net/post",
	}

	countries := []struct {
		code string
		name string
	}{
		{"US", "United States"},
		{"GB", "United Kingdom"},
		{"DE", "Germany"},
		{"FR", "France"},
		{"IN", "India"},
		{"", ""}, // unresolved
	}

	created := 0
	now := time.Now().UTC()

	for session := 0; session < demoSessions; session++ {
		visitor := visitors[rand.Intn(len(visitors))]
		doc := docs[rand.Intn(len(docs))]
		ua := userAgents[rand.Intn(len(userAgents))]
		referrer := referrers[rand.Intn(len(referrers))]
		country := countries[rand.Intn(len(countries))]

		baseTime := now.Add(-time.Duration(rand.Intn(30*24*60*60)) * time.Second)

		sessionEvents := []events.Type{events.TypeView}
		if rand.Float64() < 0.6 {
			sessionEvents = append(sessionEvents, events.TypeScroll)
		}
		if rand.Float64() < 0.4 {
			sessionEvents = append(sessionEvents, events.TypeEngaged)
		}
		if rand.Float64() < 0.15 {
			sessionEvents = append(sessionEvents, events.TypeDownload)
		}
		if rand.Float64() < 0.08 {
			sessionEvents = append(sessionEvents, events.TypeConversion)
		}

		for i, eventType := range sessionEvents {
			ev := events.AnalyticsEvent{
				ID:          uuid.NewString(),
				WorkspaceID: workspaceID,
				DocumentID:  &doc.ID,
				Type:        eventType,
				VisitorID:   &visitor,
				Referrer:    referrer,
				UserAgent:   ua,
				CountryCode: country.code,
				CountryName: country.name,
				CreatedAt:   baseTime.Add(time.Duration(i*20+rand.Intn(40)) * time.Second),
			}
			if eventType == events.TypeView {
				ev.TimeOnPage = float64(rand.Intn(280) + 20)
			}
			if eventType == events.TypeScroll {
				ev.ScrollDepth = float64(rand.Intn(80) + 20)
			}
			if err := db.Create(&ev).Error; err != nil {
				return created, fmt.Errorf("failed to create demo event: %w", err)
			}
			created++
		}

		// keep the UTM path exercised for a slice of sessions
		if rand.Float64() < 0.1 {
			ev := events.AnalyticsEvent{
				ID:          uuid.NewString(),
				WorkspaceID: workspaceID,
				DocumentID:  &doc.ID,
				Type:        events.TypeView,
				VisitorID:   &visitor,
				UTMSource:   "newsletter",
				UserAgent:   ua,
				CountryCode: country.code,
				CountryName: country.name,
				CreatedAt:   baseTime.Add(5 * time.Minute),
			}
			if err := db.Create(&ev).Error; err != nil {
				return created, fmt.Errorf("failed to create demo event: %w", err)
			}
			created++
		}
	}

	return created, nil
}
