// Package testsupport provides shared helpers for package tests: an
// in-memory sqlite database with all models migrated and builders for
// the fixtures most tests need.
package testsupport

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pagelink/internal/documents"
	"pagelink/internal/events"
	"pagelink/internal/workspaces"
)

// testDBCache caches test databases by root test name so helpers called
// from subtests share the same database.
var (
	testDBCache   = make(map[string]*gorm.DB)
	testDBCacheMu sync.Mutex
)

func allModels() []any {
	return []any{
		&workspaces.Workspace{},
		&workspaces.Asset{},
		&workspaces.ShortLink{},
		&workspaces.Collection{},
		&documents.Document{},
		&documents.ABTest{},
		&documents.ABVariant{},
		&events.AnalyticsEvent{},
	}
}

// SetupTestDB creates a named in-memory database with all models migrated.
// cache=shared lets multiple connections within one test see the same data.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	rootName := t.Name()
	if idx := strings.Index(rootName, "/"); idx > 0 {
		rootName = rootName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitized := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitized, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// GetLogger returns a logger that only surfaces errors.
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CreateTestWorkspace creates a workspace and returns it with a valid
// plaintext API token.
func CreateTestWorkspace(t *testing.T, db *gorm.DB, name string) (workspaces.Workspace, string) {
	t.Helper()

	slug := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	ws := workspaces.Workspace{Name: name, Slug: slug}
	require.NoError(t, db.Create(&ws).Error)

	token, err := workspaces.GenerateAPIToken(db, ws.ID)
	require.NoError(t, err)

	require.NoError(t, db.First(&ws, ws.ID).Error)
	return ws, token
}

// CreateTestDocument creates a document in the given workspace.
func CreateTestDocument(t *testing.T, db *gorm.DB, workspaceID uint, title string) documents.Document {
	t.Helper()

	slug := strings.ToLower(strings.ReplaceAll(title, " ", "-"))
	doc := documents.Document{
		WorkspaceID: workspaceID,
		Title:       title,
		Slug:        slug,
		Kind:        "pitch_deck",
	}
	require.NoError(t, db.Create(&doc).Error)
	return doc
}

// EventOption mutates an event fixture before it is saved.
type EventOption func(*events.AnalyticsEvent)

func WithVisitor(id string) EventOption {
	return func(ev *events.AnalyticsEvent) { ev.VisitorID = &id }
}

func WithReferrer(referrer string) EventOption {
	return func(ev *events.AnalyticsEvent) { ev.Referrer = referrer }
}

func WithUTMSource(source string) EventOption {
	return func(ev *events.AnalyticsEvent) { ev.UTMSource = source }
}

func WithUserAgent(ua string) EventOption {
	return func(ev *events.AnalyticsEvent) { ev.UserAgent = ua }
}

func WithCountry(code, name string) EventOption {
	return func(ev *events.AnalyticsEvent) {
		ev.CountryCode = code
		ev.CountryName = name
	}
}

func WithAsset(id uint) EventOption {
	return func(ev *events.AnalyticsEvent) { ev.AssetID = &id }
}

func WithLink(id uint) EventOption {
	return func(ev *events.AnalyticsEvent) { ev.LinkID = &id }
}

func WithCollection(id uint) EventOption {
	return func(ev *events.AnalyticsEvent) { ev.CollectionID = &id }
}

func WithTimeOnPage(seconds float64) EventOption {
	return func(ev *events.AnalyticsEvent) { ev.TimeOnPage = seconds }
}

func WithScrollDepth(percent float64) EventOption {
	return func(ev *events.AnalyticsEvent) { ev.ScrollDepth = percent }
}

// CreateEvent persists an analytics event for the given document.
func CreateEvent(
	t *testing.T,
	db *gorm.DB,
	workspaceID uint,
	documentID *uint,
	eventType events.Type,
	createdAt time.Time,
	opts ...EventOption,
) events.AnalyticsEvent {
	t.Helper()

	ev := events.AnalyticsEvent{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		DocumentID:  documentID,
		Type:        eventType,
		CreatedAt:   createdAt,
	}
	for _, opt := range opts {
		opt(&ev)
	}
	require.NoError(t, db.Create(&ev).Error)
	return ev
}
