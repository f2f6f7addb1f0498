// Package database owns the SQLite connection and schema migrations.
package database

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pagelink/internal/config"
	"pagelink/internal/documents"
	"pagelink/internal/events"
	"pagelink/internal/workspaces"
)

// Manager wraps the gorm connection with pagelink-specific migration methods.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *gorm.DB
}

// NewManager creates a database manager for the configured SQLite file.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	return &Manager{cfg: cfg, logger: logger}
}

// Init opens the database connection with WAL and a busy timeout.
func (m *Manager) Init() error {
	if err := os.MkdirAll(m.cfg.DatabasePath, 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", m.cfg.DatabaseName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to open database %s: %w", m.cfg.DatabaseName, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(m.cfg.GetMaxOpenConns())
	sqlDB.SetMaxIdleConns(m.cfg.GetMaxIdleConns())
	sqlDB.SetConnMaxLifetime(time.Hour)

	m.db = db
	m.logger.Info("Database connection established", slog.String("path", m.cfg.DatabaseName))
	return nil
}

// GetConnection returns the gorm connection, or nil before Init.
func (m *Manager) GetConnection() *gorm.DB {
	return m.db
}

// MigrateDatabase runs schema migrations in a transaction.
func (m *Manager) MigrateDatabase() error {
	if m.db == nil {
		return gorm.ErrInvalidDB
	}

	err := m.db.Transaction(func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&workspaces.Workspace{},
			&workspaces.Asset{},
			&workspaces.ShortLink{},
			&workspaces.Collection{},
			&documents.Document{},
			&documents.ABTest{},
			&documents.ABVariant{},
			&events.AnalyticsEvent{},
		)
	})
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	m.logger.Info("Database migrations completed")
	return nil
}

// Close closes the underlying connection.
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
