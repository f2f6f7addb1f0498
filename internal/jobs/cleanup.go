package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"pagelink/internal/config"
	"pagelink/internal/database"
	"pagelink/internal/events"
)

const cleanupBatchSize = 1000

// CleanupJob removes analytics events older than the configured retention window.
type CleanupJob struct {
	dbManager *database.Manager
	logger    *slog.Logger
	cfg       *config.Config
}

func NewCleanupJob(dbManager *database.Manager, logger *slog.Logger, cfg *config.Config) *CleanupJob {
	return &CleanupJob{
		dbManager: dbManager,
		logger:    logger,
		cfg:       cfg,
	}
}

func (j *CleanupJob) Run() error {
	if j.cfg.EventsRetentionDays <= 0 {
		return nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -j.cfg.EventsRetentionDays)
	deleted, err := events.DeleteOlderThan(j.dbManager.GetConnection(), cutoff, cleanupBatchSize)
	if err != nil {
		return fmt.Errorf("failed to delete expired events: %w", err)
	}

	if deleted > 0 {
		j.logger.Info("Deleted expired analytics events",
			slog.Int64("count", deleted),
			slog.Time("cutoff", cutoff))
	}

	return nil
}
