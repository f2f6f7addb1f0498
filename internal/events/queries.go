package events

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// InWorkspaceWindow fetches all events for a workspace inside [from, to].
// The window is fetched eagerly in one bounded read; aggregation happens
// in memory afterwards.
func InWorkspaceWindow(db *gorm.DB, workspaceID uint, from, to time.Time) ([]AnalyticsEvent, error) {
	var evs []AnalyticsEvent
	err := db.
		Where("workspace_id = ? AND created_at >= ? AND created_at <= ?", workspaceID, from.UTC(), to.UTC()).
		Order("created_at ASC").
		Find(&evs).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching workspace events: %w", err)
	}
	return evs, nil
}

// InDocumentWindow fetches all events for a document inside [from, to].
func InDocumentWindow(db *gorm.DB, documentID uint, from, to time.Time) ([]AnalyticsEvent, error) {
	var evs []AnalyticsEvent
	err := db.
		Where("document_id = ? AND created_at >= ? AND created_at <= ?", documentID, from.UTC(), to.UTC()).
		Order("created_at ASC").
		Find(&evs).Error
	if err != nil {
		return nil, fmt.Errorf("error fetching document events: %w", err)
	}
	return evs, nil
}

// DeleteOlderThan removes events created before the cutoff, in batches so
// the writer lock is not held for long. Returns the number deleted.
func DeleteOlderThan(db *gorm.DB, cutoff time.Time, batchSize int) (int64, error) {
	var total int64
	for {
		res := db.Where("created_at < ?", cutoff.UTC()).Limit(batchSize).Delete(&AnalyticsEvent{})
		if res.Error != nil {
			return total, fmt.Errorf("error deleting old events: %w", res.Error)
		}
		total += res.RowsAffected
		if res.RowsAffected < int64(batchSize) {
			return total, nil
		}
	}
}
