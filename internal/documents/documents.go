// Package documents holds the hosted document model and its A/B test
// settings.
package documents

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is a generated marketing document hosted as a shareable page.
// Content and rendering live in the external frontend; analytics only
// needs identity and ownership.
type Document struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	WorkspaceID uint      `gorm:"index;not null" json:"workspace_id"`
	Title       string    `gorm:"not null" json:"title"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Kind        string    `gorm:"default:'pitch_deck'" json:"kind"` // pitch_deck, memo, proposal
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetByID fetches a document by id.
func GetByID(db *gorm.DB, id uint) (*Document, error) {
	var doc Document
	if err := db.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching document %d: %w", id, err)
	}
	return &doc, nil
}
