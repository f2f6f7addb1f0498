// Package events defines the analytics event model and window queries.
package events

import (
	"time"
)

// Type is the recorded visitor action. The vocabulary is open: unknown
// values are stored as-is and flow through aggregation as inert rather
// than failing.
type Type string

const (
	TypeView        Type = "view"
	TypeEmbedLoad   Type = "embed_load"
	TypeDownload    Type = "download"
	TypeEngaged     Type = "engaged"
	TypeClick       Type = "click"
	TypeScroll      Type = "scroll"
	TypeConversion  Type = "conversion"
	TypeLeadCapture Type = "lead_capture"
)

// CountsAsView reports whether the event increments view counters.
func (t Type) CountsAsView() bool {
	return t == TypeView || t == TypeEmbedLoad
}

// IsEngagement reports whether the event flips a visitor to engaged.
func (t Type) IsEngagement() bool {
	return t == TypeEngaged || t == TypeClick || t == TypeScroll
}

// IsConversion reports whether the event counts toward the converted
// funnel stage.
func (t Type) IsConversion() bool {
	return t == TypeConversion || t == TypeLeadCapture
}

// UnknownCountry is stored when geo enrichment could not resolve a country.
const UnknownCountry = "unknown"

// AnalyticsEvent is a single recorded visitor action on a hosted document.
// Referrer, user agent and geo fields are stored raw; classification is
// re-derived on every aggregation pass.
type AnalyticsEvent struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	WorkspaceID  uint    `gorm:"index:idx_events_workspace_created;not null" json:"workspace_id"`
	DocumentID   *uint   `gorm:"index:idx_events_document_created" json:"document_id,omitempty"`
	AssetID      *uint   `gorm:"index" json:"asset_id,omitempty"`
	LinkID       *uint   `gorm:"index" json:"link_id,omitempty"`
	CollectionID *uint   `gorm:"index" json:"collection_id,omitempty"`
	VariantID    *uint   `json:"variant_id,omitempty"`
	Type         Type    `gorm:"column:event_type;index;not null" json:"event_type"`
	VisitorID    *string `gorm:"index;size:64" json:"visitor_id,omitempty"`

	Referrer    string `json:"referrer,omitempty"`
	UTMSource   string `json:"utm_source,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
	CountryCode string `gorm:"size:2" json:"country_code,omitempty"`
	CountryName string `json:"country_name,omitempty"`
	City        string `json:"city,omitempty"`

	TimeOnPage  float64 `json:"time_on_page,omitempty"`
	ScrollDepth float64 `json:"scroll_depth,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_events_workspace_created;index:idx_events_document_created" json:"created_at"`
}

// Visitor returns the visitor id and whether one is present.
func (e *AnalyticsEvent) Visitor() (string, bool) {
	if e.VisitorID == nil || *e.VisitorID == "" {
		return "", false
	}
	return *e.VisitorID, true
}
