// Package geoip resolves visitor IPs to countries using an optional
// GeoLite2 database. When the database file is absent every lookup
// returns zero values and ingestion keeps working.
package geoip

import (
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/oschwald/geoip2-golang"

	"pagelink/internal/config"
)

// Location is the subset of GeoLite2 data ingestion stores on events.
type Location struct {
	CountryCode string
	CountryName string
	City        string
}

// Resolver wraps an optional GeoLite2 reader.
type Resolver struct {
	mu     sync.RWMutex
	reader *geoip2.Reader
	logger *slog.Logger
}

// NewResolver opens the configured GeoLite2 database. A missing or
// unreadable database is not an error; the resolver just stays disabled.
func NewResolver(cfg *config.Config, logger *slog.Logger) *Resolver {
	r := &Resolver{logger: logger}

	if cfg.GeoDBPath == "" {
		logger.Debug("GeoIP database path not configured - geo enrichment disabled")
		return r
	}
	if _, err := os.Stat(cfg.GeoDBPath); os.IsNotExist(err) {
		logger.Info("GeoLite2 database not found - geo enrichment disabled",
			slog.String("path", cfg.GeoDBPath),
			slog.String("hint", "Download from https://www.maxmind.com/en/geolite2/signup"))
		return r
	}

	reader, err := geoip2.Open(cfg.GeoDBPath)
	if err != nil {
		logger.Warn("Failed to open GeoLite2 database - geo enrichment disabled",
			slog.String("path", cfg.GeoDBPath),
			slog.Any("error", err))
		return r
	}

	r.reader = reader
	logger.Info("GeoLite2 database loaded", slog.String("path", cfg.GeoDBPath))
	return r
}

// Enabled reports whether a database is loaded.
func (r *Resolver) Enabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reader != nil
}

// Lookup resolves an IP string to a location. Returns ok=false when the
// resolver is disabled or the IP cannot be resolved.
func (r *Resolver) Lookup(ip string) (Location, bool) {
	r.mu.RLock()
	reader := r.reader
	r.mu.RUnlock()

	if reader == nil {
		return Location{}, false
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return Location{}, false
	}

	record, err := reader.City(parsed)
	if err != nil || record.Country.IsoCode == "" {
		return Location{}, false
	}

	return Location{
		CountryCode: record.Country.IsoCode,
		CountryName: record.Country.Names["en"],
		City:        record.City.Names["en"],
	}, true
}

// Close releases the underlying reader.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reader != nil {
		r.reader.Close()
		r.reader = nil
	}
}
