// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`

	// File paths
	DatabasePath string `mapstructure:"storagepath"`
	DatabaseName string `mapstructure:"-"` // Derived from other settings
	GeoDBPath    string `mapstructure:"geodbpath"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseMaxOpenConns int `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int `mapstructure:"dbmaxidleconns"`

	// Analytics settings
	DefaultWindowDays int `mapstructure:"defaultwindowdays"`
	MaxWindowDays     int `mapstructure:"maxwindowdays"`

	// Job scheduling settings
	JobIntervalSeconds int `mapstructure:"jobintervalseconds"`

	// Data retention settings
	EventsRetentionDays int `mapstructure:"eventsretentiondays"`

	// Development helpers
	SeedDemoData bool `mapstructure:"seeddemodata"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()

		// Set defaults
		v.SetDefault("appname", "pagelink")
		v.SetDefault("appport", "3000")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelDebug))
		v.SetDefault("storagepath", "storage")
		v.SetDefault("geodbpath", "storage/GeoLite2-City.mmdb")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("dbmaxopenconns", 0)
		v.SetDefault("dbmaxidleconns", 0)
		v.SetDefault("defaultwindowdays", 30)
		v.SetDefault("maxwindowdays", 365)
		v.SetDefault("jobintervalseconds", 60)
		v.SetDefault("eventsretentiondays", 90)
		v.SetDefault("seeddemodata", false)

		// Bind environment variables
		v.BindEnv("appname", "PAGELINK_APP_NAME")
		v.BindEnv("appport", "PAGELINK_APP_PORT")
		v.BindEnv("environment", "PAGELINK_ENV")
		v.BindEnv("loglevel", "PAGELINK_LOG_LEVEL")
		v.BindEnv("storagepath", "PAGELINK_STORAGE_PATH")
		v.BindEnv("geodbpath", "PAGELINK_GEO_DB_PATH")
		v.BindEnv("logsdir", "PAGELINK_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "PAGELINK_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "PAGELINK_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "PAGELINK_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("dbmaxopenconns", "PAGELINK_DB_MAX_OPEN_CONNS")
		v.BindEnv("dbmaxidleconns", "PAGELINK_DB_MAX_IDLE_CONNS")
		v.BindEnv("defaultwindowdays", "PAGELINK_DEFAULT_WINDOW_DAYS")
		v.BindEnv("maxwindowdays", "PAGELINK_MAX_WINDOW_DAYS")
		v.BindEnv("jobintervalseconds", "PAGELINK_JOB_INTERVAL_SECONDS")
		v.BindEnv("eventsretentiondays", "PAGELINK_EVENTS_RETENTION_DAYS")
		v.BindEnv("seeddemodata", "PAGELINK_SEED_DEMO_DATA")

		c := &Config{}
		if err := v.Unmarshal(c); err != nil {
			log.Fatalf("failed to unmarshal config: %v", err)
		}

		c.DatabaseName = filepath.Join(c.DatabasePath, fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))

		cfg = c
	})

	return cfg
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true when running in the test environment
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetMaxOpenConns returns the configured max open connections, or the
// SQLite-friendly default of a single writer connection when unset.
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}
	return 1
}

// GetMaxIdleConns returns the configured max idle connections
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}
	return 1
}
