package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the journal service.
// Environment variables are automatically parsed from the JOURNAL_ prefix.
type Config struct {
	// Build target selects high-level environment: local, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// DBDriver is "sqlite", "postgres", or "auto" (derived from BuildTarget)
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// SQLite Configuration
	SQLitePath string `envconfig:"SQLITE_PATH" default:"./data/journal.db"`

	// Postgres Configuration
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// DefaultTimeZone is assigned to users who register without one.
	DefaultTimeZone string `envconfig:"DEFAULT_TIME_ZONE" default:"UTC"`

	// DatePollSeconds is how often the date watcher checks for a local
	// calendar-date change.
	DatePollSeconds int `envconfig:"DATE_POLL_SECONDS" default:"60"`

	// ActiveUserWindowDays scopes rollover work to recently seen users.
	ActiveUserWindowDays int `envconfig:"ACTIVE_USER_WINDOW_DAYS" default:"14"`

	// Reply provider Configuration: "ark" or "rest"
	ReplyProvider string `envconfig:"REPLY_PROVIDER" default:"rest"`

	ArkAPIKey  string `envconfig:"ARK_API_KEY" default:""`
	ArkModel   string `envconfig:"ARK_MODEL" default:""`
	ArkBaseURL string `envconfig:"ARK_BASE_URL" default:""`

	GenAPIKey  string `envconfig:"GEN_API_KEY" default:""`
	GenModel   string `envconfig:"GEN_MODEL" default:"gemini-1.5-flash"`
	GenBaseURL string `envconfig:"GEN_BASE_URL" default:""`

	ReplyTimeoutSeconds int `envconfig:"REPLY_TIMEOUT_SECONDS" default:"30"`

	// Health probe intervals
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"15"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set
// to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = "sqlite"
	case "cloud":
		defaultDB = "postgres"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}
	allowedDB := map[string]bool{"sqlite": true, "postgres": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("JOURNAL_POSTGRES_DSN is required with the postgres driver")
	}

	allowedProvider := map[string]bool{"ark": true, "rest": true}
	if !allowedProvider[c.ReplyProvider] {
		return fmt.Errorf("unsupported REPLY_PROVIDER: %s", c.ReplyProvider)
	}
	if c.DatePollSeconds <= 0 {
		c.DatePollSeconds = 60
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// Environment variables should be prefixed with JOURNAL_
// Example: JOURNAL_HTTP_PORT, JOURNAL_DB_DRIVER.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("JOURNAL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("port", cfg.HTTPPort).
		Str("reply_provider", cfg.ReplyProvider).
		Str("default_time_zone", cfg.DefaultTimeZone).
		Int("date_poll_seconds", cfg.DatePollSeconds).
		Msg("configuration loaded")

	return &cfg, nil
}
