package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/eduvoice/dubsession/pkg/log"
	"github.com/robfig/cron/v3"
)

// Config holds all service configuration.
// Values come from environment variables with sensible defaults.
//
// Environment Variables:
// Backend Configuration:
// - BACKEND_API_URL: Base URL of the e-learning platform backend (required)
// - BACKEND_API_TOKEN: Bearer token attached to backend calls (optional)
// - BACKEND_TIMEOUT: Per-request timeout in seconds (default: 15)
//
// Dubbing Configuration:
// - DUB_POLL_INTERVAL: Seconds between job status checks (default: 5)
// - DUB_POLL_TIMEOUT: Max seconds to wait for a dubbing job (default: 600)
//
// HTTP Configuration:
// - HTTP_ADDR: Listen address for the UI-facing API (default: :8085)
// - UI_STATIC_DIR: Directory of built UI assets (optional)
// - UI_ENABLED: Serve static UI assets (default: false)
//
// Maintenance Configuration:
// - MAINTENANCE_CRON: Schedule for history pruning and availability re-sync
//   (default: "13 3 * * *")
// - HISTORY_RETENTION_DAYS: Days of dubbing history to keep (default: 30)
//
// System Configuration:
// - DB_PATH: SQLite path for the dubbing history ledger (default: /app/data/dubsession.db)
// - LOG_LEVEL: debug|info|warn|error (default: info)

type Config struct {
	Backend     BackendConfig     `json:"backend"`
	Dubbing     DubbingConfig     `json:"dubbing"`
	HTTP        HTTPConfig        `json:"http"`
	Maintenance MaintenanceConfig `json:"maintenance"`
	System      SystemConfig      `json:"system"`
}

// BackendConfig holds the connection settings for the platform backend.
type BackendConfig struct {
	APIURL   string `json:"api_url"`
	APIToken string `json:"api_token"`
	Timeout  int    `json:"timeout"`
}

// DubbingConfig bounds the job status poll loop.
type DubbingConfig struct {
	PollInterval time.Duration `json:"poll_interval"`
	PollTimeout  time.Duration `json:"poll_timeout"`
}

type HTTPConfig struct {
	Addr        string `json:"addr"`
	UIStaticDir string `json:"ui_static_dir"`
	UIEnabled   bool   `json:"ui_enabled"`
}

type MaintenanceConfig struct {
	CronExpr      string `json:"cron_expr"`
	RetentionDays int    `json:"retention_days"`
}

type SystemConfig struct {
	DBPath   string `json:"db_path"`
	LogLevel string `json:"log_level"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Backend: BackendConfig{
			APIURL:   getEnvString("BACKEND_API_URL", ""),
			APIToken: getEnvString("BACKEND_API_TOKEN", ""),
			Timeout:  getEnvInt("BACKEND_TIMEOUT", 15),
		},
		Dubbing: DubbingConfig{
			PollInterval: time.Duration(getEnvInt("DUB_POLL_INTERVAL", 5)) * time.Second,
			PollTimeout:  time.Duration(getEnvInt("DUB_POLL_TIMEOUT", 600)) * time.Second,
		},
		HTTP: HTTPConfig{
			Addr:        getEnvString("HTTP_ADDR", ":8085"),
			UIStaticDir: getEnvString("UI_STATIC_DIR", ""),
			UIEnabled:   getEnvBool("UI_ENABLED", false),
		},
		Maintenance: MaintenanceConfig{
			CronExpr:      getEnvString("MAINTENANCE_CRON", "13 3 * * *"),
			RetentionDays: getEnvInt("HISTORY_RETENTION_DAYS", 30),
		},
		System: SystemConfig{
			DBPath:   getEnvString("DB_PATH", "/app/data/dubsession.db"),
			LogLevel: getEnvString("LOG_LEVEL", "info"),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Debug("Config: %+v", config)
	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Backend.APIURL == "" {
		return fmt.Errorf("BACKEND_API_URL is required")
	}
	if c.Dubbing.PollInterval <= 0 {
		return fmt.Errorf("DUB_POLL_INTERVAL must be positive")
	}
	if c.Dubbing.PollTimeout <= c.Dubbing.PollInterval {
		return fmt.Errorf("DUB_POLL_TIMEOUT must exceed DUB_POLL_INTERVAL")
	}
	if _, err := cron.ParseStandard(c.Maintenance.CronExpr); err != nil {
		return fmt.Errorf("invalid MAINTENANCE_CRON: %w", err)
	}
	if c.Maintenance.RetentionDays <= 0 {
		return fmt.Errorf("HISTORY_RETENTION_DAYS must be positive")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Warn("Invalid integer for %s: %q, using default %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool gets a boolean value from environment variables with default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Warn("Invalid boolean for %s: %q, using default %v", key, value, defaultValue)
	}
	return defaultValue
}
