package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Gateway
	APIBaseURL  string
	HTTPTimeout time.Duration
	MaxRetries  int

	// Session
	SessionFile string

	// Offline snapshot
	SnapshotDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sync worker
	SyncInterval time.Duration
	SyncLimit    int

	// Export
	ExportDir           string
	GoogleSpreadsheetID string
}

func Load() *Config {
	cfg := &Config{
		APIBaseURL:  getEnv("MUNIMJI_API_URL", "http://localhost:8000"),
		HTTPTimeout: getEnvDuration("MUNIMJI_HTTP_TIMEOUT", 15*time.Second),
		MaxRetries:  getEnvInt("MUNIMJI_MAX_RETRIES", 2),

		SessionFile: getEnv("MUNIMJI_SESSION_FILE", ""),

		SnapshotDBPath: getEnv("MUNIMJI_SNAPSHOT_DB_PATH", "./data/munimji.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "munimji"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_updates"),

		SyncInterval: getEnvDuration("SYNC_INTERVAL", 5*time.Minute),
		SyncLimit:    getEnvInt("SYNC_LIMIT", 500),

		ExportDir:           getEnv("MUNIMJI_EXPORT_DIR", "."),
		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if parsed, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	} else if parsed.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': missing host", c.APIBaseURL))
	}

	if c.HTTPTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	} else if c.HTTPTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at most 5 minutes", c.HTTPTimeout))
	}

	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		errors = append(errors, fmt.Sprintf("invalid max retries %d: must be between 0 and 10", c.MaxRetries))
	}

	if c.SnapshotDBPath == "" {
		errors = append(errors, "snapshot database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SnapshotDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create snapshot database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.SyncLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync limit %d: must be at least 1", c.SyncLimit))
	} else if c.SyncLimit > 10000 {
		errors = append(errors, fmt.Sprintf("invalid sync limit %d: must be at most 10000", c.SyncLimit))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
