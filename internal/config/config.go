package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	applog "budget/internal/log"
)

type Config struct {
	// Backend selection
	DataBackend string

	// JSON document store
	DataFile string
	FileLock bool

	// Database
	SQLiteDBPath string

	// Time to wait for another process holding the store lock
	LockTimeout time.Duration

	// Logging
	LogLevel string

	// AMQP (optional, budget alerts)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	cfg := &Config{
		DataBackend: getEnv("DATA_BACKEND", "json"),

		DataFile: getEnv("BUDGET_DATA_FILE", "budget_tracker_data.json"),
		FileLock: getEnvBool("BUDGET_FILE_LOCK", true),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budget.db"),

		LockTimeout: getEnvDuration("LOCK_TIMEOUT", 10*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "warn"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budget"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "budget_alerts"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{"json", "sqlite", "memory"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "json" {
		if c.DataFile == "" {
			errors = append(errors, "data file path cannot be empty when using json backend")
		} else if dir := filepath.Dir(c.DataFile); dir != "." && dir != "" {
			if info, err := os.Stat(dir); err != nil {
				errors = append(errors, fmt.Sprintf("data file directory '%s' is not accessible: %v", dir, err))
			} else if !info.IsDir() {
				errors = append(errors, fmt.Sprintf("data file directory '%s' is not a directory", dir))
			}
		}
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.LockTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid lock timeout %v: must not be negative", c.LockTimeout))
	} else if c.LockTimeout > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid lock timeout %v: must be at most 10 minutes", c.LockTimeout))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
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

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// StorePath returns the file the selected backend persists to, or "" for memory.
func (c *Config) StorePath() string {
	switch c.DataBackend {
	case "json":
		return c.DataFile
	case "sqlite":
		return c.SQLiteDBPath
	default:
		return ""
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
