package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Database
	SQLiteDBPath string

	// AMQP (empty URL disables month events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Reports
	ForecastHorizon  int
	ForecastWindow   int
	ForecastStrategy string
	TrendMonths      int
	LedgerCacheSize  int
	LedgerCacheTTL   time.Duration

	// Months
	CarryForwardIncome bool
	AutoLockElapsed    bool
	CloserInterval     time.Duration

	LogLevel string
}

func Load() *Config {
	return &Config{
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/budget.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budget"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "month_events"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Budget"),

		ForecastHorizon:  getEnvInt("FORECAST_HORIZON", 3),
		ForecastWindow:   getEnvInt("FORECAST_WINDOW", 3),
		ForecastStrategy: getEnv("FORECAST_STRATEGY", "trailing_average"),
		TrendMonths:      getEnvInt("TREND_MONTHS", 6),
		LedgerCacheSize:  getEnvInt("LEDGER_CACHE_SIZE", 64),
		LedgerCacheTTL:   getEnvDuration("LEDGER_CACHE_TTL", 10*time.Minute),

		CarryForwardIncome: getEnvBool("CARRY_FORWARD_INCOME", true),
		AutoLockElapsed:    getEnvBool("AUTO_LOCK_ELAPSED", true),
		CloserInterval:     getEnvDuration("CLOSER_INTERVAL", time.Hour),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns every problem at once.
// strategies lists the accepted forecast strategy names.
func (c *Config) Validate(strategies ...string) error {
	var errors []string

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
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

	if c.GoogleSpreadsheetID != "" && strings.TrimSpace(c.GoogleSheetName) == "" {
		errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
	}

	if c.ForecastHorizon < 1 || c.ForecastHorizon > 24 {
		errors = append(errors, fmt.Sprintf("invalid forecast horizon %d: must be between 1 and 24", c.ForecastHorizon))
	}
	if c.ForecastWindow < 1 || c.ForecastWindow > 36 {
		errors = append(errors, fmt.Sprintf("invalid forecast window %d: must be between 1 and 36", c.ForecastWindow))
	}
	if len(strategies) > 0 && !slices.Contains(strategies, c.ForecastStrategy) {
		errors = append(errors, fmt.Sprintf("invalid forecast strategy '%s': must be one of %v", c.ForecastStrategy, strategies))
	}
	if c.TrendMonths < 1 {
		errors = append(errors, fmt.Sprintf("invalid trend months %d: must be at least 1", c.TrendMonths))
	}
	if c.LedgerCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid ledger cache size %d: must be at least 1", c.LedgerCacheSize))
	}
	if c.LedgerCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid ledger cache TTL %v: must not be negative", c.LedgerCacheTTL))
	}

	if c.CloserInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid closer interval %v: must be at least 1 second", c.CloserInterval))
	} else if c.CloserInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid closer interval %v: must be at most 24 hours", c.CloserInterval))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
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
