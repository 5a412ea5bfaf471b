package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	applog "bilancio/internal/log"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type Config struct {
	// Storage
	DataBackend  string
	LedgerFile   string
	SQLiteDBPath string

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Derived results
	ForecastMonths int
	CacheSize      int
	CacheTTL       time.Duration

	// Export
	ExportDir          string
	ExportPollInterval time.Duration
	ExportMaxRetries   int

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// Logging
	LogLevel  string
	LogFormat string
}

var defaults = map[string]any{
	"data_backend":                BackendFile,
	"ledger_file":                 "./data/budget_data.txt",
	"sqlite_db_path":              "./data/bilancio.db",
	"amqp_url":                    "",
	"amqp_exchange":               "bilancio",
	"amqp_queue":                  "ledger_changes",
	"forecast_months":             6,
	"cache_size":                  64,
	"cache_ttl":                   "0s",
	"export_dir":                  "./export",
	"export_poll_interval":        "5s",
	"export_max_retries":          3,
	"google_spreadsheet_id":       "",
	"google_service_account_file": "",
	"google_service_account_json": "",
	"log_level":                   "info",
	"log_format":                  "text",
}

// Load layers defaults, an optional YAML file and the environment. An empty
// path looks for bilancio.yaml in the working directory and ~/.config/bilancio;
// a missing file is only an error when the path was given explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("bilancio")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/bilancio")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &Config{
		DataBackend:              strings.ToLower(strings.TrimSpace(v.GetString("data_backend"))),
		LedgerFile:               v.GetString("ledger_file"),
		SQLiteDBPath:             v.GetString("sqlite_db_path"),
		AMQPURL:                  v.GetString("amqp_url"),
		AMQPExchange:             v.GetString("amqp_exchange"),
		AMQPQueue:                v.GetString("amqp_queue"),
		ForecastMonths:           v.GetInt("forecast_months"),
		CacheSize:                v.GetInt("cache_size"),
		CacheTTL:                 v.GetDuration("cache_ttl"),
		ExportDir:                v.GetString("export_dir"),
		ExportPollInterval:       v.GetDuration("export_poll_interval"),
		ExportMaxRetries:         v.GetInt("export_max_retries"),
		GoogleSpreadsheetID:      v.GetString("google_spreadsheet_id"),
		GoogleServiceAccountFile: v.GetString("google_service_account_file"),
		GoogleServiceAccountJSON: v.GetString("google_service_account_json"),
		LogLevel:                 v.GetString("log_level"),
		LogFormat:                strings.ToLower(v.GetString("log_format")),
	}, nil
}

// AMQPEnabled reports whether change notifications are configured.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

// SheetsEnabled reports whether a spreadsheet export target is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	switch c.DataBackend {
	case BackendFile:
		if c.LedgerFile == "" {
			errors = append(errors, "LEDGER_FILE is required for the file backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLITE_DB_PATH is required for the sqlite backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("DATA_BACKEND must be %q or %q, got %q", BackendFile, BackendSQLite, c.DataBackend))
	}

	if c.ForecastMonths < 1 {
		errors = append(errors, fmt.Sprintf("FORECAST_MONTHS must be positive, got %d", c.ForecastMonths))
	}
	if c.CacheSize < 0 {
		errors = append(errors, fmt.Sprintf("CACHE_SIZE cannot be negative, got %d", c.CacheSize))
	}
	if c.CacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("CACHE_TTL cannot be negative, got %s", c.CacheTTL))
	}
	if c.ExportPollInterval <= 0 {
		errors = append(errors, fmt.Sprintf("EXPORT_POLL_INTERVAL must be positive, got %s", c.ExportPollInterval))
	}
	if c.ExportMaxRetries < 1 {
		errors = append(errors, fmt.Sprintf("EXPORT_MAX_RETRIES must be at least 1, got %d", c.ExportMaxRetries))
	}

	if c.AMQPURL != "" {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("AMQP_URL is invalid: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("AMQP_URL must use amqp or amqps scheme, got %s", u.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP_EXCHANGE is required when AMQP_URL is set")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP_QUEUE is required when AMQP_URL is set")
		}
	}

	if c.GoogleServiceAccountFile != "" && c.GoogleServiceAccountJSON != "" {
		errors = append(errors, "set only one of GOOGLE_SERVICE_ACCOUNT_FILE and GOOGLE_SERVICE_ACCOUNT_JSON")
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL: %v", err))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
