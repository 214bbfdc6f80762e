// Package config resolves process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported values for PREFERENCES_BACKEND and DATA_BACKEND.
var (
	PreferencesBackends = []string{"sqlite", "file", "redis", "memory"}
	DataBackends        = []string{"hosted", "sheets", "memory"}
)

type Config struct {
	// HTTP Server
	Port   string
	AppEnv string

	// Logging
	LogLevel  string
	LogFile   string
	SentryDSN string

	// Preferences storage
	PreferencesBackend string
	SQLiteDBPath       string
	PreferencesDir     string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int

	// Dashboard data
	DataBackend string
	SeedFile    string
	CacheTTL    time.Duration
	TrendMonths int

	// Hosted backend
	SupabaseURL     string
	SupabaseAnonKey string

	// Google Sheets
	GoogleSpreadsheetID      string
	DashboardSheetName       string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// AMQP
	AMQPURL      string
	AMQPExchange string

	// RateLimitPerMinute caps POST requests per client IP.
	RateLimitPerMinute int
}

func defaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PREFERENCES_BACKEND", "sqlite")
	v.SetDefault("SQLITE_DB_PATH", "./data/financetrack.db")
	v.SetDefault("PREFERENCES_DIR", "./data")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DATA_BACKEND", "hosted")
	v.SetDefault("SEED_FILE", "./data/dashboard.toml")
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("TREND_MONTHS", 6)
	v.SetDefault("DASHBOARD_SHEET_NAME", "Dashboard")
	v.SetDefault("AMQP_EXCHANGE", "financetrack")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
}

// Load reads .env files when present and resolves every key from the
// environment, falling back to defaults. It is called once at startup.
func Load() *Config {
	// Missing env files are fine; the process environment still applies.
	_ = godotenv.Load(".env.local", ".env")
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:   v.GetString("PORT"),
		AppEnv: v.GetString("APP_ENV"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFile:   v.GetString("LOG_FILE"),
		SentryDSN: v.GetString("SENTRY_DSN"),

		PreferencesBackend: strings.ToLower(v.GetString("PREFERENCES_BACKEND")),
		SQLiteDBPath:       v.GetString("SQLITE_DB_PATH"),
		PreferencesDir:     v.GetString("PREFERENCES_DIR"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),

		DataBackend: strings.ToLower(v.GetString("DATA_BACKEND")),
		SeedFile:    v.GetString("SEED_FILE"),
		CacheTTL:    v.GetDuration("CACHE_TTL"),
		TrendMonths: v.GetInt("TREND_MONTHS"),

		SupabaseURL:     v.GetString("SUPABASE_URL"),
		SupabaseAnonKey: v.GetString("SUPABASE_ANON_KEY"),

		GoogleSpreadsheetID:      v.GetString("GOOGLE_SPREADSHEET_ID"),
		DashboardSheetName:       v.GetString("DASHBOARD_SHEET_NAME"),
		GoogleServiceAccountJSON: v.GetString("GOOGLE_SERVICE_ACCOUNT_JSON"),
		GoogleServiceAccountFile: v.GetString("GOOGLE_SERVICE_ACCOUNT_FILE"),

		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),

		RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
	}
}

// Validate validates the configuration and returns an error if invalid.
// Missing hosted backend credentials are not an error: the backend client
// degrades to a placeholder instead.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(PreferencesBackends, c.PreferencesBackend) {
		errs = append(errs, fmt.Sprintf("invalid preferences backend '%s': must be one of %v", c.PreferencesBackend, PreferencesBackends))
	}
	if !slices.Contains(DataBackends, c.DataBackend) {
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, DataBackends))
	}

	switch c.PreferencesBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite preferences backend")
		} else if msg := ensureDir(filepath.Dir(c.SQLiteDBPath)); msg != "" {
			errs = append(errs, msg)
		}
	case "file":
		if c.PreferencesDir == "" {
			errs = append(errs, "preferences directory cannot be empty when using file preferences backend")
		} else if msg := ensureDir(c.PreferencesDir); msg != "" {
			errs = append(errs, msg)
		}
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, "REDIS_ADDR is required when using redis preferences backend")
		}
		if c.RedisDB < 0 {
			errs = append(errs, fmt.Sprintf("invalid redis db %d: must not be negative", c.RedisDB))
		}
	}

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errs = append(errs, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.DashboardSheetName == "" {
			errs = append(errs, "dashboard sheet name is required when using sheets backend")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errs = append(errs, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.SupabaseURL != "" {
		if u, err := url.Parse(c.SupabaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("invalid SUPABASE_URL '%s': must be an absolute URL", c.SupabaseURL))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must not be negative", c.CacheTTL))
	}
	if c.TrendMonths < 1 || c.TrendMonths > 24 {
		errs = append(errs, fmt.Sprintf("invalid trend months %d: must be between 1 and 24", c.TrendMonths))
	}
	if c.RateLimitPerMinute < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func ensureDir(dir string) string {
	if dir == "." || dir == "" {
		return ""
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Sprintf("cannot create directory '%s': %v", dir, err)
		}
	}
	return ""
}
