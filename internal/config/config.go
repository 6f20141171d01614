// Package config defines the desk configuration and its validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config is the root configuration. Fields come from a TOML file and may be
// overridden by LOTTODESK_* environment variables.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Engine   EngineConfig   `toml:"engine"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// DatabaseConfig selects and configures the ledger store.
type DatabaseConfig struct {
	// Driver is "postgres" or "memory".
	Driver        string `toml:"driver"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. Redis is optional: with
// Enabled false the desk runs with in-process locks and no cache or bus.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	KeyPrefix  string `toml:"key_prefix"`
}

// S3Config holds S3-compatible object storage parameters for round archives.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey, when set, is required in the X-API-Key header on /api routes.
	APIKey       string   `toml:"api_key"`
	RateLimit    int      `toml:"rate_limit"`
	RateWindow   duration `toml:"rate_window"`
	ReadTimeout  duration `toml:"read_timeout"`
	WriteTimeout duration `toml:"write_timeout"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// EngineConfig holds the desk-wide pricing fallbacks. Amounts are decimal
// strings so no precision is lost in TOML.
type EngineConfig struct {
	WinBasis         string            `toml:"win_basis"`
	DefaultLimit     string            `toml:"default_limit"`
	DefaultPayRates  map[string]string `toml:"default_pay_rates"`
	ExposureCacheTTL duration          `toml:"exposure_cache_ttl"`
	ResolveLockTTL   duration          `toml:"resolve_lock_ttl"`
}

// Limit parses DefaultLimit.
func (e EngineConfig) Limit() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(e.DefaultLimit))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("engine: default_limit %q: %w", e.DefaultLimit, err)
	}
	return d, nil
}

// PayRates parses DefaultPayRates keyed by upper-cased bet kind.
func (e EngineConfig) PayRates() (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(e.DefaultPayRates))
	for kind, raw := range e.DefaultPayRates {
		d, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("engine: default_pay_rates.%s %q: %w", kind, raw, err)
		}
		out[strings.ToUpper(kind)] = d
	}
	return out, nil
}

// duration wraps time.Duration so TOML strings like "5s" decode.
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config with the values of config.example.toml.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:        "postgres",
			Host:          "localhost",
			Port:          5432,
			Database:      "lottodesk",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    true,
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
			KeyPrefix:  "lottodesk:",
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "lottodesk-archive",
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Port:         8000,
			CORSOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:    120,
			RateWindow:   duration{time.Minute},
			ReadTimeout:  duration{15 * time.Second},
			WriteTimeout: duration{15 * time.Second},
		},
		Notify: NotifyConfig{
			Events: []string{"round_resolved", "layoff_recorded"},
		},
		Engine: EngineConfig{
			WinBasis:     "gross",
			DefaultLimit: "5000",
			DefaultPayRates: map[string]string{
				"THREE_TOP":  "900",
				"THREE_TOD":  "150",
				"TWO_TOP":    "90",
				"TWO_BOTTOM": "90",
				"RUN_TOP":    "3",
				"RUN_BOTTOM": "4",
			},
			ExposureCacheTTL: duration{5 * time.Second},
			ResolveLockTTL:   duration{30 * time.Second},
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	"server":  true,
	"migrate": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validBetKinds = map[string]bool{
	"THREE_TOP":  true,
	"THREE_TOD":  true,
	"TWO_TOP":    true,
	"TWO_BOTTOM": true,
	"RUN_TOP":    true,
	"RUN_BOTTOM": true,
}

// Validate checks Config and returns one error describing every problem.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, migrate)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Database
	switch c.Database.Driver {
	case "memory":
		if strings.EqualFold(c.Mode, "migrate") {
			errs = append(errs, "database: migrate mode requires the postgres driver")
		}
	case "postgres":
		if strings.TrimSpace(c.Database.DSN) == "" {
			if c.Database.Host == "" {
				errs = append(errs, "database: host must not be empty (or set database.dsn)")
			}
			if c.Database.Port <= 0 || c.Database.Port > 65535 {
				errs = append(errs, fmt.Sprintf("database: port must be 1-65535, got %d", c.Database.Port))
			}
			if c.Database.Database == "" {
				errs = append(errs, "database: database must not be empty")
			}
		}
		if c.Database.PoolMaxConns < 1 {
			errs = append(errs, "database: pool_max_conns must be >= 1")
		}
		if c.Database.PoolMinConns < 0 {
			errs = append(errs, "database: pool_min_conns must be >= 0")
		}
		if c.Database.PoolMinConns > c.Database.PoolMaxConns {
			errs = append(errs, "database: pool_min_conns must not exceed pool_max_conns")
		}
	default:
		errs = append(errs, fmt.Sprintf("database: unknown driver %q (valid: postgres, memory)", c.Database.Driver))
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must be >= 0")
	}
	if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
		errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
	}

	// Engine
	if b := strings.ToLower(c.Engine.WinBasis); b != "gross" && b != "net" {
		errs = append(errs, fmt.Sprintf("engine: win_basis must be gross or net, got %q", c.Engine.WinBasis))
	}
	if limit, err := c.Engine.Limit(); err != nil {
		errs = append(errs, err.Error())
	} else if limit.IsNegative() {
		errs = append(errs, "engine: default_limit must be >= 0")
	}
	if rates, err := c.Engine.PayRates(); err != nil {
		errs = append(errs, err.Error())
	} else {
		for kind, r := range rates {
			if !validBetKinds[kind] {
				errs = append(errs, fmt.Sprintf("engine: default_pay_rates has unknown bet kind %q", kind))
			}
			if !r.IsPositive() {
				errs = append(errs, fmt.Sprintf("engine: default_pay_rates.%s must be > 0", kind))
			}
		}
	}
	if c.Engine.ResolveLockTTL.Duration <= 0 {
		errs = append(errs, "engine: resolve_lock_ttl must be > 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
