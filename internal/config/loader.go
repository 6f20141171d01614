package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load decodes the TOML file at path over Defaults, loads .env if present
// and applies LOTTODESK_* overrides. A missing file is not an error, so a
// pure environment deployment works. The result is not validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	// Silently ignore a missing .env.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// ── Database ──
	setStr(&cfg.Database.Driver, "LOTTODESK_DATABASE_DRIVER")
	setStr(&cfg.Database.DSN, "DATABASE_URL") // platform alias
	setStr(&cfg.Database.DSN, "LOTTODESK_DATABASE_DSN")
	setStr(&cfg.Database.Host, "LOTTODESK_DATABASE_HOST")
	setInt(&cfg.Database.Port, "LOTTODESK_DATABASE_PORT")
	setStr(&cfg.Database.Database, "LOTTODESK_DATABASE_DATABASE")
	setStr(&cfg.Database.User, "LOTTODESK_DATABASE_USER")
	setStr(&cfg.Database.Password, "LOTTODESK_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "LOTTODESK_DATABASE_SSL_MODE")
	setInt(&cfg.Database.PoolMaxConns, "LOTTODESK_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "LOTTODESK_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "LOTTODESK_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "LOTTODESK_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "LOTTODESK_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "LOTTODESK_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "LOTTODESK_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "LOTTODESK_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "LOTTODESK_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "LOTTODESK_REDIS_TLS_ENABLED")
	setStr(&cfg.Redis.KeyPrefix, "LOTTODESK_REDIS_KEY_PREFIX")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "LOTTODESK_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "LOTTODESK_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "LOTTODESK_S3_REGION")
	setStr(&cfg.S3.Bucket, "LOTTODESK_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "LOTTODESK_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "LOTTODESK_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "LOTTODESK_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "LOTTODESK_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setInt(&cfg.Server.Port, "PORT") // platform alias
	setInt(&cfg.Server.Port, "LOTTODESK_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "LOTTODESK_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "LOTTODESK_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "LOTTODESK_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "LOTTODESK_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "LOTTODESK_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "LOTTODESK_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "LOTTODESK_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "LOTTODESK_NOTIFY_EVENTS")

	// ── Engine ──
	setStr(&cfg.Engine.WinBasis, "LOTTODESK_ENGINE_WIN_BASIS")
	setStr(&cfg.Engine.DefaultLimit, "LOTTODESK_ENGINE_DEFAULT_LIMIT")
	setDuration(&cfg.Engine.ExposureCacheTTL, "LOTTODESK_ENGINE_EXPOSURE_CACHE_TTL")
	setDuration(&cfg.Engine.ResolveLockTTL, "LOTTODESK_ENGINE_RESOLVE_LOCK_TTL")

	// ── Top-level ──
	setStr(&cfg.Mode, "LOTTODESK_MODE")
	setStr(&cfg.LogLevel, "LOTTODESK_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the variable is
// set and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
