package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	s3blob "github.com/alanyoungcy/lottodesk/internal/blob/s3"
	"github.com/alanyoungcy/lottodesk/internal/cache/redis"
	"github.com/alanyoungcy/lottodesk/internal/config"
	"github.com/alanyoungcy/lottodesk/internal/domain"
	"github.com/alanyoungcy/lottodesk/internal/notify"
	"github.com/alanyoungcy/lottodesk/internal/server/handler"
	"github.com/alanyoungcy/lottodesk/internal/service"
	"github.com/alanyoungcy/lottodesk/internal/store/memory"
	"github.com/alanyoungcy/lottodesk/internal/store/postgres"
)

// Dependencies bundles the concrete infrastructure the modes run on.
// Redis-backed fields are nil when Redis is disabled and Archiver is nil
// when S3 is disabled.
type Dependencies struct {
	Tx       domain.Transactor
	Postgres *postgres.Client // nil with the memory driver

	RateLimiter   domain.RateLimiter
	LockManager   domain.LockManager
	SignalBus     domain.SignalBus
	ExposureCache domain.ExposureCache

	Archiver domain.Archiver
	Notifier *notify.Notifier

	// Checks are probed by GET /api/health.
	Checks map[string]handler.Pinger
}

// serves reports whether mode runs the API and so needs Redis, S3 and the
// notifiers.
func serves(mode string) bool {
	return !strings.EqualFold(mode, "migrate")
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Checks: make(map[string]handler.Pinger)}

	// --- Ledger store ---
	switch cfg.Database.Driver {
	case "memory":
		logger.WarnContext(ctx, "wire: using in-memory store, data is lost on exit")
		deps.Tx = memory.New()
	default:
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Database.DSN,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Database,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.PoolMaxConns,
			MinConns: cfg.Database.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Database.RunMigrations && serves(cfg.Mode) {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}
		deps.Postgres = pgClient
		deps.Tx = pgClient
		deps.Checks["postgres"] = pgClient
	}

	// --- Redis ---
	if cfg.Redis.Enabled && serves(cfg.Mode) {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
			KeyPrefix:  cfg.Redis.KeyPrefix,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.ExposureCache = redis.NewExposureCache(redisClient, cfg.Engine.ExposureCacheTTL.Duration)
		deps.Checks["redis"] = redisClient
	}

	// --- S3 round archive ---
	if cfg.S3.Enabled && serves(cfg.Mode) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.Archiver = s3blob.NewArchiver(deps.Tx, s3blob.NewWriter(s3Client), s3blob.NewReader(s3Client), logger)
		deps.Checks["s3"] = s3Client
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

// engineConfig converts the TOML engine section into service settings.
func engineConfig(cfg config.EngineConfig) (service.EngineConfig, error) {
	limit, err := cfg.Limit()
	if err != nil {
		return service.EngineConfig{}, err
	}
	raw, err := cfg.PayRates()
	if err != nil {
		return service.EngineConfig{}, err
	}
	rates := make(map[domain.BetKind]decimal.Decimal, len(raw))
	for kind, rate := range raw {
		k, err := domain.ParseBetKind(kind)
		if err != nil {
			return service.EngineConfig{}, fmt.Errorf("engine: %w", err)
		}
		rates[k] = rate
	}
	return service.EngineConfig{
		WinBasis:        domain.WinBasis(strings.ToLower(cfg.WinBasis)),
		DefaultLimit:    limit,
		DefaultPayRates: rates,
		ResolveLockTTL:  cfg.ResolveLockTTL.Duration,
	}, nil
}
