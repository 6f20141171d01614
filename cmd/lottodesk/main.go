// Command lottodesk runs the numbers-lottery bookmaking desk.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alanyoungcy/lottodesk/internal/app"
	"github.com/alanyoungcy/lottodesk/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	flag.Parse()

	var level slog.LevelVar
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("lottodesk: load config", slog.String("path", *configPath), slog.String("error", err.Error()))
		return 1
	}
	if err := level.UnmarshalText([]byte(strings.TrimSpace(cfg.LogLevel))); err != nil {
		logger.Warn("lottodesk: unknown log level, using info", slog.String("log_level", cfg.LogLevel))
		level.Set(slog.LevelInfo)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("lottodesk: invalid config", slog.String("error", err.Error()))
		return 1
	}
	logger.Info("lottodesk: starting",
		slog.String("config", *configPath),
		slog.Any("settings", config.RedactedConfig(cfg)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	desk := app.New(cfg, logger)
	defer desk.Close()

	if err := desk.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("lottodesk: exited", slog.String("error", err.Error()))
		return 1
	}
	logger.Info("lottodesk: stopped")
	return 0
}
