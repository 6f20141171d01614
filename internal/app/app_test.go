package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/lottodesk/internal/config"
	"github.com/alanyoungcy/lottodesk/internal/domain"
	"github.com/alanyoungcy/lottodesk/internal/server"
)

func memoryConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Database.Driver = "memory"
	cfg.Redis.Enabled = false
	cfg.S3.Enabled = false
	return &cfg
}

func TestEngineConfig(t *testing.T) {
	cfg := config.Defaults().Engine
	cfg.WinBasis = "NET"

	got, err := engineConfig(cfg)
	if err != nil {
		t.Fatalf("engineConfig: %v", err)
	}
	if got.WinBasis != domain.WinBasisNet {
		t.Errorf("win basis = %q", got.WinBasis)
	}
	if !got.DefaultLimit.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("default limit = %s", got.DefaultLimit)
	}
	if r := got.DefaultPayRates[domain.BetThreeTop]; !r.Equal(decimal.NewFromInt(900)) {
		t.Errorf("THREE_TOP rate = %s", r)
	}
	if len(got.DefaultPayRates) != 6 {
		t.Errorf("rates = %d, want 6", len(got.DefaultPayRates))
	}

	cfg.DefaultPayRates = map[string]string{"FOUR_TOP": "10"}
	if _, err := engineConfig(cfg); err == nil {
		t.Error("unknown bet kind accepted")
	}
}

func TestWireMemory(t *testing.T) {
	cfg := memoryConfig()
	deps, cleanup, err := Wire(context.Background(), cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("Wire: %v", err)
	}
	defer cleanup()

	if deps.Tx == nil || deps.Postgres != nil {
		t.Fatalf("unexpected store wiring: %+v", deps)
	}
	if deps.SignalBus != nil || deps.LockManager != nil || deps.Archiver != nil {
		t.Error("optional dependencies wired while disabled")
	}
	if len(deps.Checks) != 0 {
		t.Errorf("checks = %v, want none", deps.Checks)
	}

	a := New(cfg, slog.New(slog.DiscardHandler))
	handlers, err := a.buildHandlers(deps)
	if err != nil {
		t.Fatalf("buildHandlers: %v", err)
	}
	rec := httptest.NewRecorder()
	server.Routes(handlers, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /api/products = %d", rec.Code)
	}
}

func TestMigrateModeRequiresPostgres(t *testing.T) {
	a := New(memoryConfig(), slog.New(slog.DiscardHandler))
	if err := a.MigrateMode(context.Background(), &Dependencies{}); err == nil {
		t.Error("MigrateMode without postgres should fail")
	}
}
