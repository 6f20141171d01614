package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad mode", func(c *Config) { c.Mode = "trade" }, `unknown mode "trade"`},
		{"bad driver", func(c *Config) { c.Database.Driver = "sqlite" }, "unknown driver"},
		{"memory migrate", func(c *Config) {
			c.Database.Driver = "memory"
			c.Mode = "migrate"
		}, "migrate mode requires the postgres driver"},
		{"bad basis", func(c *Config) { c.Engine.WinBasis = "half" }, "win_basis must be gross or net"},
		{"bad limit", func(c *Config) { c.Engine.DefaultLimit = "lots" }, "default_limit"},
		{"unknown kind", func(c *Config) { c.Engine.DefaultPayRates = map[string]string{"FOUR_TOP": "9000"} }, "unknown bet kind"},
		{"zero rate", func(c *Config) { c.Engine.DefaultPayRates = map[string]string{"run_top": "0"} }, "RUN_TOP must be > 0"},
		{"redis addr", func(c *Config) { c.Redis.Addr = "" }, "redis: addr"},
		{"no lock ttl", func(c *Config) { c.Engine.ResolveLockTTL = duration{} }, "resolve_lock_ttl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "nope"
	cfg.LogLevel = "loud"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	if !strings.Contains(err.Error(), "mode") || !strings.Contains(err.Error(), "log_level") {
		t.Errorf("Validate() = %v, want both problems", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
mode = "server"

[database]
driver = "memory"

[engine]
win_basis = "net"
default_limit = "2500.50"
resolve_lock_ttl = "10s"

[engine.default_pay_rates]
THREE_TOP = "850"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LOTTODESK_SERVER_PORT", "9100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != "memory" || cfg.Engine.WinBasis != "net" {
		t.Errorf("decoded driver=%q basis=%q", cfg.Database.Driver, cfg.Engine.WinBasis)
	}
	if cfg.Engine.ResolveLockTTL.Duration != 10*time.Second {
		t.Errorf("resolve_lock_ttl = %v, want 10s", cfg.Engine.ResolveLockTTL.Duration)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want env override 9100", cfg.Server.Port)
	}
	limit, err := cfg.Engine.Limit()
	if err != nil || limit.String() != "2500.5" {
		t.Errorf("Limit() = %v, %v", limit, err)
	}
	rates, err := cfg.Engine.PayRates()
	if err != nil {
		t.Fatalf("PayRates: %v", err)
	}
	if r := rates["THREE_TOP"]; r.String() != "850" {
		t.Errorf("THREE_TOP = %s, want 850", r)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Mode != "server" {
		t.Errorf("mode = %q, want default", cfg.Mode)
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Database.Password = "pw"
	cfg.Server.APIKey = "key"
	cfg.Notify.TelegramToken = "tok"

	out := RedactedConfig(&cfg)
	if out.Database.Password != redacted || out.Server.APIKey != redacted || out.Notify.TelegramToken != redacted {
		t.Errorf("secrets not redacted: %+v", out)
	}
	if cfg.Database.Password != "pw" {
		t.Error("original mutated")
	}
	out.Engine.DefaultPayRates["THREE_TOP"] = "1"
	if cfg.Engine.DefaultPayRates["THREE_TOP"] != "900" {
		t.Error("pay rate map shared with original")
	}
	if out.Redis.Password != "" {
		t.Errorf("empty secret became %q", out.Redis.Password)
	}
}
