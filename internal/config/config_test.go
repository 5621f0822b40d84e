package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_DefaultsSurviveMinimalFile(t *testing.T) {
	path := writeConfig(t, `mode = "serve"`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Mode != "serve" {
		t.Errorf("mode = %q", cfg.Mode)
	}
	if cfg.Polymarket.GammaHost != "https://gamma-api.polymarket.com" {
		t.Errorf("gamma host default lost: %q", cfg.Polymarket.GammaHost)
	}
	if cfg.Discovery.BatchSize != 100 || cfg.Discovery.MaxPages != 50 {
		t.Errorf("discovery defaults lost: %+v", cfg.Discovery)
	}
	if cfg.Discovery.PageInterval.Duration != 150*time.Millisecond {
		t.Errorf("page_interval default = %v", cfg.Discovery.PageInterval.Duration)
	}
	if cfg.Ledger.Backend != "file" {
		t.Errorf("ledger backend default = %q", cfg.Ledger.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default-based config must validate: %v", err)
	}
}

func TestLoad_TOMLOverridesAndDurations(t *testing.T) {
	path := writeConfig(t, `
mode = "full"

[discovery]
batch_size = 25
page_interval = "75ms"
min_volume = 500.0

[pipeline]
refresh_interval = "2m"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Discovery.BatchSize != 25 {
		t.Errorf("batch_size = %d", cfg.Discovery.BatchSize)
	}
	if cfg.Discovery.PageInterval.Duration != 75*time.Millisecond {
		t.Errorf("page_interval = %v", cfg.Discovery.PageInterval.Duration)
	}
	if cfg.Discovery.MinVolume != 500 {
		t.Errorf("min_volume = %v", cfg.Discovery.MinVolume)
	}
	if cfg.Pipeline.RefreshInterval.Duration != 2*time.Minute {
		t.Errorf("refresh_interval = %v", cfg.Pipeline.RefreshInterval.Duration)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `mode = "serve"`)

	t.Setenv("OMENFEED_MODE", "refresh")
	t.Setenv("OMENFEED_SERVER_PORT", "9090")
	t.Setenv("OMENFEED_DISCOVERY_MIN_VOLUME", "2500")
	t.Setenv("OMENFEED_REDIS_ENABLED", "true")
	t.Setenv("OMENFEED_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("OMENFEED_PIPELINE_REFRESH_INTERVAL", "90s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mode != "refresh" {
		t.Errorf("mode = %q, want env override", cfg.Mode)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Discovery.MinVolume != 2500 {
		t.Errorf("min_volume = %v", cfg.Discovery.MinVolume)
	}
	if !cfg.Redis.Enabled {
		t.Error("redis.enabled env override lost")
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors origins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Pipeline.RefreshInterval.Duration != 90*time.Second {
		t.Errorf("refresh_interval = %v", cfg.Pipeline.RefreshInterval.Duration)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Mode = "turbo" }},
		{"unknown log level", func(c *Config) { c.LogLevel = "loud" }},
		{"empty gamma host", func(c *Config) { c.Polymarket.GammaHost = "" }},
		{"zero batch size", func(c *Config) { c.Discovery.BatchSize = 0 }},
		{"negative min volume", func(c *Config) { c.Discovery.MinVolume = -1 }},
		{"zero horizon", func(c *Config) { c.Discovery.HorizonHours = 0 }},
		{"unknown ledger backend", func(c *Config) { c.Ledger.Backend = "scroll" }},
		{"redis backend without redis", func(c *Config) {
			c.Ledger.Backend = "redis"
			c.Redis.Enabled = false
		}},
		{"no price hosts", func(c *Config) {
			c.Prices.BinanceHost = ""
			c.Prices.KrakenHost = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRedactedConfig_HidesSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Redis.Password = "hunter2"
	cfg.Postgres.Password = "hunter2"
	cfg.S3.SecretKey = "hunter2"
	cfg.Server.APIKey = "hunter2"
	cfg.Notify.TelegramToken = "hunter2"

	red := RedactedConfig(&cfg)
	if red.Redis.Password == "hunter2" ||
		red.Postgres.Password == "hunter2" ||
		red.S3.SecretKey == "hunter2" ||
		red.Server.APIKey == "hunter2" ||
		red.Notify.TelegramToken == "hunter2" {
		t.Errorf("secrets leaked through redaction: %+v", red)
	}
}
