// Package config defines the top-level configuration for the feed service
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by OMENFEED_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Discovery  DiscoveryConfig  `toml:"discovery"`
	Prices     PricesConfig     `toml:"prices"`
	Ledger     LedgerConfig     `toml:"ledger"`
	Redis      RedisConfig      `toml:"redis"`
	Postgres   PostgresConfig   `toml:"postgres"`
	S3         S3Config         `toml:"s3"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds the upstream event API endpoints and the proxy
// chain used when direct access fails.
type PolymarketConfig struct {
	GammaHost string `toml:"gamma_host"`

	// ProxyOnePrefix and ProxyTwoPrefix are URL-encoding proxy prefixes the
	// fetch chain falls back to, in order, when direct requests fail.
	ProxyOnePrefix string `toml:"proxy_one_prefix"`
	ProxyTwoPrefix string `toml:"proxy_two_prefix"`

	// RelayBase is the base URL of a same-origin relay used as the final
	// fallback. Empty disables the relay hop.
	RelayBase string `toml:"relay_base"`
}

// DiscoveryConfig holds the daily market discovery parameters.
type DiscoveryConfig struct {
	BatchSize      int      `toml:"batch_size"`
	MaxPages       int      `toml:"max_pages"`
	MinVolume      float64  `toml:"min_volume"`
	HorizonHours   float64  `toml:"horizon_hours"`
	BackfillMargin int      `toml:"backfill_margin"`
	PageInterval   duration `toml:"page_interval"`
	DailyCount     int      `toml:"daily_count"`
}

// PricesConfig holds the exchange endpoints for crypto sparklines.
type PricesConfig struct {
	BinanceHost string `toml:"binance_host"`
	KrakenHost  string `toml:"kraken_host"`
}

// LedgerConfig selects the vote ledger backend.
type LedgerConfig struct {
	// Backend is one of "file", "redis", or "postgres".
	Backend string `toml:"backend"`

	// Path is the ledger file location for the file backend.
	Path string `toml:"path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
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

// S3Config holds S3-compatible object storage parameters.
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

// PipelineConfig holds the background refresh and archival parameters.
type PipelineConfig struct {
	RefreshInterval      duration `toml:"refresh_interval"`
	ArchiveRetentionDays int      `toml:"archive_retention_days"`
	ArchiveCron          string   `toml:"archive_cron"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:      "https://gamma-api.polymarket.com",
			ProxyOnePrefix: "https://corsproxy.io/?",
			ProxyTwoPrefix: "https://api.allorigins.win/raw?url=",
			RelayBase:      "",
		},
		Discovery: DiscoveryConfig{
			BatchSize:      100,
			MaxPages:       50,
			MinVolume:      1000,
			HorizonHours:   24,
			BackfillMargin: 20,
			PageInterval:   duration{150 * time.Millisecond},
			DailyCount:     20,
		},
		Prices: PricesConfig{
			BinanceHost: "https://api.binance.com",
			KrakenHost:  "https://api.kraken.com",
		},
		Ledger: LedgerConfig{
			Backend: "file",
			Path:    "data/votes.json",
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "omenfeed",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "omenfeed-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Pipeline: PipelineConfig{
			RefreshInterval:      duration{5 * time.Minute},
			ArchiveRetentionDays: 30,
			ArchiveCron:          "0 3 * * *",
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   0,
			RateWindow:  duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"feed_underproduced", "upstream_exhausted", "error"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve":   true,
	"refresh": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLedgerBackends enumerates the accepted values for LedgerConfig.Backend.
var validLedgerBackends = map[string]bool{
	"file":     true,
	"memory":   true,
	"redis":    true,
	"postgres": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, refresh, full)", c.Mode))
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}

	// Discovery
	if c.Discovery.BatchSize < 1 {
		errs = append(errs, "discovery: batch_size must be >= 1")
	}
	if c.Discovery.MaxPages < 1 {
		errs = append(errs, "discovery: max_pages must be >= 1")
	}
	if c.Discovery.MinVolume < 0 {
		errs = append(errs, "discovery: min_volume must be >= 0")
	}
	if c.Discovery.HorizonHours <= 0 {
		errs = append(errs, "discovery: horizon_hours must be > 0")
	}
	if c.Discovery.DailyCount < 1 {
		errs = append(errs, "discovery: daily_count must be >= 1")
	}

	// Prices
	if c.Prices.BinanceHost == "" && c.Prices.KrakenHost == "" {
		errs = append(errs, "prices: at least one of binance_host or kraken_host must be set")
	}

	// Ledger
	backend := strings.ToLower(c.Ledger.Backend)
	if !validLedgerBackends[backend] {
		errs = append(errs, fmt.Sprintf("ledger: unknown backend %q (valid: file, memory, redis, postgres)", c.Ledger.Backend))
	}
	if backend == "file" && strings.TrimSpace(c.Ledger.Path) == "" {
		errs = append(errs, "ledger: path must be set for the file backend")
	}
	if backend == "redis" && !c.Redis.Enabled {
		errs = append(errs, "ledger: redis backend requires redis.enabled = true")
	}
	if backend == "postgres" {
		if strings.TrimSpace(c.Postgres.DSN) == "" && c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.Pipeline.ArchiveRetentionDays < 1 {
			errs = append(errs, "pipeline: archive_retention_days must be >= 1")
		}
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
