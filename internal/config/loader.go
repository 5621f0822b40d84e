package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies OMENFEED_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known OMENFEED_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "OMENFEED_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ProxyOnePrefix, "OMENFEED_POLYMARKET_PROXY_ONE_PREFIX")
	setStr(&cfg.Polymarket.ProxyTwoPrefix, "OMENFEED_POLYMARKET_PROXY_TWO_PREFIX")
	setStr(&cfg.Polymarket.RelayBase, "OMENFEED_POLYMARKET_RELAY_BASE")

	// ── Discovery ──
	setInt(&cfg.Discovery.BatchSize, "OMENFEED_DISCOVERY_BATCH_SIZE")
	setInt(&cfg.Discovery.MaxPages, "OMENFEED_DISCOVERY_MAX_PAGES")
	setFloat64(&cfg.Discovery.MinVolume, "OMENFEED_DISCOVERY_MIN_VOLUME")
	setFloat64(&cfg.Discovery.HorizonHours, "OMENFEED_DISCOVERY_HORIZON_HOURS")
	setInt(&cfg.Discovery.BackfillMargin, "OMENFEED_DISCOVERY_BACKFILL_MARGIN")
	setDuration(&cfg.Discovery.PageInterval, "OMENFEED_DISCOVERY_PAGE_INTERVAL")
	setInt(&cfg.Discovery.DailyCount, "OMENFEED_DISCOVERY_DAILY_COUNT")

	// ── Prices ──
	setStr(&cfg.Prices.BinanceHost, "OMENFEED_PRICES_BINANCE_HOST")
	setStr(&cfg.Prices.KrakenHost, "OMENFEED_PRICES_KRAKEN_HOST")

	// ── Ledger ──
	setStr(&cfg.Ledger.Backend, "OMENFEED_LEDGER_BACKEND")
	setStr(&cfg.Ledger.Path, "OMENFEED_LEDGER_PATH")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "OMENFEED_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "OMENFEED_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "OMENFEED_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "OMENFEED_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "OMENFEED_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "OMENFEED_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "OMENFEED_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "OMENFEED_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "OMENFEED_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "OMENFEED_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "OMENFEED_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "OMENFEED_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "OMENFEED_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "OMENFEED_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "OMENFEED_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "OMENFEED_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "OMENFEED_POSTGRES_RUN_MIGRATIONS")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "OMENFEED_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "OMENFEED_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "OMENFEED_S3_REGION")
	setStr(&cfg.S3.Bucket, "OMENFEED_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "OMENFEED_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "OMENFEED_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "OMENFEED_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "OMENFEED_S3_FORCE_PATH_STYLE")

	// ── Pipeline ──
	setDuration(&cfg.Pipeline.RefreshInterval, "OMENFEED_PIPELINE_REFRESH_INTERVAL")
	setInt(&cfg.Pipeline.ArchiveRetentionDays, "OMENFEED_PIPELINE_ARCHIVE_RETENTION_DAYS")
	setStr(&cfg.Pipeline.ArchiveCron, "OMENFEED_PIPELINE_ARCHIVE_CRON")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "OMENFEED_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "OMENFEED_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "OMENFEED_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "OMENFEED_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "OMENFEED_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "OMENFEED_SERVER_RATE_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "OMENFEED_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "OMENFEED_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "OMENFEED_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "OMENFEED_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "OMENFEED_MODE")
	setStr(&cfg.LogLevel, "OMENFEED_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

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

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
