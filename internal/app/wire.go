package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/omenlabs/omenfeed/internal/blob/s3"
	"github.com/omenlabs/omenfeed/internal/cache/redis"
	"github.com/omenlabs/omenfeed/internal/config"
	"github.com/omenlabs/omenfeed/internal/domain"
	"github.com/omenlabs/omenfeed/internal/ledger"
	"github.com/omenlabs/omenfeed/internal/notify"
	"github.com/omenlabs/omenfeed/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application modes
// need to operate. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	// Vote ledger
	VoteStore domain.VoteStore

	// Caches (nil unless Redis is enabled)
	FeedCache      domain.FeedCache
	SparklineCache domain.SparklineCache
	RateLimiter    domain.RateLimiter
	SignalBus      domain.SignalBus

	// Blob storage (nil unless S3 is enabled)
	BlobWriter  domain.BlobWriter
	BlobReader  domain.BlobReader
	BlobDeleter domain.BlobDeleter
	Snapshots   domain.SnapshotArchiver

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Redis (caches, pub/sub, rate limiting, optional vote storage) ---
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		var err error
		redisClient, err = redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.FeedCache = redis.NewFeedCache(redisClient)
		deps.SparklineCache = redis.NewSparklineCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- Vote ledger backend ---
	switch cfg.Ledger.Backend {
	case "file":
		deps.VoteStore = ledger.New(ledger.NewFileStorage(cfg.Ledger.Path))
	case "memory":
		deps.VoteStore = ledger.New(ledger.NewMemoryStorage())
	case "redis":
		if redisClient == nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: ledger backend %q requires redis.enabled", cfg.Ledger.Backend)
		}
		deps.VoteStore = ledger.New(redis.NewVoteStorage(redisClient))
	case "postgres":
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.VoteStore = postgres.NewVoteStore(pgClient.Pool())
	default:
		cleanup()
		return nil, nil, fmt.Errorf("wire: unsupported ledger backend %q", cfg.Ledger.Backend)
	}

	// --- S3 blob storage (feed snapshots) ---
	if cfg.S3.Enabled {
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
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		reader := s3blob.NewReader(s3Client)
		deps.BlobReader = reader
		deps.BlobDeleter = reader // same type implements BlobDeleter
		deps.Snapshots = s3blob.NewFeedArchiver(deps.BlobWriter, reader, reader)
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
