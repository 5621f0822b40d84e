package domain

import (
	"context"
	"time"
)

// FeedCache stores the most recently assembled market feeds so repeated UI
// requests do not re-drive the discovery scan.
type FeedCache interface {
	SetFeed(ctx context.Context, key string, markets []Market) error
	GetFeed(ctx context.Context, key string) ([]Market, error)
	InvalidateFeed(ctx context.Context, key string) error
}

// SparklineCache stores recent 24h price series per symbol.
type SparklineCache interface {
	SetSparkline(ctx context.Context, symbol string, s Sparkline, ttl time.Duration) error
	GetSparkline(ctx context.Context, symbol string) (Sparkline, error)
}

// RateLimiter applies a request budget per key within a sliding window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// SignalBus is a lightweight pub/sub fabric for pushing feed, vote, and
// price events to interested consumers (primarily the WebSocket hub).
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
