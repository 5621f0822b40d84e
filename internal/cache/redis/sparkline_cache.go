package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// SparklineCache implements domain.SparklineCache with per-symbol string
// keys. TTLs are chosen by the caller since different upstreams refresh at
// different rates.
type SparklineCache struct {
	rdb *redis.Client
}

// NewSparklineCache creates a SparklineCache backed by the given Client.
func NewSparklineCache(c *Client) *SparklineCache {
	return &SparklineCache{rdb: c.Underlying()}
}

func sparklineKey(symbol string) string { return "sparkline:" + symbol }

// SetSparkline stores a sparkline for symbol with the given TTL.
func (sc *SparklineCache) SetSparkline(ctx context.Context, symbol string, s domain.Sparkline, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("redis: marshal sparkline %s: %w", symbol, err)
	}
	if err := sc.rdb.Set(ctx, sparklineKey(symbol), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set sparkline %s: %w", symbol, err)
	}
	return nil
}

// GetSparkline retrieves the sparkline for symbol.
// It returns domain.ErrNotFound when the key does not exist.
func (sc *SparklineCache) GetSparkline(ctx context.Context, symbol string) (domain.Sparkline, error) {
	data, err := sc.rdb.Get(ctx, sparklineKey(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Sparkline{}, domain.ErrNotFound
		}
		return domain.Sparkline{}, fmt.Errorf("redis: get sparkline %s: %w", symbol, err)
	}

	var s domain.Sparkline
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Sparkline{}, fmt.Errorf("redis: unmarshal sparkline %s: %w", symbol, err)
	}
	return s, nil
}

// Compile-time interface check.
var _ domain.SparklineCache = (*SparklineCache)(nil)
