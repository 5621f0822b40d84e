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

const feedTTL = 60 * time.Second

// FeedCache implements domain.FeedCache using plain Redis string keys with
// JSON-serialized market slices. The 60s TTL matches the upstream API's own
// refresh cadence.
type FeedCache struct {
	rdb *redis.Client
}

// NewFeedCache creates a FeedCache backed by the given Client.
func NewFeedCache(c *Client) *FeedCache {
	return &FeedCache{rdb: c.Underlying()}
}

// SetFeed stores a market list under key with the feed TTL.
func (fc *FeedCache) SetFeed(ctx context.Context, key string, markets []domain.Market) error {
	data, err := json.Marshal(markets)
	if err != nil {
		return fmt.Errorf("redis: marshal feed %s: %w", key, err)
	}
	if err := fc.rdb.Set(ctx, key, data, feedTTL).Err(); err != nil {
		return fmt.Errorf("redis: set feed %s: %w", key, err)
	}
	return nil
}

// GetFeed retrieves a market list by key.
// It returns domain.ErrNotFound when the key does not exist.
func (fc *FeedCache) GetFeed(ctx context.Context, key string) ([]domain.Market, error) {
	data, err := fc.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get feed %s: %w", key, err)
	}

	var markets []domain.Market
	if err := json.Unmarshal(data, &markets); err != nil {
		return nil, fmt.Errorf("redis: unmarshal feed %s: %w", key, err)
	}
	return markets, nil
}

// InvalidateFeed removes a feed entry.
func (fc *FeedCache) InvalidateFeed(ctx context.Context, key string) error {
	if err := fc.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: invalidate feed %s: %w", key, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.FeedCache = (*FeedCache)(nil)
