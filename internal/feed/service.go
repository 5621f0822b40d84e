package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// dailyFeedKey is the cache key for the assembled daily feed.
func dailyFeedKey(count int) string {
	return fmt.Sprintf("feed:daily:%d", count)
}

// Service serves the market feed to the API layer: cache-first daily
// markets, pass-through trending listings, and refresh runs that repopulate
// the cache and announce themselves on the signal bus.
type Service struct {
	discoverer *Discoverer
	lister     MarketLister
	cache      domain.FeedCache
	bus        domain.SignalBus
	logger     *slog.Logger

	mu           sync.Mutex
	cachedCounts map[int]bool // feed keys this service has written
}

// NewService creates a feed Service. cache and bus may be nil; the service
// then degrades to direct discovery with no event publishing.
func NewService(discoverer *Discoverer, lister MarketLister, cache domain.FeedCache, bus domain.SignalBus, logger *slog.Logger) *Service {
	return &Service{
		discoverer:   discoverer,
		lister:       lister,
		cache:        cache,
		bus:          bus,
		logger:       logger.With(slog.String("component", "feed")),
		cachedCounts: make(map[int]bool),
	}
}

// DailyMarkets returns up to count daily markets, serving from the feed
// cache when a fresh entry exists and falling back to a full discovery run
// otherwise.
func (s *Service) DailyMarkets(ctx context.Context, count int) ([]domain.Market, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFeed(ctx, dailyFeedKey(count))
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "feed cache read failed",
				slog.String("error", err.Error()),
			)
		}
	}
	return s.Refresh(ctx, count)
}

// Trending returns one normalized page of generic trending markets.
func (s *Service) Trending(ctx context.Context, limit, offset int, order string, ascending bool) []domain.Market {
	return s.lister.ListTrending(ctx, limit, offset, order, ascending)
}

// feedEvent is the payload published on the "feed" channel after a refresh.
type feedEvent struct {
	Type  string    `json:"type"`
	Count int       `json:"count"`
	At    time.Time `json:"at"`
}

// Refresh runs discovery, stores the result in the cache, and publishes a
// feed event. An empty result is cached too: "temporarily unavailable" is a
// defined state and repeated discovery storms would only make it worse.
func (s *Service) Refresh(ctx context.Context, count int) ([]domain.Market, error) {
	markets, err := s.discoverer.DailyMarkets(ctx, count)
	if err != nil {
		return nil, fmt.Errorf("feed: refresh: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetFeed(ctx, dailyFeedKey(count), markets); err != nil {
			s.logger.WarnContext(ctx, "feed cache write failed",
				slog.String("error", err.Error()),
			)
		}
		s.invalidateStale(ctx, count)
	}

	if s.bus != nil {
		payload, err := json.Marshal(feedEvent{
			Type:  "feed_refreshed",
			Count: len(markets),
			At:    time.Now().UTC(),
		})
		if err == nil {
			if err := s.bus.Publish(ctx, "feed", payload); err != nil {
				s.logger.WarnContext(ctx, "feed event publish failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}

	return markets, nil
}

// invalidateStale drops previously written feed entries keyed by a
// different count. They were assembled from an older scan, and serving them
// next to the fresh entry would mix two snapshots of the market set.
func (s *Service) invalidateStale(ctx context.Context, current int) {
	s.mu.Lock()
	stale := make([]int, 0, len(s.cachedCounts))
	for count := range s.cachedCounts {
		if count != current {
			stale = append(stale, count)
		}
	}
	s.cachedCounts = map[int]bool{current: true}
	s.mu.Unlock()

	for _, count := range stale {
		if err := s.cache.InvalidateFeed(ctx, dailyFeedKey(count)); err != nil {
			s.logger.WarnContext(ctx, "feed cache invalidation failed",
				slog.Int("count", count),
				slog.String("error", err.Error()),
			)
		}
	}
}
