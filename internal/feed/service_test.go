package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// memFeedCache is an in-memory domain.FeedCache for service tests.
type memFeedCache struct {
	feeds map[string][]domain.Market
	sets  int
}

func newMemFeedCache() *memFeedCache {
	return &memFeedCache{feeds: make(map[string][]domain.Market)}
}

func (c *memFeedCache) SetFeed(_ context.Context, key string, markets []domain.Market) error {
	c.feeds[key] = markets
	c.sets++
	return nil
}

func (c *memFeedCache) GetFeed(_ context.Context, key string) ([]domain.Market, error) {
	markets, ok := c.feeds[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return markets, nil
}

func (c *memFeedCache) InvalidateFeed(_ context.Context, key string) error {
	delete(c.feeds, key)
	return nil
}

// recordingBus captures published payloads per channel.
type recordingBus struct {
	published map[string][][]byte
}

func newRecordingBus() *recordingBus {
	return &recordingBus{published: make(map[string][][]byte)}
}

func (b *recordingBus) Publish(_ context.Context, channel string, payload []byte) error {
	b.published[channel] = append(b.published[channel], payload)
	return nil
}

func (b *recordingBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func serviceUnderTest(pages [][]domain.Market) (*Service, *fakeLister, *memFeedCache, *recordingBus) {
	lister := &fakeLister{pages: pages}
	d := NewDiscoverer(lister, fastConfig(), testLogger())
	cache := newMemFeedCache()
	bus := newRecordingBus()
	return NewService(d, lister, cache, bus, testLogger()), lister, cache, bus
}

func TestServiceDailyMarkets_PopulatesAndServesCache(t *testing.T) {
	now := time.Now()
	svc, _, cache, bus := serviceUnderTest([][]domain.Market{{
		mkMarket(1, 5000, time.Hour, now),
		mkMarket(2, 8000, 2*time.Hour, now),
	}})

	ctx := context.Background()
	first, err := svc.DailyMarkets(ctx, 2)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("got %d markets, want 2", len(first))
	}
	if cache.sets != 1 {
		t.Errorf("cache writes = %d, want 1", cache.sets)
	}
	if len(bus.published["feed"]) != 1 {
		t.Errorf("feed events = %d, want 1", len(bus.published["feed"]))
	}

	// Second call must come from the cache without another discovery run.
	second, err := svc.DailyMarkets(ctx, 2)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("got %d cached markets, want 2", len(second))
	}
	if cache.sets != 1 {
		t.Errorf("cache writes after cached read = %d, want still 1", cache.sets)
	}
	if len(bus.published["feed"]) != 1 {
		t.Errorf("feed events after cached read = %d, want still 1", len(bus.published["feed"]))
	}
}

func TestServiceDailyMarkets_KeyedByCount(t *testing.T) {
	now := time.Now()
	svc, _, cache, _ := serviceUnderTest([][]domain.Market{{
		mkMarket(1, 5000, time.Hour, now),
		mkMarket(2, 8000, 2*time.Hour, now),
		mkMarket(3, 2000, 3*time.Hour, now),
	}})

	ctx := context.Background()
	if _, err := svc.DailyMarkets(ctx, 1); err != nil {
		t.Fatalf("count=1: %v", err)
	}
	if _, err := svc.DailyMarkets(ctx, 3); err != nil {
		t.Fatalf("count=3: %v", err)
	}
	if cache.sets != 2 {
		t.Errorf("cache writes = %d, want one per distinct count", cache.sets)
	}
}

func TestServiceWithoutCacheAlwaysDiscovers(t *testing.T) {
	now := time.Now()
	lister := &fakeLister{pages: [][]domain.Market{{mkMarket(1, 5000, time.Hour, now)}}}
	d := NewDiscoverer(lister, fastConfig(), testLogger())
	svc := NewService(d, lister, nil, nil, testLogger())

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		markets, err := svc.DailyMarkets(ctx, 1)
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if len(markets) != 1 {
			t.Fatalf("call %d: got %d markets", i, len(markets))
		}
	}
}

func TestServiceRefresh_CachesEmptyResult(t *testing.T) {
	svc, _, cache, _ := serviceUnderTest(nil)

	markets, err := svc.Refresh(context.Background(), 5)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(markets) != 0 {
		t.Fatalf("got %d markets from empty upstream", len(markets))
	}
	if cache.sets != 1 {
		t.Errorf("empty result was not cached (writes = %d)", cache.sets)
	}
}

func TestServiceRefresh_InvalidatesOtherCountKeys(t *testing.T) {
	now := time.Now()
	svc, _, cache, _ := serviceUnderTest([][]domain.Market{{
		mkMarket(1, 5000, time.Hour, now),
		mkMarket(2, 8000, 2*time.Hour, now),
	}})

	ctx := context.Background()
	if _, err := svc.DailyMarkets(ctx, 1); err != nil {
		t.Fatalf("count=1: %v", err)
	}
	if _, err := svc.Refresh(ctx, 2); err != nil {
		t.Fatalf("refresh count=2: %v", err)
	}

	// The count=1 entry was assembled from the older scan and must be gone.
	if _, err := cache.GetFeed(ctx, dailyFeedKey(1)); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("stale count=1 entry still cached, err = %v", err)
	}
	if _, err := cache.GetFeed(ctx, dailyFeedKey(2)); err != nil {
		t.Errorf("fresh count=2 entry missing: %v", err)
	}
}
