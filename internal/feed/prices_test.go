package feed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/omenlabs/omenfeed/internal/domain"
)

type stubSource struct {
	name     string
	supports bool
	spark    domain.Sparkline
	err      error
	calls    int
}

func (s *stubSource) Name() string         { return s.name }
func (s *stubSource) Supports(string) bool { return s.supports }

func (s *stubSource) Sparkline(context.Context, string) (domain.Sparkline, error) {
	s.calls++
	return s.spark, s.err
}

// memSparklineCache is an in-memory domain.SparklineCache.
type memSparklineCache struct {
	entries map[string]domain.Sparkline
}

func newMemSparklineCache() *memSparklineCache {
	return &memSparklineCache{entries: make(map[string]domain.Sparkline)}
}

func (c *memSparklineCache) SetSparkline(_ context.Context, symbol string, s domain.Sparkline, _ time.Duration) error {
	c.entries[symbol] = s
	return nil
}

func (c *memSparklineCache) GetSparkline(_ context.Context, symbol string) (domain.Sparkline, error) {
	s, ok := c.entries[symbol]
	if !ok {
		return domain.Sparkline{}, domain.ErrNotFound
	}
	return s, nil
}

func sparkOf(points ...float64) domain.Sparkline {
	open := points[0]
	return domain.Sparkline{Points: points, OpenPrice: &open}
}

func TestPriceService_FallsBackToSecondSource(t *testing.T) {
	primary := &stubSource{name: "binance", supports: true, err: errors.New("451 blocked")}
	fallback := &stubSource{name: "kraken", supports: true, spark: sparkOf(10, 11, 12)}

	svc := NewPriceService(newMemSparklineCache(), nil, testLogger(), primary, fallback)

	got, err := svc.Sparkline(context.Background(), "btc")
	if err != nil {
		t.Fatalf("sparkline: %v", err)
	}
	if len(got.Points) != 3 || got.Points[2] != 12 {
		t.Errorf("got %v", got.Points)
	}
	if primary.calls != 1 || fallback.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.calls, fallback.calls)
	}
}

func TestPriceService_CacheShortCircuitsSources(t *testing.T) {
	src := &stubSource{name: "binance", supports: true, spark: sparkOf(5, 6)}
	svc := NewPriceService(newMemSparklineCache(), nil, testLogger(), src)

	ctx := context.Background()
	if _, err := svc.Sparkline(ctx, "ETH"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	// Lowercase input normalizes to the same cache key.
	if _, err := svc.Sparkline(ctx, " eth "); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source called %d times, want 1 (cache hit expected)", src.calls)
	}
}

func TestPriceService_UnsupportedSymbol(t *testing.T) {
	src := &stubSource{name: "binance", supports: false}
	svc := NewPriceService(nil, nil, testLogger(), src)

	_, err := svc.Sparkline(context.Background(), "DOGE")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unsupported symbol, got %v", err)
	}
	if src.calls != 0 {
		t.Errorf("unsupported source was invoked %d times", src.calls)
	}
}

func TestPriceService_AllSourcesFail(t *testing.T) {
	boom := errors.New("rate limited")
	svc := NewPriceService(nil, nil, testLogger(),
		&stubSource{name: "binance", supports: true, err: boom},
		&stubSource{name: "kraken", supports: true, err: boom},
	)

	_, err := svc.Sparkline(context.Background(), "SOL")
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped source error, got %v", err)
	}
}

func TestPriceService_PublishesOnFreshFetchOnly(t *testing.T) {
	src := &stubSource{name: "binance", supports: true, spark: sparkOf(100, 101, 102)}
	bus := newRecordingBus()
	svc := NewPriceService(newMemSparklineCache(), bus, testLogger(), src)

	ctx := context.Background()
	if _, err := svc.Sparkline(ctx, "BTC"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := svc.Sparkline(ctx, "BTC"); err != nil {
		t.Fatalf("second call: %v", err)
	}

	events := bus.published["prices"]
	if len(events) != 1 {
		t.Fatalf("published %d price events, want 1 (cache hit should be silent)", len(events))
	}
	if !strings.Contains(string(events[0]), `"symbol":"BTC"`) {
		t.Errorf("event payload = %s", events[0])
	}
}
