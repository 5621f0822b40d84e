// Package feed assembles the normalized market feed: daily-market discovery
// with trending backfill, cache-backed serving, and the sparkline price
// service.
package feed

import (
	"log/slog"
	"sort"
	"time"

	"context"

	"golang.org/x/time/rate"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// MarketLister retrieves one normalized page of markets from the upstream
// source. An empty page means either upstream exhaustion or temporary
// unavailability; the discoverer treats both as "no records this page".
type MarketLister interface {
	ListTrending(ctx context.Context, limit, offset int, order string, ascending bool) []domain.Market
}

// DiscoverConfig bounds the daily-market scan.
type DiscoverConfig struct {
	// BatchSize is the page size for the end-date scan.
	BatchSize int
	// MaxPages caps the scan so at most BatchSize*MaxPages records are
	// examined.
	MaxPages int
	// HorizonHours is the rolling window a market must end within.
	HorizonHours float64
	// MinVolume filters out junk listings.
	MinVolume float64
	// PageInterval is the pacing delay between successive scan pages.
	PageInterval time.Duration
	// BackfillMargin is how many extra trending markets to request beyond
	// the shortfall when the strict scan underproduces.
	BackfillMargin int
}

// DefaultDiscoverConfig matches the production scan: up to 5000 records,
// 24h horizon, $1000 volume floor, 150ms between pages.
func DefaultDiscoverConfig() DiscoverConfig {
	return DiscoverConfig{
		BatchSize:      100,
		MaxPages:       50,
		HorizonHours:   24,
		MinVolume:      1000,
		PageInterval:   150 * time.Millisecond,
		BackfillMargin: 20,
	}
}

// Discoverer assembles a target-sized set of markets expiring within the
// configured horizon, backfilled from generic trending when the strict scan
// comes up short.
type Discoverer struct {
	lister MarketLister
	cfg    DiscoverConfig
	pacer  *rate.Limiter
	now    func() time.Time
	logger *slog.Logger
}

// NewDiscoverer creates a Discoverer with the given scan bounds.
func NewDiscoverer(lister MarketLister, cfg DiscoverConfig, logger *slog.Logger) *Discoverer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 50
	}
	interval := cfg.PageInterval
	if interval <= 0 {
		interval = 150 * time.Millisecond
	}
	return &Discoverer{
		lister: lister,
		cfg:    cfg,
		pacer:  rate.NewLimiter(rate.Every(interval), 1),
		now:    time.Now,
		logger: logger.With(slog.String("component", "discoverer")),
	}
}

// DailyMarkets scans end-date-ascending pages for markets ending within the
// horizon, deduplicates by id, backfills from trending on shortfall, and
// returns up to requiredCount markets sorted by descending volume. The only
// error it returns is context cancellation; upstream failures degrade to a
// shorter (possibly empty) result.
func (d *Discoverer) DailyMarkets(ctx context.Context, requiredCount int) ([]domain.Market, error) {
	collected := make([]domain.Market, 0, requiredCount)
	seen := make(map[int64]bool, requiredCount)

	offset := 0
	for page := 0; page < d.cfg.MaxPages; page++ {
		// Waiting before every page (including the first, which consumes
		// the limiter's initial token) keeps each boundary paced.
		if err := d.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		batch := d.lister.ListTrending(ctx, d.cfg.BatchSize, offset, "endDate", true)
		if len(batch) == 0 {
			break
		}

		matched := 0
		now := d.now()
		for _, m := range batch {
			if !d.qualifies(m, now) || seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			collected = append(collected, m)
			matched++
		}

		d.logger.DebugContext(ctx, "scanned page",
			slog.Int("page", page+1),
			slog.Int("matched", matched),
			slog.Int("collected", len(collected)),
			slog.Int("required", requiredCount),
		)

		if len(collected) >= requiredCount {
			break
		}
		offset += d.cfg.BatchSize
	}

	if len(collected) < requiredCount {
		shortfall := requiredCount - len(collected)
		d.logger.InfoContext(ctx, "strict scan underproduced, backfilling from trending",
			slog.Int("collected", len(collected)),
			slog.Int("shortfall", shortfall),
		)

		trending := d.lister.ListTrending(ctx, shortfall+d.cfg.BackfillMargin, 0, "liquidity", false)
		for _, m := range trending {
			if len(collected) >= requiredCount {
				break
			}
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			collected = append(collected, m)
		}
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].TotalVolume > collected[j].TotalVolume
	})
	if len(collected) > requiredCount {
		collected = collected[:requiredCount]
	}
	return collected, nil
}

// qualifies applies the strict daily-market filter: meaningful volume and an
// end time in the future but within the horizon.
func (d *Discoverer) qualifies(m domain.Market, now time.Time) bool {
	if m.TotalVolume < d.cfg.MinVolume {
		return false
	}
	if m.EndTime.IsZero() {
		return false
	}
	hoursLeft := m.HoursUntilEnd(now)
	return hoursLeft > 0 && hoursLeft <= d.cfg.HorizonHours
}
