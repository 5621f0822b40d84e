package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// SparklineSource produces 24h hourly close series for a crypto symbol.
// Implemented by the Binance and Kraken clients.
type SparklineSource interface {
	Name() string
	Supports(symbol string) bool
	Sparkline(ctx context.Context, symbol string) (domain.Sparkline, error)
}

// sparklineTTL mirrors the upstream exchanges' candle cadence closely
// enough for a UI sparkline.
const sparklineTTL = 30 * time.Second

// PriceService fetches crypto sparklines with a primary/fallback source
// pair and a short-lived cache in front. Fresh fetches are announced on the
// signal bus so WebSocket clients can redraw without polling.
type PriceService struct {
	sources []SparklineSource
	cache   domain.SparklineCache
	bus     domain.SignalBus
	logger  *slog.Logger
}

// NewPriceService creates a PriceService. cache and bus may be nil; the
// service then fetches on every call and publishes nothing.
func NewPriceService(cache domain.SparklineCache, bus domain.SignalBus, logger *slog.Logger, sources ...SparklineSource) *PriceService {
	return &PriceService{
		sources: sources,
		cache:   cache,
		bus:     bus,
		logger:  logger.With(slog.String("component", "prices")),
	}
}

// Sparkline returns the cached or freshly fetched sparkline for symbol.
// Sources are tried in order; the first success wins.
func (p *PriceService) Sparkline(ctx context.Context, symbol string) (domain.Sparkline, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if p.cache != nil {
		cached, err := p.cache.GetSparkline(ctx, symbol)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			p.logger.WarnContext(ctx, "sparkline cache read failed",
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
		}
	}

	var lastErr error
	for _, src := range p.sources {
		if !src.Supports(symbol) {
			continue
		}
		spark, err := src.Sparkline(ctx, symbol)
		if err != nil {
			lastErr = err
			p.logger.WarnContext(ctx, "sparkline source failed",
				slog.String("source", src.Name()),
				slog.String("symbol", symbol),
				slog.String("error", err.Error()),
			)
			continue
		}
		if p.cache != nil {
			if err := p.cache.SetSparkline(ctx, symbol, spark, sparklineTTL); err != nil {
				p.logger.WarnContext(ctx, "sparkline cache write failed",
					slog.String("symbol", symbol),
					slog.String("error", err.Error()),
				)
			}
		}
		p.publishRefresh(ctx, symbol, src.Name(), spark)
		return spark, nil
	}

	if lastErr != nil {
		return domain.Sparkline{}, fmt.Errorf("feed: sparkline %s: %w", symbol, lastErr)
	}
	return domain.Sparkline{}, fmt.Errorf("feed: sparkline %s: %w", symbol, domain.ErrNotFound)
}

// priceEvent is the payload published on the "prices" channel after a fresh
// fetch (cache hits are silent).
type priceEvent struct {
	Type   string  `json:"type"`
	Symbol string  `json:"symbol"`
	Source string  `json:"source"`
	Last   float64 `json:"last"`
}

func (p *PriceService) publishRefresh(ctx context.Context, symbol, source string, spark domain.Sparkline) {
	if p.bus == nil || len(spark.Points) == 0 {
		return
	}
	payload, err := json.Marshal(priceEvent{
		Type:   "price_refreshed",
		Symbol: symbol,
		Source: source,
		Last:   spark.Points[len(spark.Points)-1],
	})
	if err != nil {
		return
	}
	if err := p.bus.Publish(ctx, "prices", payload); err != nil {
		p.logger.WarnContext(ctx, "price event publish failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
	}
}
