// Package binance provides the primary exchange data source for 24h price
// sparklines.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// symbolToPair maps feed symbols to Binance spot pairs.
var symbolToPair = map[string]string{
	"BTC": "BTCUSDT",
	"ETH": "ETHUSDT",
	"SOL": "SOLUSDT",
}

// Client is the REST client for the Binance public klines endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Binance client. baseURL is the API root, e.g.
// "https://api.binance.com".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Name identifies the source in logs.
func (c *Client) Name() string { return "binance" }

// Supports reports whether the symbol maps to a known trading pair.
func (c *Client) Supports(symbol string) bool {
	_, ok := symbolToPair[symbol]
	return ok
}

// Sparkline fetches 24 hourly candles and returns the close prices plus the
// opening price of the first candle (the price 24h ago).
func (c *Client) Sparkline(ctx context.Context, symbol string) (domain.Sparkline, error) {
	pair, ok := symbolToPair[symbol]
	if !ok {
		return domain.Sparkline{}, fmt.Errorf("binance: %w: symbol %s", domain.ErrNotFound, symbol)
	}

	target := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=1h&limit=24", c.baseURL, pair)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.Sparkline{}, fmt.Errorf("binance: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Sparkline{}, fmt.Errorf("binance: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Sparkline{}, fmt.Errorf("binance: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Sparkline{}, fmt.Errorf("binance: unexpected status %d", resp.StatusCode)
	}

	// Each kline is [openTime, open, high, low, close, ...] with prices as
	// strings.
	var klines [][]any
	if err := json.Unmarshal(body, &klines); err != nil {
		return domain.Sparkline{}, fmt.Errorf("binance: decode klines: %w", err)
	}
	if len(klines) == 0 {
		return domain.Sparkline{}, fmt.Errorf("binance: %w", domain.ErrUpstreamEmpty)
	}

	s := domain.Sparkline{Points: make([]float64, 0, len(klines))}
	for _, k := range klines {
		if v, ok := candleField(k, 4); ok {
			s.Points = append(s.Points, v)
		}
	}
	if open, ok := candleField(klines[0], 1); ok {
		s.OpenPrice = &open
	}
	if len(s.Points) == 0 {
		return domain.Sparkline{}, fmt.Errorf("binance: %w", domain.ErrUpstreamEmpty)
	}
	return s, nil
}

// candleField extracts a numeric field from a candle row, tolerating both
// string and number encodings.
func candleField(candle []any, idx int) (float64, bool) {
	if idx >= len(candle) {
		return 0, false
	}
	switch v := candle[idx].(type) {
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	case float64:
		return v, true
	default:
		return 0, false
	}
}
