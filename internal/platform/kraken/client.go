// Package kraken provides the fallback exchange data source for 24h price
// sparklines, used when the primary source fails.
package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// symbolToPair maps feed symbols to Kraken pairs.
var symbolToPair = map[string]string{
	"BTC": "XBTUSD",
	"ETH": "ETHUSD",
	"SOL": "SOLUSD",
}

// Client is the REST client for the Kraken public OHLC endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Kraken client. baseURL is the API root, e.g.
// "https://api.kraken.com".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Name identifies the source in logs.
func (c *Client) Name() string { return "kraken" }

// Supports reports whether the symbol maps to a known trading pair.
func (c *Client) Supports(symbol string) bool {
	_, ok := symbolToPair[symbol]
	return ok
}

// ohlcResponse is the Kraken OHLC envelope. The result object is keyed by
// the resolved pair name, which may differ from the requested one.
type ohlcResponse struct {
	Error  []string                   `json:"error"`
	Result map[string]json.RawMessage `json:"result"`
}

// Sparkline fetches hourly OHLC candles and returns the close prices of the
// most recent 24 plus the opening price of the first of those.
func (c *Client) Sparkline(ctx context.Context, symbol string) (domain.Sparkline, error) {
	pair, ok := symbolToPair[symbol]
	if !ok {
		return domain.Sparkline{}, fmt.Errorf("kraken: %w: symbol %s", domain.ErrNotFound, symbol)
	}

	target := fmt.Sprintf("%s/0/public/OHLC?pair=%s&interval=60", c.baseURL, pair)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.Sparkline{}, fmt.Errorf("kraken: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Sparkline{}, fmt.Errorf("kraken: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Sparkline{}, fmt.Errorf("kraken: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Sparkline{}, fmt.Errorf("kraken: unexpected status %d", resp.StatusCode)
	}

	var env ohlcResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.Sparkline{}, fmt.Errorf("kraken: decode response: %w", err)
	}
	if len(env.Error) > 0 {
		return domain.Sparkline{}, fmt.Errorf("kraken: api error: %s", strings.Join(env.Error, "; "))
	}

	var candles [][]any
	for key, raw := range env.Result {
		if key == "last" {
			continue
		}
		if err := json.Unmarshal(raw, &candles); err == nil && len(candles) > 0 {
			break
		}
	}
	if len(candles) == 0 {
		return domain.Sparkline{}, fmt.Errorf("kraken: %w", domain.ErrUpstreamEmpty)
	}

	// Candle rows are [time, open, high, low, close, vwap, volume, count]
	// with prices as strings. Keep the most recent 24.
	if len(candles) > 24 {
		candles = candles[len(candles)-24:]
	}

	s := domain.Sparkline{Points: make([]float64, 0, len(candles))}
	for _, c := range candles {
		if v, ok := candleField(c, 4); ok {
			s.Points = append(s.Points, v)
		}
	}
	if open, ok := candleField(candles[0], 1); ok {
		s.OpenPrice = &open
	}
	if len(s.Points) == 0 {
		return domain.Sparkline{}, fmt.Errorf("kraken: %w", domain.ErrUpstreamEmpty)
	}
	return s, nil
}

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
