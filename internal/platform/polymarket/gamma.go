// Package polymarket provides the Gamma API client and the conversion of
// raw Gamma events into the pipeline's canonical Market records.
package polymarket

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// EventsQuery holds the normalized query parameters for a Gamma "list
// events" call.
type EventsQuery struct {
	Limit     int
	Offset    int
	Order     string // e.g. "liquidity", "endDate"
	Ascending bool
	IDs       []string // when set, filter-by-id replaces the listing params
}

// GammaClient is the REST client for the Polymarket Gamma API.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// EventsURL builds the absolute /events URL for the given query. Listings
// are always scoped to active, non-closed events.
func (g *GammaClient) EventsURL(q EventsQuery) string {
	params := url.Values{}

	if len(q.IDs) > 0 {
		for _, id := range q.IDs {
			params.Add("id", id)
		}
		return g.baseURL + "/events?" + params.Encode()
	}

	order := q.Order
	if order == "" {
		order = "liquidity"
	}
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("order", order)
	params.Set("ascending", strconv.FormatBool(q.Ascending))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("offset", strconv.Itoa(q.Offset))

	return g.baseURL + "/events?" + params.Encode()
}

// GetEventsRaw forwards the given query parameters directly to the /events
// endpoint and returns the raw body. Used by the internal relay handler,
// which caches the response server-side.
func (g *GammaClient) GetEventsRaw(ctx context.Context, params url.Values) ([]byte, error) {
	target := g.baseURL + "/events?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("polymarket/gamma: unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
