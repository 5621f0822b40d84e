// Package fetch provides multi-strategy transport with retry for upstream
// APIs that are frequently unreachable directly (CORS-blocked, geo-fenced,
// or rate-limited). The strategy order and the retry policy are plain data
// so both can be tested and reconfigured independently.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Strategy is one way of reaching a target URL. Implementations wrap the
// target in whatever envelope their transport requires and return the raw
// response body on HTTP success.
type Strategy interface {
	Name() string
	Do(ctx context.Context, target string) ([]byte, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func doGet(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}

// Direct calls the target URL as-is.
type Direct struct {
	client *http.Client
}

// NewDirect creates the direct-call strategy.
func NewDirect() *Direct {
	return &Direct{client: newHTTPClient()}
}

func (d *Direct) Name() string { return "direct" }

func (d *Direct) Do(ctx context.Context, target string) ([]byte, error) {
	return doGet(ctx, d.client, target)
}

// EncodingProxy reaches the target through a public CORS relay that takes
// the URL-encoded target as a query value and responds with the raw upstream
// body (corsproxy.io, allorigins /raw).
type EncodingProxy struct {
	name   string
	prefix string // e.g. "https://corsproxy.io/?"
	client *http.Client
}

// NewEncodingProxy creates a CORS-relay strategy. prefix must end where the
// URL-encoded target should be appended.
func NewEncodingProxy(name, prefix string) *EncodingProxy {
	return &EncodingProxy{name: name, prefix: prefix, client: newHTTPClient()}
}

func (p *EncodingProxy) Name() string { return p.name }

func (p *EncodingProxy) Do(ctx context.Context, target string) ([]byte, error) {
	return doGet(ctx, p.client, p.prefix+url.QueryEscape(target))
}

// Relay reaches the target through the same-origin relay endpoint, which
// forwards the original query parameters to the upstream API with a short
// server-side cache.
type Relay struct {
	base   string // e.g. "http://localhost:8000/api/relay/events"
	client *http.Client
}

// NewRelay creates the internal-relay strategy.
func NewRelay(base string) *Relay {
	return &Relay{base: base, client: newHTTPClient()}
}

func (r *Relay) Name() string { return "relay" }

func (r *Relay) Do(ctx context.Context, target string) ([]byte, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse target: %w", err)
	}
	relayURL := r.base
	if u.RawQuery != "" {
		relayURL += "?" + u.RawQuery
	}
	return doGet(ctx, r.client, relayURL)
}
