package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

type stubFetcher struct {
	body  []byte
	err   error
	calls int

	lastParams url.Values
}

func (s *stubFetcher) GetEventsRaw(_ context.Context, params url.Values) ([]byte, error) {
	s.calls++
	s.lastParams = params
	return s.body, s.err
}

func TestRelayEvents_CachesPerQuery(t *testing.T) {
	fetcher := &stubFetcher{body: []byte(`[{"id":"1"}]`)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewRelayHandler(fetcher, logger)

	get := func(target string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.Events(rr, httptest.NewRequest(http.MethodGet, target, nil))
		return rr
	}

	rr := get("/api/relay/events?limit=20&offset=0")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if got := rr.Header().Get("X-Cache"); got != "MISS" {
		t.Errorf("first request X-Cache = %q, want MISS", got)
	}
	if fetcher.lastParams.Get("limit") != "20" {
		t.Errorf("forwarded params = %v", fetcher.lastParams)
	}

	rr = get("/api/relay/events?limit=20&offset=0")
	if got := rr.Header().Get("X-Cache"); got != "HIT" {
		t.Errorf("repeat request X-Cache = %q, want HIT", got)
	}
	if rr.Body.String() != `[{"id":"1"}]` {
		t.Errorf("cached body = %q", rr.Body.String())
	}
	if fetcher.calls != 1 {
		t.Errorf("upstream called %d times, want 1", fetcher.calls)
	}

	// A different query string misses the cache.
	get("/api/relay/events?limit=50")
	if fetcher.calls != 2 {
		t.Errorf("upstream called %d times after new query, want 2", fetcher.calls)
	}
}

func TestRelayEvents_UpstreamFailure(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewRelayHandler(fetcher, logger)

	rr := httptest.NewRecorder()
	h.Events(rr, httptest.NewRequest(http.MethodGet, "/api/relay/events", nil))
	if rr.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rr.Code)
	}
}
