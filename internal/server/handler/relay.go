package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// relayTTL is how long a relayed upstream response is reused before being
// refetched.
const relayTTL = 60 * time.Second

// EventsFetcher forwards raw query parameters to the upstream events
// endpoint and returns the raw JSON body.
type EventsFetcher interface {
	GetEventsRaw(ctx context.Context, params url.Values) ([]byte, error)
}

// relayEntry is one cached upstream response.
type relayEntry struct {
	body      []byte
	fetchedAt time.Time
}

// RelayHandler proxies event queries to the upstream API with a short
// server-side cache, giving clients behind restrictive networks a same-origin
// fetch path.
type RelayHandler struct {
	fetcher EventsFetcher
	logger  *slog.Logger

	mu    sync.Mutex
	cache map[string]relayEntry
}

// NewRelayHandler creates a RelayHandler with the given upstream fetcher.
func NewRelayHandler(fetcher EventsFetcher, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{
		fetcher: fetcher,
		logger:  logHandler(logger, "relay"),
		cache:   make(map[string]relayEntry),
	}
}

// Events relays the request's query string to the upstream events endpoint.
// Responses are cached per query string for 60 seconds.
// GET /api/relay/events?limit=20&offset=0
func (h *RelayHandler) Events(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Encode()

	if body, ok := h.cached(key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
		return
	}

	body, err := h.fetcher.GetEventsRaw(r.Context(), r.URL.Query())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "relay fetch failed",
			slog.String("query", key),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "upstream fetch failed")
		return
	}

	h.store(key, body)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Cache", "MISS")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (h *RelayHandler) cached(key string) ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry, ok := h.cache[key]
	if !ok || time.Since(entry.fetchedAt) > relayTTL {
		return nil, false
	}
	return entry.body, true
}

func (h *RelayHandler) store(key string, body []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Drop stale entries opportunistically so the map cannot grow without
	// bound on high-cardinality query strings.
	for k, e := range h.cache {
		if time.Since(e.fetchedAt) > relayTTL {
			delete(h.cache, k)
		}
	}
	h.cache[key] = relayEntry{body: body, fetchedAt: time.Now()}
}
