package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// defaultDailyCount is how many daily markets the feed endpoint returns when
// the client does not ask for a specific count.
const defaultDailyCount = 20

// maxDailyCount caps the per-request feed size.
const maxDailyCount = 100

// FeedService defines the methods the feed handler requires from the feed
// layer. It is declared locally so the handler package does not depend on
// the concrete service implementation.
type FeedService interface {
	DailyMarkets(ctx context.Context, count int) ([]domain.Market, error)
	Trending(ctx context.Context, limit, offset int, order string, ascending bool) []domain.Market
}

// MarketResolver reports whether an expired market has resolved upstream.
type MarketResolver interface {
	MarketResult(ctx context.Context, id int64) (domain.MarketOutcome, error)
}

// FeedHandler serves the market feed HTTP endpoints.
type FeedHandler struct {
	feed     FeedService
	resolver MarketResolver
	logger   *slog.Logger
}

// NewFeedHandler creates a FeedHandler with the given service and logger.
// resolver may be nil, in which case the result endpoint reports every
// market as unresolved.
func NewFeedHandler(feed FeedService, resolver MarketResolver, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		feed:     feed,
		resolver: resolver,
		logger:   logHandler(logger, "feed"),
	}
}

// marketsResponse wraps market list output with metadata.
type marketsResponse struct {
	Markets []domain.Market `json:"markets"`
	Count   int             `json:"count"`
}

// DailyMarkets returns the curated daily market feed.
// GET /api/markets/daily?count=20
func (h *FeedHandler) DailyMarkets(w http.ResponseWriter, r *http.Request) {
	count := queryInt(r, "count", defaultDailyCount)
	if count == 0 {
		count = defaultDailyCount
	}
	if count > maxDailyCount {
		count = maxDailyCount
	}

	markets, err := h.feed.DailyMarkets(r.Context(), count)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "daily markets failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to load daily markets")
		return
	}
	if markets == nil {
		markets = []domain.Market{}
	}

	writeJSON(w, http.StatusOK, marketsResponse{
		Markets: markets,
		Count:   len(markets),
	})
}

// Trending returns one page of generic trending markets.
// GET /api/markets/trending?limit=20&offset=0&order=volume24hr
func (h *FeedHandler) Trending(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultDailyCount)
	if limit > maxDailyCount {
		limit = maxDailyCount
	}
	offset := queryInt(r, "offset", 0)

	order := r.URL.Query().Get("order")
	if order == "" {
		order = "volume24hr"
	}
	ascending, _ := strconv.ParseBool(r.URL.Query().Get("ascending"))

	markets := h.feed.Trending(r.Context(), limit, offset, order, ascending)
	if markets == nil {
		markets = []domain.Market{}
	}

	writeJSON(w, http.StatusOK, marketsResponse{
		Markets: markets,
		Count:   len(markets),
	})
}

// resultResponse reports an expired market's resolution. Result is null
// until the market has converged on an outcome.
type resultResponse struct {
	PredictionID int64   `json:"predictionId"`
	Result       *string `json:"result"`
}

// Result reports whether a market has resolved yes or no. Markets that are
// still trading, unknown upstream, or not yet converged return a null result.
// GET /api/markets/{id}/result
func (h *FeedHandler) Result(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid market id")
		return
	}

	resp := resultResponse{PredictionID: id}
	if h.resolver != nil {
		outcome, err := h.resolver.MarketResult(r.Context(), id)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "market result failed",
				slog.Int64("market_id", id),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to check market result")
			return
		}
		if outcome != domain.OutcomeUnresolved {
			s := string(outcome)
			resp.Result = &s
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
