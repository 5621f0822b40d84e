package polymarket

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/omenlabs/omenfeed/internal/domain"
	"github.com/omenlabs/omenfeed/internal/fetch"
)

const (
	// minResolvableID is the floor below which ids are synthesized locally
	// (snapshot backfill, random fallbacks) and have no upstream record.
	minResolvableID = 10_000

	// convergenceThreshold is how far a listed price must move toward 1.0
	// after the end date before the market counts as resolved.
	convergenceThreshold = 0.95
)

// FeedClient issues Gamma listing calls through the failover transport and
// normalizes the results. Exhausted retries surface as an empty slice, never
// an error: callers must treat "empty" as "temporarily unavailable", not as
// "no markets exist".
type FeedClient struct {
	gamma     *GammaClient
	transport *fetch.Client
	logger    *slog.Logger
}

// NewFeedClient creates a FeedClient over the given Gamma client and
// failover transport.
func NewFeedClient(gamma *GammaClient, transport *fetch.Client, logger *slog.Logger) *FeedClient {
	return &FeedClient{
		gamma:     gamma,
		transport: transport,
		logger:    logger.With(slog.String("component", "polymarket")),
	}
}

// ListEvents fetches one page of raw events for the given query.
func (c *FeedClient) ListEvents(ctx context.Context, q EventsQuery) []APIEvent {
	target := c.gamma.EventsURL(q)

	var events []APIEvent
	err := c.transport.Fetch(ctx, target, func(body []byte) error {
		return json.Unmarshal(body, &events)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "event listing unavailable, returning empty page",
			slog.String("order", q.Order),
			slog.Int("offset", q.Offset),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return events
}

// ListTrending fetches one page of events and normalizes them into Market
// records, discarding events without a usable sub-market.
func (c *FeedClient) ListTrending(ctx context.Context, limit, offset int, order string, ascending bool) []domain.Market {
	events := c.ListEvents(ctx, EventsQuery{
		Limit:     limit,
		Offset:    offset,
		Order:     order,
		Ascending: ascending,
	})

	markets := make([]domain.Market, 0, len(events))
	for i := range events {
		if m := events[i].ToMarket(); m != nil {
			markets = append(markets, *m)
		}
	}
	return markets
}

// MarketResult checks whether an expired market has effectively resolved by
// fetching its event by id and inspecting price convergence. Markets that
// are still trading, unknown upstream, or priced ambiguously report
// OutcomeUnresolved; like the listing calls, upstream failure degrades to
// unresolved rather than an error.
func (c *FeedClient) MarketResult(ctx context.Context, id int64) (domain.MarketOutcome, error) {
	if id < minResolvableID {
		return domain.OutcomeUnresolved, nil
	}
	if err := ctx.Err(); err != nil {
		return domain.OutcomeUnresolved, err
	}

	wanted := strconv.FormatInt(id, 10)
	events := c.ListEvents(ctx, EventsQuery{IDs: []string{wanted}})

	for i := range events {
		for _, sub := range events[i].Markets {
			if sub.ID != wanted {
				continue
			}
			return resolveOutcome(sub, time.Now()), nil
		}
	}
	return domain.OutcomeUnresolved, nil
}

// resolveOutcome applies the convergence heuristic to one sub-market.
func resolveOutcome(sub APISubMarket, now time.Time) domain.MarketOutcome {
	endDate, err := time.Parse(time.RFC3339, sub.EndDate)
	if err != nil || !now.After(endDate) {
		return domain.OutcomeUnresolved
	}

	yesPrice := priceAt(sub.OutcomePrices, 0)
	noPrice := priceAt(sub.OutcomePrices, 1)

	switch {
	case yesPrice > convergenceThreshold:
		return domain.OutcomeYes
	case noPrice > convergenceThreshold:
		return domain.OutcomeNo
	default:
		return domain.OutcomeUnresolved
	}
}
