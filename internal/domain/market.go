package domain

import "time"

// HotVolumeThreshold is the total volume above which a market is flagged hot.
// Strict inequality: a market at exactly the threshold is not hot.
const HotVolumeThreshold = 100_000

// Market is the canonical, pipeline-owned representation of one prediction
// market listing. It is rebuilt fresh on every fetch and never mutated in
// place; the numeric ID is only stable enough for within-run deduplication.
type Market struct {
	ID            int64     `json:"id"`
	Question      string    `json:"question"`
	Slug          string    `json:"slug"`
	Category      Category  `json:"category"`
	EndTime       time.Time `json:"endTime"`
	OutcomeLabels []string  `json:"outcomeLabels"` // always >= 2 entries
	YesVotes      int64     `json:"yesVotes"`
	NoVotes       int64     `json:"noVotes"`
	TotalVolume   float64   `json:"totalVolume"`
	Liquidity     float64   `json:"liquidity"`
	IsHot         bool      `json:"isHot"`
}

// HoursUntilEnd returns the fractional number of hours between now and the
// market's end time. Negative means the market has already ended.
func (m Market) HoursUntilEnd(now time.Time) float64 {
	return m.EndTime.Sub(now).Hours()
}

// MarketOutcome is the resolved result of an expired market. Resolution is
// heuristic: a market counts as resolved only once its listed price has
// converged past the convergence threshold after the end date.
type MarketOutcome string

const (
	OutcomeYes MarketOutcome = "yes"
	OutcomeNo  MarketOutcome = "no"

	// OutcomeUnresolved covers everything else: still trading, prices not
	// converged, or the market is unknown upstream.
	OutcomeUnresolved MarketOutcome = ""
)

// Sparkline is a 24h price series plus the opening price, as served by the
// price proxy.
type Sparkline struct {
	Points    []float64 `json:"sparkline"`
	OpenPrice *float64  `json:"openPrice"`
}
