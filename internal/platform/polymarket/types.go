package polymarket

import (
	"encoding/json"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexStrings unmarshals from a JSON array, a JSON-encoded string of an
// array (the Gamma API double-encodes "outcomes" and "outcomePrices"), or
// anything else, in which case it decodes to nil so the normalizer can apply
// its documented default. It never reports an error: a malformed field must
// not discard the whole event.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		// Double-encoded: the field is a string containing JSON.
		data = []byte(s)
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		*f = nil
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, v := range raw {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case float64:
			out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
		}
	}
	*f = out
	return nil
}

// flexNumber unmarshals from a JSON number or a numeric string. Unparsable
// input decodes to NaN so callers can distinguish it from a real zero and
// apply fallbacks.
type flexNumber float64

func (f *flexNumber) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexNumber(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if v, perr := strconv.ParseFloat(s, 64); perr == nil {
			*f = flexNumber(v)
			return nil
		}
	}
	*f = flexNumber(math.NaN())
	return nil
}

func (f *flexNumber) value() (float64, bool) {
	if f == nil {
		return 0, false
	}
	v := float64(*f)
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// APIEvent represents an event as returned by the Polymarket Gamma API. An
// event groups one or more related markets; only the first (primary)
// sub-market feeds the normalized record. The pipeline must tolerate
// arbitrary additional or missing fields.
type APIEvent struct {
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Slug    string         `json:"slug"`
	Active  flexBool       `json:"active"`
	Closed  flexBool       `json:"closed"`
	Volume  *flexNumber    `json:"volume"`
	Markets []APISubMarket `json:"markets"`
}

// APISubMarket is a nested market inside a Gamma event.
type APISubMarket struct {
	ID            string      `json:"id"`
	Question      string      `json:"question"`
	Outcomes      flexStrings `json:"outcomes"`
	OutcomePrices flexStrings `json:"outcomePrices"`
	Volume        *flexNumber `json:"volume"`
	Liquidity     *flexNumber `json:"liquidity"`
	EndDate       string      `json:"endDate"`
}

const (
	defaultPrice = 0.5

	// maxInferredLabelLen guards the team-name heuristic against titles
	// that merely contain " vs " inside longer prose.
	maxInferredLabelLen = 20
)

var vsPattern = regexp.MustCompile(`(?i) vs\.? `)

// randomID is swapped out in tests. Fallback ids for malformed upstream
// records are intentionally non-stable; callers only use them for
// within-run deduplication.
var randomID = func() int64 { return rand.Int63n(100_000) }

// ToMarket converts the event and its primary sub-market into the canonical
// Market record. Every parsing step is independently fault-tolerant with a
// documented default; the only condition that discards the event entirely is
// the absence of any sub-market, in which case ToMarket returns nil.
func (e *APIEvent) ToMarket() *domain.Market {
	if len(e.Markets) == 0 {
		return nil
	}
	m := &e.Markets[0]

	prices := []string(m.OutcomePrices)
	yesPrice := priceAt(prices, 0)
	noPrice := priceAt(prices, 1)

	outcomes := []string(m.Outcomes)
	if len(outcomes) == 0 {
		outcomes = []string{"YES", "NO"}
	}
	outcomes = inferTeamLabels(outcomes, e.Title, e.Slug)

	volume := 0.0
	if v, ok := m.Volume.value(); ok {
		volume = v
	} else if v, ok := e.Volume.value(); ok {
		volume = v
	}

	liquidity, _ := m.Liquidity.value()

	question := e.Title
	if question == "" {
		question = m.Question
	}

	market := &domain.Market{
		ID:            resolveID(m.ID, e.ID),
		Question:      question,
		Slug:          e.Slug,
		Category:      domain.ClassifySlug(e.Slug),
		OutcomeLabels: outcomes,
		YesVotes:      int64(math.Floor(volume * yesPrice)),
		NoVotes:       int64(math.Floor(volume * noPrice)),
		TotalVolume:   volume,
		Liquidity:     liquidity,
		IsHot:         volume > domain.HotVolumeThreshold,
	}

	if t, err := time.Parse(time.RFC3339, m.EndDate); err == nil {
		market.EndTime = t
	}

	return market
}

// priceAt returns the parsed price at index i, defaulting to 0.5 when the
// index is missing or unparsable.
func priceAt(prices []string, i int) float64 {
	if i >= len(prices) {
		return defaultPrice
	}
	v, err := strconv.ParseFloat(prices[i], 64)
	if err != nil {
		return defaultPrice
	}
	return v
}

// inferTeamLabels replaces a generic Yes/No outcome pair with the two sides
// of a " vs " title when both segments look like team names. This is a
// display heuristic only.
func inferTeamLabels(outcomes []string, title, slug string) []string {
	if len(outcomes) != 2 ||
		!strings.EqualFold(outcomes[0], "yes") ||
		!strings.EqualFold(outcomes[1], "no") {
		return outcomes
	}

	source := title
	if source == "" {
		source = slug
	}

	parts := vsPattern.Split(source, -1)
	if len(parts) != 2 {
		return outcomes
	}

	teamA := strings.TrimSpace(parts[0])
	teamB := strings.TrimSpace(parts[1])
	if teamA == "" || teamB == "" ||
		len(teamA) >= maxInferredLabelLen || len(teamB) >= maxInferredLabelLen {
		return outcomes
	}

	return []string{teamA, teamB}
}

// resolveID picks the sub-market id, then the event id, then a random
// fallback for records where neither parses.
func resolveID(marketID, eventID string) int64 {
	if id, err := strconv.ParseInt(marketID, 10, 64); err == nil {
		return id
	}
	if id, err := strconv.ParseInt(eventID, 10, 64); err == nil {
		return id
	}
	return randomID()
}
