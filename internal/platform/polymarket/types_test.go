package polymarket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/omenlabs/omenfeed/internal/domain"
)

func TestAPIEventDecode_DoubleEncodedFields(t *testing.T) {
	// Gamma double-encodes outcomes and outcomePrices as JSON strings.
	raw := `{
		"id": "9001",
		"title": "Will BTC close above 100k?",
		"slug": "btc-above-100k",
		"active": "true",
		"volume": "2500.5",
		"markets": [{
			"id": "42",
			"question": "Will BTC close above 100k?",
			"outcomes": "[\"Yes\", \"No\"]",
			"outcomePrices": "[\"0.65\", \"0.35\"]",
			"volume": "2500.5",
			"endDate": "2026-09-01T12:00:00Z"
		}]
	}`

	var ev APIEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}

	if !bool(ev.Active) {
		t.Errorf("expected active=true from string %q", "true")
	}
	if got := []string(ev.Markets[0].Outcomes); len(got) != 2 || got[0] != "Yes" || got[1] != "No" {
		t.Errorf("unexpected outcomes: %v", got)
	}
	if got := []string(ev.Markets[0].OutcomePrices); len(got) != 2 || got[0] != "0.65" {
		t.Errorf("unexpected outcomePrices: %v", got)
	}
}

func TestToMarket_VoteProxyFloorsVolumeTimesPrice(t *testing.T) {
	vol := flexNumber(1001)
	ev := APIEvent{
		ID:    "7",
		Title: "Some question",
		Slug:  "some-question",
		Markets: []APISubMarket{{
			ID:            "7",
			OutcomePrices: flexStrings{"0.333", "0.667"},
			Volume:        &vol,
			EndDate:       "2026-09-01T00:00:00Z",
		}},
	}

	m := ev.ToMarket()
	if m == nil {
		t.Fatal("expected market, got nil")
	}
	// floor(1001*0.333)=333, floor(1001*0.667)=667
	if m.YesVotes != 333 {
		t.Errorf("YesVotes = %d, want 333", m.YesVotes)
	}
	if m.NoVotes != 667 {
		t.Errorf("NoVotes = %d, want 667", m.NoVotes)
	}
	if m.EndTime.IsZero() || !m.EndTime.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected EndTime: %v", m.EndTime)
	}
}

func TestToMarket_MissingPricesDefaultToHalf(t *testing.T) {
	vol := flexNumber(200)
	ev := APIEvent{
		ID:      "11",
		Slug:    "no-prices",
		Markets: []APISubMarket{{ID: "11", Volume: &vol}},
	}

	m := ev.ToMarket()
	if m == nil {
		t.Fatal("expected market, got nil")
	}
	if m.YesVotes != 100 || m.NoVotes != 100 {
		t.Errorf("votes = %d/%d, want 100/100 from default 0.5 prices", m.YesVotes, m.NoVotes)
	}
	if len(m.OutcomeLabels) != 2 || m.OutcomeLabels[0] != "YES" {
		t.Errorf("unexpected default outcomes: %v", m.OutcomeLabels)
	}
}

func TestToMarket_HotThresholdIsStrict(t *testing.T) {
	tests := []struct {
		name   string
		volume float64
		isHot  bool
	}{
		{"below", 99_999, false},
		{"exact threshold not hot", 100_000, false},
		{"above", 100_001, true},
		{"well above", 150_000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vol := flexNumber(tt.volume)
			ev := APIEvent{
				ID:      "1",
				Slug:    "x",
				Markets: []APISubMarket{{ID: "1", Volume: &vol}},
			}
			m := ev.ToMarket()
			if m.IsHot != tt.isHot {
				t.Errorf("volume %v: IsHot = %v, want %v", tt.volume, m.IsHot, tt.isHot)
			}
		})
	}
}

func TestToMarket_NoSubMarketsDiscarded(t *testing.T) {
	ev := APIEvent{ID: "5", Title: "Empty event", Slug: "empty"}
	if m := ev.ToMarket(); m != nil {
		t.Errorf("expected nil for event without sub-markets, got %+v", m)
	}
}

func TestToMarket_FallsBackToEventVolume(t *testing.T) {
	evVol := flexNumber(500)
	ev := APIEvent{
		ID:      "3",
		Slug:    "event-volume",
		Volume:  &evVol,
		Markets: []APISubMarket{{ID: "3"}},
	}
	m := ev.ToMarket()
	if m.TotalVolume != 500 {
		t.Errorf("TotalVolume = %v, want event-level 500", m.TotalVolume)
	}
}

func TestInferTeamLabels(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []string
		title    string
		want     []string
	}{
		{
			name:     "short team names inferred",
			outcomes: []string{"Yes", "No"},
			title:    "Lakers vs Celtics",
			want:     []string{"Lakers", "Celtics"},
		},
		{
			name:     "case-insensitive vs with period",
			outcomes: []string{"YES", "NO"},
			title:    "Arsenal VS. Chelsea",
			want:     []string{"Arsenal", "Chelsea"},
		},
		{
			name:     "long segments keep generic labels",
			outcomes: []string{"Yes", "No"},
			title:    "Will the incumbent administration vs the opposition coalition prevail?",
			want:     []string{"Yes", "No"},
		},
		{
			name:     "non yes-no outcomes untouched",
			outcomes: []string{"Over", "Under"},
			title:    "Lakers vs Celtics",
			want:     []string{"Over", "Under"},
		},
		{
			name:     "no vs keeps labels",
			outcomes: []string{"Yes", "No"},
			title:    "Will it rain tomorrow?",
			want:     []string{"Yes", "No"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inferTeamLabels(tt.outcomes, tt.title, "")
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("label[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestResolveID_Fallbacks(t *testing.T) {
	if got := resolveID("42", "7"); got != 42 {
		t.Errorf("resolveID preferred event id: got %d, want 42", got)
	}
	if got := resolveID("not-a-number", "7"); got != 7 {
		t.Errorf("resolveID event fallback: got %d, want 7", got)
	}

	old := randomID
	randomID = func() int64 { return 1234 }
	defer func() { randomID = old }()
	if got := resolveID("x", "y"); got != 1234 {
		t.Errorf("resolveID random fallback: got %d, want 1234", got)
	}
}

func TestToMarket_ClassifiesSlug(t *testing.T) {
	vol := flexNumber(10)
	ev := APIEvent{
		ID:      "1",
		Slug:    "trump-wins-2028-election",
		Markets: []APISubMarket{{ID: "1", Volume: &vol}},
	}
	if m := ev.ToMarket(); m.Category != domain.CategoryPolitics {
		t.Errorf("Category = %s, want POLITICS", m.Category)
	}
}
