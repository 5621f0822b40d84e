package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/omenlabs/omenfeed/internal/chart"
	"github.com/omenlabs/omenfeed/internal/domain"
)

type stubFeed struct {
	markets []domain.Market
	calls   int
}

func (f *stubFeed) DailyMarkets(context.Context, int) ([]domain.Market, error) {
	f.calls++
	return f.markets, nil
}

func (f *stubFeed) Trending(context.Context, int, int, string, bool) []domain.Market {
	return nil
}

func getChart(t *testing.T, h *ChartHandler, id, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/markets/"+id+"/chart"+query, nil)
	req.SetPathValue("id", id)
	rr := httptest.NewRecorder()
	h.History(rr, req)
	return rr
}

func TestChartHistory_ValueOverridesFeedLookup(t *testing.T) {
	feed := &stubFeed{}
	h := NewChartHandler(feed, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rr := getChart(t, h, "42", "?value=62.5")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp chartResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Anchor != 62.5 {
		t.Errorf("anchor = %v, want 62.5", resp.Anchor)
	}
	if len(resp.Points) != chart.Points {
		t.Errorf("len(points) = %d, want %d", len(resp.Points), chart.Points)
	}
	if last := resp.Points[len(resp.Points)-1]; last != 62.5 {
		t.Errorf("last point = %v, want 62.5", last)
	}
	if feed.calls != 0 {
		t.Errorf("feed consulted %d times despite explicit value", feed.calls)
	}
}

func TestChartHistory_AnchorFromVoteTallies(t *testing.T) {
	feed := &stubFeed{markets: []domain.Market{
		{ID: 7, YesVotes: 30, NoVotes: 10},
	}}
	h := NewChartHandler(feed, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rr := getChart(t, h, "7", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp chartResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Anchor != 75.0 {
		t.Errorf("anchor = %v, want 75.0 (30 yes / 40 total)", resp.Anchor)
	}
}

func TestChartHistory_UnknownMarketDefaultsToEvenOdds(t *testing.T) {
	h := NewChartHandler(&stubFeed{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rr := getChart(t, h, "999", "")
	var resp chartResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Anchor != 50.0 {
		t.Errorf("anchor = %v, want 50.0", resp.Anchor)
	}
}

func TestChartHistory_BadInput(t *testing.T) {
	h := NewChartHandler(&stubFeed{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	cases := []struct {
		name  string
		id    string
		query string
	}{
		{"non-numeric id", "abc", ""},
		{"value not a number", "7", "?value=high"},
		{"value above 100", "7", "?value=120"},
		{"negative value", "7", "?value=-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := getChart(t, h, tc.id, tc.query)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}
