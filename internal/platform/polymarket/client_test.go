package polymarket

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/omenlabs/omenfeed/internal/domain"
	"github.com/omenlabs/omenfeed/internal/fetch"
)

// newTestFeedClient points a FeedClient at the given HTTP handler through a
// single direct strategy with no retry waits.
func newTestFeedClient(t *testing.T, h http.HandlerFunc) *FeedClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	transport := fetch.New([]fetch.Strategy{fetch.NewDirect()}, fetch.RetryPolicy{
		MaxAttempts: 1,
		Backoff:     fetch.ExponentialBackoff(time.Millisecond),
	}, logger)

	return NewFeedClient(NewGammaClient(srv.URL), transport, logger)
}

func resultEventBody(id string, endDate time.Time, yesPrice, noPrice float64) string {
	return fmt.Sprintf(`[{
		"id": "%s",
		"title": "Resolved market",
		"markets": [{
			"id": "%s",
			"outcomes": "[\"Yes\",\"No\"]",
			"outcomePrices": "[\"%g\",\"%g\"]",
			"endDate": "%s"
		}]
	}]`, id, id, yesPrice, noPrice, endDate.Format(time.RFC3339))
}

func TestMarketResult(t *testing.T) {
	past := time.Now().Add(-3 * time.Hour)
	future := time.Now().Add(3 * time.Hour)

	cases := []struct {
		name string
		body string
		want domain.MarketOutcome
	}{
		{"yes converged", resultEventBody("123456", past, 0.97, 0.03), domain.OutcomeYes},
		{"no converged", resultEventBody("123456", past, 0.02, 0.98), domain.OutcomeNo},
		{"not converged", resultEventBody("123456", past, 0.60, 0.40), domain.OutcomeUnresolved},
		{"still trading", resultEventBody("123456", future, 0.99, 0.01), domain.OutcomeUnresolved},
		{"unknown upstream", `[]`, domain.OutcomeUnresolved},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("id"); got != "123456" {
					t.Errorf("id param = %q, want 123456", got)
				}
				fmt.Fprint(w, tc.body)
			})

			outcome, err := client.MarketResult(context.Background(), 123456)
			if err != nil {
				t.Fatalf("MarketResult: %v", err)
			}
			if outcome != tc.want {
				t.Errorf("outcome = %q, want %q", outcome, tc.want)
			}
		})
	}
}

func TestMarketResult_SkipsSynthesizedIDs(t *testing.T) {
	called := false
	client := newTestFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		fmt.Fprint(w, `[]`)
	})

	outcome, err := client.MarketResult(context.Background(), 42)
	if err != nil {
		t.Fatalf("MarketResult: %v", err)
	}
	if outcome != domain.OutcomeUnresolved {
		t.Errorf("outcome = %q, want unresolved for local id", outcome)
	}
	if called {
		t.Error("upstream was queried for a locally synthesized id")
	}
}

func TestMarketResult_UpstreamFailureIsUnresolved(t *testing.T) {
	client := newTestFeedClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	outcome, err := client.MarketResult(context.Background(), 123456)
	if err != nil {
		t.Fatalf("MarketResult: %v", err)
	}
	if outcome != domain.OutcomeUnresolved {
		t.Errorf("outcome = %q, want unresolved on upstream failure", outcome)
	}
}
