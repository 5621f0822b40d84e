package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/omenlabs/omenfeed/internal/domain"
)

type stubResolver struct {
	outcome domain.MarketOutcome
	lastID  int64
}

func (r *stubResolver) MarketResult(_ context.Context, id int64) (domain.MarketOutcome, error) {
	r.lastID = id
	return r.outcome, nil
}

func getResult(t *testing.T, h *FeedHandler, id string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/markets/"+id+"/result", nil)
	req.SetPathValue("id", id)
	rr := httptest.NewRecorder()
	h.Result(rr, req)
	return rr
}

func TestFeedResult(t *testing.T) {
	cases := []struct {
		name    string
		outcome domain.MarketOutcome
		want    string
	}{
		{"resolved yes", domain.OutcomeYes, `"result":"yes"`},
		{"resolved no", domain.OutcomeNo, `"result":"no"`},
		{"unresolved", domain.OutcomeUnresolved, `"result":null`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolver := &stubResolver{outcome: tc.outcome}
			h := NewFeedHandler(&stubFeed{}, resolver, slog.New(slog.NewTextHandler(io.Discard, nil)))

			rr := getResult(t, h, "123456")
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d", rr.Code)
			}
			if resolver.lastID != 123456 {
				t.Errorf("resolver id = %d, want 123456", resolver.lastID)
			}

			body := rr.Body.String()
			if !strings.Contains(body, tc.want) {
				t.Errorf("body %s missing %s", body, tc.want)
			}
		})
	}
}

func TestFeedResult_BadID(t *testing.T) {
	h := NewFeedHandler(&stubFeed{}, &stubResolver{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if rr := getResult(t, h, "abc"); rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestFeedResult_NilResolver(t *testing.T) {
	h := NewFeedHandler(&stubFeed{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	rr := getResult(t, h, "7")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"result":null`) {
		t.Errorf("body = %s, want null result", rr.Body.String())
	}
}
