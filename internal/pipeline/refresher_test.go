package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/omenlabs/omenfeed/internal/domain"
)

type stubRefreshFeed struct {
	markets []domain.Market
	err     error
}

func (s *stubRefreshFeed) Refresh(context.Context, int) ([]domain.Market, error) {
	return s.markets, s.err
}

type recordingAlerter struct {
	events []string
}

func (a *recordingAlerter) Notify(_ context.Context, event, _, _ string) error {
	a.events = append(a.events, event)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefresherRun_FullFeedNoAlert(t *testing.T) {
	feed := &stubRefreshFeed{markets: make([]domain.Market, 20)}
	alerter := &recordingAlerter{}

	r := NewRefresher(feed, alerter, 20, quietLogger())
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(alerter.events) != 0 {
		t.Errorf("unexpected alerts: %v", alerter.events)
	}
}

func TestRefresherRun_UnderproductionAlerts(t *testing.T) {
	feed := &stubRefreshFeed{markets: make([]domain.Market, 3)}
	alerter := &recordingAlerter{}

	r := NewRefresher(feed, alerter, 20, quietLogger())
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(alerter.events) != 1 || alerter.events[0] != "feed_underproduced" {
		t.Errorf("alerts = %v, want one feed_underproduced", alerter.events)
	}
}

func TestRefresherRun_RefreshError(t *testing.T) {
	boom := errors.New("upstream down")
	r := NewRefresher(&stubRefreshFeed{err: boom}, nil, 20, quietLogger())

	err := r.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped refresh error, got %v", err)
	}
}

func TestRefresherRun_NilAlerterTolerated(t *testing.T) {
	r := NewRefresher(&stubRefreshFeed{}, nil, 20, quietLogger())
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run with nil alerter: %v", err)
	}
}
