package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/omenlabs/omenfeed/internal/domain"
)

type stubSnapshots struct {
	archived [][]domain.Market
	pruneCut time.Time
}

func (s *stubSnapshots) ArchiveFeed(_ context.Context, markets []domain.Market, _ time.Time) (string, error) {
	s.archived = append(s.archived, markets)
	return "snapshots/feed/test.jsonl", nil
}

func (s *stubSnapshots) Prune(_ context.Context, before time.Time) (int64, error) {
	s.pruneCut = before
	return 2, nil
}

type stubDailyFeed struct {
	markets []domain.Market
}

func (s *stubDailyFeed) DailyMarkets(context.Context, int) ([]domain.Market, error) {
	return s.markets, nil
}

func TestArchiverRun(t *testing.T) {
	feed := &stubDailyFeed{markets: []domain.Market{{ID: 1}, {ID: 2}}}
	snaps := &stubSnapshots{}

	a := NewArchiver(feed, snaps, 20, 30, quietLogger())
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(snaps.archived) != 1 || len(snaps.archived[0]) != 2 {
		t.Errorf("archived = %v", snaps.archived)
	}

	wantCutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	if diff := snaps.pruneCut.Sub(wantCutoff); diff < -time.Minute || diff > time.Minute {
		t.Errorf("prune cutoff = %v, want ~%v", snaps.pruneCut, wantCutoff)
	}
}

func TestNextCronTime(t *testing.T) {
	after := time.Date(2026, 8, 30, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		expr string
		want time.Time
	}{
		{"0 3 * * *", time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC)},
		{"* * * * *", time.Date(2026, 8, 30, 14, 31, 0, 0, time.UTC)},
		{"0 15 * * *", time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)},
		{"0,30 * * * *", time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := nextCronTime(tt.expr, after)
			if err != nil {
				t.Fatalf("nextCronTime: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("next = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNextCronTime_Invalid(t *testing.T) {
	for _, expr := range []string{"", "* * *", "x * * * *"} {
		if _, err := nextCronTime(expr, time.Now()); err == nil {
			t.Errorf("expected error for %q", expr)
		}
	}
}
