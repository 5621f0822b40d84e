// Package pipeline runs the background loops: periodic feed refreshes and
// scheduled snapshot archival.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/omenlabs/omenfeed/internal/domain"
)

// FeedRefresher re-runs discovery and repopulates the feed cache.
type FeedRefresher interface {
	Refresh(ctx context.Context, count int) ([]domain.Market, error)
}

// Alerter delivers operator notifications for pipeline events.
type Alerter interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Refresher drives the feed refresh loop. Each tick re-runs discovery; a
// run that produces fewer markets than requested raises an operator alert
// but does not stop the loop.
type Refresher struct {
	feed    FeedRefresher
	alerter Alerter
	count   int
	logger  *slog.Logger
}

// NewRefresher creates a new Refresher. alerter may be nil.
func NewRefresher(feed FeedRefresher, alerter Alerter, count int, logger *slog.Logger) *Refresher {
	return &Refresher{
		feed:    feed,
		alerter: alerter,
		count:   count,
		logger:  logger.With(slog.String("component", "refresher")),
	}
}

// Run executes a single refresh run.
func (r *Refresher) Run(ctx context.Context) error {
	started := time.Now()

	markets, err := r.feed.Refresh(ctx, r.count)
	if err != nil {
		return fmt.Errorf("refreshing feed: %w", err)
	}

	r.logger.Info("feed refresh complete",
		slog.Int("markets", len(markets)),
		slog.Int("requested", r.count),
		slog.Duration("took", time.Since(started)),
	)

	if len(markets) < r.count && r.alerter != nil {
		msg := fmt.Sprintf("discovery produced %d of %d requested markets", len(markets), r.count)
		if err := r.alerter.Notify(ctx, "feed_underproduced", "Feed underproduced", msg); err != nil {
			r.logger.Warn("underproduction alert failed", slog.String("error", err.Error()))
		}
	}

	return nil
}

// RunLoop runs the refresher on a repeating interval until the context is
// cancelled.
func (r *Refresher) RunLoop(ctx context.Context, interval time.Duration) error {
	// Run immediately on start.
	if err := r.Run(ctx); err != nil {
		r.logger.Error("feed refresh failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.Run(ctx); err != nil {
				r.logger.Error("feed refresh failed", slog.String("error", err.Error()))
			}
		}
	}
}
