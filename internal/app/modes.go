package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/omenlabs/omenfeed/internal/feed"
	"github.com/omenlabs/omenfeed/internal/fetch"
	"github.com/omenlabs/omenfeed/internal/pipeline"
	"github.com/omenlabs/omenfeed/internal/platform/binance"
	"github.com/omenlabs/omenfeed/internal/platform/kraken"
	"github.com/omenlabs/omenfeed/internal/platform/polymarket"
	"github.com/omenlabs/omenfeed/internal/server"
	"github.com/omenlabs/omenfeed/internal/server/handler"
	"github.com/omenlabs/omenfeed/internal/server/ws"
)

// feedStack holds the upstream-facing services shared by all modes: the Gamma
// client behind the failover transport, the cache-backed feed service, and the
// sparkline price service.
type feedStack struct {
	gamma  *polymarket.GammaClient
	client *polymarket.FeedClient
	feed   *feed.Service
	prices *feed.PriceService
}

// buildFeedStack assembles the fetch failover chain, the normalizing feed
// client, the discoverer, and the cache-backed services on top of them.
func (a *App) buildFeedStack(deps *Dependencies) *feedStack {
	strategies := []fetch.Strategy{fetch.NewDirect()}
	if a.cfg.Polymarket.ProxyOnePrefix != "" {
		strategies = append(strategies, fetch.NewEncodingProxy("corsproxy", a.cfg.Polymarket.ProxyOnePrefix))
	}
	if a.cfg.Polymarket.ProxyTwoPrefix != "" {
		strategies = append(strategies, fetch.NewEncodingProxy("allorigins", a.cfg.Polymarket.ProxyTwoPrefix))
	}
	if a.cfg.Polymarket.RelayBase != "" {
		strategies = append(strategies, fetch.NewRelay(a.cfg.Polymarket.RelayBase))
	}
	transport := fetch.New(strategies, fetch.DefaultPolicy(), a.logger)

	gamma := polymarket.NewGammaClient(a.cfg.Polymarket.GammaHost)
	client := polymarket.NewFeedClient(gamma, transport, a.logger)

	discoverer := feed.NewDiscoverer(client, feed.DiscoverConfig{
		BatchSize:      a.cfg.Discovery.BatchSize,
		MaxPages:       a.cfg.Discovery.MaxPages,
		HorizonHours:   a.cfg.Discovery.HorizonHours,
		MinVolume:      a.cfg.Discovery.MinVolume,
		PageInterval:   a.cfg.Discovery.PageInterval.Duration,
		BackfillMargin: a.cfg.Discovery.BackfillMargin,
	}, a.logger)

	feedSvc := feed.NewService(discoverer, client, deps.FeedCache, deps.SignalBus, a.logger)

	priceSvc := feed.NewPriceService(deps.SparklineCache, deps.SignalBus, a.logger,
		binance.New(a.cfg.Prices.BinanceHost),
		kraken.New(a.cfg.Prices.KrakenHost),
	)

	return &feedStack{
		gamma:  gamma,
		client: client,
		feed:   feedSvc,
		prices: priceSvc,
	}
}

// ServeMode runs the HTTP + WebSocket API without the background refresh
// pipeline. Feed requests populate the cache on demand.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	stack := a.buildFeedStack(deps)
	a.startHTTPServer(ctx, g, deps, stack)

	return g.Wait()
}

// RefreshMode runs the background feed refresh loop (and snapshot archival
// when S3 is wired) without the API server.
func (a *App) RefreshMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting refresh mode")

	g, ctx := errgroup.WithContext(ctx)

	stack := a.buildFeedStack(deps)
	a.startPipeline(ctx, g, deps, stack)

	return g.Wait()
}

// FullMode runs everything: the API server, the WebSocket hub, and the
// background refresh and archival pipeline.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	stack := a.buildFeedStack(deps)
	a.startHTTPServer(ctx, g, deps, stack)
	a.startPipeline(ctx, g, deps, stack)

	return g.Wait()
}

// startHTTPServer registers the API handlers, starts the WebSocket hub when a
// signal bus is wired, and runs the server with a context-driven shutdown.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, stack *feedStack) {
	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.cfg.Mode, a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.logger),
		Feed:   handler.NewFeedHandler(stack.feed, stack.client, a.logger),
		Chart:  handler.NewChartHandler(stack.feed, a.logger),
		Votes:  handler.NewVoteHandler(deps.VoteStore, deps.SignalBus, a.logger),
		Prices: handler.NewPriceHandler(stack.prices, a.logger),
		Relay:  handler.NewRelayHandler(stack.gamma, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", a.cfg.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)),
		)
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.InfoContext(ctx, "HTTP server shutting down")
		return srv.Shutdown(shutCtx)
	})
}

// startPipeline runs the periodic feed refresher and, when snapshot storage is
// wired, the cron-scheduled archiver.
func (a *App) startPipeline(ctx context.Context, g *errgroup.Group, deps *Dependencies, stack *feedStack) {
	count := a.cfg.Discovery.DailyCount

	refresher := pipeline.NewRefresher(stack.feed, deps.Notifier, count, a.logger)
	g.Go(func() error {
		return refresher.RunLoop(ctx, a.cfg.Pipeline.RefreshInterval.Duration)
	})

	if deps.Snapshots != nil {
		archiver := pipeline.NewArchiver(
			stack.feed,
			deps.Snapshots,
			count,
			a.cfg.Pipeline.ArchiveRetentionDays,
			a.logger,
		)
		g.Go(func() error {
			return archiver.RunCron(ctx, a.cfg.Pipeline.ArchiveCron)
		})
	}
}
