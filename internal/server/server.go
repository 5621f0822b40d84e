package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/omenlabs/omenfeed/internal/domain"
	"github.com/omenlabs/omenfeed/internal/server/handler"
	"github.com/omenlabs/omenfeed/internal/server/middleware"
	"github.com/omenlabs/omenfeed/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// RateLimit caps requests per client IP per RateWindow. Zero disables
	// rate limiting.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health *handler.HealthHandler
	Feed   *handler.FeedHandler
	Chart  *handler.ChartHandler
	Votes  *handler.VoteHandler
	Prices *handler.PriceHandler
	Relay  *handler.RelayHandler
}

// Server is the HTTP + WebSocket API server for the market feed.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (request IDs, logging, rate limiting, CORS, auth)
// and attaches the WebSocket hub. limiter may be nil to disable rate
// limiting.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Market feed endpoints.
	mux.HandleFunc("GET /api/markets/daily", handlers.Feed.DailyMarkets)
	mux.HandleFunc("GET /api/markets/trending", handlers.Feed.Trending)
	mux.HandleFunc("GET /api/markets/{id}/chart", handlers.Chart.History)
	mux.HandleFunc("GET /api/markets/{id}/result", handlers.Feed.Result)

	// Vote ledger endpoints.
	mux.HandleFunc("POST /api/votes", handlers.Votes.Cast)
	mux.HandleFunc("GET /api/votes", handlers.Votes.List)
	mux.HandleFunc("DELETE /api/votes", handlers.Votes.Clear)
	mux.HandleFunc("GET /api/votes/{id}", handlers.Votes.Get)
	mux.HandleFunc("GET /api/votes/{id}/counts", handlers.Votes.Counts)

	// Crypto price sparklines.
	mux.HandleFunc("GET /api/prices", handlers.Prices.Sparklines)

	// Upstream relay.
	mux.HandleFunc("GET /api/relay/events", handlers.Relay.Events)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux

	h = middleware.Auth(cfg.APIKey)(h)

	if limiter != nil && cfg.RateLimit > 0 {
		window := cfg.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		h = middleware.RateLimit(limiter, cfg.RateLimit, window)(h)
	}

	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)
	h = middleware.RequestID()(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
