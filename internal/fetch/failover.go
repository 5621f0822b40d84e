package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryPolicy controls the outer retry loop around the strategy chain.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Backoff returns the delay to wait after the given failed attempt
	// (1-based) before the next one starts.
	Backoff func(failedAttempt int) time.Duration
}

// ExponentialBackoff returns a backoff function producing
// base, 2*base, 4*base, ... for failed attempts 1, 2, 3, ...
func ExponentialBackoff(base time.Duration) func(int) time.Duration {
	return func(failedAttempt int) time.Duration {
		if failedAttempt < 1 {
			failedAttempt = 1
		}
		return base << (failedAttempt - 1)
	}
}

// DefaultPolicy matches the upstream client behavior: three attempts with
// 1s and 2s waits between them.
func DefaultPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     ExponentialBackoff(time.Second),
	}
}

// Client tries an ordered chain of transport strategies and retries the
// whole chain with backoff. Strategies are attempted strictly sequentially;
// the first HTTP success wins and later strategies are not invoked for that
// call, so load is never amplified across relays.
type Client struct {
	strategies []Strategy
	policy     RetryPolicy
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
}

// New creates a failover Client over the given strategy chain.
func New(strategies []Strategy, policy RetryPolicy, logger *slog.Logger) *Client {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Backoff == nil {
		policy.Backoff = ExponentialBackoff(time.Second)
	}
	return &Client{
		strategies: strategies,
		policy:     policy,
		sleep:      sleepCtx,
		logger:     logger.With(slog.String("component", "fetch")),
	}
}

// SetSleep overrides the inter-attempt wait. Tests use this to record delays
// instead of actually sleeping.
func (c *Client) SetSleep(fn func(ctx context.Context, d time.Duration) error) {
	c.sleep = fn
}

// Fetch retrieves the target URL through the strategy chain and hands the
// winning body to decode. A decode failure counts as a failed attempt, the
// same as a transport failure, because a relay can return a 200 with an
// error envelope. Returns an error only after every attempt is exhausted;
// callers translate that into an empty result.
func (c *Client) Fetch(ctx context.Context, target string, decode func([]byte) error) error {
	var lastErr error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, c.policy.Backoff(attempt-1)); err != nil {
				return err
			}
		}

		body, strategyName, err := c.tryChain(ctx, target)
		if err == nil {
			if decErr := decode(body); decErr == nil {
				return nil
			} else {
				err = fmt.Errorf("decode via %s: %w", strategyName, decErr)
			}
		}

		lastErr = err
		c.logger.WarnContext(ctx, "fetch attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", c.policy.MaxAttempts),
			slog.String("error", err.Error()),
		)
	}

	return fmt.Errorf("fetch: all %d attempts failed: %w", c.policy.MaxAttempts, lastErr)
}

// tryChain walks the strategies in priority order and returns the first
// successful body along with the winning strategy's name.
func (c *Client) tryChain(ctx context.Context, target string) ([]byte, string, error) {
	var lastErr error
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}

		body, err := s.Do(ctx, target)
		if err == nil {
			return body, s.Name(), nil
		}
		lastErr = fmt.Errorf("%s: %w", s.Name(), err)
		c.logger.DebugContext(ctx, "strategy failed, falling through",
			slog.String("strategy", s.Name()),
			slog.String("error", err.Error()),
		)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no strategies configured")
	}
	return nil, "", lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
