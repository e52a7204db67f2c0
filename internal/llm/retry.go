package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Client wraps a Provider with bounded retries. Each attempt runs under its
// own deadline derived from the provider config; the last failed attempt's
// error propagates to the caller, earlier failures are swallowed and
// retried. Timeout and transport failures stay distinguishable through
// IsTimeout so the orchestrator can log them differently while treating
// them identically for fallback purposes.
//
// A Client is stateless across calls and safe for concurrent use from
// multiple in-flight requests.
type Client struct {
	provider   Provider
	limiter    *RateLimiter
	maxRetries int
	timeout    time.Duration
	log        zerolog.Logger
}

// NewClient creates a retrying client around a provider.
func NewClient(provider Provider, cfg *ProviderConfig, limiter *RateLimiter, log zerolog.Logger) *Client {
	if cfg == nil {
		cfg = DefaultConfig(provider.Name())
	}
	retries := cfg.MaxRetries
	if retries < 1 {
		retries = 1
	}
	return &Client{
		provider:   provider,
		limiter:    limiter,
		maxRetries: retries,
		timeout:    cfg.Timeout,
		log:        log,
	}
}

// Name returns the wrapped provider's identifier.
func (c *Client) Name() string { return c.provider.Name() }

// Available reports whether the wrapped provider is configured.
func (c *Client) Available() bool { return c.provider.Available() }

// Complete runs the completion with retry and per-attempt timeout.
func (c *Client) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	var resp *CompletionResponse
	err := c.withRetry(ctx, func(attemptCtx context.Context) error {
		var attemptErr error
		resp, attemptErr = c.provider.Complete(attemptCtx, req)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Analyze runs a split-response analysis with retry and per-attempt
// timeout. The wrapped provider must implement Reasoner.
func (c *Client) Analyze(ctx context.Context, req *CompletionRequest) (*SplitResponse, error) {
	reasoner, ok := c.provider.(Reasoner)
	if !ok {
		return nil, fmt.Errorf("provider %s does not support split-response analysis", c.provider.Name())
	}
	var resp *SplitResponse
	err := c.withRetry(ctx, func(attemptCtx context.Context) error {
		var attemptErr error
		resp, attemptErr = reasoner.Analyze(attemptCtx, req)
		return attemptErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// withRetry runs fn up to maxRetries times, each attempt under its own
// deadline. When the parent context is already done, the parent's error
// propagates immediately so a cancelled pipeline stage never burns
// additional attempts.
func (c *Client) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if c.limiter != nil {
			if err := c.limiter.Acquire(ctx, c.provider.Name()); err != nil {
				return err
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		err := fn(attemptCtx)
		release := func() {
			cancel()
			if c.limiter != nil {
				c.limiter.Release(c.provider.Name())
			}
		}
		if err == nil {
			release()
			return nil
		}

		// The attempt deadline converts into a timeout error; anything
		// else is a transport or protocol failure.
		if attemptCtx.Err() != nil && ctx.Err() == nil {
			err = fmt.Errorf("%s attempt %d timed out after %s: %w",
				c.provider.Name(), attempt, time.Since(start).Round(time.Millisecond), context.DeadlineExceeded)
		}
		release()

		lastErr = err
		if attempt < c.maxRetries {
			c.log.Warn().
				Str("provider", c.provider.Name()).
				Int("attempt", attempt).
				Bool("timeout", IsTimeout(err)).
				Err(err).
				Msg("completion attempt failed, retrying")
		}
	}

	return lastErr
}

// IsTimeout reports whether err was caused by an attempt exceeding its
// budget rather than a transport failure.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
