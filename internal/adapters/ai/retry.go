package ai

import (
	"context"
	"time"

	"argus/internal/metrics"
	"argus/pkg/errors"
	"argus/pkg/logger"
)

// retryClient retries quota and network failures with bounded exponential
// backoff before surfacing the provider error. Auth and malformed failures
// are never retried.
type retryClient struct {
	inner      Client
	maxRetries int
	baseDelay  time.Duration
	log        *logger.Logger
}

// WithRetry wraps a client with the retry policy.
func WithRetry(inner Client, maxRetries int, baseDelay time.Duration) Client {
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return &retryClient{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		log:        logger.Get().With("component", "ai_retry", "provider", inner.Provider()),
	}
}

// Provider returns the wrapped provider name.
func (c *retryClient) Provider() string { return c.inner.Provider() }

// Complete calls the wrapped client, retrying retryable failures.
func (c *retryClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	delay := c.baseDelay

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.ProviderRetries.WithLabelValues(c.inner.Provider()).Inc()
			c.log.Warnf("retrying completion (attempt %d/%d) after: %v", attempt, c.maxRetries, lastErr)

			select {
			case <-ctx.Done():
				return nil, errors.NewProviderError(c.inner.Provider(), errors.ProviderNetwork, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}

		resp, err := c.inner.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var perr *errors.ProviderError
		if !errors.As(err, &perr) || !perr.Retryable() {
			return nil, err
		}
	}

	return nil, lastErr
}
