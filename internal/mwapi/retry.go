package mwapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// RetryConfig configures retry behavior for API requests
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns the defaults used by NewClient.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isRetryable reports whether a failed request may succeed when repeated:
// network errors, throttling and server errors. Cancellation never is.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == "maxlag" || apiErr.Code == "ratelimited"
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// withRetry runs op until it succeeds, fails permanently or the retries are
// used up. onRetry is called before every repeated attempt.
func withRetry(ctx context.Context, config RetryConfig, op func() error, onRetry func(attempt int, err error)) error {
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == config.MaxRetries {
			break
		}

		if onRetry != nil {
			onRetry(attempt+1, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		// Exponential backoff with cap
		backoff *= 2
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	return lastErr
}
