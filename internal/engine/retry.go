// retry.go provides bounded retries for head write conflicts.
//
// A conflict means another writer superseded or amended the head between
// the read that planned a batch and the transaction that tried to commit
// it. The plan is cheap to rebuild, so the engine retries with exponential
// backoff and jitter before surfacing the conflict to the caller. This is
// the only retry policy the engine owns.
package engine

import (
	"math/rand"
	"time"
)

// retryConfig controls conflict retry behavior.
type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// defaultRetryConfig is used for all engine writes.
var defaultRetryConfig = retryConfig{
	maxRetries: 3,
	baseDelay:  10 * time.Millisecond,
	maxDelay:   200 * time.Millisecond,
}

// retryOnConflict executes fn, retrying while it returns a conflict error.
// Non-conflict errors and success return immediately. When retries are
// exhausted the last conflict error is returned.
func retryOnConflict(cfg retryConfig, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil || !IsConflict(lastErr) {
			return lastErr
		}
		if attempt < cfg.maxRetries {
			time.Sleep(backoffDelay(cfg, attempt))
		}
	}
	return lastErr
}

// backoffDelay computes the delay for a given retry attempt using
// exponential backoff with jitter: baseDelay * 2^attempt + random([0, baseDelay)).
func backoffDelay(cfg retryConfig, attempt int) time.Duration {
	delay := cfg.baseDelay << uint(attempt)
	if delay > cfg.maxDelay {
		delay = cfg.maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(cfg.baseDelay)))
	return delay + jitter
}
