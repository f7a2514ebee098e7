package crawl

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/axtree"
)

// SnapshotFunc is the signature for a snapshot function.
type SnapshotFunc func(ctx context.Context, url string) (*axtree.Snapshot, error)

// DefaultRetryDelays returns the backoff delays for snapshot retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// SnapshotWithRetry calls snapshot until it succeeds, waiting delays[i]
// before retry i+1, so it makes at most len(delays)+1 attempts.
// Invalid input is not retried. The logger, if provided, receives one line
// per retry.
func SnapshotWithRetry(ctx context.Context, url string, snapshot SnapshotFunc, logger *slog.Logger, delays []time.Duration) (*axtree.Snapshot, error) {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		snap, err := snapshot(ctx, url)
		if err == nil {
			return snap, nil
		}
		lastErr = err

		if axtree.ErrorCode(err) == axtree.EINVALID {
			break
		}

		// Don't retry after the last attempt
		if attempt >= maxAttempts-1 {
			break
		}

		// Check context before sleeping
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if logger != nil {
			logger.Debug("retrying snapshot", "url", url, "attempt", attempt+2, "err", err)
		}

		// Wait before next attempt
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return nil, lastErr
}
