// Package retry provides bounded retry with pluggable backoff for transient
// network failures.
//
// Features:
//   - A fixed attempt budget; the delay is applied between attempts only
//   - Constant, linear and exponential backoff strategies
//   - Context support for cancellation during waits
//   - Retry predicate driven by the pkg/errors taxonomy
//
// Basic usage:
//
//	backoff, err := retry.NewBackoff(cfg.Fetch.Backoff, cfg.Fetch.RetryDelay)
//	if err != nil {
//		return err
//	}
//	err = retry.Do(func(attempt int) error {
//		return fetchOnce(ctx, id)
//	}, &retry.Config{
//		MaxAttempts: cfg.Fetch.MaxAttempts,
//		Backoff:     backoff,
//		Context:     ctx,
//	})
//	if retry.Exhausted(err) {
//		// every attempt failed with a retryable error
//	}
//
// Only errors typed as timeout or connection failures are retried by
// DefaultRetryIf; definitive responses and storage errors return at once.
package retry
