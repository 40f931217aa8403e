// Package ratelimit paces requests to the remote source.
//
// The downloader applies a fixed politeness delay after every network
// fetch; skipped items are not paced. There is no adaptation to server
// feedback.
//
// Usage:
//
//	limiter := ratelimit.NewFixedDelay(cfg.Fetch.PacingDelay)
//
//	outcome, err := fetcher.Fetch(ctx, id)
//	...
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // interrupted
//	}
//
// Unlimited is a Limiter that never waits.
package ratelimit
