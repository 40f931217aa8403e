package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter paces outgoing requests
type Limiter interface {
	// Wait blocks for the pacing interval or until ctx is done
	Wait(ctx context.Context) error
	// Reset resets the limiter state
	Reset()
}

// FixedDelay waits the same interval after every request
type FixedDelay struct {
	delay time.Duration

	mu     sync.Mutex
	waits  int
	waited time.Duration
}

// NewFixedDelay creates a limiter that waits delay on every call.
// A non-positive delay disables pacing.
func NewFixedDelay(delay time.Duration) *FixedDelay {
	if delay < 0 {
		delay = 0
	}
	return &FixedDelay{delay: delay}
}

// Delay returns the configured interval
func (fd *FixedDelay) Delay() time.Duration {
	return fd.delay
}

// Wait blocks for the configured interval
func (fd *FixedDelay) Wait(ctx context.Context) error {
	if fd.delay > 0 {
		timer := time.NewTimer(fd.delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	fd.mu.Lock()
	fd.waits++
	fd.waited += fd.delay
	fd.mu.Unlock()
	return nil
}

// Stats returns how many waits completed and their total duration
func (fd *FixedDelay) Stats() (waits int, waited time.Duration) {
	fd.mu.Lock()
	defer fd.mu.Unlock()
	return fd.waits, fd.waited
}

// Reset clears the recorded statistics
func (fd *FixedDelay) Reset() {
	fd.mu.Lock()
	defer fd.mu.Unlock()

	fd.waits = 0
	fd.waited = 0
}

// Unlimited never waits
type Unlimited struct{}

// Wait returns immediately unless ctx is already done
func (Unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}

// Reset is a no-op
func (Unlimited) Reset() {}
