package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedDelay(t *testing.T) {
	fd := NewFixedDelay(20 * time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		assert.NoError(t, fd.Wait(context.Background()))
	}
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)

	waits, waited := fd.Stats()
	assert.Equal(t, 3, waits)
	assert.Equal(t, 60*time.Millisecond, waited)

	fd.Reset()
	waits, waited = fd.Stats()
	assert.Zero(t, waits)
	assert.Zero(t, waited)
}

func TestFixedDelayNegative(t *testing.T) {
	fd := NewFixedDelay(-time.Second)
	assert.Equal(t, time.Duration(0), fd.Delay())
	assert.NoError(t, fd.Wait(context.Background()))

	waits, _ := fd.Stats()
	assert.Equal(t, 1, waits)
}

func TestFixedDelayCancelled(t *testing.T) {
	fd := NewFixedDelay(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := fd.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	waits, _ := fd.Stats()
	assert.Zero(t, waits, "an interrupted wait is not recorded")
}

func TestUnlimited(t *testing.T) {
	var l Limiter = Unlimited{}
	assert.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}
