package proctor

import (
	"context"
	"sync"
	"time"
)

// Timer derives the remaining exam time from the server-supplied start
// timestamp. Remaining time is recomputed from startedAt on every read, never
// carried forward as a decrementing counter, so a page reload or a throttled
// tab cannot grant extra time.
type Timer struct {
	startedAt time.Time
	duration  time.Duration
	clock     func() time.Time

	expireOnce sync.Once
	onExpire   func()
}

// NewTimer creates a Timer for an attempt. Clock defaults to time.Now.
// onExpire fires exactly once, the first time remaining reaches zero.
func NewTimer(startedAt time.Time, durationMinutes int, clock func() time.Time, onExpire func()) *Timer {
	if clock == nil {
		clock = time.Now
	}
	return &Timer{
		startedAt: startedAt,
		duration:  time.Duration(durationMinutes) * time.Minute,
		clock:     clock,
		onExpire:  onExpire,
	}
}

// Remaining returns the whole seconds left, floored at zero.
func (t *Timer) Remaining() time.Duration {
	elapsed := t.clock().Sub(t.startedAt)
	remaining := t.duration - elapsed.Truncate(time.Second)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Tick evaluates expiry once. Returns true on the call that fired onExpire.
func (t *Timer) Tick() bool {
	if t.Remaining() > 0 {
		return false
	}
	fired := false
	t.expireOnce.Do(func() {
		fired = true
		if t.onExpire != nil {
			t.onExpire()
		}
	})
	return fired
}

// Run drives the countdown with a one-second ticker until expiry or context
// cancellation. onTick receives the remaining time for display.
func (t *Timer) Run(ctx context.Context, onTick func(time.Duration)) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			remaining := t.Remaining()
			if onTick != nil {
				onTick(remaining)
			}
			if t.Tick() {
				return
			}
		}
	}
}
