package proctor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerRemainingRecomputedFromStart(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}
	timer := NewTimer(start, 30, clock.Now, nil)

	assert.Equal(t, 30*time.Minute, timer.Remaining())

	clock.Advance(10*time.Minute + 15*time.Second)
	assert.Equal(t, 19*time.Minute+45*time.Second, timer.Remaining())

	// A "reload" builds a fresh timer from the same startedAt: remaining is
	// never more than before.
	reloaded := NewTimer(start, 30, clock.Now, nil)
	assert.Equal(t, timer.Remaining(), reloaded.Remaining())
}

func TestTimerRemainingFlooredAtZero(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start.Add(45 * time.Minute)}
	timer := NewTimer(start, 30, clock.Now, nil)

	assert.Equal(t, time.Duration(0), timer.Remaining())
}

func TestTimerExpiresExactlyOnce(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: start}

	fired := 0
	timer := NewTimer(start, 1, clock.Now, func() { fired++ })

	assert.False(t, timer.Tick())
	require.Equal(t, 0, fired)

	clock.Advance(61 * time.Second)
	assert.True(t, timer.Tick())
	assert.False(t, timer.Tick(), "second tick past expiry is a no-op")
	assert.False(t, timer.Tick())
	assert.Equal(t, 1, fired)
}
