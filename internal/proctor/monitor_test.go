package proctor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invigo/invigo-backend/internal/model"
)

// fakeEnv is a scriptable Environment.
type fakeEnv struct {
	fullscreen bool
	enters     int
	exits      int
}

func (e *fakeEnv) EnterFullscreen() error { e.enters++; e.fullscreen = true; return nil }
func (e *fakeEnv) ExitFullscreen() error  { e.exits++; e.fullscreen = false; return nil }
func (e *fakeEnv) Fullscreen() bool       { return e.fullscreen }

// fakeClock advances only when told to.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type monitorFixture struct {
	monitor    *Monitor
	env        *fakeEnv
	clock      *fakeClock
	events     []ViolationEvent
	terminated []TerminateReason
}

func newFixture(t *testing.T, maxViolations, graceSeconds int, autoSubmit bool) *monitorFixture {
	t.Helper()

	f := &monitorFixture{
		env:   &fakeEnv{},
		clock: &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)},
	}
	f.monitor = NewMonitor(Config{
		MaxViolations:           maxViolations,
		GraceSeconds:            graceSeconds,
		AutoSubmitOnGraceExpire: autoSubmit,
		Env:                     f.env,
		Notify:                  func(ev ViolationEvent) { f.events = append(f.events, ev) },
		OnTerminate:             func(r TerminateReason) { f.terminated = append(f.terminated, r) },
		Clock:                   f.clock.Now,
	})
	return f
}

// enter establishes the fullscreen baseline.
func (f *monitorFixture) enter() {
	f.env.fullscreen = true
	f.monitor.FullscreenEntered()
}

func TestMonitorBaselineEntryNotCounted(t *testing.T) {
	f := newFixture(t, 3, 30, true)

	f.enter()

	assert.Equal(t, StateArmed, f.monitor.State())
	assert.Equal(t, 0, f.monitor.Count())
	assert.Empty(t, f.events)
}

func TestMonitorExitBeforeBaselineIgnored(t *testing.T) {
	f := newFixture(t, 3, 30, true)

	counted := f.monitor.Signal(model.ViolationFullscreenExit)

	assert.False(t, counted)
	assert.Equal(t, 0, f.monitor.Count())
}

func TestMonitorViolationOpensGraceWindow(t *testing.T) {
	f := newFixture(t, 3, 30, true)
	f.enter()

	counted := f.monitor.Signal(model.ViolationFullscreenExit)

	require.True(t, counted)
	assert.Equal(t, StateGraceWindow, f.monitor.State())
	assert.Equal(t, 1, f.monitor.Count())
	assert.Equal(t, 30*time.Second, f.monitor.GraceRemaining())

	require.Len(t, f.events, 1)
	assert.Equal(t, model.ViolationFullscreenExit, f.events[0].Type)
	assert.Equal(t, 1, f.events[0].Count)
	assert.Equal(t, f.clock.now, f.events[0].Timestamp)
}

func TestMonitorOneViolationPerGraceEpisode(t *testing.T) {
	f := newFixture(t, 5, 30, true)
	f.enter()

	// A real fullscreen exit typically fires blur + visibilitychange +
	// fullscreenchange nearly at once. Only the first may count.
	require.True(t, f.monitor.Signal(model.ViolationFullscreenExit))
	assert.False(t, f.monitor.Signal(model.ViolationTabSwitch))
	assert.False(t, f.monitor.Signal(model.ViolationWindowMinimize))

	assert.Equal(t, 1, f.monitor.Count())
	assert.Len(t, f.events, 1)
}

func TestMonitorReEnterRestoresArmed(t *testing.T) {
	f := newFixture(t, 3, 30, true)
	f.enter()
	f.env.fullscreen = false
	f.monitor.Signal(model.ViolationFullscreenExit)

	require.NoError(t, f.monitor.ReEnter())

	assert.Equal(t, StateArmed, f.monitor.State())
	assert.Equal(t, 1, f.monitor.Count(), "count survives self-correction")
	assert.Equal(t, 1, f.env.enters, "re-enter requests fullscreen")
	assert.Zero(t, f.monitor.GraceRemaining())

	// A new violation in the next episode counts again.
	assert.True(t, f.monitor.Signal(model.ViolationTabSwitch))
	assert.Equal(t, 2, f.monitor.Count())
}

func TestMonitorFullscreenEnteredDuringGraceRearms(t *testing.T) {
	f := newFixture(t, 3, 30, true)
	f.enter()
	f.env.fullscreen = false
	f.monitor.Signal(model.ViolationFullscreenExit)

	// Candidate restores fullscreen by hand (F11) rather than the button.
	f.env.fullscreen = true
	f.monitor.FullscreenEntered()

	assert.Equal(t, StateArmed, f.monitor.State())
	assert.Equal(t, 1, f.monitor.Count())
}

func TestMonitorGraceExpiryAutoSubmits(t *testing.T) {
	f := newFixture(t, 3, 30, true)
	f.enter()
	f.env.fullscreen = false
	f.monitor.Signal(model.ViolationFullscreenExit)

	// One second short: nothing happens.
	f.clock.Advance(29 * time.Second)
	f.monitor.Tick()
	assert.Equal(t, StateGraceWindow, f.monitor.State())

	f.clock.Advance(time.Second)
	f.monitor.Tick()

	assert.Equal(t, StateTerminated, f.monitor.State())
	require.Len(t, f.terminated, 1)
	assert.Equal(t, ReasonGraceExpired, f.terminated[0])
}

func TestMonitorGraceExpiryWithoutAutoSubmitRearms(t *testing.T) {
	f := newFixture(t, 3, 30, false)
	f.enter()
	f.env.fullscreen = false
	f.monitor.Signal(model.ViolationFullscreenExit)

	f.clock.Advance(31 * time.Second)
	f.monitor.Tick()

	assert.Equal(t, StateArmed, f.monitor.State())
	assert.Equal(t, 1, f.monitor.Count())
	assert.Empty(t, f.terminated)
}

func TestMonitorGraceExpirySkippedWhenFullscreenRestored(t *testing.T) {
	f := newFixture(t, 3, 30, true)
	f.enter()
	f.env.fullscreen = false
	f.monitor.Signal(model.ViolationFullscreenExit)

	// Fullscreen came back but no explicit ReEnter reached the monitor.
	f.env.fullscreen = true
	f.clock.Advance(31 * time.Second)
	f.monitor.Tick()

	assert.Equal(t, StateArmed, f.monitor.State())
	assert.Empty(t, f.terminated)
}

func TestMonitorThresholdTerminatesImmediately(t *testing.T) {
	f := newFixture(t, 3, 30, true)
	f.enter()

	for i := 0; i < 2; i++ {
		f.env.fullscreen = false
		require.True(t, f.monitor.Signal(model.ViolationFullscreenExit))
		require.NoError(t, f.monitor.ReEnter())
	}

	// Third crossing: count reaches the threshold, no fourth grace window.
	f.env.fullscreen = false
	f.monitor.Signal(model.ViolationFullscreenExit)

	assert.Equal(t, StateTerminated, f.monitor.State())
	assert.Equal(t, 3, f.monitor.Count())
	require.Len(t, f.terminated, 1)
	assert.Equal(t, ReasonThreshold, f.terminated[0])
}

func TestMonitorTerminatedAbsorbsSignals(t *testing.T) {
	f := newFixture(t, 1, 30, true)
	f.enter()
	f.monitor.Signal(model.ViolationTabSwitch)
	require.Equal(t, StateTerminated, f.monitor.State())

	assert.False(t, f.monitor.Signal(model.ViolationFullscreenExit))
	assert.Equal(t, 1, f.monitor.Count())
	assert.Len(t, f.terminated, 1)
}

func TestMonitorIntentionalExitNotCounted(t *testing.T) {
	f := newFixture(t, 3, 30, true)
	f.enter()

	f.monitor.Stop()

	// The browser delivers the fullscreen-change caused by Stop's exit.
	assert.False(t, f.monitor.Signal(model.ViolationFullscreenExit))
	assert.Equal(t, 0, f.monitor.Count())
	assert.Equal(t, 1, f.env.exits)
}

func TestMonitorCountMonotonic(t *testing.T) {
	f := newFixture(t, 10, 5, false)
	f.enter()

	last := 0
	kinds := []model.ViolationType{
		model.ViolationTabSwitch,
		model.ViolationFullscreenExit,
		model.ViolationWindowMinimize,
		model.ViolationTabSwitch,
	}
	for _, kind := range kinds {
		f.monitor.Signal(kind)
		f.clock.Advance(6 * time.Second)
		f.monitor.Tick() // grace lapses, monitor rearms

		require.GreaterOrEqual(t, f.monitor.Count(), last)
		last = f.monitor.Count()
	}

	for i, ev := range f.events {
		assert.Equal(t, i+1, ev.Count)
	}
}
