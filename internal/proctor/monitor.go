package proctor

import (
	"sync"
	"time"

	"github.com/invigo/invigo-backend/internal/model"
)

// State enumerates the monitor's reachable states.
type State int

const (
	// StateArmed: fullscreen baseline established, watching for signals.
	StateArmed State = iota
	// StateGraceWindow: a violation was counted, the candidate may still
	// self-correct before escalation.
	StateGraceWindow
	// StateTerminated: the attempt is finalized, the monitor is inert.
	StateTerminated
)

// TerminateReason says which escalation path ended the attempt.
type TerminateReason int

const (
	ReasonThreshold TerminateReason = iota
	ReasonGraceExpired
)

// Environment abstracts the browser capabilities the monitor needs, so the
// state machine is testable without a real browser.
type Environment interface {
	EnterFullscreen() error
	ExitFullscreen() error
	Fullscreen() bool
}

// ViolationEvent is emitted once per counted violation.
type ViolationEvent struct {
	Type      model.ViolationType
	Count     int
	Timestamp time.Time
}

// Notifier receives violation events for server logging. It must be
// best-effort: implementations may not block the caller.
type Notifier func(ViolationEvent)

// Config wires the monitor's collaborators and policy knobs.
type Config struct {
	MaxViolations           int
	GraceSeconds            int
	AutoSubmitOnGraceExpire bool
	Env                     Environment
	Notify                  Notifier
	OnTerminate             func(TerminateReason)
	Clock                   func() time.Time
}

// Monitor is the violation-detection state machine. Browser listeners feed it
// Signal calls; the exam loop drives Tick. At most one violation is counted
// per grace-window episode no matter how many distinct browser events fire
// within it.
type Monitor struct {
	mu sync.Mutex

	cfg   Config
	state State
	count int

	baseline        bool // first fullscreen entry recorded
	intentionalExit bool // next fullscreen exit is monitor-initiated
	graceDeadline   time.Time
}

// NewMonitor creates a Monitor. Clock defaults to time.Now.
func NewMonitor(cfg Config) *Monitor {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Monitor{cfg: cfg, state: StateArmed}
}

// FullscreenEntered records a fullscreen-change into fullscreen. The first
// entry establishes the baseline and never counts as a violation. During a
// grace window it acts as self-correction, same as ReEnter.
func (m *Monitor) FullscreenEntered() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.baseline {
		m.baseline = true
		return
	}
	if m.state == StateGraceWindow {
		m.rearm()
	}
}

// Signal reports a proctoring event from a browser listener. Returns true if
// the event was counted as a violation.
func (m *Monitor) Signal(kind model.ViolationType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateTerminated {
		return false
	}

	if kind == model.ViolationFullscreenExit {
		// Exits before the baseline entry are setup noise, not violations.
		if !m.baseline {
			return false
		}
		if m.intentionalExit {
			m.intentionalExit = false
			return false
		}
	}

	// One violation per grace episode. Near-simultaneous browser events
	// (blur + visibilitychange + fullscreenchange) collapse into the one
	// already counted.
	if m.state == StateGraceWindow {
		return false
	}

	m.count++
	now := m.cfg.Clock()

	if m.cfg.Notify != nil {
		m.cfg.Notify(ViolationEvent{Type: kind, Count: m.count, Timestamp: now})
	}

	if m.count >= m.cfg.MaxViolations {
		m.terminate(ReasonThreshold)
		return true
	}

	m.state = StateGraceWindow
	m.graceDeadline = now.Add(time.Duration(m.cfg.GraceSeconds) * time.Second)
	return true
}

// ReEnter is the candidate's self-correction action: it re-requests
// fullscreen and returns the monitor to Armed, discarding the rest of the
// grace window.
func (m *Monitor) ReEnter() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateGraceWindow {
		return nil
	}

	err := m.cfg.Env.EnterFullscreen()
	m.rearm()
	return err
}

// Tick checks the grace deadline against the wall clock. The deadline is a
// timestamp, not a decrementing counter, so throttled timers in a
// backgrounded tab cannot stretch the window.
func (m *Monitor) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateGraceWindow || m.cfg.Clock().Before(m.graceDeadline) {
		return
	}

	if m.cfg.AutoSubmitOnGraceExpire && !m.cfg.Env.Fullscreen() {
		m.terminate(ReasonGraceExpired)
		return
	}

	// Grace lapsed without escalation policy; the violation stays counted
	// but the exam continues.
	m.rearm()
}

// Stop makes the monitor inert without firing OnTerminate, for manual submit
// paths that finalize elsewhere. The programmatic fullscreen exit it issues
// is flagged so the resulting browser event is not counted.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateTerminated {
		return
	}
	m.state = StateTerminated
	m.intentionalExit = true
	m.cfg.Env.ExitFullscreen()
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Count returns the running violation tally. It never decreases.
func (m *Monitor) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// GraceRemaining returns how much of the current grace window is left, zero
// outside a grace window.
func (m *Monitor) GraceRemaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateGraceWindow {
		return 0
	}
	remaining := m.graceDeadline.Sub(m.cfg.Clock())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// rearm returns to Armed from a grace window. Caller holds the lock.
func (m *Monitor) rearm() {
	m.state = StateArmed
	m.graceDeadline = time.Time{}
}

// terminate escalates. Caller holds the lock.
func (m *Monitor) terminate(reason TerminateReason) {
	m.state = StateTerminated
	m.intentionalExit = true
	m.cfg.Env.ExitFullscreen()
	if m.cfg.OnTerminate != nil {
		m.cfg.OnTerminate(reason)
	}
}
