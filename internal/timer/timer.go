package timer

import (
	"sync"
	"time"
)

// TickInterval is how often a running session is sampled for display.
const TickInterval = 10 * time.Millisecond

// State is the running/stopped status of a Session.
type State string

const (
	StateStopped State = "stopped"
	StateRunning State = "running"
)

// EventType identifies what a Toggle did.
type EventType string

const (
	EventStarted EventType = "started"
	EventStopped EventType = "stopped"
)

// Event describes a state transition produced by Toggle.
type Event struct {
	Type       EventType
	Generation int
	Elapsed    time.Duration
	Formatted  string
	At         time.Time
}

// Clock reads the current wall-clock time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// WallClock samples time.Now.
var WallClock Clock = ClockFunc(time.Now)

// Session is a stopwatch toggled between stopped and running.
//
// While stopped, elapsed is authoritative. While running, the true elapsed
// value is now - startEpoch and elapsed only holds the last sample.
type Session struct {
	mu         sync.RWMutex
	clock      Clock
	state      State
	startEpoch time.Time
	elapsed    time.Duration
	generation int
}

func New(clock Clock) *Session {
	if clock == nil {
		clock = WallClock
	}
	return &Session{
		clock: clock,
		state: StateStopped,
	}
}

// Toggle starts a stopped session or stops a running one.
//
// Starting bumps the sampling generation; ticks carrying an older generation
// are rejected by Tick. Stopping returns the final elapsed value and resets
// the session to zero.
func (s *Session) Toggle() Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	if s.state == StateStopped {
		s.startEpoch = now.Add(-s.elapsed)
		s.generation++
		s.state = StateRunning
		return Event{
			Type:       EventStarted,
			Generation: s.generation,
			Elapsed:    s.elapsed,
			Formatted:  FormatDuration(s.elapsed),
			At:         now,
		}
	}

	final := clampElapsed(now.Sub(s.startEpoch))
	s.elapsed = 0
	s.startEpoch = time.Time{}
	s.state = StateStopped
	return Event{
		Type:       EventStopped,
		Generation: s.generation,
		Elapsed:    final,
		Formatted:  FormatDuration(final),
		At:         now,
	}
}

// Tick samples a running session. It reports false when the session is
// stopped or the generation belongs to an earlier run.
func (s *Session) Tick(generation int) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRunning || generation != s.generation {
		return 0, false
	}
	s.elapsed = clampElapsed(s.clock.Now().Sub(s.startEpoch))
	return s.elapsed, true
}

// Elapsed returns the current elapsed value without mutating the session.
func (s *Session) Elapsed() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == StateRunning {
		return clampElapsed(s.clock.Now().Sub(s.startEpoch))
	}
	return s.elapsed
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Running() bool {
	return s.State() == StateRunning
}

func (s *Session) Generation() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// setElapsed freezes a stopped session at d. It has no effect while running.
func (s *Session) setElapsed(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning {
		return
	}
	s.elapsed = clampElapsed(d)
}

// wall clocks can step backwards
func clampElapsed(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
