package timer

import (
	"errors"
	"math"
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func TestFormat(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:000"},
		{999, "00:00:999"},
		{1000, "00:01:000"},
		{61234, "01:01:234"},
		{59 * 60000, "59:00:000"},
		{100*60000 + 5007, "100:05:007"},
		{-5, "00:00:000"},
	}
	for _, tc := range cases {
		if got := Format(tc.ms); got != tc.want {
			t.Fatalf("Format(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}

func TestFormatDurationTruncates(t *testing.T) {
	if got := FormatDuration(1999*time.Microsecond + 999*time.Millisecond); got != "00:01:000" {
		t.Fatalf("unexpected format: %s", got)
	}
	if got := FormatDuration(999*time.Microsecond); got != "00:00:000" {
		t.Fatalf("sub-millisecond should truncate, got %s", got)
	}
}

func TestParseRoundTrip(t *testing.T) {
	values := []int64{0, 1, 999, 1000, 59999, 60000, 61234, 3599999, 6000000, 123456789}
	for _, ms := range values {
		got, err := Parse(Format(ms))
		if err != nil {
			t.Fatalf("parse %d: %v", ms, err)
		}
		if got != ms {
			t.Fatalf("round trip %d gave %d", ms, got)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	for _, s := range []string{"", "abc", "01:02", "01:02:03:04", "aa:00:000", "00::000", "-1:00:000",
		"999999999999999:00:000", "00:9999999999999999:000", "153722867280912:55:808"} {
		if _, err := Parse(s); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Parse(%q) expected ErrMalformed, got %v", s, err)
		}
	}
}

func TestParseLargestValue(t *testing.T) {
	got, err := Parse(Format(math.MaxInt64))
	if err != nil {
		t.Fatalf("parse max: %v", err)
	}
	if got != math.MaxInt64 {
		t.Fatalf("expected %d, got %d", int64(math.MaxInt64), got)
	}
}

func TestToggleStartStop(t *testing.T) {
	clock := newFakeClock()
	s := New(clock)

	if s.State() != StateStopped {
		t.Fatalf("expected initial state stopped, got %s", s.State())
	}

	start := s.Toggle()
	if start.Type != EventStarted {
		t.Fatalf("expected started event, got %s", start.Type)
	}
	if !s.Running() {
		t.Fatal("expected session to be running")
	}

	clock.Advance(61234 * time.Millisecond)
	stop := s.Toggle()
	if stop.Type != EventStopped {
		t.Fatalf("expected stopped event, got %s", stop.Type)
	}
	if stop.Formatted != "01:01:234" {
		t.Fatalf("expected 01:01:234, got %s", stop.Formatted)
	}
	if s.Elapsed() != 0 {
		t.Fatalf("expected elapsed reset to 0, got %s", s.Elapsed())
	}
	if s.State() != StateStopped {
		t.Fatalf("expected stopped state, got %s", s.State())
	}
}

func TestToggleTwiceWithoutTime(t *testing.T) {
	s := New(newFakeClock())
	s.Toggle()
	stop := s.Toggle()
	if stop.Elapsed != 0 {
		t.Fatalf("expected zero elapsed, got %s", stop.Elapsed)
	}
}

func TestToggleResumesFrozenElapsed(t *testing.T) {
	clock := newFakeClock()
	s := New(clock)
	s.setElapsed(2 * time.Second)

	s.Toggle()
	clock.Advance(500 * time.Millisecond)
	stop := s.Toggle()
	if stop.Elapsed != 2500*time.Millisecond {
		t.Fatalf("expected 2.5s, got %s", stop.Elapsed)
	}
}

func TestTickSamplesRunningSession(t *testing.T) {
	clock := newFakeClock()
	s := New(clock)
	start := s.Toggle()

	clock.Advance(TickInterval)
	elapsed, ok := s.Tick(start.Generation)
	if !ok {
		t.Fatal("expected tick to be accepted")
	}
	if elapsed != TickInterval {
		t.Fatalf("expected %s, got %s", TickInterval, elapsed)
	}
}

func TestTickRejectsStaleGeneration(t *testing.T) {
	clock := newFakeClock()
	s := New(clock)

	first := s.Toggle()
	s.Toggle()
	if _, ok := s.Tick(first.Generation); ok {
		t.Fatal("expected tick after stop to be rejected")
	}

	second := s.Toggle()
	if second.Generation == first.Generation {
		t.Fatal("expected a new generation on restart")
	}
	if _, ok := s.Tick(first.Generation); ok {
		t.Fatal("expected tick from previous run to be rejected")
	}
	if _, ok := s.Tick(second.Generation); !ok {
		t.Fatal("expected tick from current run to be accepted")
	}
}

func TestElapsedMatchesWallClockDelta(t *testing.T) {
	s := New(nil)
	s.Toggle()
	began := time.Now()
	time.Sleep(30 * time.Millisecond)
	stop := s.Toggle()
	delta := time.Since(began)

	diff := stop.Elapsed - delta
	if diff < -TickInterval || diff > TickInterval {
		t.Fatalf("elapsed %s not within %s of %s", stop.Elapsed, TickInterval, delta)
	}
}

func TestClockStepBackClampsToZero(t *testing.T) {
	clock := newFakeClock()
	s := New(clock)
	s.Toggle()
	clock.Advance(-time.Second)
	if stop := s.Toggle(); stop.Elapsed != 0 {
		t.Fatalf("expected clamp to zero, got %s", stop.Elapsed)
	}
}
