package internal

import "time"

const keySpace = "space"

// DefaultRepeatWindow exceeds common autorepeat delays so the first repeat of
// a held key still lands inside the window.
const DefaultRepeatWindow = time.Second

// KeyEvent is a key press with the auto-repeat flag browsers report.
type KeyEvent struct {
	Code   string
	Repeat bool
}

// repeatFilter flags presses that arrive too soon after the previous press of
// the same key. Terminals deliver a held key as a stream of presses with no
// repeat marker, so the gap between presses is all there is to go on.
type repeatFilter struct {
	window time.Duration
	now    func() time.Time
	last   map[string]time.Time
}

func newRepeatFilter(window time.Duration, now func() time.Time) *repeatFilter {
	if now == nil {
		now = time.Now
	}
	return &repeatFilter{
		window: window,
		now:    now,
		last:   make(map[string]time.Time),
	}
}

func (f *repeatFilter) Classify(code string) KeyEvent {
	now := f.now()
	prev, seen := f.last[code]
	f.last[code] = now
	return KeyEvent{
		Code:   code,
		Repeat: seen && f.window > 0 && now.Sub(prev) < f.window,
	}
}
