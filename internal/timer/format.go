package timer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed is returned by Parse for strings not shaped like MM:SS:mmm.
var ErrMalformed = errors.New("malformed time")

// Format renders ms as MM:SS:mmm. Minutes are not capped, so 100 minutes and
// up render wider than two digits. Negative input renders as zero.
func Format(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%03d", minutes, seconds, millis)
}

// FormatDuration truncates d to whole milliseconds and formats it.
func FormatDuration(d time.Duration) string {
	return Format(d.Milliseconds())
}

// Parse is the inverse of Format.
func Parse(s string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	var fields [3]int64
	for i, part := range parts {
		if part == "" || strings.ContainsAny(part, "+-") {
			return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
		v, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformed, s)
		}
		fields[i] = v
	}

	if fields[0] > math.MaxInt64/60000 || fields[1] > math.MaxInt64/1000 {
		return 0, fmt.Errorf("%w: %q out of range", ErrMalformed, s)
	}
	ms := fields[0] * 60000
	for _, v := range []int64{fields[1] * 1000, fields[2]} {
		if ms > math.MaxInt64-v {
			return 0, fmt.Errorf("%w: %q out of range", ErrMalformed, s)
		}
		ms += v
	}
	return ms, nil
}
