// Package window derives the monthly sampling points a run walks through.
package window

import (
	"fmt"
	"time"
)

// Window is one historical point to sample: a human-readable month label
// and the last UTC instant of that month, used as the upper bound for
// commit resolution.
type Window struct {
	Label  string    // "YYYY-MM"
	Cutoff time.Time // 23:59:59 UTC on the month's final day
	Offset int       // months back from now
}

// Enumerate returns the windows for offsets 0, step, 2*step, ... up to
// horizon (inclusive), most recent first. The clock is passed in so the
// result is a pure function of its inputs.
func Enumerate(now time.Time, horizonMonths, stepMonths int) ([]Window, error) {
	if stepMonths < 1 {
		return nil, fmt.Errorf("step must be at least 1 month, got %d", stepMonths)
	}
	if horizonMonths < 0 {
		return nil, fmt.Errorf("horizon must be non-negative, got %d", horizonMonths)
	}

	now = now.UTC()
	var windows []Window
	for offset := 0; offset <= horizonMonths; offset += stepMonths {
		windows = append(windows, At(now, offset))
	}
	return windows, nil
}

// At computes the window that lies offset months before now's month.
func At(now time.Time, offset int) Window {
	now = now.UTC()
	// Normalize to the first of the month before stepping back, so that
	// e.g. March 31 minus one month lands in February, not March.
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	target := first.AddDate(0, -offset, 0)

	nextMonth := target.AddDate(0, 1, 0)
	cutoff := nextMonth.Add(-time.Second)

	return Window{
		Label:  target.Format("2006-01"),
		Cutoff: cutoff,
		Offset: offset,
	}
}
