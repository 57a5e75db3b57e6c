package gesture

import "math"

const swipeFingers = 3

// SwipeTracker detects horizontal three finger swipe, firing at most once per contact episode
type SwipeTracker struct {
	start     Point
	armed     bool
	triggered bool
}

// Feed consumes three finger frame. Frames without enough positions are skipped.
func (t *SwipeTracker) Feed(f Frame, threshold float64) (Action, bool) {
	mean, ok := f.Mean(swipeFingers)
	if !ok {
		return 0, false
	}
	if !t.armed {
		t.start = mean
		t.armed = true
		return 0, false
	}
	if t.triggered {
		return 0, false
	}

	dx := mean.X - t.start.X
	if math.Abs(dx) <= threshold {
		return 0, false
	}
	t.triggered = true
	if dx > 0 {
		return SwipeForward, true
	}
	return SwipeBackward, true
}

// Rearm forgets start position after finger count left three without lifting,
// next three finger frame starts measuring again. Already fired swipe stays fired.
func (t *SwipeTracker) Rearm() {
	t.start = Point{}
	t.armed = false
}

// Abandon prevents firing until next lift
func (t *SwipeTracker) Abandon() {
	if t.armed {
		t.triggered = true
	}
}

func (t *SwipeTracker) Reset() {
	*t = SwipeTracker{}
}

func (t *SwipeTracker) Armed() bool {
	return t.armed
}

func (t *SwipeTracker) Triggered() bool {
	return t.triggered
}
