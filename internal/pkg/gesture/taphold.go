package gesture

import (
	"time"
)

type TapState int

const (
	Idle TapState = iota
	Open
	Abandoned
)

func (s TapState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Open:
		return "open"
	case Abandoned:
		return "abandoned"
	}
	return "unknown"
}

// TapHoldTracker follows one contact episode and decides whether it was a short, still tap.
// startTime is zero exactly when tracker is Idle.
type TapHoldTracker struct {
	state                TapState
	startTime            time.Time
	pendingSince         time.Time // matching count reached, positions not reported yet
	startAveragePosition Point
	endAveragePosition   Point
}

// tapRule describes finger counts a tracker reacts to
type tapRule struct {
	matches  func(n int) bool
	required int // positions averaged, also the partial lift boundary
}

// Update handles non-lift frame. prev is finger count of the previous processed frame.
func (t *TapHoldTracker) Update(f Frame, prev int, rule tapRule, maxDuration time.Duration) {
	n := f.FingerCount
	matching := rule.matches(n)

	switch t.state {
	case Idle:
		if !matching {
			t.pendingSince = time.Time{}
			return
		}
		if rule.matches(prev) && t.pendingSince.IsZero() {
			return
		}
		if t.pendingSince.IsZero() {
			t.pendingSince = f.Timestamp
		}
		mean, ok := f.Mean(rule.required)
		if !ok {
			return
		}
		t.state = Open
		t.startTime = t.pendingSince
		t.pendingSince = time.Time{}
		t.startAveragePosition = mean
		t.endAveragePosition = mean
	case Open:
		if f.Timestamp.Sub(t.startTime) > maxDuration {
			t.state = Abandoned
			return
		}
		switch {
		case matching:
			mean, ok := f.Mean(rule.required)
			if ok {
				t.endAveragePosition = mean
			}
		case n < rule.required:
			// partial lift, fingers leave one by one
		default:
			t.state = Abandoned
		}
	}
}

// Lift closes the episode, reports whether the tap is committed. Tracker is always Idle afterwards.
func (t *TapHoldTracker) Lift(now time.Time, maxDuration time.Duration, maxDrift float64) bool {
	committed := t.state == Open &&
		now.Sub(t.startTime) <= maxDuration &&
		manhattan(t.startAveragePosition, t.endAveragePosition) < maxDrift
	t.Reset()
	return committed
}

// Abandon makes tracker ignore the rest of the episode
func (t *TapHoldTracker) Abandon() {
	t.pendingSince = time.Time{}
	if t.state == Open {
		t.state = Abandoned
	}
}

func (t *TapHoldTracker) Reset() {
	*t = TapHoldTracker{}
}

func (t *TapHoldTracker) State() TapState {
	return t.state
}
