package gesture

import "time"

// State is shared between touch frame processing and mouse event filtering.
// It is owned by Engine goroutine, other goroutines get copies via Engine.Snapshot.
type State struct {
	// written by Processor
	QualifyingDown  bool
	FourDown        bool
	LastFingerCount int

	// written by Filter
	QualifyingWasDown        bool
	FourWasDown              bool
	LastNaturalMiddleClickAt time.Time
	LastFourFingerClickAt    time.Time
}

// recentClick tells whether a physical click at last is close enough to now to own the gesture
func recentClick(last, now time.Time, maxDuration time.Duration) bool {
	if last.IsZero() {
		return false
	}
	return now.Sub(last) <= maxDuration*3/4
}
