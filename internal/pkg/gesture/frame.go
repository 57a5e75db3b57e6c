package gesture

import (
	"math"
	"time"
)

// Point is a normalized trackpad position, both axes within 0..1
type Point struct {
	X, Y float64
}

// Frame is one complete multitouch report
type Frame struct {
	FingerCount int
	Positions   []Point // ordered by contact slot
	Timestamp   time.Time
}

// Mean averages exactly the first count positions.
// Returns false when the frame carries fewer positions than requested.
func (f Frame) Mean(count int) (Point, bool) {
	if count <= 0 || len(f.Positions) < count {
		return Point{}, false
	}
	var sum Point
	for _, p := range f.Positions[:count] {
		sum.X += p.X
		sum.Y += p.Y
	}
	return Point{X: sum.X / float64(count), Y: sum.Y / float64(count)}, true
}

func manhattan(a, b Point) float64 {
	return math.Abs(a.X-b.X) + math.Abs(a.Y-b.Y)
}
