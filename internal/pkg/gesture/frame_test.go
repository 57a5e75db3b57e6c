package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameMean(t *testing.T) {
	f := Frame{FingerCount: 4, Positions: []Point{{0.1, 0.2}, {0.3, 0.4}, {0.5, 0.6}, {0.9, 0.9}}}

	mean, ok := f.Mean(3)
	assert.True(t, ok)
	assert.InDelta(t, 0.3, mean.X, 1e-9)
	assert.InDelta(t, 0.4, mean.Y, 1e-9)

	_, ok = f.Mean(5)
	assert.False(t, ok)

	_, ok = f.Mean(0)
	assert.False(t, ok)
}

func TestManhattan(t *testing.T) {
	assert.InDelta(t, 0.3, manhattan(Point{0.1, 0.1}, Point{0.2, 0.3}), 1e-9)
	assert.InDelta(t, 0.3, manhattan(Point{0.2, 0.3}, Point{0.1, 0.1}), 1e-9)
}
