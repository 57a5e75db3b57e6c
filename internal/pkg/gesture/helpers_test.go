package gesture

import (
	"time"

	"github.com/gethiox/middleclick/internal/pkg/config"
)

var epoch = time.Unix(1700000000, 0)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

// touch builds frame with n fingers spread horizontally around (x, y)
func touch(ms, n int, x, y float64) Frame {
	f := Frame{FingerCount: n, Timestamp: at(ms)}
	for i := 0; i < n; i++ {
		offset := float64(i-n/2) * 0.01
		f.Positions = append(f.Positions, Point{X: x + offset, Y: y})
	}
	if n%2 == 0 {
		// keep mean at x for even counts
		for i := range f.Positions {
			f.Positions[i].X += 0.005
		}
	}
	return f
}

func lift(ms int) Frame {
	return Frame{FingerCount: 0, Timestamp: at(ms)}
}

func settings(modify func(s *config.Settings)) *config.Settings {
	s := config.DefaultSettings()
	if modify != nil {
		modify(s)
	}
	return s
}

func newProcessor(s *config.Settings) (*Processor, *State) {
	mode, err := NewMode(s.Mode)
	if err != nil {
		panic(err)
	}
	state := &State{}
	return NewProcessor(state, mode), state
}

func feed(p *Processor, s *config.Settings, frames ...Frame) []Action {
	var actions []Action
	for _, f := range frames {
		actions = append(actions, p.Process(f, s, false)...)
	}
	return actions
}
