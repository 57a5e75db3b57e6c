package gesture

import (
	"github.com/gethiox/middleclick/internal/pkg/config"
)

// Processor turns touch frames into shared state updates and gesture actions
type Processor struct {
	state    *State
	swipe    SwipeTracker
	mode     Mode
	ignoring bool
}

func NewProcessor(state *State, mode Mode) *Processor {
	return &Processor{state: state, mode: mode}
}

// SetMode switches gesture mode, all trackers start from scratch
func (p *Processor) SetMode(mode Mode) {
	p.mode = mode
	p.swipe.Reset()
	p.mode.Reset()
}

// Reclassify recomputes finger state of the current contact after counting rules changed.
// Taps in progress are abandoned, a contact never starts a tap halfway through.
func (p *Processor) Reclassify(s *config.Settings) {
	n := p.state.LastFingerCount
	p.state.QualifyingDown = qualifies(n, s)
	p.state.FourDown = fourFinger(n, s)
	p.mode.Abandon()
}

func (p *Processor) Mode() Mode {
	return p.mode
}

func (p *Processor) Swipe() SwipeTracker {
	return p.swipe
}

// Process handles a single frame. ignored frames do not touch any state.
func (p *Processor) Process(f Frame, s *config.Settings, ignored bool) []Action {
	if ignored {
		p.ignoring = true
		return nil
	}
	if p.ignoring {
		p.ignoring = false
		p.swipe.Abandon()
		p.mode.Abandon()
	}

	n := f.FingerCount
	prev := p.state.LastFingerCount
	if n == 0 && prev == 0 {
		p.swipe.Reset()
		p.mode.Reset()
		return nil
	}

	if n != prev {
		p.state.QualifyingDown = qualifies(n, s)
		p.state.FourDown = fourFinger(n, s)
		p.state.LastFingerCount = n
	}

	var actions []Action

	switch {
	case n == 0:
		p.swipe.Reset()
	case n == swipeFingers && s.ThreeFingerSwipe:
		a, ok := p.swipe.Feed(f, s.SwipeThreshold)
		if ok {
			actions = append(actions, a)
		}
	case prev == swipeFingers:
		p.swipe.Rearm()
	}

	return append(actions, p.mode.Frame(f, prev, p.state, s)...)
}
