package gesture

import (
	"fmt"

	"github.com/gethiox/middleclick/internal/pkg/config"
)

// Mode is the gesture flavour driven by Processor on top of its common frame handling
type Mode interface {
	Name() config.Mode
	// Frame handles a frame after shared state was updated, prev is the previous finger count
	Frame(f Frame, prev int, state *State, s *config.Settings) []Action
	// Abandon stops in-flight gestures from firing until next lift
	Abandon()
	Reset()
}

func NewMode(m config.Mode) (Mode, error) {
	switch m {
	case config.ClickRemap:
		return &clickRemapMode{}, nil
	case config.TapHold:
		return &tapHoldMode{}, nil
	}
	return nil, fmt.Errorf("unsupported mode: %s", m)
}

// clickRemapMode has no per-frame work, physical clicks are rewritten by Filter
type clickRemapMode struct{}

func (m *clickRemapMode) Name() config.Mode { return config.ClickRemap }

func (m *clickRemapMode) Frame(Frame, int, *State, *config.Settings) []Action { return nil }

func (m *clickRemapMode) Abandon() {}

func (m *clickRemapMode) Reset() {}

// tapHoldMode emulates clicks from short, still taps.
// Physical click remapping stays active, recent physical clicks take precedence over taps.
type tapHoldMode struct {
	middle TapHoldTracker
	four   TapHoldTracker
}

func (m *tapHoldMode) Name() config.Mode { return config.TapHold }

func (m *tapHoldMode) Frame(f Frame, prev int, state *State, s *config.Settings) []Action {
	if f.FingerCount == 0 {
		var actions []Action
		if m.middle.Lift(f.Timestamp, s.MaxTimeDelta, s.MaxDistanceDelta) &&
			!recentClick(state.LastNaturalMiddleClickAt, f.Timestamp, s.MaxTimeDelta) {
			actions = append(actions, MiddleClick)
		}
		if m.four.Lift(f.Timestamp, s.MaxTimeDelta, s.MaxDistanceDelta) &&
			s.FourFingerAction &&
			!recentClick(state.LastFourFingerClickAt, f.Timestamp, s.MaxTimeDelta) {
			actions = append(actions, FourFingerShortcut)
		}
		return actions
	}

	m.middle.Update(f, prev, tapRule{
		matches:  func(n int) bool { return qualifies(n, s) },
		required: s.Fingers,
	}, s.MaxTimeDelta)
	m.four.Update(f, prev, tapRule{
		matches:  func(n int) bool { return fourFinger(n, s) },
		required: 4,
	}, s.MaxTimeDelta)
	return nil
}

func (m *tapHoldMode) Abandon() {
	m.middle.Abandon()
	m.four.Abandon()
}

func (m *tapHoldMode) Reset() {
	m.middle.Reset()
	m.four.Reset()
}

// Trackers exposes tracker states for diagnostics
func (m *tapHoldMode) Trackers() (middle, four TapState) {
	return m.middle.State(), m.four.State()
}

// fourFinger tells whether n fingers trigger four finger action.
// When four fingers are the configured middle click count, middle click wins.
func fourFinger(n int, s *config.Settings) bool {
	return s.FourFingerAction && n == 4 && s.Fingers != 4
}

// qualifies tells whether n fingers mean middle click, four finger action has precedence
func qualifies(n int, s *config.Settings) bool {
	return s.IsQualifying(n) && !fourFinger(n, s)
}
