package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterPassesWithoutGesture(t *testing.T) {
	state := &State{}
	filter := NewFilter(state)

	for _, typ := range []EventType{LeftMouseDown, LeftMouseUp, RightMouseDown, RightMouseUp, OtherMouseDown, OtherEvent} {
		ev := MouseEvent{Type: typ, Button: ButtonLeft, At: at(0)}
		out, verdict, actions := filter.Handle(ev, false)
		assert.Equal(t, ev, out)
		assert.Equal(t, Pass, verdict)
		assert.Len(t, actions, 0)
	}
	assert.Equal(t, State{}, *state)
}

func TestFilterFastReject(t *testing.T) {
	state := &State{QualifyingDown: true, FourDown: true}
	filter := NewFilter(state)

	for _, typ := range []EventType{OtherMouseDown, OtherMouseUp, OtherEvent} {
		ev := MouseEvent{Type: typ, Button: ButtonCenter, At: at(0)}
		_, verdict, _ := filter.Handle(ev, false)
		assert.Equal(t, Pass, verdict)
	}
	assert.False(t, state.QualifyingWasDown)
	assert.False(t, state.FourWasDown)
}

func TestFilterRemapsWholePair(t *testing.T) {
	for _, tc := range []struct {
		name     string
		down, up EventType
		button   int
	}{
		{"left", LeftMouseDown, LeftMouseUp, ButtonLeft},
		{"right", RightMouseDown, RightMouseUp, ButtonRight},
	} {
		t.Run(tc.name, func(t *testing.T) {
			state := &State{QualifyingDown: true}
			filter := NewFilter(state)

			out, verdict, actions := filter.Handle(MouseEvent{Type: tc.down, Button: tc.button, At: at(10)}, false)
			assert.Equal(t, Rewrite, verdict)
			assert.Equal(t, MouseEvent{Type: OtherMouseDown, Button: ButtonCenter, At: at(10)}, out)
			assert.Len(t, actions, 0)
			assert.True(t, state.QualifyingWasDown)
			assert.Equal(t, at(10), state.LastNaturalMiddleClickAt)

			// fingers may leave before the button is released
			state.QualifyingDown = false

			out, verdict, _ = filter.Handle(MouseEvent{Type: tc.up, Button: tc.button, At: at(50)}, false)
			assert.Equal(t, Rewrite, verdict)
			assert.Equal(t, MouseEvent{Type: OtherMouseUp, Button: ButtonCenter, At: at(50)}, out)
			assert.False(t, state.QualifyingWasDown)

			_, verdict, _ = filter.Handle(MouseEvent{Type: tc.up, Button: tc.button, At: at(60)}, false)
			assert.Equal(t, Pass, verdict)
		})
	}
}

func TestFilterUpWithoutRemappedDown(t *testing.T) {
	state := &State{}
	filter := NewFilter(state)

	_, verdict, _ := filter.Handle(MouseEvent{Type: LeftMouseDown, At: at(0)}, false)
	assert.Equal(t, Pass, verdict)

	// fingers arrive while button is held, release must stay a plain release
	state.QualifyingDown = true
	_, verdict, _ = filter.Handle(MouseEvent{Type: LeftMouseUp, At: at(10)}, false)
	assert.Equal(t, Pass, verdict)
}

func TestFilterFourFingerSuppression(t *testing.T) {
	state := &State{FourDown: true, QualifyingDown: true}
	filter := NewFilter(state)

	var fired []Action
	for i := 0; i < 3; i++ {
		_, verdict, actions := filter.Handle(MouseEvent{Type: LeftMouseDown, At: at(i * 100)}, false)
		assert.Equal(t, Suppress, verdict)
		fired = append(fired, actions...)
		assert.Equal(t, at(i*100), state.LastFourFingerClickAt)

		_, verdict, actions = filter.Handle(MouseEvent{Type: LeftMouseUp, At: at(i*100 + 50)}, false)
		assert.Equal(t, Suppress, verdict)
		assert.Len(t, actions, 0)
		assert.False(t, state.FourWasDown)
	}
	assert.Equal(t, []Action{FourFingerShortcut, FourFingerShortcut, FourFingerShortcut}, fired)
	assert.False(t, state.QualifyingWasDown)
	assert.True(t, state.LastNaturalMiddleClickAt.IsZero())
}

func TestFilterIgnoredApplication(t *testing.T) {
	state := &State{QualifyingDown: true}
	filter := NewFilter(state)

	_, verdict, _ := filter.Handle(MouseEvent{Type: LeftMouseDown, At: at(0)}, true)
	assert.Equal(t, Pass, verdict)
	assert.False(t, state.QualifyingWasDown)

	_, verdict, _ = filter.Handle(MouseEvent{Type: LeftMouseUp, At: at(10)}, true)
	assert.Equal(t, Pass, verdict)
}

func TestFilterReleaseInIgnoredApplication(t *testing.T) {
	state := &State{QualifyingDown: true}
	filter := NewFilter(state)

	_, verdict, _ := filter.Handle(MouseEvent{Type: LeftMouseDown, At: at(0)}, false)
	assert.Equal(t, Rewrite, verdict)

	// focus switched to ignored application while button is held
	out, verdict, _ := filter.Handle(MouseEvent{Type: LeftMouseUp, At: at(10)}, true)
	assert.Equal(t, Rewrite, verdict)
	assert.Equal(t, OtherMouseUp, out.Type)
}

func TestFilterSuppressedReleaseInIgnoredApplication(t *testing.T) {
	state := &State{FourDown: true}
	filter := NewFilter(state)

	_, verdict, actions := filter.Handle(MouseEvent{Type: RightMouseDown, At: at(0)}, false)
	assert.Equal(t, Suppress, verdict)
	assert.Equal(t, []Action{FourFingerShortcut}, actions)

	_, verdict, actions = filter.Handle(MouseEvent{Type: RightMouseUp, At: at(10)}, true)
	assert.Equal(t, Suppress, verdict)
	assert.Len(t, actions, 0)
	assert.False(t, state.FourWasDown)
}
