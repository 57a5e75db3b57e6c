package output

import (
	"errors"
	"testing"
	"time"

	"github.com/gethiox/middleclick/internal/pkg/config"
	"github.com/gethiox/middleclick/internal/pkg/gesture"
	"github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []evdev.InputEvent
	err    error
}

func (r *recorder) WriteOne(ev *evdev.InputEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *ev)
	return nil
}

func TestPointerClicks(t *testing.T) {
	for _, tc := range []struct {
		action gesture.Action
		button evdev.EvCode
	}{
		{gesture.MiddleClick, evdev.BTN_MIDDLE},
		{gesture.SwipeForward, evdev.BTN_SIDE},
		{gesture.SwipeBackward, evdev.BTN_EXTRA},
	} {
		t.Run(tc.action.String(), func(t *testing.T) {
			r := &recorder{}
			p := NewPointerWriter(r, config.NewStore(nil))

			require.NoError(t, p.Emit(tc.action))
			assert.Equal(t, []evdev.InputEvent{
				keyEvent(tc.button, 1), synEvent(),
				keyEvent(tc.button, 0), synEvent(),
			}, r.events)
		})
	}
}

func TestPointerShortcut(t *testing.T) {
	r := &recorder{}
	store := config.NewStore(nil)
	p := NewPointerWriter(r, store)

	require.NoError(t, p.Emit(gesture.FourFingerShortcut))
	assert.Equal(t, []evdev.InputEvent{
		keyEvent(evdev.KEY_LEFTCTRL, 1), keyEvent(evdev.KEY_W, 1), synEvent(),
		keyEvent(evdev.KEY_W, 0), keyEvent(evdev.KEY_LEFTCTRL, 0), synEvent(),
	}, r.events)

	s := config.DefaultSettings()
	s.FourFingerShortcut = []evdev.EvCode{evdev.KEY_LEFTALT, evdev.KEY_LEFTSHIFT, evdev.KEY_T}
	store.Set(s)
	r.events = nil

	require.NoError(t, p.Emit(gesture.FourFingerShortcut))
	require.Len(t, r.events, 8)
	assert.Equal(t, keyEvent(evdev.KEY_T, 1), r.events[2])
	assert.Equal(t, keyEvent(evdev.KEY_T, 0), r.events[4])
	assert.Equal(t, keyEvent(evdev.KEY_LEFTALT, 0), r.events[6])
}

func TestPointerCapabilities(t *testing.T) {
	keys := pointerCapabilities()[evdev.EV_KEY]
	for _, code := range []evdev.EvCode{evdev.BTN_MIDDLE, evdev.BTN_SIDE, evdev.BTN_EXTRA, evdev.KEY_ESC, evdev.KEY_LEFTCTRL, evdev.KEY_MICMUTE} {
		assert.Contains(t, keys, code)
	}
	assert.NotContains(t, keys, evdev.EvCode(evdev.KEY_MICMUTE+1))
}

func TestPointerErrors(t *testing.T) {
	r := &recorder{err: errors.New("no such device")}
	p := NewPointerWriter(r, config.NewStore(nil))

	assert.Error(t, p.Emit(gesture.MiddleClick))
	assert.Error(t, p.Emit(gesture.Action(42)))
	assert.Equal(t, nil, p.Close())
}

func TestButtonEvent(t *testing.T) {
	at := time.Unix(1700000000, 0)
	for _, tc := range []struct {
		name  string
		ev    evdev.InputEvent
		want  gesture.MouseEvent
		valid bool
	}{
		{"left down", keyEvent(evdev.BTN_LEFT, 1), gesture.MouseEvent{Type: gesture.LeftMouseDown, Button: gesture.ButtonLeft, At: at}, true},
		{"left up", keyEvent(evdev.BTN_LEFT, 0), gesture.MouseEvent{Type: gesture.LeftMouseUp, Button: gesture.ButtonLeft, At: at}, true},
		{"right down", keyEvent(evdev.BTN_RIGHT, 1), gesture.MouseEvent{Type: gesture.RightMouseDown, Button: gesture.ButtonRight, At: at}, true},
		{"right up", keyEvent(evdev.BTN_RIGHT, 0), gesture.MouseEvent{Type: gesture.RightMouseUp, Button: gesture.ButtonRight, At: at}, true},
		{"middle down", keyEvent(evdev.BTN_MIDDLE, 1), gesture.MouseEvent{Type: gesture.OtherMouseDown, Button: gesture.ButtonCenter, At: at}, true},
		{"finger tool", keyEvent(evdev.BTN_TOOL_FINGER, 1), gesture.MouseEvent{}, false},
		{"repeat", keyEvent(evdev.BTN_LEFT, 2), gesture.MouseEvent{}, false},
		{"motion", evdev.InputEvent{Type: evdev.EV_REL, Code: evdev.REL_X, Value: 1}, gesture.MouseEvent{}, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ButtonEvent(tc.ev, at)
			assert.Equal(t, tc.valid, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPassthroughDeliver(t *testing.T) {
	r := &recorder{}
	p := NewPassthroughWriter(r, map[evdev.EvCode]bool{evdev.BTN_LEFT: true, evdev.BTN_RIGHT: true, evdev.BTN_MIDDLE: true}, nil)

	motion := evdev.InputEvent{Type: evdev.EV_REL, Code: evdev.REL_X, Value: 3}
	require.NoError(t, p.Forward(motion))

	p.Deliver(gesture.MouseEvent{Type: gesture.OtherMouseDown, Button: gesture.ButtonCenter}, gesture.Rewrite)
	p.Deliver(gesture.MouseEvent{Type: gesture.LeftMouseDown, Button: gesture.ButtonLeft}, gesture.Suppress)
	p.Deliver(gesture.MouseEvent{Type: gesture.RightMouseUp, Button: gesture.ButtonRight}, gesture.Pass)

	assert.Equal(t, []evdev.InputEvent{
		motion,
		keyEvent(evdev.BTN_MIDDLE, 1), synEvent(),
		keyEvent(evdev.BTN_RIGHT, 0), synEvent(),
	}, r.events)

	delivered, rewritten, suppressed := p.Stats()
	assert.Equal(t, uint64(2), delivered)
	assert.Equal(t, uint64(1), rewritten)
	assert.Equal(t, uint64(1), suppressed)
}

func TestPassthroughRewriteOnClickpad(t *testing.T) {
	clone := &recorder{}
	pointerEvents := &recorder{}
	pointer := NewPointerWriter(pointerEvents, config.NewStore(nil))
	p := NewPassthroughWriter(clone, map[evdev.EvCode]bool{evdev.BTN_LEFT: true, evdev.BTN_TOUCH: true}, pointer)

	p.Deliver(gesture.MouseEvent{Type: gesture.OtherMouseDown, Button: gesture.ButtonCenter}, gesture.Rewrite)
	p.Deliver(gesture.MouseEvent{Type: gesture.OtherMouseUp, Button: gesture.ButtonCenter}, gesture.Rewrite)
	p.Deliver(gesture.MouseEvent{Type: gesture.LeftMouseDown, Button: gesture.ButtonLeft}, gesture.Pass)

	assert.Equal(t, []evdev.InputEvent{keyEvent(evdev.BTN_LEFT, 1), synEvent()}, clone.events)
	assert.Equal(t, []evdev.InputEvent{
		keyEvent(evdev.BTN_MIDDLE, 1), synEvent(),
		keyEvent(evdev.BTN_MIDDLE, 0), synEvent(),
	}, pointerEvents.events)

	delivered, rewritten, _ := p.Stats()
	assert.Equal(t, uint64(3), delivered)
	assert.Equal(t, uint64(2), rewritten)
}

func TestPassthroughMissingButton(t *testing.T) {
	clone := &recorder{}
	p := NewPassthroughWriter(clone, map[evdev.EvCode]bool{evdev.BTN_LEFT: true}, nil)

	p.Deliver(gesture.MouseEvent{Type: gesture.OtherMouseDown, Button: gesture.ButtonCenter}, gesture.Rewrite)
	assert.Empty(t, clone.events)
}

type fakeSource struct {
	types []evdev.EvType
	codes map[evdev.EvType][]evdev.EvCode
	props []evdev.EvProp
	axes  map[evdev.EvCode]evdev.AbsInfo
	err   error
}

func (f *fakeSource) InputID() (evdev.InputID, error) {
	return evdev.InputID{BusType: 0x18, Vendor: 0x6cb, Product: 0xcdd7}, nil
}
func (f *fakeSource) CapableTypes() []evdev.EvType                { return f.types }
func (f *fakeSource) CapableEvents(t evdev.EvType) []evdev.EvCode { return f.codes[t] }
func (f *fakeSource) Properties() []evdev.EvProp                  { return f.props }
func (f *fakeSource) AbsInfos() (map[evdev.EvCode]evdev.AbsInfo, error) {
	return f.axes, f.err
}

func TestReadLayout(t *testing.T) {
	clickpad := &fakeSource{
		types: []evdev.EvType{evdev.EV_SYN, evdev.EV_KEY, evdev.EV_ABS, evdev.EV_LED},
		codes: map[evdev.EvType][]evdev.EvCode{
			evdev.EV_KEY: {evdev.BTN_LEFT, evdev.BTN_TOUCH, evdev.BTN_TOOL_FINGER},
			evdev.EV_ABS: {evdev.ABS_X, evdev.ABS_Y, evdev.ABS_MT_SLOT},
			evdev.EV_LED: {evdev.LED_CAPSL},
		},
		props: []evdev.EvProp{evdev.INPUT_PROP_POINTER, evdev.INPUT_PROP_BUTTONPAD},
		axes: map[evdev.EvCode]evdev.AbsInfo{
			evdev.ABS_X:       {Minimum: 0, Maximum: 1224, Resolution: 12},
			evdev.ABS_Y:       {Minimum: 0, Maximum: 804, Resolution: 12},
			evdev.ABS_MT_SLOT: {Minimum: 0, Maximum: 4},
		},
	}

	l, err := readLayout(clickpad)
	assert.Equal(t, nil, err)
	assert.Equal(t, uint16(0x6cb), l.id.Vendor)
	assert.Equal(t, clickpad.props, l.props)
	assert.Equal(t, clickpad.axes, l.axes)
	assert.Len(t, l.codes, 2)
	assert.Equal(t, map[evdev.EvCode]bool{evdev.BTN_LEFT: true, evdev.BTN_TOUCH: true, evdev.BTN_TOOL_FINGER: true}, l.buttons())
	assert.False(t, l.buttons()[evdev.BTN_MIDDLE])

	clickpad.err = errors.New("bad axis")
	_, err = readLayout(clickpad)
	assert.Error(t, err)

	mouse := &fakeSource{
		types: []evdev.EvType{evdev.EV_KEY, evdev.EV_REL},
		codes: map[evdev.EvType][]evdev.EvCode{
			evdev.EV_KEY: {evdev.BTN_LEFT, evdev.BTN_RIGHT, evdev.BTN_MIDDLE},
			evdev.EV_REL: {evdev.REL_X, evdev.REL_Y},
		},
		err: errors.New("no axes"),
	}
	l, err = readLayout(mouse)
	assert.Equal(t, nil, err)
	assert.Nil(t, l.axes)
	assert.True(t, l.buttons()[evdev.BTN_MIDDLE])
}
