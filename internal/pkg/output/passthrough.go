package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/gethiox/middleclick/internal/pkg/gesture"
	"github.com/gethiox/middleclick/internal/pkg/input"
	"github.com/gethiox/middleclick/internal/pkg/logger"
	"github.com/holoplot/go-evdev"
)

var gestureButtons = map[evdev.EvCode]int{
	evdev.BTN_LEFT:   gesture.ButtonLeft,
	evdev.BTN_RIGHT:  gesture.ButtonRight,
	evdev.BTN_MIDDLE: gesture.ButtonCenter,
}

var evdevButtons = map[int]evdev.EvCode{
	gesture.ButtonLeft:   evdev.BTN_LEFT,
	gesture.ButtonRight:  evdev.BTN_RIGHT,
	gesture.ButtonCenter: evdev.BTN_MIDDLE,
}

// ButtonEvent translates press or release of a mouse button into filter input.
// Events that are not button presses or releases return false.
func ButtonEvent(ev evdev.InputEvent, at time.Time) (gesture.MouseEvent, bool) {
	if ev.Type != evdev.EV_KEY || ev.Value > 1 {
		return gesture.MouseEvent{}, false
	}
	button, ok := gestureButtons[ev.Code]
	if !ok {
		return gesture.MouseEvent{}, false
	}

	var typ gesture.EventType
	pressed := ev.Value == 1
	switch {
	case button == gesture.ButtonLeft && pressed:
		typ = gesture.LeftMouseDown
	case button == gesture.ButtonLeft:
		typ = gesture.LeftMouseUp
	case button == gesture.ButtonRight && pressed:
		typ = gesture.RightMouseDown
	case button == gesture.ButtonRight:
		typ = gesture.RightMouseUp
	case pressed:
		typ = gesture.OtherMouseDown
	default:
		typ = gesture.OtherMouseUp
	}
	return gesture.MouseEvent{Type: typ, Button: button, At: at}, true
}

// ButtonWriter presses or releases a single button on a device of its own
type ButtonWriter interface {
	Button(code evdev.EvCode, value int32) error
}

// Passthrough re-emits traffic of a grabbed device through its uinput clone.
// Button events take a detour through the gesture filter and come back via Deliver.
type Passthrough struct {
	mutex    sync.Mutex
	writer   EventWriter
	buttons  map[evdev.EvCode]bool // declared by the clone
	fallback ButtonWriter
	closer   func() error

	delivered, rewritten, suppressed uint64
}

// NewPassthrough clones dev, the clone is what the rest of the system sees from now on.
// Buttons the clone does not declare (middle button of a clickpad) go to fallback.
func NewPassthrough(dev CloneSource, name string, fallback ButtonWriter) (*Passthrough, error) {
	l, err := readLayout(dev)
	if err != nil {
		return nil, fmt.Errorf("cloning device failed: %w", err)
	}
	clone, err := createDevice(fmt.Sprintf("%s %s", input.VirtualNamePrefix, name), l)
	if err != nil {
		return nil, fmt.Errorf("cloning device failed: %w", err)
	}
	p := NewPassthroughWriter(clone, l.buttons(), fallback)
	p.closer = clone.Close
	return p, nil
}

func NewPassthroughWriter(w EventWriter, buttons map[evdev.EvCode]bool, fallback ButtonWriter) *Passthrough {
	return &Passthrough{writer: w, buttons: buttons, fallback: fallback}
}

// Forward writes event unchanged
func (p *Passthrough) Forward(ev evdev.InputEvent) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.writer.WriteOne(&ev)
}

// Deliver implements gesture.MouseSink
func (p *Passthrough) Deliver(ev gesture.MouseEvent, v gesture.Verdict) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	switch v {
	case gesture.Suppress:
		p.suppressed++
		return
	case gesture.Rewrite:
		p.rewritten++
	}
	p.delivered++

	code, ok := evdevButtons[ev.Button]
	if !ok {
		return
	}
	var value int32
	if ev.Type == gesture.LeftMouseDown || ev.Type == gesture.RightMouseDown || ev.Type == gesture.OtherMouseDown {
		value = 1
	}
	var err error
	switch {
	case p.buttons[code]:
		err = writeAll(p.writer, keyEvent(code, value), synEvent())
	case p.fallback != nil:
		err = p.fallback.Button(code, value)
	default:
		err = fmt.Errorf("button %d is not available", code)
	}
	if err != nil {
		log.Info(fmt.Sprintf("delivering %s failed: %v", ev, err), logger.Warning)
	}
}

// Stats returns number of delivered, rewritten and suppressed button events
func (p *Passthrough) Stats() (delivered, rewritten, suppressed uint64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.delivered, p.rewritten, p.suppressed
}

func (p *Passthrough) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}
