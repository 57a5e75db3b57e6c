package output

import (
	"fmt"
	"sync"

	"github.com/gethiox/middleclick/internal/pkg/config"
	"github.com/gethiox/middleclick/internal/pkg/gesture"
	"github.com/gethiox/middleclick/internal/pkg/input"
	"github.com/gethiox/middleclick/internal/pkg/logger"
	"github.com/holoplot/go-evdev"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// EventWriter is the part of evdev.InputDevice used for injecting events
type EventWriter interface {
	WriteOne(event *evdev.InputEvent) error
}

var actionButtons = map[gesture.Action]evdev.EvCode{
	gesture.MiddleClick:   evdev.BTN_MIDDLE,
	gesture.SwipeForward:  evdev.BTN_SIDE,  // mouse 4
	gesture.SwipeBackward: evdev.BTN_EXTRA, // mouse 5
}

// Pointer is a virtual mouse and keyboard emitting gesture actions
type Pointer struct {
	mutex  sync.Mutex
	writer EventWriter
	store  *config.Store
	closer func() error
}

func pointerCapabilities() map[evdev.EvType][]evdev.EvCode {
	keys := []evdev.EvCode{evdev.BTN_LEFT, evdev.BTN_RIGHT, evdev.BTN_MIDDLE, evdev.BTN_SIDE, evdev.BTN_EXTRA}
	for code := evdev.EvCode(evdev.KEY_ESC); code <= evdev.KEY_MICMUTE; code++ {
		keys = append(keys, code)
	}
	return map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: keys,
		evdev.EV_REL: {evdev.REL_X, evdev.REL_Y},
	}
}

// NewPointer creates uinput device, shortcut chord is read from store on every emission
func NewPointer(store *config.Store) (*Pointer, error) {
	dev, err := evdev.CreateDevice(
		input.VirtualNamePrefix+" virtual pointer",
		evdev.InputID{BusType: input.BUS_VIRTUAL, Vendor: 0x1209, Product: 0x3c1c, Version: 1},
		pointerCapabilities(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating virtual pointer failed: %w", err)
	}
	p := NewPointerWriter(dev, store)
	p.closer = dev.Close
	return p, nil
}

// NewPointerWriter emits actions into any event writer
func NewPointerWriter(w EventWriter, store *config.Store) *Pointer {
	return &Pointer{writer: w, store: store}
}

func (p *Pointer) Emit(a gesture.Action) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if a == gesture.FourFingerShortcut {
		return p.chord(p.store.Get().FourFingerShortcut)
	}
	button, ok := actionButtons[a]
	if !ok {
		return fmt.Errorf("unsupported action: %s", a)
	}
	return p.click(button)
}

// Button implements ButtonWriter, passthroughs use it for buttons their clones lack
func (p *Pointer) Button(code evdev.EvCode, value int32) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return writeAll(p.writer, keyEvent(code, value), synEvent())
}

func (p *Pointer) click(button evdev.EvCode) error {
	return writeAll(p.writer,
		keyEvent(button, 1), synEvent(),
		keyEvent(button, 0), synEvent(),
	)
}

// chord presses keys in order and releases them in reverse
func (p *Pointer) chord(keys []evdev.EvCode) error {
	if len(keys) == 0 {
		return fmt.Errorf("empty shortcut")
	}
	var events []evdev.InputEvent
	for _, k := range keys {
		events = append(events, keyEvent(k, 1))
	}
	events = append(events, synEvent())
	for i := len(keys) - 1; i >= 0; i-- {
		events = append(events, keyEvent(keys[i], 0))
	}
	events = append(events, synEvent())

	log.Info("emitting shortcut", zap.Int("keys", len(keys)), logger.Debug)
	return writeAll(p.writer, events...)
}

func (p *Pointer) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

func keyEvent(code evdev.EvCode, value int32) evdev.InputEvent {
	return evdev.InputEvent{Type: evdev.EV_KEY, Code: code, Value: value}
}

func synEvent() evdev.InputEvent {
	return evdev.InputEvent{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT}
}

func writeAll(w EventWriter, events ...evdev.InputEvent) error {
	for i := range events {
		err := w.WriteOne(&events[i])
		if err != nil {
			return fmt.Errorf("writing event failed: %w", err)
		}
	}
	return nil
}
