package touch

import (
	"time"

	"github.com/gethiox/middleclick/internal/pkg/gesture"
	"github.com/gethiox/middleclick/internal/pkg/input"
	"github.com/holoplot/go-evdev"
)

const defaultSlots = 10

type Range struct {
	Min, Max int32
}

// normalize maps v into 0..1
func (r Range) normalize(v int32) float64 {
	if r.Max <= r.Min {
		return 0
	}
	n := float64(v-r.Min) / float64(r.Max-r.Min)
	switch {
	case n < 0:
		return 0
	case n > 1:
		return 1
	}
	return n
}

type slot struct {
	active bool
	palm   bool
	x, y   int32
}

var toolFingers = map[evdev.EvCode]int{
	evdev.BTN_TOOL_FINGER:    1,
	evdev.BTN_TOOL_DOUBLETAP: 2,
	evdev.BTN_TOOL_TRIPLETAP: 3,
	evdev.BTN_TOOL_QUADTAP:   4,
	evdev.BTN_TOOL_QUINTTAP:  5,
}

// Assembler turns multitouch protocol B event stream into complete frames
type Assembler struct {
	x, y    Range
	slots   []slot
	current int
	tool    int // finger count reported by BTN_TOOL_* keys
	dropped bool

	now func() time.Time
}

// NewAssembler prepares assembler for device with given axis information, see evdev.InputDevice.AbsInfos
func NewAssembler(absInfos map[evdev.EvCode]evdev.AbsInfo) *Assembler {
	a := &Assembler{now: time.Now}

	slots := defaultSlots
	if info, ok := absInfos[evdev.ABS_MT_SLOT]; ok && info.Maximum >= 0 {
		slots = int(info.Maximum) + 1
	}
	a.slots = make([]slot, slots)

	if info, ok := absInfos[evdev.ABS_MT_POSITION_X]; ok {
		a.x = Range{Min: info.Minimum, Max: info.Maximum}
	}
	if info, ok := absInfos[evdev.ABS_MT_POSITION_Y]; ok {
		a.y = Range{Min: info.Minimum, Max: info.Maximum}
	}
	if info, ok := absInfos[evdev.ABS_MT_SLOT]; ok && int(info.Value) < len(a.slots) {
		a.current = int(info.Value)
	}
	return a
}

// Feed consumes single event, returns complete frame on SYN_REPORT
func (a *Assembler) Feed(ev evdev.InputEvent) (gesture.Frame, bool) {
	switch ev.Type {
	case evdev.EV_SYN:
		switch ev.Code {
		case evdev.SYN_DROPPED:
			a.dropped = true
		case evdev.SYN_REPORT:
			if a.dropped {
				// frame after overflow is incomplete
				a.dropped = false
				return gesture.Frame{}, false
			}
			return a.frame(), true
		}
	case evdev.EV_KEY:
		if a.dropped {
			return gesture.Frame{}, false
		}
		n, ok := toolFingers[ev.Code]
		if !ok {
			break
		}
		switch {
		case ev.Value == 1:
			a.tool = n
		case ev.Value == 0 && a.tool == n:
			a.tool = 0
		}
	case evdev.EV_ABS:
		if a.dropped {
			return gesture.Frame{}, false
		}
		a.abs(ev)
	}
	return gesture.Frame{}, false
}

func (a *Assembler) abs(ev evdev.InputEvent) {
	if ev.Code == evdev.ABS_MT_SLOT {
		a.current = int(ev.Value)
		return
	}
	if a.current < 0 || a.current >= len(a.slots) {
		return
	}
	s := &a.slots[a.current]

	switch ev.Code {
	case evdev.ABS_MT_TRACKING_ID:
		if ev.Value < 0 {
			*s = slot{}
			return
		}
		s.active = true
		s.palm = false
	case evdev.ABS_MT_POSITION_X:
		s.x = ev.Value
	case evdev.ABS_MT_POSITION_Y:
		s.y = ev.Value
	case evdev.ABS_MT_TOOL_TYPE:
		s.palm = ev.Value == input.MT_TOOL_PALM
	}
}

func (a *Assembler) frame() gesture.Frame {
	f := gesture.Frame{Timestamp: a.now()}
	for _, s := range a.slots {
		if !s.active || s.palm {
			continue
		}
		f.Positions = append(f.Positions, gesture.Point{X: a.x.normalize(s.x), Y: a.y.normalize(s.y)})
	}
	f.FingerCount = len(f.Positions)
	if a.tool > f.FingerCount {
		// pads tracking fewer slots than fingers they detect
		f.FingerCount = a.tool
	}
	return f
}

// Reset forgets all contacts, used when device stream is restarted
func (a *Assembler) Reset() {
	for i := range a.slots {
		a.slots[i] = slot{}
	}
	a.tool = 0
	a.current = 0
	a.dropped = false
}
