package input

// Related things to separate handlers that comes from /proc/bus/input/devices

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/holoplot/go-evdev"
)

type PhysicalID string
type HandlerType int

const (
	DI_TYPE_UNKNOWN  = HandlerType(iota)
	DI_TYPE_TOUCHPAD // multitouch pad reporting finger slots, usually a clickpad with BTN_LEFT
	DI_TYPE_MOUSE    // relative pointer with buttons
	DI_TYPE_KEYBOARD
)

func (ht HandlerType) String() string {
	switch ht {
	case DI_TYPE_TOUCHPAD:
		return "TOUCHPAD"
	case DI_TYPE_MOUSE:
		return "MOUSE"
	case DI_TYPE_KEYBOARD:
		return "KEYBOARD"
	default:
		return "UNKNOWN"
	}
}

// Bitmap holds capability bits, word 0 is the least significant one
type Bitmap []uint

func (b Bitmap) Has(bit int) bool {
	word := bit / bits.UintSize
	if bit < 0 || word >= len(b) {
		return false
	}
	return b[word]&(1<<(uint(bit)%bits.UintSize)) != 0
}

// DeviceInfo contains information of every reported event device
// it is supposed to be created by unmarshal function only
type DeviceInfo struct {
	ID       InputID  // ID of the device
	Name     string   // name of the device
	Phys     string   // physical path to the device in the system hierarchy
	Sysfs    string   // sysfs path
	Uniq     string   // unique identification code for the device (if device has it)
	Handlers []string // list of input handles associated with the device
	Bitmaps  map[string]Bitmap
}

type InputID struct {
	Bus     uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

func (i InputID) String() string {
	return fmt.Sprintf("%s 0x%04x 0x%04x 0x%04x", BusName(i.Bus), i.Vendor, i.Product, i.Version)
}

// Event returns event name, like "event0" for /dev/input/event0
func (d *DeviceInfo) Event() string {
	for _, handler := range d.Handlers {
		if strings.HasPrefix(handler, "event") {
			return handler
		}
	}
	return ""
}

// EventPath returns a /dev/input/event filepath
func (d *DeviceInfo) EventPath() string {
	event := d.Event()
	if event == "" {
		return ""
	}
	return fmt.Sprintf("/dev/input/%s", event)
}

// has tells whether every given bit is set in named bitmap
func (d *DeviceInfo) has(bitmap string, codes ...int) bool {
	b := d.Bitmaps[bitmap]
	for _, c := range codes {
		if !b.Has(c) {
			return false
		}
	}
	return true
}

func (d *DeviceInfo) IsTouchpad() bool {
	return d.has("EV", int(evdev.EV_KEY), int(evdev.EV_ABS)) &&
		d.has("ABS", int(evdev.ABS_MT_POSITION_X), int(evdev.ABS_MT_POSITION_Y)) &&
		d.has("KEY", int(evdev.BTN_TOOL_FINGER)) &&
		!d.has("PROP", int(evdev.INPUT_PROP_DIRECT)) // touchscreens and tablets
}

func (d *DeviceInfo) IsMouse() bool {
	return d.has("EV", int(evdev.EV_KEY), int(evdev.EV_REL)) &&
		d.has("REL", int(evdev.REL_X), int(evdev.REL_Y)) &&
		d.has("KEY", int(evdev.BTN_LEFT))
}

func (d *DeviceInfo) IsKeyboard() bool {
	return d.has("EV", int(evdev.EV_KEY), int(evdev.EV_REP)) &&
		d.has("KEY", int(evdev.KEY_A), int(evdev.KEY_Z), int(evdev.KEY_SPACE))
}

// HandlerType tells what given handler is useful for, touchpad wins over mouse
// as clickpads report both finger slots and buttons
func (d *DeviceInfo) HandlerType() HandlerType {
	switch {
	case d.IsTouchpad():
		return DI_TYPE_TOUCHPAD
	case d.IsMouse():
		return DI_TYPE_MOUSE
	case d.IsKeyboard():
		return DI_TYPE_KEYBOARD
	}
	return DI_TYPE_UNKNOWN
}

// HasButtons tells whether handler emits left or right button presses
func (d *DeviceInfo) HasButtons() bool {
	return d.has("KEY", int(evdev.BTN_LEFT)) || d.has("KEY", int(evdev.BTN_RIGHT))
}

// PhysicalUUID returns unique UUID based on connection of given port
// The main usage is to identify groups of handlers that represent one physical device
func (d *DeviceInfo) PhysicalUUID() PhysicalID {
	phys := strings.Split(d.Phys, "/")
	if phys[0] == "" {
		// virtual devices have no phys, sysfs path is unique for them
		return PhysicalID(d.Sysfs)
	}
	return PhysicalID(phys[0])
}
