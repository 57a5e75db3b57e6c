package output

import (
	"encoding/binary"
	"fmt"
	"os"
	"unsafe"

	"github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"
)

// uinput requests, see linux/uinput.h
const (
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
	uiDevSetup   = 0x405c5503
	uiAbsSetup   = 0x401c5504
	uiSetEvBit   = 0x40045564
	uiSetPropBit = 0x4004556e
)

// event types reproduced on clones, others (leds, force feedback) are not used by pointer devices
var uiSetCodeBit = map[evdev.EvType]uint{
	evdev.EV_KEY: 0x40045565,
	evdev.EV_REL: 0x40045566,
	evdev.EV_ABS: 0x40045567,
	evdev.EV_MSC: 0x40045568,
}

type uinputSetup struct {
	ID           evdev.InputID
	Name         [80]byte
	FFEffectsMax uint32
}

type uinputAbsSetup struct {
	Code uint16
	_    uint16
	Info evdev.AbsInfo
}

// CloneSource is the part of evdev.InputDevice describing what the device can report
type CloneSource interface {
	InputID() (evdev.InputID, error)
	CapableTypes() []evdev.EvType
	CapableEvents(t evdev.EvType) []evdev.EvCode
	Properties() []evdev.EvProp
	AbsInfos() (map[evdev.EvCode]evdev.AbsInfo, error)
}

// layout is everything uinput needs to recreate a device.
// Axis ranges and properties are part of it, without them libinput does not treat a clone as touchpad.
type layout struct {
	id    evdev.InputID
	codes map[evdev.EvType][]evdev.EvCode
	props []evdev.EvProp
	axes  map[evdev.EvCode]evdev.AbsInfo
}

func readLayout(src CloneSource) (layout, error) {
	id, err := src.InputID()
	if err != nil {
		return layout{}, fmt.Errorf("reading device id failed: %w", err)
	}

	l := layout{
		id:    id,
		codes: make(map[evdev.EvType][]evdev.EvCode),
		props: src.Properties(),
	}
	for _, t := range src.CapableTypes() {
		if _, ok := uiSetCodeBit[t]; !ok {
			continue
		}
		l.codes[t] = src.CapableEvents(t)
	}

	if len(l.codes[evdev.EV_ABS]) > 0 {
		l.axes, err = src.AbsInfos()
		if err != nil {
			return layout{}, fmt.Errorf("reading axis information failed: %w", err)
		}
	}
	return l, nil
}

// buttons returns key codes the layout declares
func (l layout) buttons() map[evdev.EvCode]bool {
	var keys = make(map[evdev.EvCode]bool)
	for _, code := range l.codes[evdev.EV_KEY] {
		keys[code] = true
	}
	return keys
}

// uinputDevice is a virtual device created from a layout
type uinputDevice struct {
	file *os.File
}

func createDevice(name string, l layout) (*uinputDevice, error) {
	file, err := os.OpenFile("/dev/uinput", unix.O_WRONLY|unix.O_NONBLOCK, 0o660)
	if err != nil {
		return nil, err
	}
	d := &uinputDevice{file: file}

	err = d.setup(name, l)
	if err != nil {
		file.Close()
		return nil, err
	}
	return d, nil
}

func (d *uinputDevice) setup(name string, l layout) error {
	fd := int(d.file.Fd())

	for t, codes := range l.codes {
		err := unix.IoctlSetInt(fd, uiSetEvBit, int(t))
		if err != nil {
			return fmt.Errorf("setting event type %d failed: %w", t, err)
		}
		for _, code := range codes {
			err := unix.IoctlSetInt(fd, uiSetCodeBit[t], int(code))
			if err != nil {
				return fmt.Errorf("setting event code %d/%d failed: %w", t, code, err)
			}
		}
	}

	for _, prop := range l.props {
		err := unix.IoctlSetInt(fd, uiSetPropBit, int(prop))
		if err != nil {
			return fmt.Errorf("setting property %d failed: %w", prop, err)
		}
	}

	for code, info := range l.axes {
		abs := uinputAbsSetup{Code: uint16(code), Info: info}
		err := ioctlPointer(fd, uiAbsSetup, unsafe.Pointer(&abs))
		if err != nil {
			return fmt.Errorf("setting axis %d failed: %w", code, err)
		}
	}

	setup := uinputSetup{ID: l.id}
	copy(setup.Name[:len(setup.Name)-1], name)
	err := ioctlPointer(fd, uiDevSetup, unsafe.Pointer(&setup))
	if err != nil {
		return fmt.Errorf("device setup failed: %w", err)
	}

	err = unix.IoctlSetInt(fd, uiDevCreate, 0)
	if err != nil {
		return fmt.Errorf("device creation failed: %w", err)
	}
	return nil
}

func (d *uinputDevice) WriteOne(event *evdev.InputEvent) error {
	return binary.Write(d.file, binary.LittleEndian, event)
}

func (d *uinputDevice) Close() error {
	err := unix.IoctlSetInt(int(d.file.Fd()), uiDevDestroy, 0)
	if err != nil {
		d.file.Close()
		return fmt.Errorf("destroying device failed: %w", err)
	}
	return d.file.Close()
}

func ioctlPointer(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
