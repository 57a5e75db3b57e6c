package input

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gethiox/middleclick/internal/pkg/logger"
	"github.com/holoplot/go-evdev"
	"go.uber.org/zap"
)

// Collects all separate device-info handlers together for building one logical handler

type DeviceType int
type DeviceID string

// Generic device types
const (
	UnknownDevice  DeviceType = iota
	TouchpadDevice            // touchpad, including clickpads with integrated buttons
	MouseDevice               // pointer device with buttons, no finger tracking
	KeyboardDevice            // not used for gestures
)

type InputEvent struct {
	Source DeviceInfo
	Event  evdev.InputEvent
}

func (e DeviceType) String() string {
	switch e {
	case TouchpadDevice:
		return "Touchpad"
	case MouseDevice:
		return "Mouse"
	case KeyboardDevice:
		return "Keyboard"
	default:
		return "Unknown"
	}
}

func DetermineDeviceType(handlers []DeviceInfo) DeviceType {
	var types = make(map[HandlerType]bool)
	for _, h := range handlers {
		types[h.HandlerType()] = true
	}
	switch {
	case types[DI_TYPE_TOUCHPAD]:
		return TouchpadDevice
	case types[DI_TYPE_MOUSE]:
		return MouseDevice
	case types[DI_TYPE_KEYBOARD]:
		return KeyboardDevice
	default:
		return UnknownDevice
	}
}

// Normalize processes all DeviceInfo list and returns generic devices with its underlying DeviceInfo handlers
func Normalize(deviceInfos []DeviceInfo) []Device {
	var collection = make(map[PhysicalID][]DeviceInfo, 0)
	var order = make([]PhysicalID, 0)

	for _, di := range deviceInfos {
		if di.Event() == "" {
			continue
		}
		key := di.PhysicalUUID()
		if _, ok := collection[key]; !ok {
			order = append(order, key)
		}
		collection[key] = append(collection[key], di)
	}

	var devices = make([]Device, 0)

	for _, devPhys := range order {
		dis := collection[devPhys]
		var dev = Device{
			ID:       dis[0].ID,
			Handlers: dis,
			Evdevs:   make(map[string]*evdev.InputDevice),
		}

		var name = ""
		var uniq = ""

		for _, di := range dis {
			switch {
			case name == "":
				name = di.Name
			case len(di.Name) < len(name):
				name = di.Name
			}

			if di.Uniq != "" && uniq == "" {
				uniq = di.Uniq
			}
		}

		dev.DeviceType = DetermineDeviceType(dev.Handlers)
		dev.Name = name
		dev.Uniq = uniq
		dev.Phys = string(devPhys)
		devices = append(devices, dev)
	}

	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].Phys < devices[j].Phys
	})

	return devices
}

// Device is a representation of singular hardware device, it keeps all underlying DeviceInfo handlers
type Device struct {
	ID   InputID
	Name string
	Uniq string
	// Phys is a common part of Handlers Phys
	// for example "usb-0000:00:14.0-2/input0" will be used as "usb-0000:00:14.0-2"
	Phys string

	DeviceType DeviceType
	Handlers   []DeviceInfo

	// Evdevs are opened handlers by event path, filled by ProcessEvents
	Evdevs map[string]*evdev.InputDevice
}

func (d *Device) String() string {
	return fmt.Sprintf(
		"[%s], \"%s\", %d handlers (%s, \"%s\")",
		d.DeviceType, d.Name, len(d.Handlers), d.ID, d.Uniq,
	)
}

// DeviceID returns identifier of the device model, the same for two identical devices
// unless they report unique identifier.
func (d *Device) DeviceID() DeviceID {
	s := fmt.Sprintf("%04x%04x%04x%04x%s", d.ID.Bus, d.ID.Vendor, d.ID.Product, d.ID.Version, d.Uniq)
	return DeviceID(s)
}

func (d *Device) PhysicalUUID() PhysicalID {
	return PhysicalID(d.Phys)
}

// IsVirtual tells whether device was created by this program
func (d *Device) IsVirtual() bool {
	return strings.HasPrefix(d.Name, VirtualNamePrefix)
}

// PointerHandlers returns handlers relevant for gestures: touchpads and anything reporting buttons
func (d *Device) PointerHandlers() []DeviceInfo {
	var handlers []DeviceInfo
	for _, h := range d.Handlers {
		switch h.HandlerType() {
		case DI_TYPE_TOUCHPAD, DI_TYPE_MOUSE:
			handlers = append(handlers, h)
		}
	}
	return handlers
}

// ProcessEvents opens pointer handlers of the device and merges their events into one channel.
// Returned channel is closed when all handlers are done, either by ctx cancellation or device removal.
func (d *Device) ProcessEvents(ctx context.Context, grab bool) (<-chan InputEvent, error) {
	handlers := d.PointerHandlers()
	if len(handlers) == 0 {
		return nil, fmt.Errorf("device \"%s\" has no pointer handlers", d.Name)
	}

	var opened = make(map[string]*evdev.InputDevice)
	for _, h := range handlers {
		dev, err := evdev.Open(h.EventPath())
		if err != nil {
			for _, o := range opened {
				_ = o.Close()
			}
			return nil, fmt.Errorf("opening handler failed: %w", err)
		}
		opened[h.EventPath()] = dev
	}
	for path, dev := range opened {
		d.Evdevs[path] = dev
	}

	var events = make(chan InputEvent, 256)

	wg := sync.WaitGroup{}
	for _, h := range handlers {
		dev := opened[h.EventPath()]

		go func(dev *evdev.InputDevice) {
			<-ctx.Done()
			err := dev.Close()
			if err != nil {
				log.Info(fmt.Sprintf("device close failed: %v", err), zap.String("handler_path", dev.Path()), logger.Debug)
			}
		}(dev)

		wg.Add(1)
		go func(dev *evdev.InputDevice, info DeviceInfo) {
			defer wg.Done()
			event := info.Event()
			name, _ := dev.Name()
			name = strings.Trim(name, "\x00")

			if grab {
				err := dev.Grab()
				if err != nil {
					log.Info(fmt.Sprintf("grabbing device failed: %v", err), zap.String("handler_event", event), logger.Warning)
				} else {
					log.Info("Grabbing device for exclusive usage", zap.String("handler_event", event), zap.String("handler_name", name), logger.Debug)
				}
			}
			log.Info("Reading input events", zap.String("handler_event", event), zap.String("handler_name", name), logger.Debug)

			err := dev.NonBlock()
			if err != nil {
				log.Info(fmt.Sprintf("enabling non-blocking event reading mode failed: %v", err),
					zap.String("handler_event", event), zap.String("handler_name", name),
					logger.Warning,
				)
			}
			for {
				ev, err := dev.ReadOne()
				if err != nil {
					break
				}

				if ev.Type == evdev.EV_KEY && ev.Value == 2 { // repeat
					continue
				}

				select {
				case events <- InputEvent{Source: info, Event: *ev}:
				case <-ctx.Done():
				}
			}
			if grab {
				_ = dev.Ungrab()
			}
			log.Info("Reading input events finished", zap.String("handler_event", event), zap.String("handler_name", name), logger.Debug)
		}(dev, h)
	}

	go func() {
		wg.Wait()
		log.Info("All handlers done, closing events channel", zap.String("device_name", d.Name), logger.Debug)
		close(events)
	}()

	return events, nil
}
