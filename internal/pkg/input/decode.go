package input

import (
	"fmt"
	"math/bits"
	"os"
	"strconv"
	"strings"
)

// GetHandlers returns a list of available input handlers in the system.
// Note: there is non-zero probability that returned list may be incomplete,
// handlers of freshly connected device are registered one by one.
func GetHandlers() ([]DeviceInfo, error) {
	data, err := os.ReadFile("/proc/bus/input/devices")
	if err != nil {
		return nil, err
	}

	return unmarshal(data)
}

// parseBitmap decodes kernel bitmap, words are printed most significant first
func parseBitmap(s string) (Bitmap, error) {
	words := strings.Fields(s)
	bitmap := make(Bitmap, len(words))
	for i, w := range words {
		v, err := strconv.ParseUint(w, 16, bits.UintSize)
		if err != nil {
			return nil, fmt.Errorf("hex decoding failed: %w", err)
		}
		bitmap[len(words)-1-i] = uint(v)
	}
	return bitmap, nil
}

func parseID(info string, id *InputID) error {
	for _, param := range strings.Fields(info) {
		label, value, ok := strings.Cut(param, "=")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(value, 16, 16)
		if err != nil {
			return fmt.Errorf("hex decoding failed: %w", err)
		}
		switch label {
		case "Bus":
			id.Bus = uint16(v)
		case "Vendor":
			id.Vendor = uint16(v)
		case "Product":
			id.Product = uint16(v)
		case "Version":
			id.Version = uint16(v)
		}
	}
	return nil
}

// unmarshal parses /proc/bus/input/devices file
func unmarshal(data []byte) ([]DeviceInfo, error) {
	var devices = make([]DeviceInfo, 0)

	var device DeviceInfo
	var started bool

	flush := func() {
		if started {
			devices = append(devices, device)
		}
		device = DeviceInfo{}
		started = false
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if len(line) < 3 || line[1] != ':' {
			continue
		}
		started = true

		label := line[:1]
		info := strings.TrimSpace(line[2:])
		_, value, _ := strings.Cut(info, "=")

		switch label {
		case "I":
			err := parseID(info, &device.ID)
			if err != nil {
				return devices, err
			}
		case "N":
			device.Name = strings.Trim(value, "\"")
		case "P":
			device.Phys = value
		case "S":
			device.Sysfs = value
		case "U":
			device.Uniq = value
		case "H":
			device.Handlers = strings.Fields(value)
		case "B":
			name, bitmapValue, ok := strings.Cut(info, "=")
			if !ok {
				continue
			}
			bitmap, err := parseBitmap(bitmapValue)
			if err != nil {
				return devices, fmt.Errorf("%s bitmap of \"%s\": %w", name, device.Name, err)
			}
			if device.Bitmaps == nil {
				device.Bitmaps = make(map[string]Bitmap)
			}
			device.Bitmaps[name] = bitmap
		}
	}
	flush()

	return devices, nil
}
