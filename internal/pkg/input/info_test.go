package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerType(t *testing.T) {
	infos, err := unmarshal([]byte(procDevices))
	require.NoError(t, err)

	var tests = []struct {
		name string
		want HandlerType
	}{
		{"Power Button", DI_TYPE_UNKNOWN},
		{"AT Translated Set 2 keyboard", DI_TYPE_KEYBOARD},
		{"SYNA8004:00 06CB:CD8B Touchpad", DI_TYPE_TOUCHPAD},
		{"Logitech USB Receiver", DI_TYPE_MOUSE},
		{"Logitech USB Receiver Consumer Control", DI_TYPE_UNKNOWN},
		{"middleclick virtual pointer", DI_TYPE_MOUSE},
		{"ELAN Touchscreen", DI_TYPE_UNKNOWN},
	}

	require.Len(t, infos, len(tests))
	for i, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.name, infos[i].Name)
			assert.Equal(t, test.want, infos[i].HandlerType(), infos[i].HandlerType().String())
		})
	}
}

func TestNormalize(t *testing.T) {
	infos, err := unmarshal([]byte(procDevices))
	require.NoError(t, err)

	devices := Normalize(infos)
	require.Len(t, devices, 6)

	var byName = make(map[string]Device)
	for _, d := range devices {
		byName[d.Name] = d
	}

	receiver, ok := byName["Logitech USB Receiver"]
	require.True(t, ok)
	assert.Equal(t, MouseDevice, receiver.DeviceType)
	assert.Len(t, receiver.Handlers, 2)
	assert.Len(t, receiver.PointerHandlers(), 1)
	assert.Equal(t, "usb-0000:00:14.0-2", receiver.Phys)
	assert.False(t, receiver.IsVirtual())

	touchpad := byName["SYNA8004:00 06CB:CD8B Touchpad"]
	assert.Equal(t, TouchpadDevice, touchpad.DeviceType)
	assert.True(t, touchpad.Handlers[0].HasButtons())

	virtual := byName["middleclick virtual pointer"]
	assert.True(t, virtual.IsVirtual())
	assert.Equal(t, "/devices/virtual/input/input40", virtual.Phys)

	assert.Equal(t, KeyboardDevice, byName["AT Translated Set 2 keyboard"].DeviceType)
	assert.Equal(t, UnknownDevice, byName["ELAN Touchscreen"].DeviceType)
}

func TestDeviceID(t *testing.T) {
	d := Device{ID: InputID{Bus: BUS_USB, Vendor: 0x046d, Product: 0xc52b, Version: 0x0111}, Uniq: "abc"}
	assert.Equal(t, DeviceID("0003046dc52b0111abc"), d.DeviceID())
	assert.Equal(t, "usb 0x046d 0xc52b 0x0111", d.ID.String())
}
