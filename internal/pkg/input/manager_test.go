package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerStabilization(t *testing.T) {
	infos, err := unmarshal([]byte(procDevices))
	require.NoError(t, err)
	devices := Normalize(infos)

	start := time.Unix(1000, 0)
	tr := newTracker(time.Second)

	ready, removed := tr.update(devices, start)
	assert.Len(t, ready, 0)
	assert.Len(t, removed, 0)

	ready, _ = tr.update(devices, start.Add(500*time.Millisecond))
	assert.Len(t, ready, 0)

	ready, _ = tr.update(devices, start.Add(time.Second))
	require.Len(t, ready, 2)
	var names []string
	for _, d := range ready {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"SYNA8004:00 06CB:CD8B Touchpad", "Logitech USB Receiver"}, names)

	// reported only once
	ready, _ = tr.update(devices, start.Add(2*time.Second))
	assert.Len(t, ready, 0)
}

func TestTrackerRemoval(t *testing.T) {
	infos, err := unmarshal([]byte(procDevices))
	require.NoError(t, err)
	devices := Normalize(infos)

	start := time.Unix(1000, 0)
	tr := newTracker(0)

	ready, _ := tr.update(devices, start)
	assert.Len(t, ready, 2)

	var withoutMouse []Device
	for _, d := range devices {
		if d.DeviceType != MouseDevice {
			withoutMouse = append(withoutMouse, d)
		}
	}

	ready, removed := tr.update(withoutMouse, start.Add(time.Second))
	assert.Len(t, ready, 0)
	require.Len(t, removed, 1)
	assert.Equal(t, "Logitech USB Receiver", removed[0].Name)

	// reconnected device is reported again
	ready, _ = tr.update(devices, start.Add(2*time.Second))
	require.Len(t, ready, 1)
	assert.Equal(t, "Logitech USB Receiver", ready[0].Name)
}

func TestTrackerFlappingDevice(t *testing.T) {
	infos, err := unmarshal([]byte(procDevices))
	require.NoError(t, err)
	devices := Normalize(infos)

	start := time.Unix(1000, 0)
	tr := newTracker(time.Second)

	tr.update(devices, start)
	tr.update(nil, start.Add(500*time.Millisecond))
	ready, _ := tr.update(devices, start.Add(time.Second))
	assert.Len(t, ready, 0, "stabilization starts over after disappearance")
}
