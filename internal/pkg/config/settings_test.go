package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte(""))
	assert.Equal(t, nil, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestParse(t *testing.T) {
	data := `
mode: TAP_HOLD
fingers: 4
allow_more_fingers: true
four_finger_action: false
four_finger_shortcut: [key_leftalt, key_f4]
three_finger_swipe: false
swipe_threshold: 0.2
max_distance_delta: 0.1
max_time_delta: 250
ignored_apps: [Gimp, " blender ", ""]
`
	s, err := Parse([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, TapHold, s.Mode)
	assert.Equal(t, 4, s.Fingers)
	assert.Equal(t, true, s.AllowMoreFingers)
	assert.Equal(t, false, s.FourFingerAction)
	assert.Equal(t, []evdev.EvCode{evdev.KEY_LEFTALT, evdev.KEY_F4}, s.FourFingerShortcut)
	assert.Equal(t, false, s.ThreeFingerSwipe)
	assert.Equal(t, 0.2, s.SwipeThreshold)
	assert.Equal(t, 0.1, s.MaxDistanceDelta)
	assert.Equal(t, 250*time.Millisecond, s.MaxTimeDelta)
	assert.Equal(t, []string{"blender", "gimp"}, s.IgnoredList())
	assert.True(t, s.IsIgnored("GIMP"))
	assert.False(t, s.IsIgnored(""))
}

func TestParseInvalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		data string
	}{
		{"mode", "mode: swipe_only"},
		{"too few fingers", "fingers: 1"},
		{"too many fingers", "fingers: 6"},
		{"threshold", "swipe_threshold: 1.5"},
		{"drift", "max_distance_delta: 0"},
		{"time", "max_time_delta: -5"},
		{"empty chord", "four_finger_shortcut: []"},
		{"unknown key", "four_finger_shortcut: [KEY_NOPE]"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Parse([]byte(tc.data))
			assert.Nil(t, s)
			assert.True(t, errors.Is(err, InvalidSettings), "unexpected error: %v", err)
		})
	}
}

func TestParseUnknownField(t *testing.T) {
	_, err := Parse([]byte("fingerz: 3"))
	assert.Error(t, err)
}

func TestIsQualifying(t *testing.T) {
	s := DefaultSettings()
	assert.False(t, s.IsQualifying(2))
	assert.True(t, s.IsQualifying(3))
	assert.False(t, s.IsQualifying(4))

	s.AllowMoreFingers = true
	assert.True(t, s.IsQualifying(4))
	assert.True(t, s.IsQualifying(5))
	assert.False(t, s.IsQualifying(2))
}

func TestReadSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gestures.yaml")

	_, err := ReadSettings(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("fingers: 2\n"), 0644))
	s, err := ReadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Fingers)
}
