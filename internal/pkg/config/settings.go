package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/holoplot/go-evdev"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ClickRemap Mode = "click_remap" // physical click while fingers are down becomes middle click
	TapHold    Mode = "tap_hold"    // short, still tap emulates the click without a physical press
)

var SupportedModes = map[Mode]bool{
	ClickRemap: true,
	TapHold:    true,
}

var (
	InvalidSettings = errors.New("invalid settings")
)

// Settings is published as a whole and never mutated afterwards, consumers may keep the pointer.
type Settings struct {
	Mode               Mode
	Fingers            int
	AllowMoreFingers   bool
	FourFingerAction   bool
	FourFingerShortcut []evdev.EvCode // modifiers first, the last key is the one being "typed"
	ThreeFingerSwipe   bool
	SwipeThreshold     float64
	MaxDistanceDelta   float64
	MaxTimeDelta       time.Duration
	IgnoredApps        map[string]bool // lowercase window classes
}

func DefaultSettings() *Settings {
	return &Settings{
		Mode:               ClickRemap,
		Fingers:            3,
		AllowMoreFingers:   false,
		FourFingerAction:   true,
		FourFingerShortcut: []evdev.EvCode{evdev.KEY_LEFTCTRL, evdev.KEY_W},
		ThreeFingerSwipe:   true,
		SwipeThreshold:     0.15,
		MaxDistanceDelta:   0.05,
		MaxTimeDelta:       300 * time.Millisecond,
		IgnoredApps:        map[string]bool{},
	}
}

// IsQualifying tells whether given finger count means "middle click gesture"
func (s *Settings) IsQualifying(fingers int) bool {
	if s.AllowMoreFingers {
		return fingers >= s.Fingers
	}
	return fingers == s.Fingers
}

// IsIgnored reports whether the window class is on the ignore list
func (s *Settings) IsIgnored(class string) bool {
	if class == "" {
		return false
	}
	return s.IgnoredApps[strings.ToLower(class)]
}

type YamlSettings struct {
	Mode               *string  `yaml:"mode"`
	Fingers            *int     `yaml:"fingers"`
	AllowMoreFingers   *bool    `yaml:"allow_more_fingers"`
	FourFingerAction   *bool    `yaml:"four_finger_action"`
	FourFingerShortcut []string `yaml:"four_finger_shortcut"`
	ThreeFingerSwipe   *bool    `yaml:"three_finger_swipe"`
	SwipeThreshold     *float64 `yaml:"swipe_threshold"`
	MaxDistanceDelta   *float64 `yaml:"max_distance_delta"`
	MaxTimeDelta       *int     `yaml:"max_time_delta"` // milliseconds
	IgnoredApps        []string `yaml:"ignored_apps"`
}

// Parse decodes yaml settings, missing keys keep their default values
func Parse(data []byte) (*Settings, error) {
	var ys YamlSettings
	d := yaml.NewDecoder(bytes.NewReader(data))
	d.KnownFields(true)
	err := d.Decode(&ys)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing yaml failed: %w", err)
	}

	s := DefaultSettings()

	if ys.Mode != nil {
		s.Mode = Mode(strings.ToLower(*ys.Mode))
	}
	if ys.Fingers != nil {
		s.Fingers = *ys.Fingers
	}
	if ys.AllowMoreFingers != nil {
		s.AllowMoreFingers = *ys.AllowMoreFingers
	}
	if ys.FourFingerAction != nil {
		s.FourFingerAction = *ys.FourFingerAction
	}
	if ys.FourFingerShortcut != nil {
		chord, err := parseChord(ys.FourFingerShortcut)
		if err != nil {
			return nil, err
		}
		s.FourFingerShortcut = chord
	}
	if ys.ThreeFingerSwipe != nil {
		s.ThreeFingerSwipe = *ys.ThreeFingerSwipe
	}
	if ys.SwipeThreshold != nil {
		s.SwipeThreshold = *ys.SwipeThreshold
	}
	if ys.MaxDistanceDelta != nil {
		s.MaxDistanceDelta = *ys.MaxDistanceDelta
	}
	if ys.MaxTimeDelta != nil {
		s.MaxTimeDelta = time.Duration(*ys.MaxTimeDelta) * time.Millisecond
	}
	for _, app := range ys.IgnoredApps {
		app = strings.TrimSpace(app)
		if app == "" {
			continue
		}
		s.IgnoredApps[strings.ToLower(app)] = true
	}

	err = s.Validate()
	if err != nil {
		return nil, err
	}
	return s, nil
}

func parseChord(keys []string) ([]evdev.EvCode, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: four_finger_shortcut is empty", InvalidSettings)
	}
	chord := make([]evdev.EvCode, 0, len(keys))
	for _, k := range keys {
		code, ok := evdev.KEYFromString[strings.ToUpper(strings.TrimSpace(k))]
		if !ok {
			return nil, fmt.Errorf("%w: unknown key \"%s\"", InvalidSettings, k)
		}
		chord = append(chord, code)
	}
	return chord, nil
}

func (s *Settings) Validate() error {
	switch {
	case !SupportedModes[s.Mode]:
		return fmt.Errorf("%w: unsupported mode \"%s\"", InvalidSettings, s.Mode)
	case s.Fingers < 2 || s.Fingers > 5:
		return fmt.Errorf("%w: fingers must be within 2-5, got %d", InvalidSettings, s.Fingers)
	case s.SwipeThreshold <= 0 || s.SwipeThreshold >= 1:
		return fmt.Errorf("%w: swipe_threshold must be within (0, 1), got %v", InvalidSettings, s.SwipeThreshold)
	case s.MaxDistanceDelta <= 0 || s.MaxDistanceDelta >= 2:
		return fmt.Errorf("%w: max_distance_delta must be within (0, 2), got %v", InvalidSettings, s.MaxDistanceDelta)
	case s.MaxTimeDelta <= 0:
		return fmt.Errorf("%w: max_time_delta must be positive, got %s", InvalidSettings, s.MaxTimeDelta)
	case len(s.FourFingerShortcut) == 0:
		return fmt.Errorf("%w: four_finger_shortcut is empty", InvalidSettings)
	}
	return nil
}

// IgnoredList returns sorted ignored window classes
func (s *Settings) IgnoredList() []string {
	list := make([]string, 0, len(s.IgnoredApps))
	for app := range s.IgnoredApps {
		list = append(list, app)
	}
	sort.Strings(list)
	return list
}

func ReadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read \"%s\" file: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("\"%s\": %w", path, err)
	}
	return s, nil
}
