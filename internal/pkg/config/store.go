package config

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Change describes one settings field that differs between consecutive published settings.
type Change struct {
	Field    string
	Value    interface{}
	Settings *Settings // complete settings the change belongs to
}

// Store holds current settings. Reads are lock-free, so it is safe to call Get on input hot paths.
type Store struct {
	current atomic.Pointer[Settings]

	mutex     sync.Mutex
	listeners []func(Change)
}

func NewStore(s *Settings) *Store {
	if s == nil {
		s = DefaultSettings()
	}
	st := &Store{}
	st.current.Store(s)
	return st
}

func (st *Store) Get() *Settings {
	return st.current.Load()
}

// Set publishes new settings and notifies listeners about every changed field.
// Listeners are invoked synchronously in registration order, they should return quickly.
func (st *Store) Set(s *Settings) []Change {
	st.mutex.Lock()
	old := st.current.Swap(s)
	listeners := make([]func(Change), len(st.listeners))
	copy(listeners, st.listeners)
	st.mutex.Unlock()

	changes := Diff(old, s)
	for _, c := range changes {
		for _, l := range listeners {
			l(c)
		}
	}
	return changes
}

// OnChange registers listener called for each changed field
func (st *Store) OnChange(listener func(Change)) {
	st.mutex.Lock()
	st.listeners = append(st.listeners, listener)
	st.mutex.Unlock()
}

var settingsFieldNames = map[string]string{
	"Mode":               "mode",
	"Fingers":            "fingers",
	"AllowMoreFingers":   "allow_more_fingers",
	"FourFingerAction":   "four_finger_action",
	"FourFingerShortcut": "four_finger_shortcut",
	"ThreeFingerSwipe":   "three_finger_swipe",
	"SwipeThreshold":     "swipe_threshold",
	"MaxDistanceDelta":   "max_distance_delta",
	"MaxTimeDelta":       "max_time_delta",
	"IgnoredApps":        "ignored_apps",
}

// Diff lists fields that differ, using yaml key names
func Diff(old, new *Settings) []Change {
	if new == nil {
		return nil
	}
	if old == nil {
		old = &Settings{}
	}

	var changes []Change
	ov := reflect.ValueOf(old).Elem()
	nv := reflect.ValueOf(new).Elem()
	t := nv.Type()
	for i := 0; i < t.NumField(); i++ {
		a, b := ov.Field(i).Interface(), nv.Field(i).Interface()
		if reflect.DeepEqual(a, b) {
			continue
		}
		name, ok := settingsFieldNames[t.Field(i).Name]
		if !ok {
			name = t.Field(i).Name
		}
		changes = append(changes, Change{Field: name, Value: b, Settings: new})
	}
	return changes
}
