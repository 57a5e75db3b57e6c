package gesture

import (
	"fmt"
	"time"
)

type EventType int

const (
	LeftMouseDown EventType = iota
	LeftMouseUp
	RightMouseDown
	RightMouseUp
	OtherMouseDown
	OtherMouseUp
	OtherEvent
)

func (t EventType) String() string {
	switch t {
	case LeftMouseDown:
		return "left down"
	case LeftMouseUp:
		return "left up"
	case RightMouseDown:
		return "right down"
	case RightMouseUp:
		return "right up"
	case OtherMouseDown:
		return "other down"
	case OtherMouseUp:
		return "other up"
	}
	return "other"
}

const (
	ButtonLeft   = 0
	ButtonRight  = 1
	ButtonCenter = 2
)

type MouseEvent struct {
	Type   EventType
	Button int
	At     time.Time
}

func (e MouseEvent) String() string {
	return fmt.Sprintf("%s (button %d)", e.Type, e.Button)
}

type Verdict int

const (
	Pass Verdict = iota
	Rewrite
	Suppress
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Rewrite:
		return "rewrite"
	case Suppress:
		return "suppress"
	}
	return "unknown"
}

// MouseSink delivers the filtered event to its destination, Suppress verdicts are delivered too
// so the sink may account for them.
type MouseSink interface {
	Deliver(ev MouseEvent, v Verdict)
}

// Filter decides the fate of physical button events based on touch state
type Filter struct {
	state *State
}

func NewFilter(state *State) *Filter {
	return &Filter{state: state}
}

// Handle returns the event to deliver, its verdict and actions to emit.
// Releases are reconciled even in ignored applications, otherwise a rewritten press could stay stuck.
func (fl *Filter) Handle(ev MouseEvent, ignored bool) (MouseEvent, Verdict, []Action) {
	switch ev.Type {
	case LeftMouseDown, RightMouseDown:
		if ignored {
			return ev, Pass, nil
		}
		return fl.down(ev)
	case LeftMouseUp, RightMouseUp:
		// ignored is not checked, a press rewritten or suppressed before focus change must be released the same way
		return fl.up(ev)
	}
	return ev, Pass, nil
}

func (fl *Filter) down(ev MouseEvent) (MouseEvent, Verdict, []Action) {
	st := fl.state
	if st.FourDown {
		st.FourWasDown = true
		st.LastFourFingerClickAt = ev.At
		return ev, Suppress, []Action{FourFingerShortcut}
	}
	if st.QualifyingDown {
		st.QualifyingWasDown = true
		st.LastNaturalMiddleClickAt = ev.At
		return MouseEvent{Type: OtherMouseDown, Button: ButtonCenter, At: ev.At}, Rewrite, nil
	}
	return ev, Pass, nil
}

func (fl *Filter) up(ev MouseEvent) (MouseEvent, Verdict, []Action) {
	st := fl.state
	if st.FourWasDown {
		st.FourWasDown = false
		return ev, Suppress, nil
	}
	if st.QualifyingWasDown {
		st.QualifyingWasDown = false
		return MouseEvent{Type: OtherMouseUp, Button: ButtonCenter, At: ev.At}, Rewrite, nil
	}
	return ev, Pass, nil
}
