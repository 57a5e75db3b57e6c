package gesture

import "fmt"

type Action int

const (
	MiddleClick Action = iota
	SwipeForward
	SwipeBackward
	FourFingerShortcut
)

var actionNames = map[Action]string{
	MiddleClick:        "middle click",
	SwipeForward:       "swipe forward",
	SwipeBackward:      "swipe backward",
	FourFingerShortcut: "four finger shortcut",
}

func (a Action) String() string {
	name, ok := actionNames[a]
	if !ok {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return name
}

// Emitter injects synthetic input for an action. Implementations must not block for long,
// they are called from the engine goroutine.
type Emitter interface {
	Emit(a Action) error
}
