// Package input turns raw window events into viewer commands.
//
// The window layer produces Event values once per frame. A Dispatcher maps
// each one to at most one Command using the configured key Bindings.
// Scripts replay recorded events for headless runs.
package input

// Event is a single input record. The concrete types are KeyEvent,
// ButtonEvent, MotionEvent, WheelEvent and QuitEvent.
type Event interface {
	isEvent()
}

// Button is a pointer button
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return "unknown"
	}
}

// KeyEvent is a key press. Key is a logical name such as "q" or "escape".
type KeyEvent struct {
	Key string
}

// ButtonEvent is a pointer button press or release at a screen position
type ButtonEvent struct {
	Button  Button
	Pressed bool
	X, Y    float64
}

// MotionEvent is the pointer moving to a screen position
type MotionEvent struct {
	X, Y float64
}

// WheelEvent is a scroll. Positive DY scrolls up.
type WheelEvent struct {
	DY float64
}

// QuitEvent is the window being closed
type QuitEvent struct{}

func (KeyEvent) isEvent()    {}
func (ButtonEvent) isEvent() {}
func (MotionEvent) isEvent() {}
func (WheelEvent) isEvent()  {}
func (QuitEvent) isEvent()   {}

// Coalesce collapses every run of consecutive MotionEvents to its last
// element. Nothing else is dropped or reordered.
func Coalesce(events []Event) []Event {
	if len(events) < 2 {
		return events
	}

	out := make([]Event, 0, len(events))
	for i, ev := range events {
		if _, ok := ev.(MotionEvent); ok && i+1 < len(events) {
			if _, next := events[i+1].(MotionEvent); next {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}
