package input

// Command is the outcome of dispatching one event. X and Y are set for
// drag and motion commands, Direction (+1 or -1) for zoom.
type Command struct {
	Action    Action
	X, Y      float64
	Direction int
}

// Dispatcher maps events to commands
type Dispatcher struct {
	bindings Bindings
}

// NewDispatcher creates a dispatcher. Nil bindings mean the defaults.
func NewDispatcher(b Bindings) *Dispatcher {
	if b == nil {
		b = DefaultBindings()
	}
	return &Dispatcher{bindings: b}
}

// Bindings returns the active key map
func (d *Dispatcher) Bindings() Bindings {
	return d.bindings
}

// Dispatch returns the command for ev. Every event yields at most one command.
func (d *Dispatcher) Dispatch(ev Event) Command {
	switch e := ev.(type) {
	case QuitEvent:
		return Command{Action: ActionQuit}

	case KeyEvent:
		return Command{Action: d.bindings.Lookup(e.Key)}

	case ButtonEvent:
		if e.Button != ButtonLeft {
			return Command{}
		}
		if e.Pressed {
			return Command{Action: ActionDragStart, X: e.X, Y: e.Y}
		}
		return Command{Action: ActionDragEnd, X: e.X, Y: e.Y}

	case MotionEvent:
		return Command{Action: ActionMotion, X: e.X, Y: e.Y}

	case WheelEvent:
		switch {
		case e.DY > 0:
			return Command{Action: ActionZoom, Direction: 1}
		case e.DY < 0:
			return Command{Action: ActionZoom, Direction: -1}
		}
		return Command{}
	}

	return Command{}
}
