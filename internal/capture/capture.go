package capture

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrOutputOutOfRange is returned when a monitor index does not exist
	ErrOutputOutOfRange = errors.New("output index out of range")

	// ErrNoBackend is returned when no capture backend could be started
	ErrNoBackend = errors.New("no capture backends available")

	// ErrNotStarted is returned when capturing before Start
	ErrNotStarted = errors.New("capturer not started")
)

// Output describes one monitor in desktop coordinates
type Output struct {
	Index   int             `json:"index"`
	Name    string          `json:"name"`
	Bounds  image.Rectangle `json:"bounds"`
	Primary bool            `json:"primary"`
}

// Capturer defines the interface for screenshot backends
type Capturer interface {
	// Start initializes the capturer and any required resources
	Start() error

	// Stop releases resources
	Stop() error

	// Name returns a human-readable name for this capturer
	Name() string

	// IsAvailable checks if this capturer can be used in the current environment
	IsAvailable() bool

	// Outputs lists the monitors this backend can capture individually.
	// Indexes are stable for the lifetime of the capturer.
	Outputs() ([]Output, error)

	// CaptureOutput grabs a single monitor
	CaptureOutput(index int) (*Image, error)

	// CaptureDesktop grabs the whole desktop
	CaptureDesktop() (*Image, error)
}

// CaptureError reports a failed capture. Every error a Capturer returns
// from CaptureOutput or CaptureDesktop is a *CaptureError.
type CaptureError struct {
	Op      string // "capture output" or "capture desktop"
	Backend string
	Output  int // -1 for whole-desktop captures
	Err     error
}

func (e *CaptureError) Error() string {
	if e.Output >= 0 {
		return fmt.Sprintf("%s %d via %s: %v", e.Op, e.Output, e.Backend, e.Err)
	}
	return fmt.Sprintf("%s via %s: %v", e.Op, e.Backend, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

func outputError(backend string, index int, err error) error {
	var ce *CaptureError
	if errors.As(err, &ce) {
		return err
	}
	return &CaptureError{Op: "capture output", Backend: backend, Output: index, Err: err}
}

func desktopError(backend string, err error) error {
	var ce *CaptureError
	if errors.As(err, &ce) {
		return err
	}
	return &CaptureError{Op: "capture desktop", Backend: backend, Output: -1, Err: err}
}

// outputAt returns the output with the given index
func outputAt(outputs []Output, index int) (Output, error) {
	if index < 0 || index >= len(outputs) {
		return Output{}, fmt.Errorf("%w: %d (have %d)", ErrOutputOutOfRange, index, len(outputs))
	}
	return outputs[index], nil
}

// desktopBounds returns the union of all output bounds
func desktopBounds(outputs []Output) image.Rectangle {
	var r image.Rectangle
	for _, o := range outputs {
		r = r.Union(o.Bounds)
	}
	return r
}
