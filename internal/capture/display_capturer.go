package capture

import (
	"fmt"
	"image"
	"sync"

	"github.com/bryanchriswhite/soomer/internal/logger"
	"github.com/kbinani/screenshot"
)

// displayAPI is the subset of kbinani/screenshot the capturer uses
type displayAPI struct {
	numDisplays func() int
	bounds      func(index int) image.Rectangle
	captureRect func(r image.Rectangle) (*image.RGBA, error)
}

var kbinaniAPI = displayAPI{
	numDisplays: screenshot.NumActiveDisplays,
	bounds:      screenshot.GetDisplayBounds,
	captureRect: screenshot.CaptureRect,
}

// DisplayCapturer captures through kbinani/screenshot. It opens its own
// X connection per capture and needs no setup beyond enumerating displays.
type DisplayCapturer struct {
	api     displayAPI
	outputs []Output
	mu      sync.Mutex
}

// NewDisplayCapturer creates a capturer backed by kbinani/screenshot
func NewDisplayCapturer() *DisplayCapturer {
	return &DisplayCapturer{api: kbinaniAPI}
}

// Start enumerates the active displays
func (c *DisplayCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.api.numDisplays()
	if n <= 0 {
		return fmt.Errorf("no active displays found")
	}

	outputs := make([]Output, 0, n)
	for i := 0; i < n; i++ {
		outputs = append(outputs, Output{
			Index:   i,
			Name:    fmt.Sprintf("display-%d", i),
			Bounds:  c.api.bounds(i),
			Primary: i == 0,
		})
	}
	c.outputs = outputs

	logger.WithComponent("display-capturer").Debug().
		Int("displays", n).
		Str("desktop", desktopBounds(outputs).String()).
		Msg("Enumerated displays")
	return nil
}

// Stop forgets the display layout
func (c *DisplayCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputs = nil
	return nil
}

// Name returns the capturer name
func (c *DisplayCapturer) Name() string {
	return "display"
}

// IsAvailable reports whether any display is active
func (c *DisplayCapturer) IsAvailable() bool {
	return c.api.numDisplays() > 0
}

// Outputs returns the layout read at Start
func (c *DisplayCapturer) Outputs() ([]Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.outputs == nil {
		return nil, ErrNotStarted
	}
	return append([]Output(nil), c.outputs...), nil
}

// CaptureOutput captures one display
func (c *DisplayCapturer) CaptureOutput(index int) (*Image, error) {
	c.mu.Lock()
	outputs := c.outputs
	c.mu.Unlock()

	out, err := outputAt(outputs, index)
	if err != nil {
		return nil, outputError(c.Name(), index, err)
	}

	img, err := c.capture(out.Bounds)
	if err != nil {
		return nil, outputError(c.Name(), index, err)
	}
	return img, nil
}

// CaptureDesktop captures the union of all display bounds
func (c *DisplayCapturer) CaptureDesktop() (*Image, error) {
	c.mu.Lock()
	outputs := c.outputs
	c.mu.Unlock()

	if outputs == nil {
		return nil, desktopError(c.Name(), ErrNotStarted)
	}

	img, err := c.capture(desktopBounds(outputs))
	if err != nil {
		return nil, desktopError(c.Name(), err)
	}
	return img, nil
}

func (c *DisplayCapturer) capture(r image.Rectangle) (*Image, error) {
	rgba, err := c.api.captureRect(r)
	if err != nil {
		return nil, fmt.Errorf("failed to capture %v: %w", r, err)
	}
	return FromImage(rgba)
}
