package capture

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"github.com/bryanchriswhite/soomer/internal/capture/portal"
	"github.com/bryanchriswhite/soomer/internal/logger"
)

// screenshotter is what PortalCapturer needs from the portal client
type screenshotter interface {
	Screenshot(ctx context.Context) (string, error)
	Close() error
}

// LayoutFunc reports the monitor layout in desktop coordinates
type LayoutFunc func() ([]Output, error)

// PortalCapturer captures through xdg-desktop-portal. The portal only
// returns whole-desktop screenshots; single outputs are cropped out using
// the layout source when one is set.
type PortalCapturer struct {
	client  screenshotter
	dial    func() (screenshotter, error)
	layout  LayoutFunc
	outputs []Output
	mu      sync.Mutex
}

// NewPortalCapturer creates a portal capturer. layout may be nil.
func NewPortalCapturer(layout LayoutFunc) *PortalCapturer {
	return &PortalCapturer{
		dial: func() (screenshotter, error) {
			c, err := portal.NewClient()
			if err != nil {
				return nil, err
			}
			if !c.Available() {
				c.Close()
				return nil, fmt.Errorf("portal does not provide %s", "org.freedesktop.portal.Screenshot")
			}
			return c, nil
		},
		layout: layout,
	}
}

// Start connects to the session bus and reads the layout
func (c *PortalCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := logger.WithComponent("portal")

	if c.client == nil {
		client, err := c.dial()
		if err != nil {
			return fmt.Errorf("failed to connect to portal: %w", err)
		}
		c.client = client
	}

	c.outputs = nil
	if c.layout != nil {
		outputs, err := c.layout()
		if err != nil {
			log.Warn().Err(err).Msg("Layout source failed, only the whole desktop is available")
		} else {
			c.outputs = outputs
		}
	}

	log.Debug().Int("outputs", len(c.outputs)).Msg("Portal capturer started")
	return nil
}

// Stop closes the bus connection
func (c *PortalCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// Name returns the capturer name
func (c *PortalCapturer) Name() string {
	return "portal"
}

// IsAvailable reports whether Start succeeded
func (c *PortalCapturer) IsAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client != nil
}

// Outputs returns the layout, or a single pseudo-output covering the
// desktop when no layout is known. Its bounds are empty until the first
// capture reveals the desktop size.
func (c *PortalCapturer) Outputs() ([]Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil, ErrNotStarted
	}
	if len(c.outputs) > 0 {
		return append([]Output(nil), c.outputs...), nil
	}
	return []Output{{Index: 0, Name: "desktop", Primary: true}}, nil
}

// CaptureOutput captures the desktop and crops one output out of it
func (c *PortalCapturer) CaptureOutput(index int) (*Image, error) {
	c.mu.Lock()
	outputs := c.outputs
	c.mu.Unlock()

	if len(outputs) == 0 {
		if index != 0 {
			return nil, outputError(c.Name(), index,
				fmt.Errorf("%w: %d (no layout, only the desktop)", ErrOutputOutOfRange, index))
		}
		img, err := c.screenshot()
		if err != nil {
			return nil, outputError(c.Name(), index, err)
		}
		return img, nil
	}

	out, err := outputAt(outputs, index)
	if err != nil {
		return nil, outputError(c.Name(), index, err)
	}

	desktop, err := c.screenshot()
	if err != nil {
		return nil, outputError(c.Name(), index, err)
	}

	// Layout coordinates may start below zero; the screenshot always starts at 0,0
	origin := desktopBounds(outputs).Min
	img, err := desktop.Crop(out.Bounds.Sub(origin))
	if err != nil {
		return nil, outputError(c.Name(), index, err)
	}
	return img, nil
}

// CaptureDesktop asks the portal for a full screenshot
func (c *PortalCapturer) CaptureDesktop() (*Image, error) {
	img, err := c.screenshot()
	if err != nil {
		return nil, desktopError(c.Name(), err)
	}
	return img, nil
}

func (c *PortalCapturer) screenshot() (*Image, error) {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()

	if client == nil {
		return nil, ErrNotStarted
	}

	path, err := client.Screenshot(context.Background())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			logger.WithComponent("portal").Debug().Err(err).Str("path", path).Msg("Failed to remove portal screenshot")
		}
	}()

	return decodeFile(path)
}

func decodeFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open screenshot: %w", err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return FromImage(src)
}
