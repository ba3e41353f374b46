package capture

import (
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/bryanchriswhite/soomer/internal/logger"
)

// X11Capturer captures the root window of an X11 (or XWayland) display
type X11Capturer struct {
	conn         *xgb.Conn
	root         xproto.Window
	screen       *xproto.ScreenInfo
	randrEnabled bool
	outputs      []Output
	mu           sync.Mutex
}

// NewX11Capturer creates a new X11 capturer
func NewX11Capturer() (*X11Capturer, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	return &X11Capturer{
		conn:   conn,
		root:   screen.Root,
		screen: screen,
	}, nil
}

// Start initializes RandR and reads the monitor layout
func (c *X11Capturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := logger.WithComponent("x11-capturer")

	depth := c.screen.RootDepth
	if depth != 24 && depth != 32 {
		return fmt.Errorf("unsupported root depth %d", depth)
	}

	if err := randr.Init(c.conn); err != nil {
		log.Warn().
			Err(err).
			Msg("RandR extension not available - treating the screen as one output")
		c.randrEnabled = false
	} else {
		c.randrEnabled = true
		log.Debug().Msg("RandR extension initialized")
	}

	outputs, err := c.queryOutputs()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to query RandR outputs, using whole screen")
		outputs = c.screenOutput()
	}
	c.outputs = outputs

	for _, o := range outputs {
		log.Debug().
			Int("index", o.Index).
			Str("name", o.Name).
			Str("bounds", o.Bounds.String()).
			Bool("primary", o.Primary).
			Msg("Output")
	}

	return nil
}

// Stop closes the X11 connection
func (c *X11Capturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	return nil
}

// Name returns the capturer name
func (c *X11Capturer) Name() string {
	return "x11"
}

// IsAvailable checks if X11 capture is available
func (c *X11Capturer) IsAvailable() bool {
	return c.conn != nil
}

// Outputs returns the monitor layout read at Start
func (c *X11Capturer) Outputs() ([]Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.outputs == nil {
		return nil, ErrNotStarted
	}
	return append([]Output(nil), c.outputs...), nil
}

// CaptureOutput captures one monitor from the root window
func (c *X11Capturer) CaptureOutput(index int) (*Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out, err := outputAt(c.outputs, index)
	if err != nil {
		return nil, outputError(c.Name(), index, err)
	}

	img, err := c.captureRegion(out.Bounds)
	if err != nil {
		return nil, outputError(c.Name(), index, err)
	}
	return img, nil
}

// CaptureDesktop captures the whole root window
func (c *X11Capturer) CaptureDesktop() (*Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := image.Rect(0, 0, int(c.screen.WidthInPixels), int(c.screen.HeightInPixels))
	img, err := c.captureRegion(r)
	if err != nil {
		return nil, desktopError(c.Name(), err)
	}
	return img, nil
}

// captureRegion grabs a rectangle of the root window. Caller holds mu.
func (c *X11Capturer) captureRegion(r image.Rectangle) (*Image, error) {
	if c.conn == nil {
		return nil, ErrNotStarted
	}

	x, y, w, h, err := wireRect(r)
	if err != nil {
		return nil, err
	}

	reply, err := xproto.GetImage(
		c.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(c.root),
		x, y, w, h,
		0xffffffff,
	).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}

	logger.WithComponent("x11-capturer").Debug().
		Str("region", r.String()).
		Uint8("depth", reply.Depth).
		Int("bytes", len(reply.Data)).
		Msg("Captured region")

	frame := Frame{
		Width:  r.Dx(),
		Height: r.Dy(),
		Stride: r.Dx() * 4,
		Format: FormatBGRX,
		Pix:    reply.Data,
	}
	return frame.ToImage()
}

// wireRect narrows r to the INT16/CARD16 fields of a GetImage request
func wireRect(r image.Rectangle) (x, y int16, w, h uint16, err error) {
	if r.Empty() {
		return 0, 0, 0, 0, fmt.Errorf("%w: empty region %v", ErrMalformedFrame, r)
	}
	if r.Min.X < math.MinInt16 || r.Min.X > math.MaxInt16 ||
		r.Min.Y < math.MinInt16 || r.Min.Y > math.MaxInt16 ||
		r.Dx() > math.MaxUint16 || r.Dy() > math.MaxUint16 {
		return 0, 0, 0, 0, fmt.Errorf("%w: region %v exceeds X11 coordinate range", ErrMalformedFrame, r)
	}
	return int16(r.Min.X), int16(r.Min.Y), uint16(r.Dx()), uint16(r.Dy()), nil
}

// queryOutputs walks the active CRTCs. Caller holds mu.
func (c *X11Capturer) queryOutputs() ([]Output, error) {
	if !c.randrEnabled {
		return c.screenOutput(), nil
	}

	res, err := randr.GetScreenResources(c.conn, c.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var primary randr.Output
	if p, err := randr.GetOutputPrimary(c.conn, c.root).Reply(); err == nil {
		primary = p.Output
	}

	var outputs []Output
	for _, crtc := range res.Crtcs {
		info, err := randr.GetCrtcInfo(c.conn, crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			return nil, fmt.Errorf("failed to get crtc info: %w", err)
		}
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("crtc-%d", crtc)
		isPrimary := false
		for _, o := range info.Outputs {
			if o == primary {
				isPrimary = true
			}
		}
		if oi, err := randr.GetOutputInfo(c.conn, info.Outputs[0], res.ConfigTimestamp).Reply(); err == nil && len(oi.Name) > 0 {
			name = string(oi.Name)
		}

		outputs = append(outputs, Output{
			Index: len(outputs),
			Name:  name,
			Bounds: image.Rect(
				int(info.X), int(info.Y),
				int(info.X)+int(info.Width), int(info.Y)+int(info.Height),
			),
			Primary: isPrimary,
		})
	}

	if len(outputs) == 0 {
		return c.screenOutput(), nil
	}
	return outputs, nil
}

func (c *X11Capturer) screenOutput() []Output {
	return []Output{{
		Index:   0,
		Name:    "screen",
		Bounds:  image.Rect(0, 0, int(c.screen.WidthInPixels), int(c.screen.HeightInPixels)),
		Primary: true,
	}}
}
