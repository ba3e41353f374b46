package viewer

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/bryanchriswhite/soomer/internal/input"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Title is the window title
const Title = "Soomer"

// RunOptions configures the window
type RunOptions struct {
	TPS        int
	Fullscreen bool
	Script     *input.Script
}

// Game adapts a Session to ebiten
type Game struct {
	session *Session
	script  *input.Script
	texture *ebiten.Image

	cursorX, cursorY int
	cursorKnown      bool
	keys             []ebiten.Key
}

// NewGame wraps a session. script may be nil.
func NewGame(session *Session, script *input.Script) *Game {
	return &Game{session: session, script: script}
}

// Update polls input and advances the session
func (g *Game) Update() error {
	events := g.pollEvents()
	if g.script != nil {
		events = append(events, g.script.Next()...)
	}

	if g.session.Update(events) {
		return ebiten.Termination
	}
	return nil
}

// pollEvents gathers this frame's raw input into events
func (g *Game) pollEvents() []input.Event {
	var events []input.Event

	if ebiten.IsWindowBeingClosed() {
		events = append(events, input.QuitEvent{})
	}

	mx, my := ebiten.CursorPosition()
	if !g.cursorKnown || mx != g.cursorX || my != g.cursorY {
		g.cursorX, g.cursorY, g.cursorKnown = mx, my, true
		events = append(events, input.MotionEvent{X: float64(mx), Y: float64(my)})
	}

	for _, b := range []struct {
		eb ebiten.MouseButton
		in input.Button
	}{
		{ebiten.MouseButtonLeft, input.ButtonLeft},
		{ebiten.MouseButtonMiddle, input.ButtonMiddle},
		{ebiten.MouseButtonRight, input.ButtonRight},
	} {
		if inpututil.IsMouseButtonJustPressed(b.eb) {
			events = append(events, input.ButtonEvent{Button: b.in, Pressed: true, X: float64(mx), Y: float64(my)})
		}
		if inpututil.IsMouseButtonJustReleased(b.eb) {
			events = append(events, input.ButtonEvent{Button: b.in, Pressed: false, X: float64(mx), Y: float64(my)})
		}
	}

	if _, dy := ebiten.Wheel(); dy != 0 {
		events = append(events, input.WheelEvent{DY: dy})
	}

	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	for _, k := range g.keys {
		events = append(events, input.KeyEvent{Key: keyName(k.String())})
	}

	return events
}

// keyName turns an ebiten key name like "Digit1" or "ArrowUp" into a
// logical name like "1" or "up"
func keyName(s string) string {
	s = strings.ToLower(s)
	switch {
	case strings.HasPrefix(s, "digit"):
		return strings.TrimPrefix(s, "digit")
	case strings.HasPrefix(s, "arrow"):
		return strings.TrimPrefix(s, "arrow")
	}
	return s
}

// Draw renders the session
func (g *Game) Draw(screen *ebiten.Image) {
	if g.texture == nil {
		img := g.session.Image()
		g.texture = ebiten.NewImage(img.Width, img.Height)
		g.texture.WritePixels(img.Pix)
	}
	g.session.Draw(&ebitenCanvas{screen: screen, texture: g.texture})
}

// Layout uses the window size as the logical screen size
func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	g.session.SetViewSize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// release frees the GPU texture
func (g *Game) release() {
	if g.texture != nil {
		g.texture.Deallocate()
		g.texture = nil
	}
}

// ebitenCanvas draws onto an ebiten screen
type ebitenCanvas struct {
	screen  *ebiten.Image
	texture *ebiten.Image
}

func (c *ebitenCanvas) Clear(clr color.RGBA) {
	c.screen.Fill(clr)
}

func (c *ebitenCanvas) DrawImage(dst image.Rectangle) {
	src := c.texture.Bounds()
	if dst.Empty() || src.Empty() {
		return
	}

	sx := float64(dst.Dx()) / float64(src.Dx())
	sy := float64(dst.Dy()) / float64(src.Dy())

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(sx, sy)
	op.GeoM.Translate(float64(dst.Min.X), float64(dst.Min.Y))
	// Keep pixels crisp when magnified
	if sx >= 1 {
		op.Filter = ebiten.FilterNearest
	} else {
		op.Filter = ebiten.FilterLinear
	}
	c.screen.DrawImage(c.texture, op)
}

// Run opens the window and blocks until the session quits. The window is
// sized to the image, floating and (by default) fullscreen.
func Run(session *Session, opts RunOptions) error {
	img := session.Image()

	ebiten.SetWindowTitle(Title)
	ebiten.SetWindowSize(img.Width, img.Height)
	ebiten.SetWindowFloating(true)
	ebiten.SetFullscreen(opts.Fullscreen)
	ebiten.SetWindowClosingHandled(true)
	if opts.TPS > 0 {
		ebiten.SetTPS(opts.TPS)
	}

	g := NewGame(session, opts.Script)
	defer g.release()

	session.log.Info().
		Int("width", img.Width).
		Int("height", img.Height).
		Int("tps", opts.TPS).
		Bool("fullscreen", opts.Fullscreen).
		Msg("Opening viewer")

	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("failed to run viewer: %w", err)
	}
	return nil
}
