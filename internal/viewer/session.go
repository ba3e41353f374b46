// Package viewer runs the interactive zoom view over a captured image.
//
// Session holds everything that changes per frame and knows nothing about
// the window system; Game adapts it to ebiten.
package viewer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/bryanchriswhite/soomer/internal/capture"
	"github.com/bryanchriswhite/soomer/internal/input"
	"github.com/bryanchriswhite/soomer/internal/logger"
	"github.com/bryanchriswhite/soomer/internal/viewport"
	"github.com/rs/zerolog"
)

// Canvas is a render target for one frame
type Canvas interface {
	// Clear fills the whole target with c
	Clear(c color.RGBA)
	// DrawImage draws the session image stretched into dst
	DrawImage(dst image.Rectangle)
}

// Saver persists images
type Saver interface {
	Save(img *capture.Image, dir, base string) (string, error)
}

// Options configures a Session
type Options struct {
	Background        color.RGBA
	Limits            viewport.Limits
	Smoothing         float64
	CenterWhenSmaller bool
	SaveDir           string
	SaveName          string
	Bindings          input.Bindings
}

// Session is the per-run state: the captured image, the viewport and the
// collaborators used by save actions.
type Session struct {
	img        *capture.Image
	view       *viewport.State
	dispatcher *input.Dispatcher
	capturer   capture.Capturer
	saver      Saver
	opts       Options

	viewW, viewH int
	log          *zerolog.Logger
}

// NewSession creates a session over img. capturer is used for fresh
// full-desktop saves and may be nil, in which case those saves fail.
func NewSession(img *capture.Image, capturer capture.Capturer, saver Saver, opts Options) (*Session, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to view")
	}
	if saver == nil {
		return nil, fmt.Errorf("no saver")
	}
	if opts.Smoothing <= 0 || opts.Smoothing > 1 {
		return nil, fmt.Errorf("smoothing %v out of range (0, 1]", opts.Smoothing)
	}

	return &Session{
		img:        img,
		view:       viewport.New(opts.Limits),
		dispatcher: input.NewDispatcher(opts.Bindings),
		capturer:   capturer,
		saver:      saver,
		opts:       opts,
		log:        logger.WithComponent("viewer"),
	}, nil
}

// Image returns the image being viewed
func (s *Session) Image() *capture.Image {
	return s.img
}

// View returns the viewport state
func (s *Session) View() *viewport.State {
	return s.view
}

// SetViewSize records the drawable size of the window
func (s *Session) SetViewSize(w, h int) {
	s.viewW, s.viewH = w, h
}

// Update applies one frame of input, then eases the viewport. It returns
// true when the session should end; events after a quit are ignored.
func (s *Session) Update(events []input.Event) (quit bool) {
	for _, ev := range input.Coalesce(events) {
		if s.apply(s.dispatcher.Dispatch(ev)) {
			return true
		}
	}

	s.view.Advance(s.opts.Smoothing)
	if s.opts.CenterWhenSmaller && s.viewW > 0 && s.viewH > 0 {
		s.view.ClampToBounds(s.img.Width, s.img.Height, s.viewW, s.viewH)
	}
	return false
}

// apply runs one command and reports whether it was a quit
func (s *Session) apply(cmd input.Command) bool {
	switch cmd.Action {
	case input.ActionQuit:
		s.log.Debug().Msg("Quit requested")
		return true
	case input.ActionResetView:
		s.view.Reset()
	case input.ActionResetScale:
		s.view.ResetScale(s.img.Width, s.img.Height)
	case input.ActionSaveCurrent:
		s.save(s.img, "current")
	case input.ActionSaveFresh:
		s.saveFresh()
	case input.ActionDragStart:
		s.view.OnMotion(cmd.X, cmd.Y)
		s.view.BeginDrag(cmd.X, cmd.Y)
	case input.ActionDragEnd:
		s.view.EndDrag()
	case input.ActionMotion:
		s.view.OnMotion(cmd.X, cmd.Y)
	case input.ActionZoom:
		s.view.OnZoom(cmd.Direction)
	}
	return false
}

func (s *Session) save(img *capture.Image, kind string) {
	path, err := s.saver.Save(img, s.opts.SaveDir, s.opts.SaveName)
	if err != nil {
		s.log.Error().Err(err).Str("kind", kind).Msg("Failed to save screenshot")
		return
	}
	s.log.Info().Str("kind", kind).Str("path", path).Msg("Saved screenshot")
}

// saveFresh grabs the whole desktop anew and saves it. The viewed image
// is left alone.
func (s *Session) saveFresh() {
	if s.capturer == nil {
		s.log.Error().Msg("Failed to save fresh screenshot: no capturer")
		return
	}
	img, err := s.capturer.CaptureDesktop()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to capture desktop for fresh screenshot")
		return
	}
	s.save(img, "fresh")
}

// Draw clears the canvas to the background and draws the image at the
// current viewport transform
func (s *Session) Draw(c Canvas) {
	c.Clear(s.opts.Background)
	c.DrawImage(s.view.DestRect(s.img.Width, s.img.Height))
}
