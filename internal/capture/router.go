package capture

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/bryanchriswhite/soomer/internal/logger"
)

// Backend names accepted by NewRouter
const (
	BackendAuto    = "auto"
	BackendX11     = "x11"
	BackendPortal  = "portal"
	BackendDisplay = "display"
)

// Backends lists every valid backend setting
var Backends = []string{BackendAuto, BackendX11, BackendPortal, BackendDisplay}

// Factory builds an unstarted capturer
type Factory func() (Capturer, error)

// DefaultFactories returns the real backends
func DefaultFactories() map[string]Factory {
	return map[string]Factory{
		BackendX11: func() (Capturer, error) {
			return NewX11Capturer()
		},
		BackendPortal: func() (Capturer, error) {
			// kbinani reads the layout through XWayland when present
			display := NewDisplayCapturer()
			return NewPortalCapturer(func() ([]Output, error) {
				if err := display.Start(); err != nil {
					return nil, err
				}
				defer display.Stop()
				return display.Outputs()
			}), nil
		},
		BackendDisplay: func() (Capturer, error) {
			return NewDisplayCapturer(), nil
		},
	}
}

// Router picks a capture backend and forwards calls to it
type Router struct {
	mode      string
	factories map[string]Factory
	getenv    func(string) string
	active    Capturer
	mu        sync.RWMutex
}

// NewRouter creates a router for the given backend setting
func NewRouter(mode string) (*Router, error) {
	return newRouter(mode, DefaultFactories(), os.Getenv)
}

func newRouter(mode string, factories map[string]Factory, getenv func(string) string) (*Router, error) {
	if mode == "" {
		mode = BackendAuto
	}
	if !ValidBackend(mode) {
		return nil, fmt.Errorf("unknown capture backend %q (valid: %v)", mode, Backends)
	}
	return &Router{mode: mode, factories: factories, getenv: getenv}, nil
}

// ValidBackend reports whether name is a known backend setting
func ValidBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

// candidates returns backends to try, in order
func (r *Router) candidates() []string {
	if r.mode != BackendAuto {
		return []string{r.mode}
	}
	if r.getenv("WAYLAND_DISPLAY") != "" {
		return []string{BackendPortal, BackendDisplay}
	}
	return []string{BackendX11, BackendDisplay}
}

// Start initializes the first backend that comes up
func (r *Router) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return nil
	}

	log := logger.WithComponent("capture-router")

	var errs []error
	for _, name := range r.candidates() {
		factory, ok := r.factories[name]
		if !ok {
			continue
		}

		c, err := factory()
		if err != nil {
			log.Warn().Err(err).Str("backend", name).Msg("Capturer not available")
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if err := c.Start(); err != nil {
			log.Warn().Err(err).Str("backend", name).Msg("Failed to start capturer")
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			c.Stop()
			continue
		}

		r.active = c
		log.Info().Str("backend", c.Name()).Msg("Capturer initialized")
		return nil
	}

	if len(errs) == 0 {
		return ErrNoBackend
	}
	return fmt.Errorf("%w: %w", ErrNoBackend, errors.Join(errs...))
}

// Stop stops the active capturer
func (r *Router) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil {
		return nil
	}
	err := r.active.Stop()
	r.active = nil
	return err
}

// Name returns the active backend's name
func (r *Router) Name() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.active == nil {
		return "router(" + r.mode + ")"
	}
	return r.active.Name()
}

// IsAvailable reports whether a backend is active
func (r *Router) IsAvailable() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active != nil
}

// Outputs forwards to the active backend
func (r *Router) Outputs() ([]Output, error) {
	c, err := r.current()
	if err != nil {
		return nil, err
	}
	return c.Outputs()
}

// CaptureOutput forwards to the active backend
func (r *Router) CaptureOutput(index int) (*Image, error) {
	c, err := r.current()
	if err != nil {
		return nil, outputError(r.Name(), index, err)
	}
	return c.CaptureOutput(index)
}

// CaptureDesktop forwards to the active backend
func (r *Router) CaptureDesktop() (*Image, error) {
	c, err := r.current()
	if err != nil {
		return nil, desktopError(r.Name(), err)
	}
	return c.CaptureDesktop()
}

// Active returns the backend in use, or nil before Start
func (r *Router) Active() Capturer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

func (r *Router) current() (Capturer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == nil {
		return nil, ErrNotStarted
	}
	return r.active, nil
}
