package config

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/bryanchriswhite/soomer/internal/capture"
	"github.com/bryanchriswhite/soomer/internal/input"
	"github.com/bryanchriswhite/soomer/internal/logger"
	"github.com/bryanchriswhite/soomer/internal/viewport"
)

// Color is an RGBA background color. Channels are ints so that
// out-of-range values in the file are reported instead of wrapping.
type Color struct {
	R int `json:"r" yaml:"r" mapstructure:"r"`
	G int `json:"g" yaml:"g" mapstructure:"g"`
	B int `json:"b" yaml:"b" mapstructure:"b"`
	A int `json:"a" yaml:"a" mapstructure:"a"`
}

// RGBA converts to the standard library color
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: uint8(c.R), G: uint8(c.G), B: uint8(c.B), A: uint8(c.A)}
}

// ScaleConfig holds the zoom limits and step factor
type ScaleConfig struct {
	Max    float64 `json:"max" yaml:"max" mapstructure:"max"`
	Min    float64 `json:"min" yaml:"min" mapstructure:"min"`
	Factor float64 `json:"factor" yaml:"factor" mapstructure:"factor"`
}

// Config represents the application configuration
type Config struct {
	BG                 Color       `json:"bg" yaml:"bg" mapstructure:"bg"`
	Scale              ScaleConfig `json:"scale" yaml:"scale" mapstructure:"scale"`
	SmoothFactor       float64     `json:"smooth_factor" yaml:"smooth_factor" mapstructure:"smooth_factor"`
	UpdateDelay        int         `json:"update_delay" yaml:"update_delay" mapstructure:"update_delay"` // milliseconds
	Monitor            int         `json:"monitor" yaml:"monitor" mapstructure:"monitor"`
	ScreenshotSavePath string      `json:"screenshot_save_path" yaml:"screenshot_save_path" mapstructure:"screenshot_save_path"`
	ScreenshotSaveName string      `json:"screenshot_save_name" yaml:"screenshot_save_name" mapstructure:"screenshot_save_name"`

	LogLevel          string              `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogPretty         bool                `json:"log_pretty" yaml:"log_pretty" mapstructure:"log_pretty"`
	CaptureBackend    string              `json:"capture_backend" yaml:"capture_backend" mapstructure:"capture_backend"`
	CenterWhenSmaller bool                `json:"center_when_smaller" yaml:"center_when_smaller" mapstructure:"center_when_smaller"`
	Bindings          map[string][]string `json:"bindings" yaml:"bindings" mapstructure:"bindings"`
}

// Defaults returns the stock configuration
func Defaults() *Config {
	return &Config{
		BG:                 Color{R: 10, G: 0, B: 15, A: 255},
		Scale:              ScaleConfig{Max: 10.0, Min: 0.1, Factor: 1.1},
		SmoothFactor:       0.15,
		UpdateDelay:        60,
		Monitor:            0,
		ScreenshotSavePath: "./",
		ScreenshotSaveName: "screenshot.png",
		LogLevel:           "info",
		LogPretty:          true,
		CaptureBackend:     capture.BackendAuto,
		CenterWhenSmaller:  false,
		Bindings:           input.DefaultBindingConfig(),
	}
}

// ValidationError reports one invalid setting
type ValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Validate checks every field and returns all problems joined
func (c *Config) Validate() error {
	var errs []error
	bad := func(field string, value interface{}, reason string) {
		errs = append(errs, &ValidationError{Field: field, Value: value, Reason: reason})
	}

	for _, ch := range []struct {
		name string
		v    int
	}{{"bg.r", c.BG.R}, {"bg.g", c.BG.G}, {"bg.b", c.BG.B}, {"bg.a", c.BG.A}} {
		if ch.v < 0 || ch.v > 255 {
			bad(ch.name, ch.v, "must be in 0-255")
		}
	}

	if c.Scale.Min <= 0 {
		bad("scale.min", c.Scale.Min, "must be > 0")
	}
	if c.Scale.Max < c.Scale.Min {
		bad("scale.max", c.Scale.Max, "must be >= scale.min")
	}
	if c.Scale.Factor <= 1 {
		bad("scale.factor", c.Scale.Factor, "must be > 1")
	}
	if c.SmoothFactor <= 0 || c.SmoothFactor > 1 {
		bad("smooth_factor", c.SmoothFactor, "must be in (0, 1]")
	}
	if c.UpdateDelay < 0 {
		bad("update_delay", c.UpdateDelay, "must be >= 0")
	}
	if c.Monitor < 0 {
		bad("monitor", c.Monitor, "must be >= 0")
	}
	if c.ScreenshotSaveName == "" {
		bad("screenshot_save_name", c.ScreenshotSaveName, "must not be empty")
	}
	if !logger.ValidLevel(c.LogLevel) {
		bad("log_level", c.LogLevel, "use debug, info, warn or error")
	}
	if !capture.ValidBackend(c.CaptureBackend) {
		bad("capture_backend", c.CaptureBackend, fmt.Sprintf("use one of %v", capture.Backends))
	}
	if _, err := input.ParseBindings(c.Bindings); err != nil {
		bad("bindings", c.Bindings, err.Error())
	}

	return errors.Join(errs...)
}

// Limits returns the viewport scale limits
func (c *Config) Limits() viewport.Limits {
	return viewport.Limits{Min: c.Scale.Min, Max: c.Scale.Max, Factor: c.Scale.Factor}
}

// FrameInterval is the delay between frames: a quarter of update_delay,
// never less than one millisecond
func (c *Config) FrameInterval() time.Duration {
	ms := c.UpdateDelay / 4
	if ms < 1 {
		ms = 1
	}
	return time.Duration(ms) * time.Millisecond
}

// TPS is the tick rate matching FrameInterval
func (c *Config) TPS() int {
	return int(time.Second / c.FrameInterval())
}

// KeyBindings parses the bindings section
func (c *Config) KeyBindings() (input.Bindings, error) {
	return input.ParseBindings(c.Bindings)
}
