// Package viewport holds the pan/zoom state of the screenshot view.
//
// A State keeps a current value and a target value for the draw offset and
// the scale. Input handlers only move the targets; Advance eases the current
// values toward them once per frame. With a smoothing factor of 1.0 the view
// snaps to the target on the next frame.
package viewport

import (
	"image"
	"math"
)

// Vec2 is a screen-space point or offset in pixels.
type Vec2 struct {
	X, Y float64
}

// Limits bounds the scale and sets the multiplier applied per zoom step.
type Limits struct {
	Min    float64
	Max    float64
	Factor float64
}

// Clamp restricts v to [Min, Max].
func (l Limits) Clamp(v float64) float64 {
	return math.Max(l.Min, math.Min(v, l.Max))
}

// State is the viewport engine. The zero value is not usable; call New.
type State struct {
	// Position is the current top-left draw offset of the image.
	Position Vec2
	// TargetPosition is where Position is easing toward.
	TargetPosition Vec2
	// Scale is the current zoom multiplier.
	Scale float64
	// TargetScale is where Scale is easing toward.
	TargetScale float64

	Dragging bool
	// DragAnchor is the cursor minus the image position at drag start.
	DragAnchor Vec2
	// Cursor is the last known pointer position, used as the zoom pivot.
	Cursor Vec2

	limits Limits
}

// New returns a State at the origin with scale 1.
func New(limits Limits) *State {
	s := &State{limits: limits}
	s.Reset()
	return s
}

// Limits returns the scale limits the state was built with.
func (s *State) Limits() Limits {
	return s.limits
}

// Reset restores the construction defaults. Limits are kept.
func (s *State) Reset() {
	*s = State{
		Scale:       1.0,
		TargetScale: 1.0,
		limits:      s.limits,
	}
}

// BeginDrag starts a drag gesture anchored at the cursor.
func (s *State) BeginDrag(x, y float64) {
	s.Dragging = true
	s.DragAnchor = Vec2{X: x - s.Position.X, Y: y - s.Position.Y}
}

// EndDrag stops the drag gesture. Calling it while not dragging is a no-op.
func (s *State) EndDrag() {
	s.Dragging = false
}

// OnMotion records the cursor and, while dragging, moves the target so the
// anchor stays under the cursor.
func (s *State) OnMotion(x, y float64) {
	s.Cursor = Vec2{X: x, Y: y}
	if s.Dragging {
		s.TargetPosition = Vec2{X: x - s.DragAnchor.X, Y: y - s.DragAnchor.Y}
	}
}

// OnZoom steps the target scale in (direction > 0) or out (direction < 0)
// around the cursor. The image point under the cursor stays under it once
// the zoom settles. Targets, not current values, are used as the basis so
// that several wheel events within one easing period compose exactly.
func (s *State) OnZoom(direction int) {
	if direction == 0 {
		return
	}

	relX := (s.Cursor.X - s.TargetPosition.X) / s.TargetScale
	relY := (s.Cursor.Y - s.TargetPosition.Y) / s.TargetScale

	if direction > 0 {
		s.TargetScale *= s.limits.Factor
	} else {
		s.TargetScale /= s.limits.Factor
	}
	s.TargetScale = s.limits.Clamp(s.TargetScale)

	s.TargetPosition.X = s.Cursor.X - relX*s.TargetScale
	s.TargetPosition.Y = s.Cursor.Y - relY*s.TargetScale
}

// ResetScale eases back to scale 1 while keeping the image's on-screen
// center where it is. The center is taken from the current (displayed)
// values, so a reset issued mid-animation keeps what the user sees.
func (s *State) ResetScale(width, height int) {
	w, h := float64(width), float64(height)
	centerX := s.Position.X + w*s.Scale/2
	centerY := s.Position.Y + h*s.Scale/2

	s.TargetScale = s.limits.Clamp(1.0)
	s.TargetPosition.X = centerX - w*s.TargetScale/2
	s.TargetPosition.Y = centerY - h*s.TargetScale/2
}

// Advance moves scale and position a fraction t of the way to their targets.
func (s *State) Advance(t float64) {
	s.Scale = lerp(s.Scale, s.TargetScale, t)
	s.Position.X = lerp(s.Position.X, s.TargetPosition.X, t)
	s.Position.Y = lerp(s.Position.Y, s.TargetPosition.Y, t)
}

// ClampToBounds centers the image on any axis where its scaled size is
// smaller than the viewport. Only the current position is touched, so once
// the image outgrows the viewport again dragging behaves normally.
func (s *State) ClampToBounds(imageWidth, imageHeight, viewWidth, viewHeight int) {
	scaledW := float64(imageWidth) * s.Scale
	scaledH := float64(imageHeight) * s.Scale

	if scaledW < float64(viewWidth) {
		s.Position.X = (float64(viewWidth) - scaledW) / 2
	}
	if scaledH < float64(viewHeight) {
		s.Position.Y = (float64(viewHeight) - scaledH) / 2
	}
}

// DestRect returns the screen rectangle the image is drawn into. Offsets
// and sizes are truncated toward zero.
func (s *State) DestRect(width, height int) image.Rectangle {
	x := int(s.Position.X)
	y := int(s.Position.Y)
	w := int(float64(width) * s.Scale)
	h := int(float64(height) * s.Scale)
	return image.Rect(x, y, x+w, y+h)
}

// Settled reports whether current values are within eps of the targets.
func (s *State) Settled(eps float64) bool {
	return math.Abs(s.TargetScale-s.Scale) <= eps &&
		math.Abs(s.TargetPosition.X-s.Position.X) <= eps &&
		math.Abs(s.TargetPosition.Y-s.Position.Y) <= eps
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
