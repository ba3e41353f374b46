package viewport

import (
	"image"
	"math"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

var defaultLimits = Limits{Min: 0.1, Max: 10, Factor: 1.1}

func TestNewDefaults(t *testing.T) {
	s := New(defaultLimits)
	if s.Scale != 1.0 || s.TargetScale != 1.0 {
		t.Errorf("scale = %f/%f, want 1/1", s.Scale, s.TargetScale)
	}
	if s.Position != (Vec2{}) || s.TargetPosition != (Vec2{}) {
		t.Errorf("position = %v/%v, want origin", s.Position, s.TargetPosition)
	}
	if s.Dragging {
		t.Error("Dragging = true, want false")
	}
	if s.Limits() != defaultLimits {
		t.Errorf("Limits() = %v, want %v", s.Limits(), defaultLimits)
	}
}

func TestZoomInScenario(t *testing.T) {
	s := New(defaultLimits)
	s.OnMotion(100, 100)
	s.OnZoom(+1)

	if !approxEqual(s.TargetScale, 1.1, epsilon) {
		t.Errorf("TargetScale = %f, want 1.1", s.TargetScale)
	}
	if !approxEqual(s.TargetPosition.X, -10, epsilon) || !approxEqual(s.TargetPosition.Y, -10, epsilon) {
		t.Errorf("TargetPosition = %v, want (-10,-10)", s.TargetPosition)
	}
	// Current values are untouched until Advance.
	if s.Scale != 1.0 || s.Position != (Vec2{}) {
		t.Errorf("current state moved before Advance: scale=%f pos=%v", s.Scale, s.Position)
	}
}

func TestZoomRoundTrip(t *testing.T) {
	cursors := []Vec2{{0, 0}, {100, 100}, {640, 360}, {-25, 1900}}
	for _, c := range cursors {
		s := New(defaultLimits)
		s.TargetPosition = Vec2{X: 37, Y: -12}
		s.OnMotion(c.X, c.Y)

		startScale := s.TargetScale
		startPos := s.TargetPosition

		for i := 0; i < 5; i++ {
			s.OnZoom(+1)
		}
		for i := 0; i < 5; i++ {
			s.OnZoom(-1)
		}

		if !approxEqual(s.TargetScale, startScale, 1e-9) {
			t.Errorf("cursor %v: TargetScale = %.12f, want %.12f", c, s.TargetScale, startScale)
		}
		if !approxEqual(s.TargetPosition.X, startPos.X, 1e-6) || !approxEqual(s.TargetPosition.Y, startPos.Y, 1e-6) {
			t.Errorf("cursor %v: TargetPosition = %v, want %v", c, s.TargetPosition, startPos)
		}
	}
}

func TestZoomKeepsPivotUnderCursor(t *testing.T) {
	s := New(defaultLimits)
	s.TargetPosition = Vec2{X: 50, Y: 20}
	s.OnMotion(300, 200)

	// Image-space point under the cursor before zooming.
	relX := (300 - s.TargetPosition.X) / s.TargetScale
	relY := (200 - s.TargetPosition.Y) / s.TargetScale

	s.OnZoom(+1)
	s.OnZoom(+1)
	s.OnZoom(-1)

	screenX := s.TargetPosition.X + relX*s.TargetScale
	screenY := s.TargetPosition.Y + relY*s.TargetScale
	if !approxEqual(screenX, 300, 1e-9) || !approxEqual(screenY, 200, 1e-9) {
		t.Errorf("pivot moved to (%f,%f), want (300,200)", screenX, screenY)
	}
}

func TestZoomUsesTargetsNotCurrent(t *testing.T) {
	s := New(defaultLimits)
	s.OnMotion(100, 100)

	// Several wheel events before any easing happens.
	s.OnZoom(+1)
	s.OnZoom(+1)

	want := New(defaultLimits)
	want.OnMotion(100, 100)
	want.OnZoom(+1)
	want.Advance(1.0)
	want.OnZoom(+1)

	if !approxEqual(s.TargetScale, want.TargetScale, epsilon) {
		t.Errorf("TargetScale = %f, want %f", s.TargetScale, want.TargetScale)
	}
	if !approxEqual(s.TargetPosition.X, want.TargetPosition.X, epsilon) ||
		!approxEqual(s.TargetPosition.Y, want.TargetPosition.Y, epsilon) {
		t.Errorf("TargetPosition = %v, want %v", s.TargetPosition, want.TargetPosition)
	}
}

func TestZoomClampsToLimits(t *testing.T) {
	s := New(defaultLimits)
	s.OnMotion(10, 10)
	for i := 0; i < 200; i++ {
		s.OnZoom(+1)
		if s.TargetScale < defaultLimits.Min || s.TargetScale > defaultLimits.Max {
			t.Fatalf("step %d: TargetScale %f outside limits", i, s.TargetScale)
		}
	}
	if s.TargetScale != defaultLimits.Max {
		t.Errorf("TargetScale = %f, want max %f", s.TargetScale, defaultLimits.Max)
	}
	for i := 0; i < 400; i++ {
		dir := -1
		if i%7 == 3 {
			dir = +1
		}
		s.OnZoom(dir)
		if s.TargetScale < defaultLimits.Min || s.TargetScale > defaultLimits.Max {
			t.Fatalf("step %d: TargetScale %f outside limits", i, s.TargetScale)
		}
	}
	if s.TargetScale != defaultLimits.Min {
		t.Errorf("TargetScale = %f, want min %f", s.TargetScale, defaultLimits.Min)
	}
}

func TestZoomDirectionZeroIgnored(t *testing.T) {
	s := New(defaultLimits)
	s.OnMotion(100, 100)
	s.OnZoom(0)
	if s.TargetScale != 1.0 || s.TargetPosition != (Vec2{}) {
		t.Errorf("zero direction changed state: scale=%f pos=%v", s.TargetScale, s.TargetPosition)
	}
}

func TestDragScenario(t *testing.T) {
	s := New(defaultLimits)
	s.BeginDrag(50, 50)
	if !s.Dragging {
		t.Fatal("Dragging = false after BeginDrag")
	}
	if s.DragAnchor != (Vec2{X: 50, Y: 50}) {
		t.Errorf("DragAnchor = %v, want (50,50)", s.DragAnchor)
	}
	s.OnMotion(80, 70)
	if s.TargetPosition != (Vec2{X: 30, Y: 20}) {
		t.Errorf("TargetPosition = %v, want (30,20)", s.TargetPosition)
	}
	if s.Position != (Vec2{}) {
		t.Errorf("Position = %v, want unchanged origin", s.Position)
	}
}

func TestMotionWithoutDragOnlyTracksCursor(t *testing.T) {
	s := New(defaultLimits)
	s.OnMotion(80, 70)
	if s.Cursor != (Vec2{X: 80, Y: 70}) {
		t.Errorf("Cursor = %v, want (80,70)", s.Cursor)
	}
	if s.TargetPosition != (Vec2{}) {
		t.Errorf("TargetPosition = %v, want origin", s.TargetPosition)
	}
}

func TestEndDragIdempotent(t *testing.T) {
	s := New(defaultLimits)
	s.EndDrag()
	s.BeginDrag(1, 1)
	s.EndDrag()
	s.EndDrag()
	if s.Dragging {
		t.Error("Dragging = true after EndDrag")
	}
	s.OnMotion(500, 500)
	if s.TargetPosition != (Vec2{}) {
		t.Errorf("motion after EndDrag moved target to %v", s.TargetPosition)
	}
}

func TestDragAnchorUsesCurrentPosition(t *testing.T) {
	s := New(defaultLimits)
	s.TargetPosition = Vec2{X: 100, Y: 100}
	s.Advance(0.5) // position (50,50)

	s.BeginDrag(60, 60)
	if !approxEqual(s.DragAnchor.X, 10, epsilon) || !approxEqual(s.DragAnchor.Y, 10, epsilon) {
		t.Errorf("DragAnchor = %v, want (10,10)", s.DragAnchor)
	}
}

func TestAdvanceSnapsWithFactorOne(t *testing.T) {
	s := New(defaultLimits)
	s.OnMotion(123, 456)
	s.OnZoom(+1)
	s.OnZoom(+1)
	s.BeginDrag(10, 10)
	s.OnMotion(-40, 90)

	s.Advance(1.0)
	if s.Position != s.TargetPosition {
		t.Errorf("Position = %v, want %v", s.Position, s.TargetPosition)
	}
	if s.Scale != s.TargetScale {
		t.Errorf("Scale = %f, want %f", s.Scale, s.TargetScale)
	}
	if !s.Settled(0) {
		t.Error("Settled(0) = false after snap")
	}
}

func TestAdvanceConverges(t *testing.T) {
	for _, f := range []float64{0.05, 0.15, 0.5} {
		s := New(defaultLimits)
		s.TargetPosition = Vec2{X: 400, Y: -300}
		s.TargetScale = 4

		prev := distance(s)
		for i := 0; i < 20; i++ {
			s.Advance(f)
			d := distance(s)
			if d >= prev {
				t.Fatalf("factor %f step %d: distance %g did not decrease from %g", f, i, d, prev)
			}
			prev = d
		}
		if s.Settled(0) {
			t.Errorf("factor %f: reached target exactly in finite steps", f)
		}
	}
}

func TestAdvanceHalfway(t *testing.T) {
	s := New(defaultLimits)
	s.TargetPosition = Vec2{X: 100, Y: 0}
	s.TargetScale = 2
	s.Advance(0.5)
	if !approxEqual(s.Position.X, 50, epsilon) {
		t.Errorf("Position.X = %f, want 50", s.Position.X)
	}
	if !approxEqual(s.Scale, 1.5, epsilon) {
		t.Errorf("Scale = %f, want 1.5", s.Scale)
	}
}

func distance(s *State) float64 {
	return math.Abs(s.TargetScale-s.Scale) +
		math.Abs(s.TargetPosition.X-s.Position.X) +
		math.Abs(s.TargetPosition.Y-s.Position.Y)
}

func TestResetMatchesFresh(t *testing.T) {
	s := New(defaultLimits)
	s.OnMotion(10, 20)
	s.BeginDrag(10, 20)
	s.OnMotion(200, 300)
	s.OnZoom(+1)
	s.Advance(0.3)

	s.Reset()
	if *s != *New(defaultLimits) {
		t.Errorf("Reset() = %+v, want %+v", *s, *New(defaultLimits))
	}
}

func TestResetScalePreservesCenter(t *testing.T) {
	tests := []struct {
		name      string
		pos       Vec2
		zoomSteps int
		w, h      int
	}{
		{"zoomed in", Vec2{X: -200, Y: -100}, 6, 1920, 1080},
		{"zoomed out", Vec2{X: 300, Y: 150}, -8, 1920, 1080},
		{"odd size", Vec2{X: 7, Y: -3}, 3, 333, 777},
	}
	for _, tt := range tests {
		s := New(defaultLimits)
		s.TargetPosition = tt.pos
		s.OnMotion(640, 360)
		for i := 0; i < abs(tt.zoomSteps); i++ {
			if tt.zoomSteps > 0 {
				s.OnZoom(+1)
			} else {
				s.OnZoom(-1)
			}
		}
		s.Advance(1.0)

		beforeX, beforeY := center(s, tt.w, tt.h)
		s.ResetScale(tt.w, tt.h)
		afterX, afterY := center(s, tt.w, tt.h)

		if s.TargetScale != 1.0 {
			t.Errorf("%s: TargetScale = %f, want 1", tt.name, s.TargetScale)
		}
		if !approxEqual(beforeX, afterX, 1e-6) || !approxEqual(beforeY, afterY, 1e-6) {
			t.Errorf("%s: center moved from (%f,%f) to (%f,%f)", tt.name, beforeX, beforeY, afterX, afterY)
		}
	}
}

func TestResetScaleMidAnimationUsesCurrentValues(t *testing.T) {
	s := New(defaultLimits)
	s.OnMotion(500, 500)
	s.OnZoom(+1)
	s.OnZoom(+1)
	s.Advance(0.15) // current values lag behind the targets

	// Current scale 1.0315 at (-15.75,-15.75): the displayed center is
	// (396.85, 293.7), which an unscaled 800x600 image keeps at (-3.15,-6.3).
	s.ResetScale(800, 600)

	if s.TargetScale != 1.0 {
		t.Errorf("TargetScale = %f, want 1", s.TargetScale)
	}
	if !approxEqual(s.TargetPosition.X, -3.15, 1e-9) || !approxEqual(s.TargetPosition.Y, -6.3, 1e-9) {
		t.Errorf("TargetPosition = %v, want (-3.15,-6.3)", s.TargetPosition)
	}
	if !approxEqual(s.Scale, 1.0315, 1e-9) {
		t.Errorf("Scale = %f, current values must not jump", s.Scale)
	}
}

func center(s *State, w, h int) (float64, float64) {
	return s.TargetPosition.X + float64(w)*s.TargetScale/2,
		s.TargetPosition.Y + float64(h)*s.TargetScale/2
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func TestClampToBoundsCentersSmallImage(t *testing.T) {
	s := New(defaultLimits)
	s.TargetScale = 0.5
	s.TargetPosition = Vec2{X: -30, Y: 900}
	s.Advance(1.0)

	s.ClampToBounds(800, 600, 1000, 1000)
	// 400x300 footprint in a 1000x1000 view.
	if !approxEqual(s.Position.X, 300, epsilon) || !approxEqual(s.Position.Y, 350, epsilon) {
		t.Errorf("Position = %v, want (300,350)", s.Position)
	}
	if s.TargetPosition != (Vec2{X: -30, Y: 900}) {
		t.Errorf("TargetPosition = %v, want untouched", s.TargetPosition)
	}
}

func TestClampToBoundsSingleAxis(t *testing.T) {
	s := New(defaultLimits)
	s.Position = Vec2{X: -500, Y: -20}

	// Wide image: larger than view horizontally, smaller vertically.
	s.ClampToBounds(3000, 400, 1920, 1080)
	if s.Position.X != -500 {
		t.Errorf("Position.X = %f, want -500 (image wider than view)", s.Position.X)
	}
	if !approxEqual(s.Position.Y, 340, epsilon) {
		t.Errorf("Position.Y = %f, want 340", s.Position.Y)
	}
}

func TestClampToBoundsLargeImageUntouched(t *testing.T) {
	s := New(defaultLimits)
	s.Position = Vec2{X: -123, Y: 45}
	s.ClampToBounds(1920, 1080, 1920, 1080)
	if s.Position != (Vec2{X: -123, Y: 45}) {
		t.Errorf("Position = %v, want unchanged", s.Position)
	}
}

func TestDestRect(t *testing.T) {
	tests := []struct {
		pos   Vec2
		scale float64
		w, h  int
		want  image.Rectangle
	}{
		{Vec2{}, 1, 1920, 1080, image.Rect(0, 0, 1920, 1080)},
		{Vec2{X: -10.7, Y: 5.9}, 1.1, 100, 100, image.Rect(-10, 5, -10+110, 5+110)},
		{Vec2{X: 3, Y: 4}, 0.5, 101, 51, image.Rect(3, 4, 3+50, 4+25)},
	}
	for _, tt := range tests {
		s := New(defaultLimits)
		s.Position = tt.pos
		s.Scale = tt.scale
		if got := s.DestRect(tt.w, tt.h); got != tt.want {
			t.Errorf("DestRect(pos=%v scale=%f) = %v, want %v", tt.pos, tt.scale, got, tt.want)
		}
	}
}

func TestLimitsClamp(t *testing.T) {
	l := Limits{Min: 0.5, Max: 2}
	tests := []struct{ in, want float64 }{
		{0.1, 0.5}, {0.5, 0.5}, {1, 1}, {2, 2}, {3, 2},
	}
	for _, tt := range tests {
		if got := l.Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}
