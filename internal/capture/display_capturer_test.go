package capture

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func fakeDisplayAPI(bounds []image.Rectangle, captured *[]image.Rectangle) displayAPI {
	return displayAPI{
		numDisplays: func() int { return len(bounds) },
		bounds:      func(i int) image.Rectangle { return bounds[i] },
		captureRect: func(r image.Rectangle) (*image.RGBA, error) {
			*captured = append(*captured, r)
			img := image.NewRGBA(r)
			img.SetRGBA(r.Min.X, r.Min.Y, color.RGBA{R: 200, A: 255})
			return img, nil
		},
	}
}

func TestDisplayCapturerOutputs(t *testing.T) {
	var captured []image.Rectangle
	c := &DisplayCapturer{api: fakeDisplayAPI([]image.Rectangle{
		image.Rect(0, 0, 800, 600),
		image.Rect(800, 0, 1824, 768),
	}, &captured)}

	if _, err := c.Outputs(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Outputs before Start error = %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	outputs, err := c.Outputs()
	if err != nil {
		t.Fatalf("Outputs: %v", err)
	}
	if len(outputs) != 2 || !outputs[0].Primary || outputs[1].Primary {
		t.Fatalf("outputs = %+v", outputs)
	}
	if outputs[1].Name != "display-1" {
		t.Errorf("name = %q", outputs[1].Name)
	}
}

func TestDisplayCapturerCapture(t *testing.T) {
	var captured []image.Rectangle
	c := &DisplayCapturer{api: fakeDisplayAPI([]image.Rectangle{
		image.Rect(0, 0, 800, 600),
		image.Rect(800, 0, 1824, 768),
	}, &captured)}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	img, err := c.CaptureOutput(1)
	if err != nil {
		t.Fatalf("CaptureOutput: %v", err)
	}
	if img.Width != 1024 || img.Height != 768 {
		t.Errorf("size = %dx%d", img.Width, img.Height)
	}
	// Offset source is rebased to the origin
	if img.Pix[0] != 200 {
		t.Errorf("first pixel red = %d, want 200", img.Pix[0])
	}

	desk, err := c.CaptureDesktop()
	if err != nil {
		t.Fatalf("CaptureDesktop: %v", err)
	}
	if desk.Width != 1824 || desk.Height != 768 {
		t.Errorf("desktop size = %dx%d", desk.Width, desk.Height)
	}
	if captured[1] != image.Rect(0, 0, 1824, 768) {
		t.Errorf("desktop rect = %v", captured[1])
	}
}

func TestDisplayCapturerOutOfRange(t *testing.T) {
	var captured []image.Rectangle
	c := &DisplayCapturer{api: fakeDisplayAPI([]image.Rectangle{image.Rect(0, 0, 10, 10)}, &captured)}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err := c.CaptureOutput(5)
	var ce *CaptureError
	if !errors.As(err, &ce) || !errors.Is(err, ErrOutputOutOfRange) {
		t.Fatalf("error = %v", err)
	}
	if ce.Backend != "display" || ce.Output != 5 {
		t.Errorf("CaptureError = %+v", ce)
	}
	if len(captured) != 0 {
		t.Error("capture attempted for a missing output")
	}
}

func TestDisplayCapturerFailure(t *testing.T) {
	c := &DisplayCapturer{api: displayAPI{
		numDisplays: func() int { return 1 },
		bounds:      func(int) image.Rectangle { return image.Rect(0, 0, 10, 10) },
		captureRect: func(image.Rectangle) (*image.RGBA, error) { return nil, errors.New("xshm failed") },
	}}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err := c.CaptureDesktop()
	var ce *CaptureError
	if !errors.As(err, &ce) || ce.Output != -1 {
		t.Errorf("error = %v", err)
	}
}

func TestDisplayCapturerNoDisplays(t *testing.T) {
	var captured []image.Rectangle
	c := &DisplayCapturer{api: fakeDisplayAPI(nil, &captured)}
	if err := c.Start(); err == nil {
		t.Error("Start with no displays succeeded")
	}
	if c.IsAvailable() {
		t.Error("IsAvailable with no displays")
	}
}
