package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/bryanchriswhite/soomer/internal/capture/portal"
)

// fakePortal writes a fresh PNG for every request, like the real portal
type fakePortal struct {
	dir    string
	width  int
	height int
	err    error
	paths  []string
	closed bool
}

func (f *fakePortal) Screenshot(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}

	path := filepath.Join(f.dir, "Screenshot.png")
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		return "", err
	}
	f.paths = append(f.paths, path)
	return path, nil
}

func (f *fakePortal) Close() error {
	f.closed = true
	return nil
}

func newTestPortalCapturer(fp *fakePortal, layout LayoutFunc) *PortalCapturer {
	return &PortalCapturer{
		dial:   func() (screenshotter, error) { return fp, nil },
		layout: layout,
	}
}

func TestPortalCapturerDesktop(t *testing.T) {
	fp := &fakePortal{dir: t.TempDir(), width: 40, height: 30}
	c := newTestPortalCapturer(fp, nil)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	img, err := c.CaptureDesktop()
	if err != nil {
		t.Fatalf("CaptureDesktop: %v", err)
	}
	if img.Width != 40 || img.Height != 30 {
		t.Errorf("size = %dx%d", img.Width, img.Height)
	}
	if _, err := os.Stat(fp.paths[0]); !os.IsNotExist(err) {
		t.Errorf("portal file left behind: %v", err)
	}
}

func TestPortalCapturerWithoutLayout(t *testing.T) {
	fp := &fakePortal{dir: t.TempDir(), width: 8, height: 8}
	c := newTestPortalCapturer(fp, nil)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	outputs, err := c.Outputs()
	if err != nil || len(outputs) != 1 || outputs[0].Name != "desktop" {
		t.Fatalf("Outputs = %+v, %v", outputs, err)
	}

	if _, err := c.CaptureOutput(0); err != nil {
		t.Errorf("CaptureOutput(0): %v", err)
	}
	_, err = c.CaptureOutput(1)
	if !errors.Is(err, ErrOutputOutOfRange) {
		t.Errorf("CaptureOutput(1) error = %v", err)
	}
}

func TestPortalCapturerCropsOutput(t *testing.T) {
	fp := &fakePortal{dir: t.TempDir(), width: 30, height: 20}
	layout := func() ([]Output, error) {
		return []Output{
			{Index: 0, Name: "left", Bounds: image.Rect(-10, 0, 10, 20)},
			{Index: 1, Name: "right", Bounds: image.Rect(10, 5, 20, 15)},
		}, nil
	}
	c := newTestPortalCapturer(fp, layout)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	img, err := c.CaptureOutput(1)
	if err != nil {
		t.Fatalf("CaptureOutput: %v", err)
	}
	if img.Width != 10 || img.Height != 10 {
		t.Fatalf("size = %dx%d, want 10x10", img.Width, img.Height)
	}
	// Desktop origin is -10,0 so output 1 starts at screenshot x=20, y=5
	if got := img.RGBA().RGBAAt(0, 0); got.R != 20 || got.G != 5 {
		t.Errorf("top-left = %v, want R=20 G=5", got)
	}
}

func TestPortalCapturerLayoutFailure(t *testing.T) {
	fp := &fakePortal{dir: t.TempDir(), width: 8, height: 8}
	c := newTestPortalCapturer(fp, func() ([]Output, error) { return nil, errors.New("no xwayland") })
	if err := c.Start(); err != nil {
		t.Fatalf("Start should tolerate layout failure: %v", err)
	}
	if _, err := c.CaptureOutput(0); err != nil {
		t.Errorf("CaptureOutput(0): %v", err)
	}
}

func TestPortalCapturerCancelled(t *testing.T) {
	fp := &fakePortal{dir: t.TempDir(), err: portal.ErrCancelled}
	c := newTestPortalCapturer(fp, nil)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err := c.CaptureDesktop()
	var ce *CaptureError
	if !errors.As(err, &ce) || !errors.Is(err, portal.ErrCancelled) {
		t.Errorf("error = %v", err)
	}
}

func TestPortalCapturerStop(t *testing.T) {
	fp := &fakePortal{dir: t.TempDir(), width: 1, height: 1}
	c := newTestPortalCapturer(fp, nil)
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !fp.closed {
		t.Error("client not closed")
	}
	if _, err := c.CaptureDesktop(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("capture after Stop error = %v", err)
	}
}
