package capture

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// ErrMalformedFrame is wrapped by every frame validation failure
var ErrMalformedFrame = errors.New("malformed frame")

// PixelFormat is the byte order of a raw frame
type PixelFormat int

const (
	FormatRGBA PixelFormat = iota
	FormatRGBX             // alpha byte is padding
	FormatBGRA
	FormatBGRX // X11 ZPixmap at depth 24/32
)

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA:
		return "RGBA"
	case FormatRGBX:
		return "RGBX"
	case FormatBGRA:
		return "BGRA"
	case FormatBGRX:
		return "BGRX"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// Frame is a raw framebuffer as handed over by a backend
type Frame struct {
	Width  int
	Height int
	Stride int // bytes per row, >= Width*4
	Format PixelFormat
	Pix    []byte
}

// Image is a captured still: tightly packed, row-major RGBA with
// len(Pix) == Width*Height*4. It is never modified after construction.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// NewImage wraps an RGBA buffer after checking its size
func NewImage(width, height int, pix []byte) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrMalformedFrame, width, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d, want %d",
			ErrMalformedFrame, len(pix), width, height, width*height*4)
	}
	return &Image{Width: width, Height: height, Pix: pix}, nil
}

// ToImage validates the frame and converts it to RGBA. Channel reordering,
// row padding removal and alpha fill all happen here, once per capture.
func (f Frame) ToImage() (*Image, error) {
	if f.Width <= 0 || f.Height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrMalformedFrame, f.Width, f.Height)
	}
	rowBytes := f.Width * 4
	stride := f.Stride
	if stride == 0 {
		stride = rowBytes
	}
	if stride < rowBytes {
		return nil, fmt.Errorf("%w: stride %d shorter than row %d", ErrMalformedFrame, stride, rowBytes)
	}
	need := stride*(f.Height-1) + rowBytes
	if len(f.Pix) < need {
		return nil, fmt.Errorf("%w: %d bytes, need %d for %dx%d stride %d",
			ErrMalformedFrame, len(f.Pix), need, f.Width, f.Height, stride)
	}

	var swap, opaque bool
	switch f.Format {
	case FormatRGBA:
	case FormatRGBX:
		opaque = true
	case FormatBGRA:
		swap = true
	case FormatBGRX:
		swap, opaque = true, true
	default:
		return nil, fmt.Errorf("%w: unsupported pixel format %v", ErrMalformedFrame, f.Format)
	}

	pix := make([]byte, rowBytes*f.Height)
	for y := 0; y < f.Height; y++ {
		src := f.Pix[y*stride : y*stride+rowBytes]
		dst := pix[y*rowBytes : (y+1)*rowBytes]
		if !swap && !opaque {
			copy(dst, src)
			continue
		}
		for i := 0; i < rowBytes; i += 4 {
			if swap {
				dst[i], dst[i+1], dst[i+2] = src[i+2], src[i+1], src[i]
			} else {
				dst[i], dst[i+1], dst[i+2] = src[i], src[i+1], src[i+2]
			}
			if opaque {
				dst[i+3] = 0xff
			} else {
				dst[i+3] = src[i+3]
			}
		}
	}

	return &Image{Width: f.Width, Height: f.Height, Pix: pix}, nil
}

// FromImage converts any decoded image into a captured Image
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image %v", ErrMalformedFrame, b)
	}

	// Fast path for tightly packed RGBA at the origin
	if rgba, ok := src.(*image.RGBA); ok && rgba.Stride == b.Dx()*4 && b.Min == (image.Point{}) {
		pix := make([]byte, len(rgba.Pix))
		copy(pix, rgba.Pix)
		return NewImage(b.Dx(), b.Dy(), pix)
	}

	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(dst, image.Point{}, src, b, draw.Src, nil)
	return NewImage(b.Dx(), b.Dy(), dst.Pix)
}

// RGBA returns a standard library view of the image. The view shares the
// pixel buffer and must not be written to.
func (img *Image) RGBA() *image.RGBA {
	return &image.RGBA{
		Pix:    img.Pix,
		Stride: img.Width * 4,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

// Bounds returns the image rectangle anchored at the origin
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

// Crop copies the part of the image inside r into a new Image
func (img *Image) Crop(r image.Rectangle) (*Image, error) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("%w: crop outside image bounds", ErrMalformedFrame)
	}

	rowBytes := r.Dx() * 4
	pix := make([]byte, rowBytes*r.Dy())
	for y := 0; y < r.Dy(); y++ {
		off := ((r.Min.Y+y)*img.Width + r.Min.X) * 4
		copy(pix[y*rowBytes:(y+1)*rowBytes], img.Pix[off:off+rowBytes])
	}
	return &Image{Width: r.Dx(), Height: r.Dy(), Pix: pix}, nil
}
