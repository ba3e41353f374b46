// Package snapshot writes captured images to disk under timestamped names.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bryanchriswhite/soomer/internal/capture"
	"github.com/bryanchriswhite/soomer/internal/logger"
	"github.com/google/renameio/v2"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// TimestampFormat is the local-time stamp embedded in file names
const TimestampFormat = "20060102_150405.000"

// Prefix starts every saved file name
const Prefix = "smr_"

// JPEGQuality is used for .jpg and .jpeg names
const JPEGQuality = 95

// ErrUnsupportedFormat is wrapped when the base name has no known extension
var ErrUnsupportedFormat = errors.New("unsupported image format")

// SaveError reports a failed save. The viewer logs it and keeps running.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

type encodeFunc func(w io.Writer, img image.Image) error

var encoders = map[string]encodeFunc{
	".png":  png.Encode,
	".jpg":  encodeJPEG,
	".jpeg": encodeJPEG,
	".bmp":  bmp.Encode,
	".tif":  encodeTIFF,
	".tiff": encodeTIFF,
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
}

func encodeTIFF(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// Extensions lists the supported file extensions
func Extensions() []string {
	exts := make([]string, 0, len(encoders))
	for ext := range encoders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Saver writes images to disk
type Saver struct {
	now func() time.Time
}

// NewSaver creates a saver stamped with the wall clock
func NewSaver() *Saver {
	return &Saver{now: time.Now}
}

// NewSaverWithClock creates a saver with a fixed time source
func NewSaverWithClock(now func() time.Time) *Saver {
	return &Saver{now: now}
}

// Path returns where Save would write base at time t
func Path(dir, base string, t time.Time) string {
	return filepath.Join(dir, Prefix+t.Format(TimestampFormat)+"_"+base)
}

// Save encodes img by the extension of base and writes it to
// {dir}/smr_{timestamp}_{base}. The file appears atomically or not at all.
func (s *Saver) Save(img *capture.Image, dir, base string) (string, error) {
	path := Path(dir, base, s.now())
	log := logger.WithComponent("snapshot")

	ext := strings.ToLower(filepath.Ext(base))
	encode, ok := encoders[ext]
	if !ok {
		return "", &SaveError{Path: path, Err: fmt.Errorf("%w %q (use one of %v)", ErrUnsupportedFormat, ext, Extensions())}
	}
	if img == nil {
		return "", &SaveError{Path: path, Err: errors.New("no image")}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &SaveError{Path: path, Err: fmt.Errorf("failed to create directory: %w", err)}
	}

	var buf bytes.Buffer
	if err := encode(&buf, img.RGBA()); err != nil {
		return "", &SaveError{Path: path, Err: fmt.Errorf("failed to encode: %w", err)}
	}

	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", &SaveError{Path: path, Err: fmt.Errorf("failed to write: %w", err)}
	}

	log.Debug().
		Str("path", path).
		Int("width", img.Width).
		Int("height", img.Height).
		Int("bytes", buf.Len()).
		Msg("Encoded and wrote screenshot")
	return path, nil
}
