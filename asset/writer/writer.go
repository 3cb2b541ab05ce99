// Package writer saves rendered frames to disk.
package writer

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
)

var ErrUnsupportedFormat = errors.New("writer: unsupported image format")

// Image formats keyed by file extension.
const (
	FormatPNG  = ".png"
	FormatWebP = ".webp"
	FormatTGA  = ".tga"
)

// Write img to path, optionally rescaling it first. The encoder is selected
// by the file extension. Missing parent directories are created.
func WriteImage(path string, img image.Image, scale float32) error {
	format := strings.ToLower(filepath.Ext(path))
	if !isSupported(format) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}

	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := Encode(f, format, Scale(img, scale)); err != nil {
		return fmt.Errorf("writer: encode %s: %w", path, err)
	}
	return f.Close()
}

// Encode img using the encoder for format (one of the Format constants).
func Encode(w io.Writer, format string, img image.Image) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatWebP:
		return nativewebp.Encode(w, img, nil)
	case FormatTGA:
		return tga.Encode(w, img)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Write frames as a looping lossless WebP animation showing each frame for
// frameDelay.
func WriteAnimation(path string, frames []image.Image, frameDelay time.Duration) error {
	if len(frames) == 0 {
		return fmt.Errorf("writer: no frames to write to %s", path)
	}
	if strings.ToLower(filepath.Ext(path)) != FormatWebP {
		return fmt.Errorf("%w: animations require %s; got %q", ErrUnsupportedFormat, FormatWebP, path)
	}

	anim := &nativewebp.Animation{
		Images:    frames,
		Durations: make([]uint, len(frames)),
		Disposals: make([]uint, len(frames)),
	}
	for i := range frames {
		anim.Durations[i] = uint(frameDelay.Milliseconds())
	}

	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := nativewebp.EncodeAll(f, anim, nil); err != nil {
		return fmt.Errorf("writer: encode %s: %w", path, err)
	}
	return f.Close()
}

// Resize img by scale using Catmull-Rom resampling. The image is returned
// unchanged if scale is 1 or not positive.
func Scale(img image.Image, scale float32) image.Image {
	if scale <= 0 || scale == 1 {
		return img
	}

	b := img.Bounds()
	w := max(1, int(float32(b.Dx())*scale+0.5))
	h := max(1, int(float32(b.Dy())*scale+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func isSupported(format string) bool {
	return format == FormatPNG || format == FormatWebP || format == FormatTGA
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("writer: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("writer: %w", err)
	}
	return f, nil
}
