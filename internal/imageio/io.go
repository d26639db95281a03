// Package imageio loads and stores single-channel 16-bit images as
// upscale grids.
package imageio

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
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // register WebP decoding with image.Decode

	"github.com/gogpu/upscale"
)

// I/O errors.
var (
	// ErrUnsupportedFormat is returned when the image format is not supported.
	ErrUnsupportedFormat = errors.New("imageio: unsupported format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("imageio: empty data")
)

// Kind is an encoded image container.
type Kind int

const (
	KindUnknown Kind = iota
	KindPNG
	KindJPEG
	KindTIFF
	KindBMP
	KindWebP
)

// String returns the lower-case container name.
func (k Kind) String() string {
	switch k {
	case KindPNG:
		return "png"
	case KindJPEG:
		return "jpeg"
	case KindTIFF:
		return "tiff"
	case KindBMP:
		return "bmp"
	case KindWebP:
		return "webp"
	default:
		return "unknown"
	}
}

// KindFromPath returns the container implied by the file extension.
func KindFromPath(path string) Kind {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "png":
		return KindPNG
	case "jpg", "jpeg":
		return KindJPEG
	case "tif", "tiff":
		return KindTIFF
	case "bmp":
		return KindBMP
	case "webp":
		return KindWebP
	default:
		return KindUnknown
	}
}

// Load reads an image file into a grid of 16-bit luminance samples.
// Color images are converted to luminance; 8-bit samples are widened by
// 257 so that 255 maps to 65535.
func Load(path string) (*upscale.Grid, Kind, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, KindUnknown, fmt.Errorf("imageio: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Decode(f)
}

// LoadBytes decodes an in-memory image, auto-detecting the format.
func LoadBytes(data []byte) (*upscale.Grid, Kind, error) {
	if len(data) == 0 {
		return nil, KindUnknown, ErrEmptyData
	}
	return Decode(bytes.NewReader(data))
}

// Decode decodes an image from r, auto-detecting the format.
func Decode(r io.Reader) (*upscale.Grid, Kind, error) {
	img, name, err := image.Decode(r)
	if err != nil {
		return nil, KindUnknown, fmt.Errorf("imageio: decode: %w", err)
	}
	g := upscale.GridFromImage(img)
	if err := g.Validate(); err != nil {
		return nil, KindUnknown, err
	}
	return g, KindFromPath("." + name), nil
}

// Save writes g to path in the container implied by its extension.
// PNG and TIFF keep all 16 bits; JPEG and BMP are 8-bit.
func Save(g *upscale.Grid, path string) error {
	kind := KindFromPath(path)
	if kind == KindUnknown || kind == KindWebP {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("imageio: create file: %w", err)
	}
	if err := Encode(f, g, kind); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Encode writes g to w as kind.
func Encode(w io.Writer, g *upscale.Grid, kind Kind) error {
	if err := g.Validate(); err != nil {
		return err
	}
	img := g.ToGray16()

	var err error
	switch kind {
	case KindPNG:
		err = png.Encode(w, img)
	case KindTIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case KindJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case KindBMP:
		err = bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, kind)
	}
	if err != nil {
		return fmt.Errorf("imageio: encode %v: %w", kind, err)
	}
	return nil
}
