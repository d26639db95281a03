// Package present lays out source and upscaled grids side by side for
// viewing.
//
// Both panels are drawn at 1:1 by default with the full 16-bit range mapped
// to gray (0 is black, 65535 is white); no contrast stretching is applied,
// so the two panels are directly comparable.
package present

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/upscale"
)

// Layout constants in sheet pixels.
const (
	margin        = 8
	captionHeight = 18
)

var (
	background = color.Gray16{Y: 0x2020}
	captionCol = color.Gray16{Y: 0xFFFF}
)

// Panel is one captioned image on a sheet.
type Panel struct {
	Caption string
	Grid    *upscale.Grid
}

// Options controls sheet layout.
type Options struct {
	// MaxWidth limits the width of each panel. Wider panels are reduced with
	// Catmull-Rom filtering. Zero draws every panel at 1:1.
	MaxWidth int
}

// Sheet draws panels left to right with a caption above each one.
func Sheet(panels []Panel, opts Options) (*image.Gray16, error) {
	if len(panels) == 0 {
		return nil, fmt.Errorf("present: no panels")
	}

	imgs := make([]image.Image, len(panels))
	slots := make([]int, len(panels))
	width, height := margin, 0
	for i, p := range panels {
		if err := p.Grid.Validate(); err != nil {
			return nil, fmt.Errorf("present: panel %q: %w", p.Caption, err)
		}
		imgs[i] = fit(p.Grid.ToGray16(), opts.MaxWidth)
		b := imgs[i].Bounds()
		slots[i] = max(b.Dx(), captionWidth(p.Caption))
		width += slots[i] + margin
		height = max(height, b.Dy())
	}
	height += captionHeight + 2*margin

	sheet := image.NewGray16(image.Rect(0, 0, width, height))
	draw.Draw(sheet, sheet.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	x := margin
	for i, p := range panels {
		b := imgs[i].Bounds()
		drawCaption(sheet, x, margin+captionHeight-5, p.Caption)
		dst := image.Rect(x, margin+captionHeight, x+b.Dx(), margin+captionHeight+b.Dy())
		draw.Draw(sheet, dst, imgs[i], b.Min, draw.Src)
		x += slots[i] + margin
	}
	return sheet, nil
}

// Compare is Sheet with the conventional "Source" and "Upscaled xS"
// captions.
func Compare(src, dst *upscale.Grid, scale int, opts Options) (*image.Gray16, error) {
	return Sheet([]Panel{
		{Caption: fmt.Sprintf("Source %dx%d", src.Cols, src.Rows), Grid: src},
		{Caption: fmt.Sprintf("Upscaled x%d %dx%d", scale, dst.Cols, dst.Rows), Grid: dst},
	}, opts)
}

// fit reduces img to maxWidth keeping its aspect ratio. Images that already
// fit are returned unchanged.
func fit(img *image.Gray16, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := max(1, b.Dy()*maxWidth/b.Dx())
	out := image.NewGray16(image.Rect(0, 0, maxWidth, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}

func captionWidth(text string) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil()
}

// drawCaption draws text with its baseline at (x, y).
func drawCaption(dst draw.Image, x, y int, text string) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(captionCol),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
