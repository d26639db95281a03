// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package upscale

import (
	"fmt"
	"image"
	"image/color"
)

// Grid is a single-channel image of unsigned 16-bit samples.
//
// Samples are stored row-major: the sample at row r, column c lives at
// Pix[r*Cols+c]. Grid is the type of both the source image handed to a
// Resampler and the destination image it returns.
type Grid struct {
	Rows, Cols int
	Pix        []uint16
}

// NewGrid allocates a zeroed grid of the given extent.
func NewGrid(rows, cols int) *Grid {
	if rows < 0 || cols < 0 {
		rows, cols = 0, 0
	}
	return &Grid{
		Rows: rows,
		Cols: cols,
		Pix:  make([]uint16, rows*cols),
	}
}

// GridFromRows builds a grid from a slice of equally long rows.
// It returns ErrEmptyImage if the rows are empty or ragged.
func GridFromRows(rows [][]uint16) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyImage
	}
	g := NewGrid(len(rows), len(rows[0]))
	for r, row := range rows {
		if len(row) != g.Cols {
			return nil, fmt.Errorf("%w: row %d has %d samples, want %d", ErrEmptyImage, r, len(row), g.Cols)
		}
		copy(g.Pix[r*g.Cols:], row)
	}
	return g, nil
}

// Extent returns the grid dimensions in storage order.
func (g *Grid) Extent() Extent {
	return Extent{Rows: g.Rows, Cols: g.Cols}
}

// Validate reports whether the grid is non-empty and its sample slice
// matches its dimensions.
func (g *Grid) Validate() error {
	if g == nil || g.Rows <= 0 || g.Cols <= 0 {
		return ErrEmptyImage
	}
	if len(g.Pix) != g.Rows*g.Cols {
		return fmt.Errorf("%w: %d samples for %dx%d grid", ErrEmptyImage, len(g.Pix), g.Rows, g.Cols)
	}
	return nil
}

// At returns the sample at row r, column c. Coordinates are not checked.
func (g *Grid) At(r, c int) uint16 {
	return g.Pix[r*g.Cols+c]
}

// Set stores v at row r, column c. Coordinates are not checked.
func (g *Grid) Set(r, c int, v uint16) {
	g.Pix[r*g.Cols+c] = v
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	out := &Grid{Rows: g.Rows, Cols: g.Cols, Pix: make([]uint16, len(g.Pix))}
	copy(out.Pix, g.Pix)
	return out
}

// MinMax returns the smallest and largest sample. An empty grid yields (0, 0).
func (g *Grid) MinMax() (lo, hi uint16) {
	if len(g.Pix) == 0 {
		return 0, 0
	}
	lo, hi = g.Pix[0], g.Pix[0]
	for _, v := range g.Pix[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Equal reports whether two grids have the same extent and samples.
func (g *Grid) Equal(o *Grid) bool {
	if g.Rows != o.Rows || g.Cols != o.Cols || len(g.Pix) != len(o.Pix) {
		return false
	}
	for i := range g.Pix {
		if g.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// ToGray16 converts the grid to a standard library image.
func (g *Grid) ToGray16() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, g.Cols, g.Rows))
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			img.SetGray16(c, r, color.Gray16{Y: g.At(r, c)})
		}
	}
	return img
}

// GridFromImage converts any image to a grid of 16-bit luminance samples.
// Gray16 images are copied sample for sample; other models go through
// color.Gray16Model.
func GridFromImage(img image.Image) *Grid {
	b := img.Bounds()
	g := NewGrid(b.Dy(), b.Dx())
	if src, ok := img.(*image.Gray16); ok {
		for r := 0; r < g.Rows; r++ {
			for c := 0; c < g.Cols; c++ {
				g.Set(r, c, src.Gray16At(b.Min.X+c, b.Min.Y+r).Y)
			}
		}
		return g
	}
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			px := color.Gray16Model.Convert(img.At(b.Min.X+c, b.Min.Y+r)).(color.Gray16)
			g.Set(r, c, px.Y)
		}
	}
	return g
}
