// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package upscale

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Filter selects how a sampler reconstructs values between samples.
type Filter uint8

const (
	// FilterLinear blends the four nearest samples.
	FilterLinear Filter = iota + 1

	// FilterNearest picks the sample containing the coordinate.
	FilterNearest
)

// String returns the filter name.
func (f Filter) String() string {
	switch f {
	case FilterLinear:
		return "linear"
	case FilterNearest:
		return "nearest"
	default:
		return fmt.Sprintf("Filter(%d)", uint8(f))
	}
}

// Addressing selects how coordinates outside the image are resolved.
type Addressing uint8

const (
	// AddressClampToEdge snaps out-of-range coordinates to the border sample.
	AddressClampToEdge Addressing = iota + 1
)

// String returns the addressing mode name.
func (a Addressing) String() string {
	if a == AddressClampToEdge {
		return "clamp-to-edge"
	}
	return fmt.Sprintf("Addressing(%d)", uint8(a))
}

// Sampler is the fixed addressing and filtering configuration of a kernel.
// It does not change for the lifetime of a compiled kernel.
type Sampler struct {
	Filter     Filter
	Addressing Addressing

	// NormalizedCoords selects [0,1] texture coordinates instead of pixel
	// coordinates.
	NormalizedCoords bool
}

// DefaultSampler returns linear filtering with clamp-to-edge addressing over
// pixel coordinates, the only configuration the kernels support.
func DefaultSampler() Sampler {
	return Sampler{Filter: FilterLinear, Addressing: AddressClampToEdge}
}

// Validate returns ErrUnsupportedSampler for any configuration other than
// DefaultSampler.
func (s Sampler) Validate() error {
	if s != DefaultSampler() {
		return fmt.Errorf("%w: filter=%v addressing=%v normalized=%v",
			ErrUnsupportedSampler, s.Filter, s.Addressing, s.NormalizedCoords)
	}
	return nil
}

// Sample returns the bilinear value of g at pixel coordinates (u, v), where
// u runs along columns and v along rows and sample centers sit at k+0.5.
// Neighbors outside the grid are clamped to the border.
//
// The arithmetic is float32 so that it matches the GPU kernel.
func Sample(g *Grid, u, v float32) float32 {
	fx := u - 0.5
	fy := v - 0.5
	x0f := math32.Floor(fx)
	y0f := math32.Floor(fy)
	tx := fx - x0f
	ty := fy - y0f

	x0 := clampIndex(int(x0f), g.Cols)
	x1 := clampIndex(int(x0f)+1, g.Cols)
	y0 := clampIndex(int(y0f), g.Rows)
	y1 := clampIndex(int(y0f)+1, g.Rows)

	p00 := float32(g.At(y0, x0))
	p10 := float32(g.At(y0, x1))
	p01 := float32(g.At(y1, x0))
	p11 := float32(g.At(y1, x1))

	top := lerp(p00, p10, tx)
	bottom := lerp(p01, p11, tx)
	return lerp(top, bottom, ty)
}

// Quantize rounds a sampled value to the nearest representable sample.
func Quantize(v float32) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= 65535 {
		return 65535
	}
	return uint16(math32.Floor(v + 0.5))
}

// UpscaleBlock runs one work item: it fills the scale×scale destination
// block owned by source pixel (r, c). dst must have the scaled extent of src.
func UpscaleBlock(src, dst *Grid, scale, r, c int) {
	s := float32(scale)
	half := 1 / (2 * s)
	baseU := float32(c) + half
	baseV := float32(r) + half
	outR := scale * r
	outC := scale * c
	for i := 0; i < scale; i++ {
		u := baseU + float32(i)/s
		for j := 0; j < scale; j++ {
			v := baseV + float32(j)/s
			dst.Set(outR+j, outC+i, Quantize(Sample(src, u, v)))
		}
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

func lerp(a, b, t float32) float32 {
	return a*(1-t) + b*t
}
