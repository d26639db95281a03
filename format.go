// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package upscale

import "fmt"

// Format is the pixel format a kernel is built for.
type Format uint8

const (
	// FormatGray16 is one unsigned 16-bit sample per pixel.
	FormatGray16 Format = iota + 1

	// FormatGray8 is one unsigned 8-bit sample per pixel.
	FormatGray8

	// FormatRGBA8 is four unsigned 8-bit samples per pixel.
	FormatRGBA8
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatGray16:
		return "gray16"
	case FormatGray8:
		return "gray8"
	case FormatRGBA8:
		return "rgba8"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// Channels returns the number of samples per pixel, or 0 for unknown formats.
func (f Format) Channels() int {
	switch f {
	case FormatGray16, FormatGray8:
		return 1
	case FormatRGBA8:
		return 4
	default:
		return 0
	}
}

// BitsPerChannel returns the sample width in bits, or 0 for unknown formats.
func (f Format) BitsPerChannel() int {
	switch f {
	case FormatGray16:
		return 16
	case FormatGray8, FormatRGBA8:
		return 8
	default:
		return 0
	}
}
