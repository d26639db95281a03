// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package upscale

import (
	"errors"
	"fmt"
)

// MaxScale is the largest accepted scale factor.
const MaxScale = 64

var (
	// ErrInvalidScale is returned for scale factors outside [1, MaxScale].
	ErrInvalidScale = errors.New("upscale: invalid scale factor")

	// ErrEmptyImage is returned for grids with no samples or with a sample
	// slice that does not match the grid dimensions.
	ErrEmptyImage = errors.New("upscale: empty or malformed image")

	// ErrDeviceUnavailable is returned when no compute device can be opened.
	ErrDeviceUnavailable = errors.New("upscale: no compute device available")

	// ErrUnsupportedSampler is returned for sampler configurations the
	// kernels cannot express.
	ErrUnsupportedSampler = errors.New("upscale: unsupported sampler")

	// ErrClosed is returned when a closed backend is used.
	ErrClosed = errors.New("upscale: backend closed")
)

// CompileError reports a kernel that failed to build for a device.
// It is not recoverable: resampling cannot proceed without the kernel.
type CompileError struct {
	// Device names the device the kernel was built for.
	Device string

	// Log is the build diagnostic text.
	Log string

	// Err is the underlying compiler error, if any.
	Err error
}

func (e *CompileError) Error() string {
	dev := e.Device
	if dev == "" {
		dev = "unknown device"
	}
	return fmt.Sprintf("upscale: kernel build failed for %s:\n%s", dev, e.Log)
}

func (e *CompileError) Unwrap() error { return e.Err }

// ValidateScale returns ErrInvalidScale unless 1 <= scale <= MaxScale.
func ValidateScale(scale int) error {
	if scale < 1 || scale > MaxScale {
		return fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidScale, scale, MaxScale)
	}
	return nil
}
