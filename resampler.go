// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package upscale

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Resampler upscales grids by an integer factor on a Backend.
//
// Each call to Upscale is one self-contained dispatch: the destination is
// allocated, the backend fills it, and it is returned only if every sample
// was written. Failures leave no partial result.
//
// Resampler is safe for concurrent use.
type Resampler struct {
	mu          sync.Mutex
	backend     Backend
	ownsBackend bool
	fallback    *SoftwareBackend
	workers     int
	kernel      KernelConfig
	logger      *slog.Logger
	closed      bool
}

// New creates a Resampler.
//
// The backend is, in order of preference: the one given by WithBackend, the
// registered backend, or a new SoftwareBackend owned by the Resampler.
func New(opts ...Option) *Resampler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Resampler{
		backend: o.backend,
		workers: o.workers,
		kernel:  o.kernel,
		logger:  o.logger,
	}
	if r.backend == nil {
		r.backend = RegisteredBackend()
	}
	if r.backend == nil {
		r.backend = NewSoftwareBackend(o.workers)
		r.ownsBackend = true
	}
	return r
}

// Upscale returns a new grid of extent (scale·Rows, scale·Cols) resampled
// from src. src is not modified.
//
// Errors: ErrInvalidScale, ErrEmptyImage, ErrClosed, *CompileError when the
// kernel cannot be built, ErrDeviceUnavailable, or a context error.
func (r *Resampler) Upscale(ctx context.Context, src *Grid, scale int) (*Grid, error) {
	if err := ValidateScale(scale); err != nil {
		return nil, err
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	b := r.backend
	r.mu.Unlock()

	job := &Job{
		Src:    src,
		Dst:    NewGrid(src.Rows*scale, src.Cols*scale),
		Scale:  scale,
		Kernel: r.kernel,
	}

	start := time.Now()
	err := b.Dispatch(ctx, job)
	if errors.Is(err, ErrFallbackToCPU) {
		r.log().Warn("upscale: backend fell back to CPU", "backend", b.Name(), "err", err)
		b = r.cpuFallback()
		err = b.Dispatch(ctx, job)
	}
	if err != nil {
		return nil, fmt.Errorf("upscale: %s dispatch: %w", b.Name(), err)
	}

	r.log().Debug("upscale: done",
		"backend", b.Name(),
		"src", fmt.Sprintf("%dx%d", src.Rows, src.Cols),
		"dst", fmt.Sprintf("%dx%d", job.Dst.Rows, job.Dst.Cols),
		"scale", scale,
		"elapsed", time.Since(start))
	return job.Dst, nil
}

// Backend returns the backend the Resampler dispatches to.
func (r *Resampler) Backend() Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend
}

// Close releases backends the Resampler created. Close is safe to call twice.
func (r *Resampler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	if r.ownsBackend {
		r.backend.Close()
	}
	if r.fallback != nil {
		r.fallback.Close()
		r.fallback = nil
	}
}

func (r *Resampler) cpuFallback() Backend {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sb, ok := r.backend.(*SoftwareBackend); ok {
		return sb
	}
	if r.fallback == nil {
		r.fallback = NewSoftwareBackend(r.workers)
	}
	return r.fallback
}

func (r *Resampler) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return Logger()
}

// Upscale resamples src with a temporary Resampler on the registered
// backend, or on the CPU if none is registered.
func Upscale(ctx context.Context, src *Grid, scale int, opts ...Option) (*Grid, error) {
	r := New(opts...)
	defer r.Close()
	return r.Upscale(ctx, src, scale)
}
