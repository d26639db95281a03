// Package upscale enlarges 16-bit grayscale images by an integer factor
// using a data-parallel bilinear kernel.
//
// # Overview
//
// A Resampler takes a source Grid of H×W samples and a scale factor S and
// returns a destination Grid of (S·H)×(S·W) samples. The kernel runs one
// work item per source pixel; the work item for pixel (r, c) samples the
// source S×S times around that pixel and writes the S×S destination block
// whose top-left corner is (S·r, S·c). Blocks never overlap, so work items
// need no synchronization.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/upscale"
//	    _ "github.com/gogpu/upscale/gpu" // optional: run on the GPU
//	)
//
//	r := upscale.New()
//	defer r.Close()
//	dst, err := r.Upscale(ctx, src, 5)
//
// # Sampling
//
// Sample coordinates are pixel coordinates, not normalized, with sample
// centers at k+0.5. For destination sub-index (i, j) of source pixel (r, c)
// the sample point is
//
//	u = c + 1/(2S) + i/S   (along columns)
//	v = r + 1/(2S) + j/S   (along rows)
//
// so the S sub-samples are centered inside the pixel rather than starting
// at its corner. Values are blended from the four nearest samples with
// clamp-to-edge addressing, rounded to nearest and clamped to 16 bits.
//
// # Backends
//
// Without further imports the work runs on SoftwareBackend, a goroutine
// pool. Importing github.com/gogpu/upscale/gpu registers a wgpu backend
// that compiles the kernel from WGSL with naga and dispatches it as a
// compute shader. A kernel that fails to build yields a *CompileError whose
// Log holds the diagnostic text.
//
// # Logging
//
// Nothing is logged by default. Use SetLogger to route log/slog output.
package upscale
