//go:build !nogpu

// Package gpu runs the interp upscale kernel on a GPU through gogpu/wgpu.
//
// # Architecture Overview
//
//	Session (device, queue, layouts) -> kernel.Cache (WGSL -> SPIR-V)
//	    -> interpPipeline (shader module + compute pipeline)
//	    -> Dispatch (buffers, bind group, compute pass, copy, fence, readback)
//
// A Session either owns its device (OpenSession, Vulkan) or borrows one
// (NewSession, NewSessionFromProvider). Pipelines are cached per kernel
// variant for the life of the session; buffers live for one dispatch.
//
// Samples travel as u32 words: storage buffers have no 16-bit element type
// in core WGSL, and packing two samples per word would let neighboring work
// items write the same word.
//
// Backend adapts a Session to upscale.Backend. It is registered by the
// public github.com/gogpu/upscale/gpu package.
package gpu
