//go:build !nogpu

package gpu

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/upscale"
	"github.com/gogpu/upscale/internal/kernel"
)

// defaultWait bounds the fence wait when the context has no deadline.
const defaultWait = 5 * time.Second

// maxStorageBytes is the largest storage buffer binding a job may use.
// It matches the WebGPU default maxStorageBufferBindingSize.
var maxStorageBytes uint64 = 128 << 20

// maxWorkgroups is the largest workgroup count a job may dispatch along
// either axis.
var maxWorkgroups = int(gputypes.DefaultLimits().MaxComputeWorkgroupsPerDimension)

// dispatchBuffers are the per-job device allocations.
type dispatchBuffers struct {
	params  hal.Buffer
	src     hal.Buffer
	dst     hal.Buffer
	staging hal.Buffer

	srcSize uint64
	dstSize uint64
}

func (b *dispatchBuffers) destroy(device hal.Device) {
	for _, buf := range []hal.Buffer{b.params, b.src, b.dst, b.staging} {
		if buf != nil {
			device.DestroyBuffer(buf)
		}
	}
}

// Dispatch runs one upscale job on the session's device.
//
// Buffers are allocated for this job only and destroyed before Dispatch
// returns. The copy from the destination buffer to the staging buffer is
// encoded after the compute pass, and the host waits on a fence before
// reading back, so on success every destination sample has been written.
//
// Jobs whose buffers exceed the storage binding limit, or whose grid needs
// more workgroups per axis than the device allows, return
// upscale.ErrFallbackToCPU.
func (s *Session) Dispatch(ctx context.Context, job *upscale.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return upscale.ErrClosed
	}

	src, dst := job.Src, job.Dst
	srcSize := uint64(len(src.Pix)) * 4
	dstSize := uint64(len(dst.Pix)) * 4
	if dstSize > maxStorageBytes || srcSize > maxStorageBytes {
		return fmt.Errorf("%w: destination needs %d bytes, limit %d", upscale.ErrFallbackToCPU, dstSize, maxStorageBytes)
	}
	groupsX, groupsY := src.Extent().Dispatch().Workgroups(kernel.WorkgroupSize, kernel.WorkgroupSize)
	if groupsX > maxWorkgroups || groupsY > maxWorkgroups {
		return fmt.Errorf("%w: grid needs %dx%d workgroups, limit %d per axis",
			upscale.ErrFallbackToCPU, groupsX, groupsY, maxWorkgroups)
	}

	pipe, err := s.pipelineLocked(job.Kernel, job.Scale)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bufs, err := s.createBuffers(srcSize, dstSize)
	if err != nil {
		bufs.destroy(s.device)
		return err
	}
	defer bufs.destroy(s.device)

	s.queue.WriteBuffer(bufs.params, 0, paramsBytes(src.Cols, src.Rows, job.Scale))
	s.queue.WriteBuffer(bufs.src, 0, packSamples(src.Pix))

	bindGroup, err := s.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "interp_bind", Layout: s.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: bufs.params.NativeHandle(), Offset: 0, Size: kernel.ParamsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: bufs.src.NativeHandle(), Offset: 0, Size: srcSize}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: bufs.dst.NativeHandle(), Offset: 0, Size: dstSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group: %w", err)
	}
	defer s.device.DestroyBindGroup(bindGroup)

	slogger().Debug("gpu: dispatch",
		"src_rows", src.Rows, "src_cols", src.Cols, "scale", job.Scale,
		"workgroups_x", groupsX, "workgroups_y", groupsY,
		"src_bytes", srcSize, "dst_bytes", dstSize)

	if err := s.submitAndWait(ctx, pipe, bindGroup, bufs, groupsX, groupsY); err != nil {
		return err
	}

	readback := make([]byte, dstSize)
	if err := s.queue.ReadBuffer(bufs.staging, 0, readback); err != nil {
		return fmt.Errorf("gpu: readback: %w", err)
	}
	unpackSamples(readback, dst.Pix)
	return nil
}

func (s *Session) createBuffers(srcSize, dstSize uint64) (*dispatchBuffers, error) {
	b := &dispatchBuffers{srcSize: srcSize, dstSize: dstSize}
	var err error

	b.params, err = s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "interp_params", Size: kernel.ParamsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return b, fmt.Errorf("gpu: create params buffer: %w", err)
	}
	b.src, err = s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "interp_src", Size: srcSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return b, fmt.Errorf("gpu: create source buffer: %w", err)
	}
	b.dst, err = s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "interp_dst", Size: dstSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return b, fmt.Errorf("gpu: create destination buffer: %w", err)
	}
	b.staging, err = s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "interp_staging", Size: dstSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return b, fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	return b, nil
}

func (s *Session) submitAndWait(
	ctx context.Context, pipe *interpPipeline, bindGroup hal.BindGroup,
	bufs *dispatchBuffers, groupsX, groupsY int,
) error {
	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "interp_encoder"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("interp"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "interp_pass"})
	pass.SetPipeline(pipe.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch(uint32(groupsX), uint32(groupsY), 1) //nolint:gosec // workgroup counts fit uint32
	pass.End()

	encoder.CopyBufferToBuffer(bufs.dst, bufs.staging, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: bufs.dstSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer s.device.FreeCommandBuffer(cmdBuf)

	wait := defaultWait
	if dl, ok := ctx.Deadline(); ok {
		wait = time.Until(dl)
		if wait <= 0 {
			return context.DeadlineExceeded
		}
	}

	fence, err := s.device.CreateFence()
	if err != nil {
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	defer s.device.DestroyFence(fence)

	if err := s.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	ok, err := s.device.Wait(fence, 1, wait)
	if err != nil {
		return fmt.Errorf("gpu: wait for fence: %w", err)
	}
	if !ok {
		return fmt.Errorf("gpu: fence not signaled after %v: %w", wait, context.DeadlineExceeded)
	}
	return nil
}

// paramsBytes encodes the Params uniform: src_cols, src_rows, scale, pad.
func paramsBytes(cols, rows, scale int) []byte {
	out := make([]byte, kernel.ParamsSize)
	binary.LittleEndian.PutUint32(out[0:], uint32(cols))  //nolint:gosec // grid dimensions fit uint32
	binary.LittleEndian.PutUint32(out[4:], uint32(rows))  //nolint:gosec // grid dimensions fit uint32
	binary.LittleEndian.PutUint32(out[8:], uint32(scale)) //nolint:gosec // scale is at most MaxScale
	return out
}

// packSamples widens 16-bit samples to little-endian u32 words.
func packSamples(pix []uint16) []byte {
	out := make([]byte, len(pix)*4)
	for i, v := range pix {
		binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
	}
	return out
}

// unpackSamples narrows little-endian u32 words back to 16-bit samples.
func unpackSamples(packed []byte, dst []uint16) {
	for i := range dst {
		dst[i] = uint16(binary.LittleEndian.Uint32(packed[i*4:]) & 0xFFFF) //nolint:gosec // masked to 16 bits
	}
}
