//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/upscale"
	"github.com/gogpu/upscale/internal/kernel"
)

// interpPipeline is one compiled kernel variant on a device.
type interpPipeline struct {
	program  *kernel.Program
	shader   hal.ShaderModule
	pipeline hal.ComputePipeline
}

func (p *interpPipeline) destroy(device hal.Device) {
	if device == nil {
		return
	}
	if p.pipeline != nil {
		device.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.shader != nil {
		device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

// pipelineLocked returns the pipeline for cfg and scale, building the
// kernel and pipeline on first use. s.mu must be held.
func (s *Session) pipelineLocked(cfg upscale.KernelConfig, scale int) (*interpPipeline, error) {
	prog, err := s.programs.Get(cfg, scale)
	if err != nil {
		return nil, err
	}
	if p, ok := s.pipelines.Get(prog.Key); ok {
		return p, nil
	}

	shader, err := s.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "interp",
		Source: hal.ShaderSource{SPIRV: prog.SPIRV},
	})
	if err != nil {
		return nil, &upscale.CompileError{
			Device: s.name,
			Log:    fmt.Sprintf("error: create shader module: %v", err),
			Err:    err,
		}
	}

	pipeline, err := s.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "interp_pipeline", Layout: s.pipeLayout,
		Compute: hal.ComputeState{Module: shader, EntryPoint: kernel.EntryPoint},
	})
	if err != nil {
		s.device.DestroyShaderModule(shader)
		return nil, &upscale.CompileError{
			Device: s.name,
			Log:    fmt.Sprintf("error: create compute pipeline: %v", err),
			Err:    err,
		}
	}

	p := &interpPipeline{program: prog, shader: shader, pipeline: pipeline}
	s.pipelines.Add(prog.Key, p)
	slogger().Debug("gpu: pipeline created", "mode", prog.Key.Mode, "scale", prog.Key.Scale)
	return p, nil
}
