// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package kernel builds the interp compute kernel.
//
// The kernel is WGSL generated from an embedded template. Build options
// become module-scope constants; in specialized mode the scale factor is one
// of them. Sources are compiled to SPIR-V with naga, and compiler errors are
// reported as *upscale.CompileError carrying the naga diagnostic.
package kernel

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/gogpu/naga"

	"github.com/gogpu/upscale"
)

// EntryPoint is the compute entry point of every interp kernel.
const EntryPoint = "main"

// WorkgroupSize is the workgroup edge length; workgroups are
// WorkgroupSize×WorkgroupSize×1 invocations.
const WorkgroupSize = 8

// ParamsSize is the byte size of the Params uniform.
const ParamsSize = 16

//go:embed shaders/interp.wgsl.tmpl
var interpTemplateSource string

var interpTemplate = template.Must(template.New("interp").Parse(interpTemplateSource))

type define struct {
	Name, Value string
}

type templateData struct {
	Defines       []define
	ScaleExpr     string
	EntryPoint    string
	WorkgroupSize int
}

// Program is a built kernel variant.
type Program struct {
	Key     Key
	Source  string
	SPIRV   []uint32
	Options upscale.BuildOptions
}

// Source renders the WGSL source for the given mode and options.
// In specialized mode opts must define SCALE.
func Source(mode upscale.KernelMode, opts upscale.BuildOptions) (string, error) {
	data := templateData{
		EntryPoint:    EntryPoint,
		WorkgroupSize: WorkgroupSize,
		ScaleExpr:     "params.scale",
	}
	if mode == upscale.KernelSpecialized {
		if _, ok := opts.Defines[upscale.ScaleDefine]; !ok {
			return "", fmt.Errorf("kernel: specialized source needs -D%s", upscale.ScaleDefine)
		}
		data.ScaleExpr = upscale.ScaleDefine
	}
	for _, name := range opts.SortedDefines() {
		data.Defines = append(data.Defines, define{Name: name, Value: opts.Defines[name]})
	}

	var b strings.Builder
	if err := interpTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("kernel: render source: %w", err)
	}
	return b.String(), nil
}

// Build prepares cfg for scale, renders the source and compiles it.
// Any failure to produce SPIR-V is returned as a *upscale.CompileError.
func Build(device string, cfg upscale.KernelConfig, scale int) (*Program, error) {
	opts, err := cfg.Prepare(device, scale)
	if err != nil {
		return nil, err
	}
	src, err := Source(cfg.Mode, opts)
	if err != nil {
		return nil, &upscale.CompileError{Device: device, Log: err.Error(), Err: err}
	}
	spirv, err := CompileWGSL(src)
	if err != nil {
		return nil, &upscale.CompileError{Device: device, Log: buildLog(err, opts), Err: err}
	}
	return &Program{
		Key:     KeyFor(cfg, scale, opts),
		Source:  src,
		SPIRV:   spirv,
		Options: opts,
	}, nil
}

// CompileWGSL compiles WGSL source to SPIR-V words.
func CompileWGSL(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, err
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("kernel: SPIR-V length %d is not a multiple of 4", len(spirvBytes))
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

func buildLog(err error, opts upscale.BuildOptions) string {
	var b strings.Builder
	b.WriteString("error: ")
	b.WriteString(err.Error())
	if len(opts.Defines) > 0 {
		b.WriteString("\nnote: defines:")
		for _, name := range opts.SortedDefines() {
			fmt.Fprintf(&b, " %s=%s", name, opts.Defines[name])
		}
	}
	if opts.WarningsAsErrors {
		b.WriteString("\nnote: built with -Werror")
	}
	return b.String()
}
