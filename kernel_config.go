// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package upscale

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// KernelMode selects how the scale factor reaches the kernel.
type KernelMode uint8

const (
	// KernelDynamic passes the scale factor as a runtime argument. One
	// compiled kernel serves every scale.
	KernelDynamic KernelMode = iota

	// KernelSpecialized bakes the scale factor into the kernel source. Each
	// scale needs its own build; builds are cached per scale.
	KernelSpecialized
)

// String returns the mode name.
func (m KernelMode) String() string {
	switch m {
	case KernelDynamic:
		return "dynamic"
	case KernelSpecialized:
		return "specialized"
	default:
		return fmt.Sprintf("KernelMode(%d)", uint8(m))
	}
}

// ParseKernelMode parses "dynamic" or "specialized".
func ParseKernelMode(s string) (KernelMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "dynamic":
		return KernelDynamic, nil
	case "specialized", "specialised":
		return KernelSpecialized, nil
	default:
		return 0, fmt.Errorf("upscale: unknown kernel mode %q", s)
	}
}

// ScaleDefine is the define that carries the scale factor in specialized
// kernels.
const ScaleDefine = "SCALE"

// KernelConfig is everything that affects how a kernel is built.
type KernelConfig struct {
	Mode KernelMode

	// BuildOptions are compiler-style options: "-DNAME=VALUE" and "-Werror".
	BuildOptions []string

	Format  Format
	Sampler Sampler
}

// DefaultKernelConfig returns a dynamic gray16 kernel with the default sampler.
func DefaultKernelConfig() KernelConfig {
	return KernelConfig{
		Mode:    KernelDynamic,
		Format:  FormatGray16,
		Sampler: DefaultSampler(),
	}
}

// BuildOptions is the parsed form of KernelConfig.BuildOptions.
type BuildOptions struct {
	// Defines become named constants in the kernel source.
	Defines map[string]string

	// WarningsAsErrors mirrors -Werror. The WGSL toolchain reports no
	// warnings, so it only affects the build log.
	WarningsAsErrors bool
}

// SortedDefines returns the define names in lexical order.
func (o BuildOptions) SortedDefines() []string {
	names := make([]string, 0, len(o.Defines))
	for k := range o.Defines {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

var (
	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	tokenRe = regexp.MustCompile(`^[A-Za-z0-9_.+-]+$`)
)

// ParseBuildOptions parses compiler-style build options. Each element may
// hold several space-separated options. A define without a value gets "1".
func ParseBuildOptions(opts []string) (BuildOptions, error) {
	out := BuildOptions{Defines: map[string]string{}}
	for _, o := range opts {
		for _, f := range strings.Fields(o) {
			switch {
			case f == "-Werror":
				out.WarningsAsErrors = true
			case strings.HasPrefix(f, "-D"):
				name, value, ok := strings.Cut(f[2:], "=")
				if !ok {
					value = "1"
				}
				if !identRe.MatchString(name) {
					return out, fmt.Errorf("invalid define name %q in option %q", name, f)
				}
				if !tokenRe.MatchString(value) {
					return out, fmt.Errorf("invalid define value %q in option %q", value, f)
				}
				out.Defines[name] = value
			default:
				return out, fmt.Errorf("unrecognized build option %q", f)
			}
		}
	}
	return out, nil
}

// Prepare checks the configuration against a device and a requested scale
// and returns the build options to compile with. Every rejection is a
// *CompileError carrying a build log for device.
//
// In specialized mode the SCALE define is set to scale; a conflicting
// user-supplied SCALE is rejected. In dynamic mode a user-supplied SCALE is
// rejected because the scale is a runtime argument.
func (k KernelConfig) Prepare(device string, scale int) (BuildOptions, error) {
	fail := func(format string, args ...any) (BuildOptions, error) {
		return BuildOptions{}, &CompileError{Device: device, Log: "error: " + fmt.Sprintf(format, args...)}
	}

	if k.Format != FormatGray16 {
		return fail("image format %v (%d channel(s), %d bits) is not supported by the interp kernel (want %v, %d channel, %d bits)",
			k.Format, k.Format.Channels(), k.Format.BitsPerChannel(),
			FormatGray16, FormatGray16.Channels(), FormatGray16.BitsPerChannel())
	}
	if err := k.Sampler.Validate(); err != nil {
		return fail("%v", err)
	}
	opts, err := ParseBuildOptions(k.BuildOptions)
	if err != nil {
		return fail("%v", err)
	}

	user, hasUser := opts.Defines[ScaleDefine]
	switch k.Mode {
	case KernelSpecialized:
		if hasUser {
			n, err := strconv.Atoi(user)
			if err != nil || n != scale {
				return fail("-D%s=%s conflicts with requested scale %d", ScaleDefine, user, scale)
			}
		}
		opts.Defines[ScaleDefine] = strconv.Itoa(scale)
	case KernelDynamic:
		if hasUser {
			return fail("-D%s is not allowed for dynamic kernels; the scale is a runtime argument", ScaleDefine)
		}
	default:
		return fail("unknown kernel mode %v", k.Mode)
	}
	return opts, nil
}
