package upscale

import "log/slog"

// Option configures a Resampler during creation.
//
// Example:
//
//	// Registered backend (GPU if github.com/gogpu/upscale/gpu is imported)
//	r := upscale.New()
//
//	// Software backend with eight workers and a specialized kernel
//	r := upscale.New(
//	    upscale.WithBackend(upscale.NewSoftwareBackend(8)),
//	    upscale.WithKernelMode(upscale.KernelSpecialized),
//	)
type Option func(*options)

type options struct {
	backend Backend
	workers int
	kernel  KernelConfig
	logger  *slog.Logger
}

func defaultOptions() options {
	return options{
		kernel: DefaultKernelConfig(),
	}
}

// WithBackend sets the backend used for dispatch instead of the registered
// one. The Resampler does not take ownership: Close leaves it open.
func WithBackend(b Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithWorkers sets the worker count of the software backend the Resampler
// creates when no other backend is available, and of its CPU fallback.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithKernelMode selects dynamic or specialized kernels.
func WithKernelMode(m KernelMode) Option {
	return func(o *options) {
		o.kernel.Mode = m
	}
}

// WithBuildOptions sets compiler-style kernel build options such as
// "-Werror" or "-DNAME=VALUE".
func WithBuildOptions(opts ...string) Option {
	return func(o *options) {
		o.kernel.BuildOptions = append([]string(nil), opts...)
	}
}

// WithFormat sets the pixel format the kernel is built for.
// Only FormatGray16 builds; other formats fail with a *CompileError.
func WithFormat(f Format) Option {
	return func(o *options) {
		o.kernel.Format = f
	}
}

// WithSampler overrides the sampler configuration.
// Only DefaultSampler builds; others fail with a *CompileError.
func WithSampler(s Sampler) Option {
	return func(o *options) {
		o.kernel.Sampler = s
	}
}

// WithLogger sets a logger for this Resampler only. Without it the
// package logger from SetLogger is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
