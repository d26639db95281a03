package upscale

import (
	"context"
	"errors"
	"sync"

	"github.com/gogpu/gpucontext"
)

// ErrFallbackToCPU indicates a backend cannot run a job right now.
// The Resampler transparently reruns the job on the software backend.
var ErrFallbackToCPU = errors.New("upscale: falling back to CPU")

// Job is one upscale dispatch: read Src, fill Dst.
// Dst is allocated by the caller with the extent Src.Extent().Scaled(Scale).
type Job struct {
	Src, Dst *Grid
	Scale    int
	Kernel   KernelConfig
}

// Backend executes upscale jobs on some compute device.
//
// Backend packages register an implementation via RegisterBackend, usually
// from a blank import:
//
//	import _ "github.com/gogpu/upscale/gpu" // enables GPU dispatch
type Backend interface {
	// Name returns the backend name (e.g., "wgpu", "software").
	Name() string

	// Init acquires device resources. Called once during registration.
	Init() error

	// Close releases device resources. Close is safe to call twice.
	Close()

	// Dispatch runs the job to completion. It returns only after every
	// destination sample has been written, or with an error and no
	// guarantee about Dst contents.
	Dispatch(ctx context.Context, job *Job) error
}

// DeviceProviderAware is an optional interface for backends that can run on
// a GPU device owned by someone else (e.g., a gogpu window).
type DeviceProviderAware interface {
	SetDeviceProvider(provider gpucontext.DeviceProvider) error
}

var (
	backendMu sync.RWMutex
	backend   Backend
)

// RegisterBackend registers the default backend used by New and Upscale.
//
// Only one backend is registered at a time; a later call replaces and
// closes the previous one. Init is called first, and if it fails the
// backend is not registered and the error is returned.
func RegisterBackend(b Backend) error {
	if b == nil {
		return errors.New("upscale: backend must not be nil")
	}
	if err := b.Init(); err != nil {
		return err
	}
	propagateLogger(b, Logger())
	backendMu.Lock()
	old := backend
	backend = b
	backendMu.Unlock()
	if old != nil && old != b {
		old.Close()
	}
	Logger().Info("upscale: backend registered", "name", b.Name())
	return nil
}

// RegisteredBackend returns the registered backend, or nil if none.
func RegisteredBackend() Backend {
	backendMu.RLock()
	b := backend
	backendMu.RUnlock()
	return b
}

// unregisterBackend removes the registered backend without closing it.
func unregisterBackend() {
	backendMu.Lock()
	backend = nil
	backendMu.Unlock()
}

// SetBackendDeviceProvider hands a shared device to the registered backend.
// It is a no-op when no backend is registered or the backend cannot share
// devices.
func SetBackendDeviceProvider(provider gpucontext.DeviceProvider) error {
	b := RegisteredBackend()
	if b == nil {
		return nil
	}
	if dpa, ok := b.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
