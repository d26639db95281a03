//go:build !nogpu

// Package gpu registers the wgpu compute backend for upscaling.
//
// Importing this package opens a GPU device (Vulkan) at init time and makes
// it the default backend of upscale.New and upscale.Upscale. If no device
// can be opened, registration is skipped with a warning and upscaling runs
// on the software backend.
//
// Usage:
//
//	import _ "github.com/gogpu/upscale/gpu" // enable GPU upscaling
package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/upscale"
	gpuimpl "github.com/gogpu/upscale/internal/gpu"
)

func init() {
	if err := upscale.RegisterBackend(gpuimpl.NewBackend()); err != nil {
		upscale.Logger().Warn("GPU backend not available", "err", err)
	}
}

// SetDeviceProvider makes the GPU backend run on a device shared by an
// external provider (e.g., a gogpu window) instead of its own device.
//
// The provider must also expose HAL access through HalDevice and HalQueue.
// SetDeviceProvider is a no-op when the GPU backend is not registered.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	return upscale.SetBackendDeviceProvider(provider)
}
