//go:build !nogpu

package gpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/upscale"
	"github.com/gogpu/upscale/internal/cache"
	"github.com/gogpu/upscale/internal/kernel"
)

// Session is a compute session: it owns (or borrows) a device and queue,
// the interp bind group layout, and every pipeline built on that device.
//
// Sessions are created explicitly and released with Close. A session
// created by OpenSession owns its instance and device and destroys them on
// Close; a session created from a shared device only destroys what it
// created itself.
//
// Thread safety: Session is safe for concurrent use. Dispatches are
// serialized.
type Session struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	name     string
	external bool

	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout

	programs  *kernel.Cache
	pipelines *cache.Cache[kernel.Key, *interpPipeline]

	closed bool
}

// OpenSession opens the first discrete or integrated GPU exposed by the
// Vulkan backend, falling back to the first adapter of any kind.
// It returns an error wrapping upscale.ErrDeviceUnavailable if no device
// can be opened.
func OpenSession() (*Session, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", upscale.ErrDeviceUnavailable)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", upscale.ErrDeviceUnavailable, err)
	}
	return openOnInstance(instance)
}

// openOnInstance picks an adapter from instance and opens a session on it.
// The session takes ownership of instance, including on failure.
func openOnInstance(instance hal.Instance) (*Session, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no GPU adapters found", upscale.ErrDeviceUnavailable)
	}
	selected := selectAdapter(adapters)

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("%w: open device: %w", upscale.ErrDeviceUnavailable, err)
	}

	s := newSession(openDev.Device, openDev.Queue, selected.Info.Name, false)
	s.instance = instance
	if err := s.createLayouts(); err != nil {
		s.Close()
		return nil, err
	}
	slogger().Info("gpu: session opened", "adapter", selected.Info.Name, "type", selected.Info.DeviceType)
	return s, nil
}

// selectAdapter prefers discrete, then integrated GPUs, then the first adapter.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				return &adapters[i]
			}
		}
	}
	return &adapters[0]
}

// NewSession creates a session on a device owned by the caller.
// Close destroys only the session's layouts and pipelines.
func NewSession(device hal.Device, queue hal.Queue, name string) (*Session, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil device or queue", upscale.ErrDeviceUnavailable)
	}
	s := newSession(device, queue, name, true)
	if err := s.createLayouts(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// NewSessionFromProvider creates a session on the device of a
// gpucontext.DeviceProvider. The provider must also expose HAL handles via
// HalDevice() any and HalQueue() any.
func NewSessionFromProvider(provider gpucontext.DeviceProvider) (*Session, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: nil device provider", upscale.ErrDeviceUnavailable)
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", upscale.ErrDeviceUnavailable)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", upscale.ErrDeviceUnavailable)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", upscale.ErrDeviceUnavailable)
	}
	return NewSession(device, queue, "shared")
}

func newSession(device hal.Device, queue hal.Queue, name string, external bool) *Session {
	if name == "" {
		name = "gpu"
	}
	s := &Session{
		device:   device,
		queue:    queue,
		name:     name,
		external: external,
	}
	// A pipeline lives exactly as long as its kernel variant.
	s.pipelines = cache.New(kernel.MaxVariants, func(_ kernel.Key, p *interpPipeline) {
		p.destroy(s.device)
	})
	s.programs = kernel.NewCache(name, func(k kernel.Key) {
		s.pipelines.Delete(k)
	})
	return s
}

// DeviceName returns the adapter name the session runs on.
func (s *Session) DeviceName() string {
	return s.name
}

// Pipelines returns the number of pipelines currently cached.
func (s *Session) Pipelines() int {
	return s.pipelines.Len()
}

// Close releases every resource the session created, and the device and
// instance if the session owns them. Close is safe to call twice.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	s.programs.Reset()
	s.pipelines.Purge()
	if s.pipeLayout != nil {
		s.device.DestroyPipelineLayout(s.pipeLayout)
		s.pipeLayout = nil
	}
	if s.bindLayout != nil {
		s.device.DestroyBindGroupLayout(s.bindLayout)
		s.bindLayout = nil
	}

	if !s.external {
		if s.device != nil {
			s.device.Destroy()
		}
		if s.instance != nil {
			s.instance.Destroy()
		}
	}
	s.device = nil
	s.queue = nil
	s.instance = nil
}

func (s *Session) createLayouts() error {
	bindLayout, err := s.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "interp_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create bind group layout: %w", err)
	}
	s.bindLayout = bindLayout

	pipeLayout, err := s.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "interp_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{s.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	s.pipeLayout = pipeLayout
	return nil
}
