//go:build !nogpu

package gpu

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/upscale"
)

// BackendName is the name reported by Backend.
const BackendName = "wgpu"

// Backend runs upscale jobs as wgpu compute dispatches.
// It implements upscale.Backend and upscale.DeviceProviderAware.
type Backend struct {
	mu      sync.Mutex
	session *Session

	// open creates the session on Init. Tests replace it.
	open func() (*Session, error)
}

var (
	_ upscale.Backend             = (*Backend)(nil)
	_ upscale.DeviceProviderAware = (*Backend)(nil)
)

// NewBackend returns a backend that opens its own device on Init.
func NewBackend() *Backend {
	return &Backend{open: OpenSession}
}

// NewBackendWithSession returns a backend that dispatches on an existing
// session. The backend takes ownership of the session.
func NewBackendWithSession(s *Session) *Backend {
	return &Backend{session: s, open: func() (*Session, error) { return s, nil }}
}

func (b *Backend) Name() string { return BackendName }

// Init opens the device session. It returns an error wrapping
// upscale.ErrDeviceUnavailable when no GPU can be used.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session != nil {
		return nil
	}
	s, err := b.open()
	if err != nil {
		return err
	}
	b.session = s
	return nil
}

// Close releases the session. Close is safe to call twice.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session != nil {
		b.session.Close()
		b.session = nil
	}
}

// Dispatch runs job on the GPU. Without an open session it returns
// upscale.ErrFallbackToCPU.
func (b *Backend) Dispatch(ctx context.Context, job *upscale.Job) error {
	b.mu.Lock()
	s := b.session
	b.mu.Unlock()
	if s == nil {
		return fmt.Errorf("%w: no GPU session", upscale.ErrFallbackToCPU)
	}
	return s.Dispatch(ctx, job)
}

// Session returns the active session, or nil before Init.
func (b *Backend) Session() *Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session
}

// SetDeviceProvider switches the backend to a device shared by provider.
// The previous session is closed.
func (b *Backend) SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	s, err := NewSessionFromProvider(provider)
	if err != nil {
		return fmt.Errorf("gpu: %w", err)
	}

	b.mu.Lock()
	old := b.session
	b.session = s
	b.mu.Unlock()

	if old != nil {
		old.Close()
	}
	slogger().Info("gpu: switched to shared device")
	return nil
}

// SetLogger sets the logger used by the GPU backend.
func (b *Backend) SetLogger(l *slog.Logger) {
	setLogger(l)
}
