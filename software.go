package upscale

import (
	"context"
	"sync"

	"github.com/gogpu/upscale/internal/parallel"
)

// SoftwareBackend runs the upscale kernel on CPU goroutines.
//
// Work items are the same as on the GPU: one per source pixel, each filling
// its own scale×scale block. Items are grouped into row bands so each
// goroutine handles a contiguous slice of source rows.
type SoftwareBackend struct {
	mu      sync.Mutex
	workers int
	pool    *parallel.WorkerPool
}

var _ Backend = (*SoftwareBackend)(nil)

// NewSoftwareBackend creates a software backend with the given number of
// workers. Zero or negative means GOMAXPROCS.
func NewSoftwareBackend(workers int) *SoftwareBackend {
	return &SoftwareBackend{workers: workers}
}

func (b *SoftwareBackend) Name() string { return "software" }

// Init starts the worker pool. It is called lazily by Dispatch if needed.
func (b *SoftwareBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pool == nil {
		b.pool = parallel.NewWorkerPool(b.workers)
	}
	return nil
}

// Close stops the worker pool.
func (b *SoftwareBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pool != nil {
		b.pool.Close()
		b.pool = nil
	}
}

// Dispatch fills job.Dst and returns when every block is written.
func (b *SoftwareBackend) Dispatch(ctx context.Context, job *Job) error {
	if _, err := job.Kernel.Prepare(b.Name(), job.Scale); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.Init(); err != nil {
		return err
	}

	b.mu.Lock()
	pool := b.pool
	b.mu.Unlock()

	src, dst, scale := job.Src, job.Dst, job.Scale
	Logger().Debug("software: dispatch",
		"rows", src.Rows, "cols", src.Cols, "scale", scale, "workers", pool.Workers())

	pool.ForEachBand(src.Rows, func(lo, hi int) {
		for r := lo; r < hi; r++ {
			for c := 0; c < src.Cols; c++ {
				UpscaleBlock(src, dst, scale, r, c)
			}
		}
	})
	return nil
}
