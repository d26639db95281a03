// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package kernel

import (
	"strings"
	"sync/atomic"

	"github.com/gogpu/upscale"
	"github.com/gogpu/upscale/internal/cache"
)

// MaxVariants bounds how many kernel variants a Cache keeps. Specialized
// kernels need one variant per scale; the least recently used is dropped.
const MaxVariants = 16

// Key identifies a kernel variant. Dynamic kernels have Scale 0 so one
// variant serves every scale.
type Key struct {
	Mode    upscale.KernelMode
	Scale   int
	Options string
}

// KeyFor returns the cache key of a prepared configuration.
func KeyFor(cfg upscale.KernelConfig, scale int, opts upscale.BuildOptions) Key {
	k := Key{Mode: cfg.Mode}
	if cfg.Mode == upscale.KernelSpecialized {
		k.Scale = scale
	}
	var b strings.Builder
	for _, name := range opts.SortedDefines() {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(opts.Defines[name])
		b.WriteByte(';')
	}
	if opts.WarningsAsErrors {
		b.WriteString("-Werror")
	}
	k.Options = b.String()
	return k
}

// Cache holds built programs keyed by variant, up to MaxVariants. Failed
// builds are not cached.
//
// Thread safety: Cache is safe for concurrent use.
type Cache struct {
	device   string
	programs *cache.Cache[Key, *Program]
	builds   atomic.Int64
}

// NewCache creates an empty cache for the named device. onEvict, if not nil,
// is called with the key of every program dropped from the cache.
func NewCache(device string, onEvict func(Key)) *Cache {
	var release func(Key, *Program)
	if onEvict != nil {
		release = func(k Key, _ *Program) { onEvict(k) }
	}
	return &Cache{device: device, programs: cache.New(MaxVariants, release)}
}

// Get returns the program for cfg and scale, building it on first use.
func (c *Cache) Get(cfg upscale.KernelConfig, scale int) (*Program, error) {
	opts, err := cfg.Prepare(c.device, scale)
	if err != nil {
		return nil, err
	}
	key := KeyFor(cfg, scale, opts)

	p, created, err := c.programs.GetOrCreate(key, func() (*Program, error) {
		return Build(c.device, cfg, scale)
	})
	if err != nil {
		return nil, err
	}
	if created {
		c.builds.Add(1)
		upscale.Logger().Debug("kernel: built variant",
			"device", c.device, "mode", cfg.Mode, "scale", key.Scale, "spirv_words", len(p.SPIRV))
	}
	return p, nil
}

// Len returns the number of cached programs.
func (c *Cache) Len() int {
	return c.programs.Len()
}

// Builds returns how many programs have been compiled.
func (c *Cache) Builds() int {
	return int(c.builds.Load())
}

// Reset drops all cached programs.
func (c *Cache) Reset() {
	c.programs.Purge()
}
