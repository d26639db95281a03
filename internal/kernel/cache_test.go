package kernel

import (
	"errors"
	"testing"

	"github.com/gogpu/upscale"
)

func getOrSkip(t *testing.T, c *Cache, cfg upscale.KernelConfig, scale int) *Program {
	t.Helper()
	p, err := c.Get(cfg, scale)
	if err != nil {
		var ce *upscale.CompileError
		if errors.As(err, &ce) && ce.Err != nil {
			skipIfNagaLimitation(t, ce.Err)
		}
		t.Fatalf("Get(scale=%d) error = %v", scale, err)
	}
	return p
}

func TestCacheDynamicSharedAcrossScales(t *testing.T) {
	c := NewCache("test", nil)
	cfg := upscale.DefaultKernelConfig()

	p2 := getOrSkip(t, c, cfg, 2)
	p7 := getOrSkip(t, c, cfg, 7)

	if p2 != p7 {
		t.Error("dynamic kernel was rebuilt for a different scale")
	}
	if c.Builds() != 1 {
		t.Errorf("Builds() = %d, want 1", c.Builds())
	}
	if p2.Key.Scale != 0 {
		t.Errorf("dynamic key scale = %d, want 0", p2.Key.Scale)
	}
}

func TestCacheSpecializedPerScale(t *testing.T) {
	c := NewCache("test", nil)
	cfg := specialized()

	a := getOrSkip(t, c, cfg, 2)
	b := getOrSkip(t, c, cfg, 3)
	again := getOrSkip(t, c, cfg, 2)

	if a == b {
		t.Error("specialized kernels for different scales share a program")
	}
	if a != again {
		t.Error("specialized kernel for scale 2 was not reused")
	}
	if c.Len() != 2 || c.Builds() != 2 {
		t.Errorf("Len() = %d, Builds() = %d, want 2 and 2", c.Len(), c.Builds())
	}

	c.Reset()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", c.Len())
	}
}

func TestCacheDoesNotStoreFailures(t *testing.T) {
	c := NewCache("test", nil)
	cfg := upscale.DefaultKernelConfig()
	cfg.BuildOptions = []string{"--bogus"}

	if _, err := c.Get(cfg, 2); err == nil {
		t.Fatal("Get() succeeded with bogus option")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestKeyForOptionsDiffer(t *testing.T) {
	cfg := upscale.DefaultKernelConfig()
	plain := KeyFor(cfg, 4, upscale.BuildOptions{})
	werror := KeyFor(cfg, 4, upscale.BuildOptions{WarningsAsErrors: true})
	if plain == werror {
		t.Error("keys with and without -Werror are equal")
	}
	if plain.Scale != 0 {
		t.Errorf("dynamic key scale = %d, want 0", plain.Scale)
	}
}

func TestCacheEvictsOldestVariant(t *testing.T) {
	var evicted []Key
	c := NewCache("test", func(k Key) { evicted = append(evicted, k) })
	cfg := specialized()

	for scale := 1; scale <= MaxVariants+1; scale++ {
		getOrSkip(t, c, cfg, scale)
	}
	if c.Len() != MaxVariants {
		t.Errorf("Len() = %d, want %d", c.Len(), MaxVariants)
	}
	if len(evicted) != 1 || evicted[0].Scale != 1 {
		t.Fatalf("evicted = %+v, want the scale 1 variant", evicted)
	}

	// An evicted variant is rebuilt on demand.
	getOrSkip(t, c, cfg, 1)
	if c.Builds() != MaxVariants+2 {
		t.Errorf("Builds() = %d, want %d", c.Builds(), MaxVariants+2)
	}
}
