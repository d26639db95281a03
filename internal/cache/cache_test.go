package cache

import (
	"errors"
	"sync"
	"testing"
)

type released struct {
	mu   sync.Mutex
	keys []string
}

func (r *released) add(k string, _ int) {
	r.mu.Lock()
	r.keys = append(r.keys, k)
	r.mu.Unlock()
}

func TestCacheGetAdd(t *testing.T) {
	c := New[string, int](0, nil)
	if _, ok := c.Get("a"); ok {
		t.Error("Get on empty cache should miss")
	}
	c.Add("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Len != 1 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	var rel released
	c := New[string, int](2, rel.add)

	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a") // b is now oldest
	c.Add("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should still be cached")
	}
	if len(rel.keys) != 1 || rel.keys[0] != "b" {
		t.Errorf("released = %v, want [b]", rel.keys)
	}
	if c.Stats().Evictions != 1 || c.Len() != 2 {
		t.Errorf("Stats() = %+v, want 1 eviction and 2 entries", c.Stats())
	}
}

func TestCacheAddReplacesAndReleases(t *testing.T) {
	var rel released
	c := New[string, int](4, rel.add)
	c.Add("a", 1)
	c.Add("a", 2)

	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) = %d, want 2", v)
	}
	if len(rel.keys) != 1 {
		t.Errorf("replaced value not released: %v", rel.keys)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCacheGetOrCreate(t *testing.T) {
	c := New[string, int](0, nil)
	calls := 0
	create := func() (int, error) {
		calls++
		return 42, nil
	}

	v, created, err := c.GetOrCreate("k", create)
	if err != nil || !created || v != 42 {
		t.Fatalf("first GetOrCreate = %d, %v, %v", v, created, err)
	}
	v, created, err = c.GetOrCreate("k", create)
	if err != nil || created || v != 42 {
		t.Fatalf("second GetOrCreate = %d, %v, %v", v, created, err)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
}

func TestCacheGetOrCreateErrorNotCached(t *testing.T) {
	c := New[string, int](0, nil)
	boom := errors.New("boom")

	if _, _, err := c.GetOrCreate("k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("GetOrCreate error = %v, want boom", err)
	}
	if c.Len() != 0 {
		t.Errorf("failed create was cached (Len = %d)", c.Len())
	}
}

func TestCacheDeleteAndPurge(t *testing.T) {
	var rel released
	c := New[string, int](0, rel.add)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)

	if !c.Delete("b") || c.Delete("b") {
		t.Error("Delete should report presence exactly once")
	}
	c.Purge()
	if c.Len() != 0 {
		t.Errorf("Len() after Purge = %d", c.Len())
	}
	if len(rel.keys) != 3 {
		t.Errorf("released %v, want all three keys", rel.keys)
	}
	// The cache stays usable after Purge.
	c.Add("d", 4)
	if _, ok := c.Get("d"); !ok {
		t.Error("Get(d) after Purge should hit")
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := New[int, int](8, nil)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				k := (g*31 + i) % 16
				_, _, _ = c.GetOrCreate(k, func() (int, error) { return k * 2, nil })
				if v, ok := c.Get(k); ok && v != k*2 {
					t.Errorf("Get(%d) = %d", k, v)
				}
			}
		}()
	}
	wg.Wait()
	if c.Len() > 8 {
		t.Errorf("Len() = %d exceeds capacity", c.Len())
	}
}
