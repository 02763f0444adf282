package cache

import (
	"testing"
	"time"
)

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	// Touching "a" makes "b" the eviction candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a missing before eviction")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b survived past the size cap")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry evicted")
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c := NewLRUCache[string](10, 10*time.Millisecond)
	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expired entry still readable")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after expired read, want 0", c.Size())
	}
}

func TestCleanExpired(t *testing.T) {
	c := NewLRUCache[string](10, 10*time.Millisecond)
	c.Set("old-1", "v")
	c.Set("old-2", "v")
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", "v")

	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("CleanExpired() = %d, want 2", removed)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("live entry swept")
	}
}

func TestSetRefreshesTTL(t *testing.T) {
	c := NewLRUCache[string](10, 30*time.Millisecond)
	c.Set("k", "v1")
	time.Sleep(20 * time.Millisecond)
	c.Set("k", "v2")
	time.Sleep(20 * time.Millisecond)

	v, ok := c.Get("k")
	if !ok || v != "v2" {
		t.Errorf("Get() = %q, %v; want v2 after rewrite", v, ok)
	}
}

func TestManagerSweepsRegisteredCaches(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)
	m := NewManager()
	m.Register(c)
	m.StartCleanup(5 * time.Millisecond)
	defer m.Stop()

	c.Set("k", 1)
	deadline := time.After(time.Second)
	for c.Size() > 0 {
		select {
		case <-deadline:
			t.Fatal("sweep never removed the expired entry")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
