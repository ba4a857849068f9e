package cache

import (
	"testing"
	"time"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore[[]string]()

	if _, ok := s.Get(); ok {
		t.Fatal("fresh store must be unloaded")
	}

	s.Set([]string{"a"})
	v, ok := s.Get()
	if !ok || len(v) != 1 || v[0] != "a" {
		t.Fatalf("got %v ok=%v", v, ok)
	}

	s.Invalidate()
	if _, ok := s.Get(); ok {
		t.Fatal("invalidated store must be unloaded")
	}
}

func TestStoreSnapshotRestore(t *testing.T) {
	s := NewStore[[]string]()
	s.Set([]string{"before"})

	snap, _ := s.Get()
	s.Set([]string{"optimistic"})
	s.Set(snap)

	v, _ := s.Get()
	if v[0] != "before" {
		t.Fatalf("restore swapped to %v", v)
	}
}

func TestStoreWatch(t *testing.T) {
	s := NewStore[int]()
	ch := s.Watch()

	s.Set(1)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no notification after Set")
	}

	s.Invalidate()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no notification after Invalidate")
	}
}

func TestStoreVersion(t *testing.T) {
	s := NewStore[int]()
	v0 := s.Version()
	s.Set(1)
	s.Invalidate()
	if s.Version() != v0+2 {
		t.Fatalf("version = %d, want %d", s.Version(), v0+2)
	}
}

func TestLRU(t *testing.T) {
	c := NewLRU[string](2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Set("c", "3") // evicts a

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if v, ok := c.Get("c"); !ok || v != "3" {
		t.Errorf("got %q ok=%v", v, ok)
	}
	if c.Len() != 2 {
		t.Errorf("len = %d", c.Len())
	}

	c.Delete("c")
	if _, ok := c.Get("c"); ok {
		t.Error("deleted entry still present")
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRU[string](10, -time.Second) // already expired
	c.Set("a", "1")
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry served")
	}
	c.Set("b", "2")
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("cleaned %d, want 1", n)
	}
}
