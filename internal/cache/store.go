// Package cache provides the session-scoped stores behind the
// dashboard: a whole-value Store for the category forest and a small
// LRU for lookaside data such as member rosters and tag suggestions.
package cache

import "sync"

// Store holds a single value that is always replaced wholesale, never
// edited in place. Readers holding an older value therefore never see
// a partially-applied change, and a snapshot is just the value read
// before a mutation.
type Store[T any] struct {
	mu       sync.RWMutex
	value    T
	loaded   bool
	version  uint64
	watchers []chan struct{}
}

// NewStore returns an empty, unloaded store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{}
}

// Get returns the current value and whether one has been loaded.
func (s *Store[T]) Get() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.loaded
}

// Set replaces the stored value and notifies watchers.
func (s *Store[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.loaded = true
	s.version++
	watchers := append([]chan struct{}(nil), s.watchers...)
	s.mu.Unlock()
	notify(watchers)
}

// Invalidate discards the stored value. The next reader sees an
// unloaded store and is expected to refetch from the authoritative
// source.
func (s *Store[T]) Invalidate() {
	s.mu.Lock()
	var zero T
	s.value = zero
	s.loaded = false
	s.version++
	watchers := append([]chan struct{}(nil), s.watchers...)
	s.mu.Unlock()
	notify(watchers)
}

// Version returns a counter that increments on every Set or
// Invalidate. Useful for change detection in tests and workers.
func (s *Store[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Watch returns a channel that receives a token after every Set or
// Invalidate. Notifications are dropped rather than queued when the
// watcher is slow; the channel carries "something changed", not a
// change log.
func (s *Store[T]) Watch() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

func notify(watchers []chan struct{}) {
	for _, ch := range watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
