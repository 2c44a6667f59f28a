// Package locking provides a keyed mutex arena: per-key serialization
// without a global lock, so operations on distinct identifiers or case ids
// proceed fully in parallel.
package locking

import "sync"

// Arena hands out one mutex per key. Mutexes are created lazily and retained
// for the arena's lifetime; key cardinality here is bounded by the number of
// distinct identifiers an analyst touches in a session.
type Arena struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewArena creates an empty lock arena.
func NewArena() *Arena {
	return &Arena{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use. Call the
// returned function to release.
func (a *Arena) Lock(key string) (unlock func()) {
	a.mu.Lock()
	m, ok := a.locks[key]
	if !ok {
		m = &sync.Mutex{}
		a.locks[key] = m
	}
	a.mu.Unlock()

	m.Lock()
	return m.Unlock
}
