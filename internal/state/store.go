// Package state provides a small copy-on-write container used as the single
// source of truth for session and account snapshots.
package state

import "sync"

// Store holds an immutable value of T that is replaced wholesale on every
// write. Watchers are signalled after each change; signals coalesce.
type Store[T any] struct {
	mu       sync.Mutex
	value    T
	watchers map[chan struct{}]struct{}
}

// New creates a store seeded with initial.
func New[T any](initial T) *Store[T] {
	return &Store[T]{value: initial, watchers: make(map[chan struct{}]struct{})}
}

// Load returns the current value.
func (s *Store[T]) Load() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set replaces the current value.
func (s *Store[T]) Set(v T) {
	s.Update(func(T) T { return v })
}

// Update applies fn to the current value atomically and stores the result.
// fn must not call back into the store.
func (s *Store[T]) Update(fn func(T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = fn(s.value)
	for ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return s.value
}

// Watch returns a channel that receives a signal after each change, and a
// function that stops the watch.
func (s *Store[T]) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers, ch)
			s.mu.Unlock()
		})
	}
}
