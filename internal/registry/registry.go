package registry

import (
	"strings"
	"sync"
	"sync/atomic"
)

// Key joins identity parts into a composite key. Parts must not contain the
// separator; ISS ids are plain slugs so "/" is safe.
func Key(parts ...string) string {
	return strings.Join(parts, "/")
}

type slot[T any] struct {
	once sync.Once
	done atomic.Bool
	val  T
	err  error
}

// Registry caches at most one instance per key. Construction is synchronized
// per key: concurrent first lookups of the same key run the factory once,
// while lookups of unrelated keys never block on it.
type Registry[T any] struct {
	mu    sync.Mutex
	slots map[string]*slot[T]
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{slots: make(map[string]*slot[T])}
}

// GetOrCreate returns the instance cached under key, invoking factory to
// build it on first access. A failed construction is not cached; a later
// call may retry.
func (r *Registry[T]) GetOrCreate(key string, factory func() (T, error)) (T, error) {
	r.mu.Lock()
	s, ok := r.slots[key]
	if !ok {
		s = &slot[T]{}
		r.slots[key] = s
	}
	r.mu.Unlock()

	s.once.Do(func() {
		s.val, s.err = factory()
		s.done.Store(true)
	})

	if s.err != nil {
		r.mu.Lock()
		if r.slots[key] == s {
			delete(r.slots, key)
		}
		r.mu.Unlock()
		var zero T
		return zero, s.err
	}
	return s.val, nil
}

// Get returns the cached instance for key, if any.
func (r *Registry[T]) Get(key string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[key]
	if !ok || !s.done.Load() || s.err != nil {
		var zero T
		return zero, false
	}
	return s.val, true
}

// Len reports the number of cached instances.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Clear drops every cached instance. Intended for test isolation only.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots = make(map[string]*slot[T])
}
