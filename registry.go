package reactive

import (
	"sync"
)

// registry is a generic keyed store backing the session's node registry.
type registry[K comparable, V any] struct {
	data sync.Map
}

func newRegistry[K comparable, V any]() *registry[K, V] {
	return &registry[K, V]{}
}

func (r *registry[K, V]) Load(key K) (V, bool) {
	value, ok := r.data.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return value.(V), true
}

func (r *registry[K, V]) Store(key K, value V) {
	r.data.Store(key, value)
}

func (r *registry[K, V]) Delete(key K) {
	r.data.Delete(key)
}

func (r *registry[K, V]) Range(fn func(key K, value V) bool) {
	r.data.Range(func(key, value any) bool {
		return fn(key.(K), value.(V))
	})
}

func (r *registry[K, V]) Size() int {
	count := 0
	r.data.Range(func(key, value any) bool {
		count++
		return true
	})
	return count
}

func (r *registry[K, V]) Clear() {
	r.data.Range(func(key, value any) bool {
		r.data.Delete(key)
		return true
	})
}
