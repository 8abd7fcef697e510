// Package arena implements the dense bump-allocated storage the compiler
// uses for its internal event graph: pass 1 allocates a large, short-lived
// number of records that passes 2 through 5 then read and update, and indexing them through a dense []T
// backing array instead of individually heap-allocated pointers keeps the
// traversal passes cache-friendly and keeps indices stable and comparable.
package arena

// Index is a dense, zero-based handle into an Arena. The zero value is the
// index of the first allocation, so it cannot double as a "no value"
// sentinel; callers that need one should use a separate bool or pointer.
type Index uint32

// Arena is a generic bump allocator: a growable, densely-indexed slice of T
// that never reclaims individual elements. Reset drops everything at once.
type Arena[T any] struct {
	items []T
}

// New creates an empty Arena, optionally pre-sizing its backing storage.
func New[T any](capacityHint int) *Arena[T] {
	return &Arena[T]{items: make([]T, 0, capacityHint)}
}

// Alloc appends v and returns the dense Index it was stored at.
func (a *Arena[T]) Alloc(v T) Index {
	a.items = append(a.items, v)
	return Index(len(a.items) - 1)
}

// Get returns a pointer to the element at idx, letting callers mutate
// in-place during a single compiler pass without re-indexing.
func (a *Arena[T]) Get(idx Index) *T {
	return &a.items[idx]
}

// Len returns the number of elements allocated so far.
func (a *Arena[T]) Len() int {
	return len(a.items)
}

// All returns the arena's backing slice, in allocation order. The slice
// aliases the arena's storage; callers must not retain it across a further
// Alloc call, which may reallocate.
func (a *Arena[T]) All() []T {
	return a.items
}

// Reset drops every allocated element, retaining the backing array's
// capacity for reuse.
func (a *Arena[T]) Reset() {
	a.items = a.items[:0]
}
