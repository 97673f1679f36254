package syncutil

import "sync/atomic"

// Value holds a value of type T that can be loaded and stored by multiple
// goroutines safely. The zero Value holds the zero T.
type Value[T any] struct {
	ptr atomic.Pointer[T]
}

// NewValue creates a Value initialized with initial.
func NewValue[T any](initial T) *Value[T] {
	v := &Value[T]{}
	v.Store(initial)
	return v
}

// Load returns the current value.
func (v *Value[T]) Load() T {
	if p := v.ptr.Load(); p != nil {
		return *p
	}
	var zero T
	return zero
}

// Store sets the current value.
func (v *Value[T]) Store(value T) {
	v.ptr.Store(&value)
}

// Swap stores value and returns the previous one.
func (v *Value[T]) Swap(value T) T {
	if p := v.ptr.Swap(&value); p != nil {
		return *p
	}
	var zero T
	return zero
}
