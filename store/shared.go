package store

import (
	"go.uber.org/atomic"
)

// shared is a reference-counted handle to one columnar component of a
// forest.  Any number of forests may hold the same handle.  A holder that
// needs to write first calls own, which clones the component if anyone
// else still holds it.
type shared[T any] struct {
	refs *atomic.Int32
	val  T
}

func newShared[T any](val T) *shared[T] {
	return &shared[T]{refs: atomic.NewInt32(1), val: val}
}

func (s *shared[T]) ref() *shared[T] {
	s.refs.Inc()
	return s
}

func (s *shared[T]) unref() {
	if s.refs.Dec() < 0 {
		panic("store: component released too many times")
	}
}

// own makes *p exclusively held by the caller, cloning the component when
// it is shared, and returns it.
func own[T any](p **shared[T], clone func(T) T) *shared[T] {
	s := *p
	if s.refs.Load() == 1 {
		return s
	}
	c := newShared(clone(s.val))
	s.unref()
	*p = c
	return c
}

func cloneSlice[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}
