package sequence

import (
	"iter"
)

// Iterator is a generic, immutable lazy iterator for any type T.
// Nothing is produced until it is ranged over or collected.
type Iterator[T any] struct {
	seq iter.Seq[T]
}

// New wraps an iter.Seq.
func New[T any](seq iter.Seq[T]) *Iterator[T] {
	return &Iterator[T]{seq: seq}
}

// From creates a new Iterator from a slice of T.
func From[T any](data []T) *Iterator[T] {
	return &Iterator[T]{
		seq: func(yield func(T) bool) {
			for _, v := range data {
				if !yield(v) {
					return
				}
			}
		},
	}
}

// Seq returns the underlying sequence function, usable with range-over-func.
func (i *Iterator[T]) Seq() iter.Seq[T] {
	return i.seq
}

// Pull converts the iterator into a next/stop pair.
func (i *Iterator[T]) Pull() (next func() (T, bool), stop func()) {
	return iter.Pull(i.Seq())
}

// Collect exhausts the iterator and returns a slice of all elements.
func (i *Iterator[T]) Collect() []T {
	var out []T
	for v := range i.seq {
		out = append(out, v)
	}
	return out
}

// Grid yields every (i, j) pair with 0 <= i, j <= n, i outer. It is the
// index space of a square lattice with n cells per side.
func Grid(n int) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for i := 0; i <= n; i++ {
			for j := 0; j <= n; j++ {
				if !yield(i, j) {
					return
				}
			}
		}
	}
}
