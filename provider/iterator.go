package provider

import (
	"context"
	"sync"
)

// Iterator is a finite, forward-only, pull-based sequence. Next returns
// (zero, false, nil) once exhausted. Close must be called when done and is
// safe to call more than once.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	Close() error
}

// SliceIterator iterates over an in-memory slice.
type SliceIterator[T any] struct {
	items  []T
	pos    int
	closed bool
}

// FromSlice returns an Iterator over items.
func FromSlice[T any](items []T) *SliceIterator[T] {
	return &SliceIterator[T]{items: items}
}

func (it *SliceIterator[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	if it.closed || it.pos >= len(it.items) {
		return zero, false, nil
	}
	v := it.items[it.pos]
	it.pos++
	return v, true, nil
}

func (it *SliceIterator[T]) Close() error {
	it.closed = true
	return nil
}

// FuncIterator adapts a next function and an optional close function.
type FuncIterator[T any] struct {
	next      func(ctx context.Context) (T, bool, error)
	close     func() error
	closeOnce sync.Once
	closeErr  error
}

// NewFuncIterator builds an Iterator from callbacks. closeFn may be nil.
func NewFuncIterator[T any](next func(ctx context.Context) (T, bool, error), closeFn func() error) *FuncIterator[T] {
	return &FuncIterator[T]{next: next, close: closeFn}
}

func (it *FuncIterator[T]) Next(ctx context.Context) (T, bool, error) {
	return it.next(ctx)
}

func (it *FuncIterator[T]) Close() error {
	it.closeOnce.Do(func() {
		if it.close != nil {
			it.closeErr = it.close()
		}
	})
	return it.closeErr
}

// Drain consumes the remaining values of it into a slice and closes it.
func Drain[T any](ctx context.Context, it Iterator[T]) (out []T, err error) {
	defer func() {
		if cerr := it.Close(); err == nil {
			err = cerr
		}
	}()
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}
