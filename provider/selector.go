package provider

import (
	"context"
	"errors"
)

// ErrNoProvider is returned when no provider can be selected.
var ErrNoProvider = errors.New("no available provider")

// Selector picks a provider from the initialised set.
type Selector[T Provider] interface {
	Select(ctx context.Context, providers map[string]T) (T, error)
}

// PrioritySelector returns the first available provider in Priority order.
// Names missing from the set are skipped.
type PrioritySelector[T Provider] struct {
	Priority []string
}

func (s *PrioritySelector[T]) Select(ctx context.Context, providers map[string]T) (T, error) {
	for _, name := range s.Priority {
		if p, ok := providers[name]; ok && p.IsAvailable(ctx) {
			return p, nil
		}
	}
	var zero T
	return zero, ErrNoProvider
}
