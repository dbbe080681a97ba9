package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/spbu-ds-practicum-2025/daddy-bank/internal/domain"
)

// registry is a process-lifetime keyed set of entities.
// It guards the map only; each entity serializes its own mutations.
type registry[T any] struct {
	mu       sync.RWMutex
	items    map[string]T
	notFound error
}

func newRegistry[T any](notFound error) *registry[T] {
	return &registry[T]{
		items:    make(map[string]T),
		notFound: notFound,
	}
}

func (r *registry[T]) create(ctx context.Context, key string, item T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[key]; exists {
		return fmt.Errorf("%w: %s already exists", domain.ErrDuplicateKey, key)
	}
	r.items[key] = item
	return nil
}

func (r *registry[T]) get(ctx context.Context, key string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[key]
	if !ok {
		return zero, r.notFound
	}
	return item, nil
}

func (r *registry[T]) list(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	keys := make([]string, 0, len(r.items))
	for k := range r.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.items[k])
	}
	r.mu.RUnlock()

	return out, nil
}
