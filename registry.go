package funcache

import (
	"context"
	"errors"
	"sync"
)

type openFunc func(ctx context.Context, namespace string) (Backend, error)

// Registry maps each namespace to its open backend, guaranteeing at most one
// open handle per namespace per process. Backends are opened lazily on first
// access and live until Close. Resolution is safe under concurrent use: the
// check-then-open-then-insert runs under one lock, so two goroutines racing
// on the same namespace can never double-open the backing store.
type Registry struct {
	mu       sync.Mutex
	backends map[string]Backend
	open     openFunc
}

func newRegistry(open openFunc) *Registry {
	return &Registry{
		backends: make(map[string]Backend),
		open:     open,
	}
}

// Resolve returns the open backend for namespace, opening it on first use.
// A failed open is not cached; the next Resolve retries.
func (r *Registry) Resolve(ctx context.Context, namespace string) (Backend, error) {
	if namespace == "" {
		return nil, configErr("namespace must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if backend, ok := r.backends[namespace]; ok {
		return backend, nil
	}
	backend, err := r.open(ctx, namespace)
	if err != nil {
		return nil, err
	}
	r.backends[namespace] = backend
	return backend, nil
}

// Close closes every open backend and resets the registry. Long-lived server
// processes should call this on shutdown; short-lived scripts may let the
// process exit instead.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for namespace, backend := range r.backends {
		if err := backend.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(r.backends, namespace)
	}
	return errors.Join(errs...)
}
