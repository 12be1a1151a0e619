package funcache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// timeNow is swapped in tests to simulate clock movement.
var timeNow = time.Now

// Cache is the facade the wrapping mechanism calls. It resolves one backend
// per namespace through its registry, evaluates staleness on retrieval, and
// applies the fail-silently policy to every storage and serialization error.
//
// The cache offers no internal concurrency of its own: Get and Put are
// synchronous and run to completion. Stale entries are never deleted
// eagerly; they remain in storage until overwritten by a later Put or
// removed by Delete.
type Cache struct {
	cfg      Config
	registry *Registry
	sink     Sink
	observer Observer
}

// Driver reports the configured backend driver.
func (c *Cache) Driver() Driver { return c.cfg.Driver }

// Get attempts retrieval for key in namespace. A found entry older than or
// exactly as old as the window reports hit=false; the caller is expected to
// compute and Put. Backend errors are recorded to the diagnostic sink and
// either returned (default) or converted to a miss when fail-silently is
// configured. An invalid window is a ConfigError and always propagates.
func (c *Cache) Get(ctx context.Context, namespace string, key Key, window Validity) ([]byte, bool, error) {
	start := time.Now()
	if err := window.Validate(); err != nil {
		c.observe(ctx, "get", namespace, key, false, err, start)
		return nil, false, err
	}
	backend, err := c.registry.Resolve(ctx, namespace)
	if err != nil {
		err = c.report(ctx, "get", namespace, key, err, start)
		return nil, false, err
	}
	entry, found, err := backend.Lookup(ctx, key)
	if err != nil {
		err = c.report(ctx, "get", namespace, key, err, start)
		return nil, false, err
	}
	if !found {
		c.observe(ctx, "get", namespace, key, false, nil, start)
		return nil, false, nil
	}
	if !entry.ValidAt(timeNow(), window) {
		c.observe(ctx, "get", namespace, key, false, nil, start)
		return nil, false, nil
	}
	c.observe(ctx, "get", namespace, key, true, nil, start)
	return entry.Payload, true, nil
}

// Put stores value under key in namespace, stamped with the current time.
// Any prior entry for the key is fully replaced.
func (c *Cache) Put(ctx context.Context, namespace string, key Key, value []byte) error {
	start := time.Now()
	backend, err := c.registry.Resolve(ctx, namespace)
	if err != nil {
		return c.report(ctx, "put", namespace, key, err, start)
	}
	entry := Entry{WrittenAt: timeNow(), Payload: value}
	if err := backend.Store(ctx, key, entry); err != nil {
		return c.report(ctx, "put", namespace, key, err, start)
	}
	c.observe(ctx, "put", namespace, key, false, nil, start)
	return nil
}

// Delete removes key from namespace. Deleting an absent key is a no-op.
func (c *Cache) Delete(ctx context.Context, namespace string, key Key) error {
	start := time.Now()
	backend, err := c.registry.Resolve(ctx, namespace)
	if err != nil {
		return c.report(ctx, "delete", namespace, key, err, start)
	}
	if err := backend.Delete(ctx, key); err != nil {
		return c.report(ctx, "delete", namespace, key, err, start)
	}
	c.observe(ctx, "delete", namespace, key, false, nil, start)
	return nil
}

// Purge removes every entry in the namespace.
func (c *Cache) Purge(ctx context.Context, namespace string) error {
	start := time.Now()
	backend, err := c.registry.Resolve(ctx, namespace)
	if err != nil {
		return c.report(ctx, "purge", namespace, "", err, start)
	}
	if err := backend.Purge(ctx); err != nil {
		return c.report(ctx, "purge", namespace, "", err, start)
	}
	c.observe(ctx, "purge", namespace, "", false, nil, start)
	return nil
}

// Close closes every open namespace backend.
func (c *Cache) Close() error {
	return c.registry.Close()
}

// report records a cache-layer failure to the sink, notifies the observer,
// and applies the fail-silently policy. Config errors always propagate.
func (c *Cache) report(ctx context.Context, op, namespace string, key Key, err error, start time.Time) error {
	c.sink.Record(fmt.Sprintf("%s %s: %v", op, namespace, err))
	c.observe(ctx, op, namespace, key, false, err, start)
	if c.cfg.FailSilently && !errors.Is(err, ErrConfig) {
		return nil
	}
	return err
}

func (c *Cache) observe(ctx context.Context, op, namespace string, key Key, hit bool, err error, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.OnCacheOp(ctx, op, namespace, key, hit, err, time.Since(start), c.Driver())
}
