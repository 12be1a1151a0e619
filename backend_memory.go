package funcache

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// memoryBackend is a process-local store. It does not survive restarts; it
// exists for tests and for callers that want memoization without durability.
// Each namespace gets its own go-cache instance, so key spaces never overlap.
// Entries never expire inside the store; staleness is evaluated by the
// facade like every other backend.
type memoryBackend struct {
	items *gocache.Cache
}

func openMemoryBackend() Backend {
	return &memoryBackend{items: gocache.New(gocache.NoExpiration, 0)}
}

func (b *memoryBackend) Driver() Driver { return DriverMemory }

func (b *memoryBackend) Lookup(_ context.Context, key Key) (Entry, bool, error) {
	item, ok := b.items.Get(string(key))
	if !ok {
		return Entry{}, false, nil
	}
	entry, ok := item.(Entry)
	if !ok {
		return Entry{}, false, ErrCorruptEntry
	}
	entry.Payload = cloneBytes(entry.Payload)
	return entry, true, nil
}

func (b *memoryBackend) Store(_ context.Context, key Key, entry Entry) error {
	entry.Payload = cloneBytes(entry.Payload)
	b.items.Set(string(key), entry, gocache.NoExpiration)
	return nil
}

func (b *memoryBackend) Delete(_ context.Context, key Key) error {
	b.items.Delete(string(key))
	return nil
}

func (b *memoryBackend) Purge(_ context.Context) error {
	b.items.Flush()
	return nil
}

func (b *memoryBackend) Close() error { return nil }
