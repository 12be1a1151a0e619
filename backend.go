package funcache

import "context"

// Backend is a durable key to entry store scoped to one namespace. All
// variants satisfy the same contract; callers never branch on which is
// active.
//
// Lookup reports found=false with a nil error for an absent key. Store must
// overwrite any prior entry and durably persist before returning. Delete of
// an absent key is not an error.
type Backend interface {
	Driver() Driver
	Lookup(ctx context.Context, key Key) (Entry, bool, error)
	Store(ctx context.Context, key Key, entry Entry) error
	Delete(ctx context.Context, key Key) error

	// Purge removes every entry in the namespace.
	Purge(ctx context.Context) error

	// Close releases the backend handle. Backends stay open for the life of
	// the process unless the owning registry is closed explicitly.
	Close() error
}
