package funcache

import "context"

// errorBackend preserves a construction failure while keeping the driver
// identity; every call surfaces the original error through the facade's
// normal error path, so fail-silently still applies.
type errorBackend struct {
	driver Driver
	err    error
}

func (e *errorBackend) Driver() Driver { return e.driver }
func (e *errorBackend) Lookup(context.Context, Key) (Entry, bool, error) {
	return Entry{}, false, e.err
}
func (e *errorBackend) Store(context.Context, Key, Entry) error { return e.err }
func (e *errorBackend) Delete(context.Context, Key) error       { return e.err }
func (e *errorBackend) Purge(context.Context) error             { return e.err }
func (e *errorBackend) Close() error                            { return nil }
