package funcache

import (
	"context"
	"time"
)

// Observer receives events for cache operations.
// It is called from the facade after each operation completes.
type Observer interface {
	OnCacheOp(ctx context.Context, op, namespace string, key Key, hit bool, err error, dur time.Duration, driver Driver)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, op, namespace string, key Key, hit bool, err error, dur time.Duration, driver Driver)

// OnCacheOp implements Observer.
func (f ObserverFunc) OnCacheOp(ctx context.Context, op, namespace string, key Key, hit bool, err error, dur time.Duration, driver Driver) {
	if f == nil {
		return
	}
	f(ctx, op, namespace, key, hit, err, dur, driver)
}
