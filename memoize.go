package funcache

import (
	"context"

	"github.com/vmihailenco/msgpack/v5"
)

// ValueCodec defines how typed results are encoded for storage.
type ValueCodec[T any] struct {
	Encode func(T) ([]byte, error)
	Decode func([]byte) (T, error)
}

// MsgpackCodec is the default value codec.
func MsgpackCodec[T any]() ValueCodec[T] {
	return ValueCodec[T]{
		Encode: func(v T) ([]byte, error) {
			body, err := msgpack.Marshal(v)
			if err != nil {
				return nil, serializationErr(err)
			}
			return body, nil
		},
		Decode: func(body []byte) (T, error) {
			var out T
			if err := msgpack.Unmarshal(body, &out); err != nil {
				var zero T
				return zero, serializationErr(err)
			}
			return out, nil
		},
	}
}

// Call memoizes compute under (identity, args): it derives the cache key,
// returns the cached result while one is valid, and otherwise runs compute
// and stores its result. With fail-silently configured the computation always
// runs and its result is returned even when the cache layer fails.
func Call[T any](ctx context.Context, c *Cache, namespace, identity string, args []any, window Validity, compute func(context.Context) (T, error)) (T, error) {
	return CallWithCodec(ctx, c, namespace, identity, args, window, compute, MsgpackCodec[T]())
}

// CallWithCodec is Call with a custom value codec.
func CallWithCodec[T any](ctx context.Context, c *Cache, namespace, identity string, args []any, window Validity, compute func(context.Context) (T, error), codec ValueCodec[T]) (T, error) {
	var zero T
	start := timeNow()

	key, err := EncodeKey(identity, args, nil)
	if err != nil {
		if err := c.report(ctx, "memoize", namespace, "", err, start); err != nil {
			return zero, err
		}
		// Unkeyable arguments under fail-silently: compute without caching.
		return compute(ctx)
	}

	body, hit, err := c.Get(ctx, namespace, key, window)
	if err != nil {
		return zero, err
	}
	if hit {
		value, err := codec.Decode(body)
		if err == nil {
			return value, nil
		}
		// A payload that no longer decodes is treated like a corrupt entry:
		// report it and fall through to recompute.
		if err := c.report(ctx, "memoize", namespace, key, err, start); err != nil {
			return zero, err
		}
	}

	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}
	encoded, err := codec.Encode(value)
	if err != nil {
		if err := c.report(ctx, "memoize", namespace, key, err, start); err != nil {
			return zero, err
		}
		return value, nil
	}
	if err := c.Put(ctx, namespace, key, encoded); err != nil {
		return zero, err
	}
	return value, nil
}
