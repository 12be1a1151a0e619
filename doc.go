// Package funcache is a persistent, time-bounded memoization layer: results
// of deterministic computations are stored durably, keyed by the computation
// identity and its arguments, so later calls can skip recomputation until the
// entry goes stale.
//
// The facade exposes Get, Put, and Delete against (namespace, key, validity)
// triples. Each namespace is backed by one durable store, opened at most once
// per process and selected by driver: a per-namespace shelf (SQLite file, or
// a table on MySQL/Postgres), one file per key, Redis, DynamoDB, NATS
// key-value, or process-local memory. Entries are never evicted by size or
// cleaned up in the background; an expired entry stays in storage until a
// later Put overwrites it or Delete removes it.
//
//	c, err := funcache.NewShelf("/var/cache/myapp")
//	if err != nil { ... }
//	key, err := funcache.EncodeKey("fetchRates", []any{"EUR", "USD"}, nil)
//	if err != nil { ... }
//	body, hit, err := c.Get(ctx, "rates", key, funcache.For(time.Hour))
//	if !hit {
//		body = computeRates()
//		err = c.Put(ctx, "rates", key, body)
//	}
//
// Or let Call drive the whole cycle for a typed computation:
//
//	rate, err := funcache.Call(ctx, c, "rates", "fetchRate",
//		[]any{"EUR"}, funcache.For(funcache.Day),
//		func(ctx context.Context) (float64, error) { return fetchRate(ctx, "EUR") })
//
// With fail-silently configured, storage and serialization failures are
// recorded to the diagnostic sink and treated as misses, so a broken cache
// never breaks the computation it wraps.
package funcache
