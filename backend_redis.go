package funcache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient captures the subset of redis.Client used by the backend.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
}

// redisBackend stores entries in their wire form under a per-namespace key
// prefix. Entries carry no server-side TTL: staleness is evaluated at lookup
// time like every other backend, and stale entries remain until overwritten
// or deleted.
type redisBackend struct {
	client RedisClient
	prefix string
}

func newRedisBackend(client RedisClient, namespace string) Backend {
	return &redisBackend{
		client: client,
		prefix: "fc:" + namespace + ":",
	}
}

func (b *redisBackend) Driver() Driver { return DriverRedis }

func (b *redisBackend) Lookup(ctx context.Context, key Key) (Entry, bool, error) {
	data, err := b.client.Get(ctx, b.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, storageErr("lookup entry", err)
	}
	entry, err := decodeEntry(data)
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

func (b *redisBackend) Store(ctx context.Context, key Key, entry Entry) error {
	if err := b.client.Set(ctx, b.redisKey(key), entry.encode(), 0).Err(); err != nil {
		return storageErr("store entry", err)
	}
	return nil
}

func (b *redisBackend) Delete(ctx context.Context, key Key) error {
	if err := b.client.Del(ctx, b.redisKey(key)).Err(); err != nil {
		return storageErr("delete entry", err)
	}
	return nil
}

func (b *redisBackend) Purge(ctx context.Context) error {
	pattern := b.prefix + "*"
	var cursor uint64
	for {
		keys, next, err := b.client.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return storageErr("purge namespace", err)
		}
		if len(keys) > 0 {
			if err := b.client.Del(ctx, keys...).Err(); err != nil {
				return storageErr("purge namespace", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (b *redisBackend) Close() error { return nil }

func (b *redisBackend) redisKey(key Key) string {
	return b.prefix + string(key)
}
