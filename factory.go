package funcache

import "context"

// New builds a cache facade for the requested driver. Configuration problems
// are rejected here, before any Get or Put is attempted.
func New(driver Driver, opts ...Option) (*Cache, error) {
	cfg := Config{Driver: driver}
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	c := &Cache{
		cfg:      cfg,
		sink:     cfg.Sink,
		observer: cfg.Observer,
	}
	c.registry = newRegistry(func(ctx context.Context, namespace string) (Backend, error) {
		return openBackend(ctx, namespace, cfg)
	})
	return c, nil
}

// NewShelf is a convenience for the default per-namespace shelf store rooted
// at dir.
func NewShelf(dir string, opts ...Option) (*Cache, error) {
	return New(DriverShelf, append([]Option{WithDir(dir)}, opts...)...)
}

// NewFile is a convenience for the one-file-per-key backend rooted at dir.
func NewFile(dir string, opts ...Option) (*Cache, error) {
	return New(DriverFile, append([]Option{WithDir(dir)}, opts...)...)
}

// NewMemory is a convenience for a process-local, non-durable cache.
func NewMemory(opts ...Option) (*Cache, error) {
	return New(DriverMemory, opts...)
}

// NewRedis is a convenience for a redis-backed cache. The client is required.
func NewRedis(client RedisClient, opts ...Option) (*Cache, error) {
	return New(DriverRedis, append([]Option{WithRedisClient(client)}, opts...)...)
}

// openBackend opens the configured driver's backend for one namespace.
// Missing client dependencies surface as an errorBackend rather than an open
// failure so the error flows through the facade's normal reporting path on
// every call.
func openBackend(ctx context.Context, namespace string, cfg Config) (Backend, error) {
	var (
		backend Backend
		err     error
	)
	switch cfg.Driver {
	case DriverFile:
		backend, err = openFileBackend(namespace, cfg)
	case DriverMemory:
		backend = openMemoryBackend()
	case DriverRedis:
		if cfg.RedisClient == nil {
			backend = &errorBackend{driver: DriverRedis, err: storageErr("open redis backend", errMissingClient)}
		} else {
			backend = newRedisBackend(cfg.RedisClient, namespace)
		}
	case DriverDynamo:
		backend, err = openDynamoBackend(ctx, namespace, cfg)
	case DriverNATS:
		if cfg.NATSKeyValue == nil {
			backend = &errorBackend{driver: DriverNATS, err: storageErr("open nats backend", errMissingClient)}
		} else {
			backend = newNATSBackend(cfg.NATSKeyValue, namespace)
		}
	default:
		backend, err = openShelfBackend(namespace, cfg)
	}
	if err != nil {
		return nil, err
	}
	return newShapingBackend(backend, cfg.Compression, cfg.MaxPayloadBytes), nil
}
