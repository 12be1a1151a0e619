package funcache

// Option mutates Config when constructing a cache.
type Option func(Config) Config

// WithDir sets the base directory for shelf files and file-backend
// directories.
func WithDir(dir string) Option {
	return func(cfg Config) Config {
		cfg.Dir = dir
		return cfg
	}
}

// WithFailSilently converts cache-layer errors into misses and no-ops after
// they are recorded to the sink.
func WithFailSilently(silent bool) Option {
	return func(cfg Config) Config {
		cfg.FailSilently = silent
		return cfg
	}
}

// WithSink sets the diagnostic sink.
func WithSink(sink Sink) Option {
	return func(cfg Config) Config {
		cfg.Sink = sink
		return cfg
	}
}

// WithObserver attaches an observer receiving operation events.
func WithObserver(o Observer) Option {
	return func(cfg Config) Config {
		cfg.Observer = o
		return cfg
	}
}

// WithCompression enables payload compression before storage.
func WithCompression(codec CompressionCodec) Option {
	return func(cfg Config) Config {
		cfg.Compression = codec
		return cfg
	}
}

// WithMaxPayloadBytes rejects payloads larger than max before storage.
func WithMaxPayloadBytes(max int) Option {
	return func(cfg Config) Config {
		cfg.MaxPayloadBytes = max
		return cfg
	}
}

// WithSQL selects a server database engine for the shelf driver.
func WithSQL(driverName, dsn string) Option {
	return func(cfg Config) Config {
		cfg.SQLDriverName = driverName
		cfg.SQLDSN = dsn
		return cfg
	}
}

// WithSQLTable overrides the base table name used by server shelf engines.
func WithSQLTable(table string) Option {
	return func(cfg Config) Config {
		cfg.SQLTable = table
		return cfg
	}
}

// WithRedisClient sets the redis client; required when using DriverRedis.
func WithRedisClient(client RedisClient) Option {
	return func(cfg Config) Config {
		cfg.RedisClient = client
		return cfg
	}
}

// WithDynamoClient sets the DynamoDB client used by DriverDynamo.
func WithDynamoClient(client DynamoAPI) Option {
	return func(cfg Config) Config {
		cfg.DynamoClient = client
		return cfg
	}
}

// WithDynamoTable overrides the DynamoDB table name.
func WithDynamoTable(table string) Option {
	return func(cfg Config) Config {
		cfg.DynamoTable = table
		return cfg
	}
}

// WithDynamoRegion sets the AWS region used when building a client.
func WithDynamoRegion(region string) Option {
	return func(cfg Config) Config {
		cfg.DynamoRegion = region
		return cfg
	}
}

// WithDynamoEndpoint points the client at a custom endpoint (e.g. a local
// DynamoDB).
func WithDynamoEndpoint(endpoint string) Option {
	return func(cfg Config) Config {
		cfg.DynamoEndpoint = endpoint
		return cfg
	}
}

// WithNATSKeyValue sets the JetStream key-value bucket; required when using
// DriverNATS.
func WithNATSKeyValue(kv NATSKeyValue) Option {
	return func(cfg Config) Config {
		cfg.NATSKeyValue = kv
		return cfg
	}
}
