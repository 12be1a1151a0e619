package funcache

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultSQLDriverName = "sqlite"
	defaultSQLTable      = "funcache"
	defaultDynamoTable   = "funcache"
	defaultDynamoRegion  = "us-east-1"
)

func defaultDir() string {
	return filepath.Join(os.TempDir(), "funcache")
}

// Config controls how the facade opens namespace backends.
type Config struct {
	Driver Driver

	// Dir is where shelf files and file-backend directories live.
	Dir string

	// FailSilently converts storage and serialization errors into misses and
	// no-ops after they are recorded to the Sink. Config errors always
	// propagate.
	FailSilently bool

	// Sink receives one diagnostic record per cache-layer failure.
	Sink Sink

	// Observer receives an event after each facade operation.
	Observer Observer

	// Compression and MaxPayloadBytes shape entry payloads before storage.
	Compression     CompressionCodec
	MaxPayloadBytes int

	// SQLDriverName selects the shelf engine: "sqlite" (default, one store
	// file per namespace), "mysql", or "pgx" (one table per namespace,
	// SQLDSN required).
	SQLDriverName string
	SQLDSN        string
	SQLTable      string

	// RedisClient is required when DriverRedis is used.
	RedisClient RedisClient

	// DynamoClient is used when DriverDynamo is used; when nil a client is
	// built from DynamoRegion/DynamoEndpoint.
	DynamoClient   DynamoAPI
	DynamoTable    string
	DynamoRegion   string
	DynamoEndpoint string

	// NATSKeyValue is required when DriverNATS is used.
	NATSKeyValue NATSKeyValue
}

func (c Config) withDefaults() Config {
	if c.Driver == "" {
		c.Driver = DriverShelf
	}
	if c.Dir == "" {
		c.Dir = defaultDir()
	}
	if c.Sink == nil {
		c.Sink = discardSink{}
	}
	if c.SQLDriverName == "" {
		c.SQLDriverName = defaultSQLDriverName
	}
	if c.SQLTable == "" {
		c.SQLTable = defaultSQLTable
	}
	if c.DynamoTable == "" {
		c.DynamoTable = defaultDynamoTable
	}
	if c.DynamoRegion == "" {
		c.DynamoRegion = defaultDynamoRegion
	}
	return c
}

func (c Config) validate() error {
	switch c.Driver {
	case DriverShelf, DriverFile, DriverMemory, DriverRedis, DriverDynamo, DriverNATS:
	default:
		return configErr("unknown driver %q", c.Driver)
	}
	if c.Driver == DriverShelf && c.SQLDriverName != defaultSQLDriverName && c.SQLDSN == "" {
		return configErr("shelf driver %q requires a dsn", c.SQLDriverName)
	}
	return nil
}

var namespaceSanitizer = strings.NewReplacer(
	"<", "_lt_",
	">", "_gt_",
	"/", "_",
	"\\", "_",
	":", "_",
	"\x00", "_",
)

// sanitizeNamespace maps an opaque namespace identity to a filesystem-safe
// name. Namespaces derived from source paths commonly carry "<stdin>" style
// placeholders and separators.
func sanitizeNamespace(namespace string) string {
	return namespaceSanitizer.Replace(namespace)
}

// sqlIdent maps a namespace to an identifier-safe table suffix for server
// databases.
func sqlIdent(namespace string) string {
	var b strings.Builder
	for _, r := range namespace {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
