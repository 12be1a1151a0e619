package funcache

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/nats-io/nats.go"
)

// NATSKeyValue captures the subset of nats.KeyValue used by the backend.
type NATSKeyValue interface {
	Get(key string) (nats.KeyValueEntry, error)
	Put(key string, value []byte) (uint64, error)
	Delete(key string, opts ...nats.DeleteOpt) error
	Purge(key string, opts ...nats.DeleteOpt) error
	ListKeys(opts ...nats.WatchOpt) (nats.KeyLister, error)
}

// natsBackend stores wire-form entries in a JetStream key-value bucket. Keys
// and namespaces are base64url-encoded because NATS subjects restrict the
// allowed character set.
type natsBackend struct {
	kv     NATSKeyValue
	prefix string
}

func newNATSBackend(kv NATSKeyValue, namespace string) Backend {
	return &natsBackend{
		kv:     kv,
		prefix: "n." + encodeNATSKeyPart(namespace) + ".k.",
	}
}

func (b *natsBackend) Driver() Driver { return DriverNATS }

func (b *natsBackend) Lookup(_ context.Context, key Key) (Entry, bool, error) {
	kvEntry, err := b.kv.Get(b.natsKey(key))
	if isNATSMiss(err) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, storageErr("lookup entry", err)
	}
	if kvEntry.Operation() == nats.KeyValueDelete || kvEntry.Operation() == nats.KeyValuePurge {
		return Entry{}, false, nil
	}
	entry, err := decodeEntry(kvEntry.Value())
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

func (b *natsBackend) Store(_ context.Context, key Key, entry Entry) error {
	if _, err := b.kv.Put(b.natsKey(key), entry.encode()); err != nil {
		return storageErr("store entry", err)
	}
	return nil
}

func (b *natsBackend) Delete(_ context.Context, key Key) error {
	err := b.kv.Delete(b.natsKey(key))
	if isNATSMiss(err) {
		return nil
	}
	if err != nil {
		return storageErr("delete entry", err)
	}
	return nil
}

func (b *natsBackend) Purge(_ context.Context) error {
	lister, err := b.kv.ListKeys(nats.IgnoreDeletes())
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil
		}
		return storageErr("purge namespace", err)
	}
	defer func() { _ = lister.Stop() }()

	for key := range lister.Keys() {
		if !strings.HasPrefix(key, b.prefix) {
			continue
		}
		if err := b.kv.Purge(key); err != nil && !isNATSMiss(err) {
			return storageErr("purge namespace", err)
		}
	}
	for err := range lister.Error() {
		if err != nil {
			return storageErr("purge namespace", err)
		}
	}
	return nil
}

func (b *natsBackend) Close() error { return nil }

func (b *natsBackend) natsKey(key Key) string {
	return b.prefix + encodeNATSKeyPart(string(key))
}

func isNATSMiss(err error) bool {
	return errors.Is(err, nats.ErrKeyNotFound) || errors.Is(err, nats.ErrKeyDeleted)
}

func encodeNATSKeyPart(part string) string {
	if part == "" {
		return "_"
	}
	return base64.RawURLEncoding.EncodeToString([]byte(part))
}
