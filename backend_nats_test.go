package funcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

type stubNATSKeyValue struct {
	entries map[string]*stubNATSEntry
	rev     uint64

	getErr   error
	putErr   error
	delErr   error
	purgeErr error
	listErr  error
}

func newStubNATSKeyValue() *stubNATSKeyValue {
	return &stubNATSKeyValue{entries: make(map[string]*stubNATSEntry)}
}

func (s *stubNATSKeyValue) Get(key string) (nats.KeyValueEntry, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	entry, ok := s.entries[key]
	if !ok {
		return nil, nats.ErrKeyNotFound
	}
	if entry.op == nats.KeyValueDelete || entry.op == nats.KeyValuePurge {
		return nil, nats.ErrKeyDeleted
	}
	return entry, nil
}

func (s *stubNATSKeyValue) Put(key string, value []byte) (uint64, error) {
	if s.putErr != nil {
		return 0, s.putErr
	}
	s.rev++
	s.entries[key] = &stubNATSEntry{
		key:      key,
		value:    cloneBytes(value),
		revision: s.rev,
		created:  time.Now(),
		op:       nats.KeyValuePut,
	}
	return s.rev, nil
}

func (s *stubNATSKeyValue) Delete(key string, _ ...nats.DeleteOpt) error {
	if s.delErr != nil {
		return s.delErr
	}
	if _, ok := s.entries[key]; !ok {
		return nats.ErrKeyNotFound
	}
	s.rev++
	s.entries[key] = &stubNATSEntry{key: key, revision: s.rev, created: time.Now(), op: nats.KeyValueDelete}
	return nil
}

func (s *stubNATSKeyValue) Purge(key string, _ ...nats.DeleteOpt) error {
	if s.purgeErr != nil {
		return s.purgeErr
	}
	delete(s.entries, key)
	return nil
}

func (s *stubNATSKeyValue) ListKeys(_ ...nats.WatchOpt) (nats.KeyLister, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	keysCh := make(chan string, len(s.entries))
	for key, entry := range s.entries {
		if entry.op == nats.KeyValuePut {
			keysCh <- key
		}
	}
	close(keysCh)
	errCh := make(chan error)
	close(errCh)
	return &stubNATSKeyLister{keysCh: keysCh, errCh: errCh}, nil
}

type stubNATSEntry struct {
	key      string
	value    []byte
	revision uint64
	created  time.Time
	op       nats.KeyValueOp
}

func (e *stubNATSEntry) Bucket() string             { return "funcache" }
func (e *stubNATSEntry) Key() string                { return e.key }
func (e *stubNATSEntry) Value() []byte              { return cloneBytes(e.value) }
func (e *stubNATSEntry) Revision() uint64           { return e.revision }
func (e *stubNATSEntry) Created() time.Time         { return e.created }
func (e *stubNATSEntry) Delta() uint64              { return 0 }
func (e *stubNATSEntry) Operation() nats.KeyValueOp { return e.op }

type stubNATSKeyLister struct {
	keysCh chan string
	errCh  chan error
}

func (l *stubNATSKeyLister) Keys() <-chan string { return l.keysCh }
func (l *stubNATSKeyLister) Error() <-chan error { return l.errCh }
func (l *stubNATSKeyLister) Stop() error         { return nil }

func TestNATSBackendRoundTrip(t *testing.T) {
	backend := newNATSBackend(newStubNATSKeyValue(), "rates")
	ctx := context.Background()
	wrote := time.Unix(0, 1700000000000000000)

	if err := backend.Store(ctx, "k", Entry{WrittenAt: wrote, Payload: []byte("v")}); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	entry, found, err := backend.Lookup(ctx, "k")
	if err != nil || !found {
		t.Fatalf("unexpected lookup: found=%v err=%v", found, err)
	}
	if string(entry.Payload) != "v" || !entry.WrittenAt.Equal(wrote) {
		t.Fatalf("entry mismatch: %q %v", entry.Payload, entry.WrittenAt)
	}
}

func TestNATSBackendMissAndDelete(t *testing.T) {
	backend := newNATSBackend(newStubNATSKeyValue(), "rates")
	ctx := context.Background()

	if _, found, err := backend.Lookup(ctx, "missing"); err != nil || found {
		t.Fatalf("expected clean miss: found=%v err=%v", found, err)
	}
	if err := backend.Delete(ctx, "missing"); err != nil {
		t.Fatalf("delete missing should not error: %v", err)
	}
}

func TestNATSBackendDeletedKeyIsMiss(t *testing.T) {
	kv := newStubNATSKeyValue()
	backend := newNATSBackend(kv, "rates")
	ctx := context.Background()

	if err := backend.Store(ctx, "k", Entry{WrittenAt: time.Unix(1, 0), Payload: []byte("v")}); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := backend.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, found, err := backend.Lookup(ctx, "k"); err != nil || found {
		t.Fatalf("delete marker must read as miss: found=%v err=%v", found, err)
	}
}

func TestNATSBackendBinaryKeysAreEncoded(t *testing.T) {
	kv := newStubNATSKeyValue()
	backend := newNATSBackend(kv, "bin")
	ctx := context.Background()
	key := Key([]byte{0x00, '.', '*', '>', 0xff})

	if err := backend.Store(ctx, key, Entry{WrittenAt: time.Unix(1, 0), Payload: []byte("v")}); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	for stored := range kv.entries {
		for _, c := range stored {
			if c == '*' || c == '>' || c == 0 {
				t.Fatalf("raw key bytes leaked into subject: %q", stored)
			}
		}
	}
	if _, found, err := backend.Lookup(ctx, key); err != nil || !found {
		t.Fatalf("binary key round trip failed: found=%v err=%v", found, err)
	}
}

func TestNATSBackendPurgeOnlyOwnNamespace(t *testing.T) {
	kv := newStubNATSKeyValue()
	first := newNATSBackend(kv, "ns1")
	second := newNATSBackend(kv, "ns2")
	ctx := context.Background()

	if err := first.Store(ctx, "a", Entry{WrittenAt: time.Unix(1, 0), Payload: []byte("1")}); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := second.Store(ctx, "b", Entry{WrittenAt: time.Unix(1, 0), Payload: []byte("2")}); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := first.Purge(ctx); err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if _, found, _ := first.Lookup(ctx, "a"); found {
		t.Fatalf("expected ns1 purged")
	}
	if _, found, _ := second.Lookup(ctx, "b"); !found {
		t.Fatalf("ns2 must be untouched by ns1 purge")
	}
}

func TestNATSBackendPurgeEmptyBucket(t *testing.T) {
	kv := newStubNATSKeyValue()
	kv.listErr = nats.ErrNoKeysFound
	backend := newNATSBackend(kv, "ns")
	if err := backend.Purge(context.Background()); err != nil {
		t.Fatalf("empty bucket purge should succeed: %v", err)
	}
}

func TestNATSBackendErrorsAreStorageErrors(t *testing.T) {
	kv := newStubNATSKeyValue()
	kv.getErr = errors.New("no responders")
	backend := newNATSBackend(kv, "ns")

	if _, _, err := backend.Lookup(context.Background(), "k"); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}

	kv.getErr = nil
	kv.putErr = errors.New("stream offline")
	if err := backend.Store(context.Background(), "k", Entry{WrittenAt: time.Unix(1, 0)}); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestNATSBackendCorruptValue(t *testing.T) {
	kv := newStubNATSKeyValue()
	backend := newNATSBackend(kv, "ns")
	ctx := context.Background()

	if err := backend.Store(ctx, "k", Entry{WrittenAt: time.Unix(1, 0), Payload: []byte("v")}); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	for _, entry := range kv.entries {
		entry.value = []byte("garbage")
	}

	_, found, err := backend.Lookup(ctx, "k")
	if found || !errors.Is(err, ErrCorruptEntry) {
		t.Fatalf("expected corrupt entry error: found=%v err=%v", found, err)
	}
}
