package funcache

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestEntryEncodeDecodeRoundTrip(t *testing.T) {
	wrote := time.Unix(0, 1741000000123456789)
	entry := Entry{WrittenAt: wrote, Payload: []byte("payload")}

	decoded, err := decodeEntry(entry.encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !decoded.WrittenAt.Equal(wrote) {
		t.Fatalf("write time mismatch: %v vs %v", decoded.WrittenAt, wrote)
	}
	if !bytes.Equal(decoded.Payload, []byte("payload")) {
		t.Fatalf("payload mismatch: %q", decoded.Payload)
	}
}

func TestEntryDecodeEmptyPayload(t *testing.T) {
	entry := Entry{WrittenAt: time.Unix(100, 0)}
	decoded, err := decodeEntry(entry.encode())
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded.Payload) != 0 {
		t.Fatalf("expected empty payload, got %q", decoded.Payload)
	}
}

func TestEntryDecodeCorrupt(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("short"), []byte("XXXX12345678payload")} {
		_, err := decodeEntry(data)
		if !errors.Is(err, ErrCorruptEntry) {
			t.Fatalf("expected ErrCorruptEntry for %q, got %v", data, err)
		}
		if !errors.Is(err, ErrStorage) {
			t.Fatalf("corrupt entry should be a storage error")
		}
	}
}
