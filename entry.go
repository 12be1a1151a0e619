package funcache

import (
	"bytes"
	"encoding/binary"
	"time"
)

var entryMagic = []byte("FCE1")

// Entry is one stored cache record: an opaque payload plus the time it was
// written. Entries are immutable once stored; a later Store for the same key
// fully replaces the prior entry.
type Entry struct {
	WrittenAt time.Time
	Payload   []byte
}

// ValidAt reports whether the entry is still usable at now under the given
// window. The boundary is exclusive: an entry whose age equals the window is
// already stale.
func (e Entry) ValidAt(now time.Time, w Validity) bool {
	if w.forever {
		return true
	}
	return now.Sub(e.WrittenAt) < w.window
}

// encode renders the entry wire form: 4-byte magic, 8-byte big-endian
// unix-nano write time, then the payload.
func (e Entry) encode() []byte {
	out := make([]byte, 12+len(e.Payload))
	copy(out[:4], entryMagic)
	binary.BigEndian.PutUint64(out[4:12], uint64(e.WrittenAt.UnixNano()))
	copy(out[12:], e.Payload)
	return out
}

// decodeEntry parses the wire form produced by encode. Anything else is a
// corrupt record.
func decodeEntry(data []byte) (Entry, error) {
	if len(data) < 12 || !bytes.Equal(data[:4], entryMagic) {
		return Entry{}, ErrCorruptEntry
	}
	writtenAt := time.Unix(0, int64(binary.BigEndian.Uint64(data[4:12])))
	return Entry{WrittenAt: writtenAt, Payload: cloneBytes(data[12:])}, nil
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	clone := make([]byte, len(value))
	copy(clone, value)
	return clone
}
