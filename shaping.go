package funcache

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
)

// CompressionCodec represents a payload compression algorithm.
type CompressionCodec uint8

const (
	CompressionNone CompressionCodec = iota
	CompressionGzip
)

var (
	compressMagic = []byte("FCZ1")

	ErrPayloadTooLarge  = errors.New("funcache: payload exceeds max size")
	ErrUnsupportedCodec = errors.New("funcache: unsupported compression codec")
	// ErrCorruptPayload wraps ErrStorage: a stored compressed payload that no
	// longer inflates is corrupt data, not a caller mistake.
	ErrCorruptPayload = fmt.Errorf("%w: corrupt compressed payload", ErrStorage)
)

// shapingBackend enforces payload shaping (compression, size limits)
// transparently on top of any concrete Backend.
type shapingBackend struct {
	inner Backend
	codec CompressionCodec
	max   int
}

func newShapingBackend(inner Backend, codec CompressionCodec, max int) Backend {
	if codec == CompressionNone && max <= 0 {
		return inner
	}
	return &shapingBackend{inner: inner, codec: codec, max: max}
}

func (s *shapingBackend) Driver() Driver { return s.inner.Driver() }

func (s *shapingBackend) Lookup(ctx context.Context, key Key) (Entry, bool, error) {
	entry, found, err := s.inner.Lookup(ctx, key)
	if err != nil || !found {
		return entry, found, err
	}
	payload, err := decodePayload(entry.Payload)
	if err != nil {
		return Entry{}, false, err
	}
	entry.Payload = payload
	return entry, true, nil
}

func (s *shapingBackend) Store(ctx context.Context, key Key, entry Entry) error {
	payload, err := encodePayload(s.codec, s.max, entry.Payload)
	if err != nil {
		return err
	}
	entry.Payload = payload
	return s.inner.Store(ctx, key, entry)
}

func (s *shapingBackend) Delete(ctx context.Context, key Key) error {
	return s.inner.Delete(ctx, key)
}

func (s *shapingBackend) Purge(ctx context.Context) error {
	return s.inner.Purge(ctx)
}

func (s *shapingBackend) Close() error { return s.inner.Close() }

func encodePayload(codec CompressionCodec, max int, payload []byte) ([]byte, error) {
	if max > 0 && len(payload) > max {
		return nil, ErrPayloadTooLarge
	}
	switch codec {
	case CompressionNone:
		return payload, nil
	case CompressionGzip:
		var buf bytes.Buffer
		buf.Write(compressMagic)
		_ = buf.WriteByte('g')
		zw, _ := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
		if _, err := zw.Write(payload); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		out := buf.Bytes()
		if max > 0 && len(out) > max {
			return nil, ErrPayloadTooLarge
		}
		return out, nil
	default:
		return nil, ErrUnsupportedCodec
	}
}

func decodePayload(in []byte) ([]byte, error) {
	if len(in) < len(compressMagic)+1 {
		return in, nil
	}
	if !bytes.Equal(in[:len(compressMagic)], compressMagic) {
		return in, nil
	}
	codec := in[len(compressMagic)]
	payload := in[len(compressMagic)+1:]
	switch codec {
	case 'g':
		zr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, ErrCorruptPayload
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, ErrCorruptPayload
		}
		return out, nil
	default:
		return nil, ErrUnsupportedCodec
	}
}
