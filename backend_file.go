package funcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
)

var (
	createTempFile = os.CreateTemp
	renameFile     = os.Rename
)

// fileBackend keeps one file per key inside a per-namespace directory. The
// filename is the hex SHA-256 digest of the key, so concurrent access to
// different keys never contends on a shared handle and multiple processes can
// safely touch distinct keys.
type fileBackend struct {
	dir string
}

func openFileBackend(namespace string, cfg Config) (Backend, error) {
	dir := filepath.Join(cfg.Dir, sanitizeNamespace(namespace)+".cache")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storageErr("open file backend", err)
	}
	return &fileBackend{dir: dir}, nil
}

func (b *fileBackend) Driver() Driver { return DriverFile }

func (b *fileBackend) Lookup(_ context.Context, key Key) (Entry, bool, error) {
	path := b.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Entry{}, false, nil
		}
		return Entry{}, false, storageErr("read entry", err)
	}
	entry, err := decodeEntry(data)
	if err != nil {
		// A crash mid-write leaves a partial file; drop it so the next Store
		// starts clean.
		_ = os.Remove(path)
		return Entry{}, false, err
	}
	return entry, true, nil
}

func (b *fileBackend) Store(_ context.Context, key Key, entry Entry) error {
	tmp, err := createTempFile(b.dir, "entry-*")
	if err != nil {
		return storageErr("create temp entry", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(entry.encode()); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return storageErr("write entry", err)
	}
	// Sync before rename so the entry survives a crash immediately after
	// Store returns.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return storageErr("sync entry", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return storageErr("close entry", err)
	}
	if err := renameFile(tmpPath, b.path(key)); err != nil {
		_ = os.Remove(tmpPath)
		return storageErr("rename entry", err)
	}
	return nil
}

func (b *fileBackend) Delete(_ context.Context, key Key) error {
	if err := os.Remove(b.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return storageErr("delete entry", err)
	}
	return nil
}

func (b *fileBackend) Purge(_ context.Context) error {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return storageErr("purge namespace", err)
	}
	for _, entry := range entries {
		_ = os.Remove(filepath.Join(b.dir, entry.Name()))
	}
	return nil
}

func (b *fileBackend) Close() error { return nil }

func (b *fileBackend) path(key Key) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(b.dir, hex.EncodeToString(sum[:]))
}
