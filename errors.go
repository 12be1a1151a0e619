package funcache

import (
	"errors"
	"fmt"
)

// Error taxonomy. Backends wrap their I/O failures in ErrStorage and the key
// and value codecs wrap encoding failures in ErrSerialization, so callers can
// select with errors.Is regardless of which backend is active. A missing key
// is never an error.
var (
	// ErrSerialization marks an argument or value that cannot be turned into
	// a durable representation.
	ErrSerialization = errors.New("funcache: serialization failed")

	// ErrStorage marks an I/O failure opening, reading, or writing a backend.
	ErrStorage = errors.New("funcache: storage failure")

	// ErrCorruptEntry marks a stored record that no longer decodes. It wraps
	// ErrStorage.
	ErrCorruptEntry = fmt.Errorf("%w: corrupt entry", ErrStorage)

	// ErrConfig marks an invalid validity window, namespace, or setup value.
	// ErrConfig is never converted to a miss by fail-silently mode.
	ErrConfig = errors.New("funcache: invalid configuration")
)

var errMissingClient = errors.New("client unavailable")

func serializationErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSerialization) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrSerialization, err)
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}

func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
