package funcache

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Key is the canonical byte identity of one (computation, arguments) pair.
// It is byte-safe: usable directly as a store key and as digest input for
// filename derivation.
type Key string

// EncodeKey derives a Key from a computation identity and its arguments.
// Equal (identity, args, kwargs) tuples always produce the same Key: the
// msgpack encoder sorts map keys, so keyword argument order at the call site
// never changes the result. Each component is framed by the encoding, so
// identities cannot collide by concatenation.
//
// Values that msgpack cannot encode (funcs, channels, cyclic structures)
// yield an error matching ErrSerialization.
func EncodeKey(identity string, args []any, kwargs map[string]any) (Key, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.EncodeString(identity); err != nil {
		return "", serializationErr(err)
	}
	if err := enc.Encode(args); err != nil {
		return "", serializationErr(err)
	}
	if err := enc.Encode(kwargs); err != nil {
		return "", serializationErr(err)
	}
	return Key(buf.Bytes()), nil
}
