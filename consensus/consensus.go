/*
Package consensus implements the canonical binary encoding used by every
wire and commitment value in the protocol.

It is a thin, centralized primitive set: fixed-width little-endian integers,
one-byte discriminant tags, and compact-size length-prefixed byte strings.
Commitments are hashes of these encodings, so every rule lives here and
nowhere else.
*/
package consensus

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrUnknownType is returned when a one-byte discriminant does not match
	// any declared variant of the decoded type.
	ErrUnknownType = errors.New("unknown type discriminant")

	// ErrTrailingBytes is returned when a decode succeeds without consuming
	// the whole input.
	ErrTrailingBytes = errors.New("input not fully consumed")

	// ErrOversizedValue is returned when a length prefix exceeds the maximum
	// accepted allocation.
	ErrOversizedValue = errors.New("length prefix exceeds maximum value size")

	// ErrUnexpectedEnd is returned when the input ends before the value is
	// complete.
	ErrUnexpectedEnd = errors.New("unexpected end of input")
)

// Values larger than this cannot appear in any protocol message.
const maxValueSize = 1 << 24

// Encodable is implemented by composite types that write their canonical
// encoding to a stream.
type Encodable interface {
	ConsensusEncode(e *Encoder) error
}

// Canonical is implemented by leaf values (amounts, timelocks, keys, ...)
// whose canonical encoding is a pure function of the value.
type Canonical interface {
	CanonicalBytes() []byte
}

// Serialize returns the canonical encoding of v.
func Serialize(v Encodable) ([]byte, error) {
	var buf bytes.Buffer
	if err := v.ConsensusEncode(NewEncoder(&buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SerializeHex returns the canonical encoding of v as a lowercase hex string.
func SerializeHex(v Encodable) (string, error) {
	b, err := Serialize(v)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Deserialize runs fn over data and fails with ErrTrailingBytes unless fn
// consumed the input exactly.
func Deserialize[T any](data []byte, fn func(*Decoder) (T, error)) (T, error) {
	d := NewDecoder(data)
	v, err := fn(d)
	if err != nil {
		return v, err
	}
	if n := d.Remaining(); n != 0 {
		var zero T
		return zero, fmt.Errorf("%w: %d byte(s) left", ErrTrailingBytes, n)
	}
	return v, nil
}

// DeserializeHex decodes a hex string and runs Deserialize on the result.
func DeserializeHex[T any](s string, fn func(*Decoder) (T, error)) (T, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("decoding hex: %w", err)
	}
	return Deserialize(b, fn)
}

// Equal reports whether two canonical values have identical encodings. It is
// the equality every round-trip property is defined over.
func Equal(a, b Canonical) bool {
	return bytes.Equal(a.CanonicalBytes(), b.CanonicalBytes())
}
