package consensus

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Encoder writes canonical encodings to an underlying stream.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

func (e *Encoder) PutBytes(b []byte) error {
	_, err := e.w.Write(b)
	return err
}

func (e *Encoder) PutU8(v uint8) error {
	return e.PutBytes([]byte{v})
}

func (e *Encoder) PutU16(v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return e.PutBytes(b[:])
}

func (e *Encoder) PutU32(v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return e.PutBytes(b[:])
}

func (e *Encoder) PutU64(v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return e.PutBytes(b[:])
}

// PutCompactSize writes a Bitcoin compact-size length: one byte below 0xFD,
// otherwise a marker byte followed by the value in 2, 4 or 8 little-endian
// bytes.
func (e *Encoder) PutCompactSize(n uint64) error {
	switch {
	case n < 0xFD:
		return e.PutU8(uint8(n))
	case n <= 0xFFFF:
		if err := e.PutU8(0xFD); err != nil {
			return err
		}
		return e.PutU16(uint16(n))
	case n <= 0xFFFFFFFF:
		if err := e.PutU8(0xFE); err != nil {
			return err
		}
		return e.PutU32(uint32(n))
	default:
		if err := e.PutU8(0xFF); err != nil {
			return err
		}
		return e.PutU64(n)
	}
}

// PutVarBytes writes a compact-size length prefix followed by the raw bytes.
func (e *Encoder) PutVarBytes(b []byte) error {
	if err := e.PutCompactSize(uint64(len(b))); err != nil {
		return err
	}
	return e.PutBytes(b)
}

// PutCanonical writes the length-prefixed canonical bytes of a leaf value.
func (e *Encoder) PutCanonical(v Canonical) error {
	return e.PutVarBytes(v.CanonicalBytes())
}

// Decoder reads canonical encodings from a byte slice.
type Decoder struct {
	buf []byte
	off int
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{buf: data}
}

// Remaining returns the number of unconsumed bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.off
}

// Bytes consumes and returns the next n bytes. The returned slice aliases
// the decoder input.
func (d *Decoder) Bytes(n int) ([]byte, error) {
	if d.Remaining() < n {
		return nil, fmt.Errorf("%w: need %d byte(s), have %d", ErrUnexpectedEnd, n, d.Remaining())
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) U8() (uint8, error) {
	b, err := d.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) U16() (uint16, error) {
	b, err := d.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) U32() (uint32, error) {
	b, err := d.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) U64() (uint64, error) {
	b, err := d.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) CompactSize() (uint64, error) {
	marker, err := d.U8()
	if err != nil {
		return 0, err
	}
	switch marker {
	case 0xFD:
		v, err := d.U16()
		return uint64(v), err
	case 0xFE:
		v, err := d.U32()
		return uint64(v), err
	case 0xFF:
		return d.U64()
	default:
		return uint64(marker), nil
	}
}

// VarBytes reads a compact-size length prefix and that many raw bytes. The
// returned slice is a copy.
func (d *Decoder) VarBytes() ([]byte, error) {
	n, err := d.CompactSize()
	if err != nil {
		return nil, err
	}
	if n > maxValueSize {
		return nil, fmt.Errorf("%w: %d", ErrOversizedValue, n)
	}
	b, err := d.Bytes(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// DecodeCanonical reads a length-prefixed value and hands the inner slice to
// fn. Decode hooks must reject slices they do not consume exactly.
func DecodeCanonical[T any](d *Decoder, fn func([]byte) (T, error)) (T, error) {
	b, err := d.VarBytes()
	if err != nil {
		var zero T
		return zero, err
	}
	return fn(b)
}
