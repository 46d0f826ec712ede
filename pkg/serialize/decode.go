package serialize

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DecodeUint8 reads a single byte.
func DecodeUint8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("serialize: decode uint8: %w", err)
	}
	return buf[0], nil
}

// DecodeUint16 reads 2 little-endian bytes.
func DecodeUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("serialize: decode uint16: %w", err)
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// DecodeUint32 reads 4 little-endian bytes.
func DecodeUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("serialize: decode uint32: %w", err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// DecodeUint64 reads 8 little-endian bytes.
func DecodeUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("serialize: decode uint64: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// DecodeBool reads a single 0/1 byte.
func DecodeBool(r io.Reader) (bool, error) {
	v, err := DecodeUint8(r)
	if err != nil {
		return false, err
	}
	if v > 1 {
		return false, fmt.Errorf("serialize: decode bool: invalid byte %d", v)
	}
	return v == 1, nil
}

// DecodeBytes reads a VarInt length prefix followed by that many bytes.
func DecodeBytes(r io.Reader) ([]byte, error) {
	n, err := DecodeVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("serialize: decode bytes length: %w", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("serialize: decode bytes body: %w", err)
	}
	return buf, nil
}

// DecodeString reads a VarInt length prefix followed by that many UTF-8 bytes.
func DecodeString(r io.Reader) (string, error) {
	b, err := DecodeBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeFixed reads exactly len(buf) bytes into buf with no length prefix.
func DecodeFixed(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("serialize: decode fixed[%d]: %w", len(buf), err)
	}
	return nil
}

// DecodeSlice reads a VarInt length prefix followed by that many elements,
// each decoded by dec.
func DecodeSlice[T any](r io.Reader, dec func(io.Reader) (T, error)) ([]T, error) {
	n, err := DecodeVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("serialize: decode slice length: %w", err)
	}
	items := make([]T, 0, n)
	for i := VarInt(0); i < n; i++ {
		item, err := dec(r)
		if err != nil {
			return nil, fmt.Errorf("serialize: decode slice element %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// DecodeOption reads a discriminant byte and, if 1, one value decoded by dec.
func DecodeOption[T any](r io.Reader, dec func(io.Reader) (T, error)) (*T, error) {
	tag, err := DecodeUint8(r)
	if err != nil {
		return nil, fmt.Errorf("serialize: decode option tag: %w", err)
	}
	switch tag {
	case 0:
		return nil, nil
	case 1:
		v, err := dec(r)
		if err != nil {
			return nil, err
		}
		return &v, nil
	default:
		return nil, fmt.Errorf("serialize: decode option: invalid tag %d", tag)
	}
}

// DecodeExact decodes v from b using dec and returns ErrTrailingBytes if b
// has bytes remaining afterwards. Used for structures with no containing
// wrapper, where any leftover byte is a protocol violation.
func DecodeExact[T any](b []byte, dec func(io.Reader) (T, error)) (T, error) {
	r := newCountingReader(b)
	v, err := dec(r)
	if err != nil {
		var zero T
		return zero, err
	}
	if r.remaining() > 0 {
		var zero T
		return zero, ErrTrailingBytes
	}
	return v, nil
}
