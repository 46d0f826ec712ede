package serialize

import (
	"encoding/binary"
	"io"
)

// Encoder is implemented by any on-chain value that knows how to write its
// own canonical wire representation.
type Encoder interface {
	Encode(w io.Writer) error
}

// Decoder is implemented by any on-chain value that knows how to read its
// own canonical wire representation.
type Decoder interface {
	Decode(r io.Reader) error
}

// EncodeUint8 writes a single byte.
func EncodeUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

// EncodeUint16 writes v as 2 little-endian bytes.
func EncodeUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// EncodeUint32 writes v as 4 little-endian bytes.
func EncodeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// EncodeUint64 writes v as 8 little-endian bytes.
func EncodeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// EncodeBool writes v as a single 0/1 byte.
func EncodeBool(w io.Writer, v bool) error {
	if v {
		return EncodeUint8(w, 1)
	}
	return EncodeUint8(w, 0)
}

// EncodeBytes writes a VarInt length prefix followed by b.
func EncodeBytes(w io.Writer, b []byte) error {
	if err := EncodeVarInt(w, VarInt(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// EncodeString writes a VarInt length prefix followed by the UTF-8 bytes of s.
func EncodeString(w io.Writer, s string) error {
	return EncodeBytes(w, []byte(s))
}

// EncodeFixed writes b verbatim with no length prefix. Used for fixed-size
// values such as 32-byte field elements and hashes.
func EncodeFixed(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	return err
}

// EncodeSlice writes a VarInt length prefix followed by each element encoded
// by enc, in order.
func EncodeSlice[T any](w io.Writer, items []T, enc func(io.Writer, T) error) error {
	if err := EncodeVarInt(w, VarInt(len(items))); err != nil {
		return err
	}
	for _, item := range items {
		if err := enc(w, item); err != nil {
			return err
		}
	}
	return nil
}

// EncodeOption writes 0 for a nil value, or 1 followed by enc(*v) otherwise.
func EncodeOption[T any](w io.Writer, v *T, enc func(io.Writer, T) error) error {
	if v == nil {
		return EncodeUint8(w, 0)
	}
	if err := EncodeUint8(w, 1); err != nil {
		return err
	}
	return enc(w, *v)
}
