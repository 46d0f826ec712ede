// Package serialize implements the engine's canonical, byte-stable wire
// encoding. Every on-chain value (blocks, transactions, contract calls,
// field elements, Merkle nodes) round-trips byte-exactly through the
// functions in this package; nothing here depends on reflection or a
// self-describing format like JSON, because the wire format is
// consensus-critical.
package serialize

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrTrailingBytes is returned by decoders of fixed-size structures when the
// input stream has more bytes than the structure consumes.
var ErrTrailingBytes = errors.New("serialize: trailing bytes after decode")

// ErrNonCanonical is returned by DecodeVarInt when a VarInt was encoded
// using more bytes than its canonical minimal form requires.
var ErrNonCanonical = errors.New("serialize: non-canonical encoding")

// VarInt is a length/count prefix using Bitcoin-style CompactSize framing:
// values below 0xfd encode as a single byte; 0xfd/0xfe/0xff markers select a
// 2/4/8-byte little-endian payload. Decoding rejects encodings that could
// have used a shorter form.
type VarInt uint64

const (
	varIntMarker16 = 0xfd
	varIntMarker32 = 0xfe
	varIntMarker64 = 0xff
)

// EncodeVarInt writes v to w using the minimal CompactSize form.
func EncodeVarInt(w io.Writer, v VarInt) error {
	switch {
	case v < varIntMarker16:
		_, err := w.Write([]byte{byte(v)})
		return err
	case v <= 0xffff:
		buf := make([]byte, 3)
		buf[0] = varIntMarker16
		binary.LittleEndian.PutUint16(buf[1:], uint16(v))
		_, err := w.Write(buf)
		return err
	case v <= 0xffffffff:
		buf := make([]byte, 5)
		buf[0] = varIntMarker32
		binary.LittleEndian.PutUint32(buf[1:], uint32(v))
		_, err := w.Write(buf)
		return err
	default:
		buf := make([]byte, 9)
		buf[0] = varIntMarker64
		binary.LittleEndian.PutUint64(buf[1:], uint64(v))
		_, err := w.Write(buf)
		return err
	}
}

// DecodeVarInt reads a VarInt from r, rejecting non-minimal encodings.
func DecodeVarInt(r io.Reader) (VarInt, error) {
	var marker [1]byte
	if _, err := io.ReadFull(r, marker[:]); err != nil {
		return 0, fmt.Errorf("serialize: read varint marker: %w", err)
	}

	switch marker[0] {
	case varIntMarker16:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, fmt.Errorf("serialize: read varint16: %w", err)
		}
		v := binary.LittleEndian.Uint16(buf[:])
		if v < varIntMarker16 {
			return 0, ErrNonCanonical
		}
		return VarInt(v), nil
	case varIntMarker32:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, fmt.Errorf("serialize: read varint32: %w", err)
		}
		v := binary.LittleEndian.Uint32(buf[:])
		if v <= 0xffff {
			return 0, ErrNonCanonical
		}
		return VarInt(v), nil
	case varIntMarker64:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, fmt.Errorf("serialize: read varint64: %w", err)
		}
		v := binary.LittleEndian.Uint64(buf[:])
		if v <= 0xffffffff {
			return 0, ErrNonCanonical
		}
		return VarInt(v), nil
	default:
		return VarInt(marker[0]), nil
	}
}
