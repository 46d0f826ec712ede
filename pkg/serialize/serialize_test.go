package serialize

import (
	"bytes"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	cases := []VarInt{0, 1, 252, 253, 254, 255, 256, 0xffff, 0x10000, 0xffffffff, 0x100000000, 1<<64 - 1}
	for _, v := range cases {
		var buf bytes.Buffer
		if err := EncodeVarInt(&buf, v); err != nil {
			t.Fatalf("encode %d: %v", v, err)
		}
		got, err := DecodeVarInt(&buf)
		if err != nil {
			t.Fatalf("decode %d: %v", v, err)
		}
		if got != v {
			t.Errorf("varint round trip mismatch: got %d, want %d", got, v)
		}
		if buf.Len() != 0 {
			t.Errorf("varint %d left %d trailing bytes", v, buf.Len())
		}
	}
}

func TestVarIntMinimalEncoding(t *testing.T) {
	// A value that fits in one byte but is encoded with the 3-byte marker
	// must be rejected as non-canonical.
	nonCanonical := []byte{varIntMarker16, 0x01, 0x00} // encodes 1, should be 1 byte
	_, err := DecodeVarInt(bytes.NewReader(nonCanonical))
	if err != ErrNonCanonical {
		t.Fatalf("expected ErrNonCanonical, got %v", err)
	}
}

func TestEncodeBytesRoundTrip(t *testing.T) {
	want := []byte("darkfi contract call payload")
	var buf bytes.Buffer
	if err := EncodeBytes(&buf, want); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeBytes(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("bytes round trip mismatch: got %x, want %x", got, want)
	}
}

func TestEncodeOptionRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeOption[uint32](&buf, nil, EncodeUint32); err != nil {
		t.Fatalf("encode none: %v", err)
	}
	got, err := DecodeOption(&buf, DecodeUint32)
	if err != nil {
		t.Fatalf("decode none: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil option, got %v", *got)
	}

	v := uint32(42)
	buf.Reset()
	if err := EncodeOption(&buf, &v, EncodeUint32); err != nil {
		t.Fatalf("encode some: %v", err)
	}
	got, err = DecodeOption(&buf, DecodeUint32)
	if err != nil {
		t.Fatalf("decode some: %v", err)
	}
	if got == nil || *got != v {
		t.Errorf("option round trip mismatch: got %v, want %d", got, v)
	}
}

func TestDecodeExactRejectsTrailingBytes(t *testing.T) {
	var buf bytes.Buffer
	_ = EncodeUint32(&buf, 7)
	b := append(buf.Bytes(), 0xff) // one trailing byte

	_, err := DecodeExact(b, DecodeUint32)
	if err != ErrTrailingBytes {
		t.Fatalf("expected ErrTrailingBytes, got %v", err)
	}
}

func TestEncodeSliceRoundTrip(t *testing.T) {
	want := []uint64{1, 2, 3, 4, 5}
	var buf bytes.Buffer
	if err := EncodeSlice(&buf, want, EncodeUint64); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeSlice(&buf, DecodeUint64)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d mismatch: got %d, want %d", i, got[i], want[i])
		}
	}
}
