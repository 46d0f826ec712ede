package zkas

import (
	"bytes"
	"testing"

	"github.com/darkfi-core/engine/pkg/crypto"
)

func sampleBinary() *Binary {
	return &Binary{
		K:         11,
		Namespace: "Mint",
		Witnesses: []VarType{VarBase, VarBase},
		Constants: []NamedConstant{{Name: "VALUE_COMMIT_RANDOM", Type: VarScalar}},
		Literals:  []crypto.Base{crypto.BaseFromUint64(7)},
		Opcodes: []Instruction{
			{Op: OpBaseAdd, Args: []uint32{0, 1}},       // produces heap index 4
			{Op: OpConstrainInstance, Args: []uint32{3}}, // exposes the literal
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := sampleBinary()
	var buf bytes.Buffer
	if err := want.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.K != want.K || got.Namespace != want.Namespace {
		t.Fatalf("header mismatch: got %+v", got)
	}
	if len(got.Opcodes) != len(want.Opcodes) {
		t.Fatalf("opcode count mismatch: got %d, want %d", len(got.Opcodes), len(want.Opcodes))
	}
	if got.HeapSize() != 5 {
		t.Fatalf("heap size mismatch: got %d, want 5", got.HeapSize())
	}
}

func TestDecodeRejectsUndefinedHeapIndex(t *testing.T) {
	b := sampleBinary()
	b.Opcodes[0].Args[1] = 99 // references a slot that doesn't exist yet

	var buf bytes.Buffer
	if err := b.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(&buf); err == nil {
		t.Fatalf("expected decode to reject undefined heap index")
	}
}

func TestDecodeRejectsBadArity(t *testing.T) {
	b := sampleBinary()
	b.Opcodes[0] = Instruction{Op: OpBaseAdd, Args: []uint32{0}} // BaseAdd needs 2 args

	var buf bytes.Buffer
	if err := b.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(&buf); err == nil {
		t.Fatalf("expected decode to reject wrong arity")
	}
}

func TestDecodeRejectsKOutOfRange(t *testing.T) {
	b := sampleBinary()
	b.K = 21

	var buf bytes.Buffer
	if err := b.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(&buf); err == nil {
		t.Fatalf("expected decode to reject k=21")
	}
}
