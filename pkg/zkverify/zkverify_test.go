package zkverify

import (
	"testing"

	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/zkas"
)

func additionBinary() *zkas.Binary {
	return &zkas.Binary{
		K:         6,
		Namespace: "Addition",
		Witnesses: []zkas.VarType{zkas.VarBase, zkas.VarBase},
		Opcodes: []zkas.Instruction{
			{Op: zkas.OpBaseAdd, Args: []uint32{0, 1}},
			{Op: zkas.OpConstrainInstance, Args: []uint32{2}},
		},
	}
}

func TestNewCircuitShape(t *testing.T) {
	b := additionBinary()
	c, err := NewCircuit(b)
	if err != nil {
		t.Fatalf("NewCircuit: %v", err)
	}
	if len(c.Private) != 2 {
		t.Errorf("private width: got %d, want 2", len(c.Private))
	}
	if len(c.Public) != 1 {
		t.Errorf("public width: got %d, want 1", len(c.Public))
	}
}

func TestAssignWitnessRejectsWrongCount(t *testing.T) {
	b := additionBinary()
	c, err := NewCircuit(b)
	if err != nil {
		t.Fatalf("NewCircuit: %v", err)
	}
	err = c.AssignWitness(
		[]WitnessValue{crypto.BaseFromUint64(1)}, // only one of two witnesses
		nil,
		[]crypto.Base{crypto.BaseFromUint64(3)},
	)
	if err == nil {
		t.Fatal("expected an error for a short witness list")
	}
}

func TestAssignWitnessRejectsWrongPublicCount(t *testing.T) {
	b := additionBinary()
	c, err := NewCircuit(b)
	if err != nil {
		t.Fatalf("NewCircuit: %v", err)
	}
	err = c.AssignWitness(
		[]WitnessValue{crypto.BaseFromUint64(1), crypto.BaseFromUint64(2)},
		nil,
		nil, // missing the one public value ConstrainInstance expects
	)
	if err == nil {
		t.Fatal("expected an error for a missing public input")
	}
}

func TestAssignWitnessAcceptsMatchingShape(t *testing.T) {
	b := additionBinary()
	c, err := NewCircuit(b)
	if err != nil {
		t.Fatalf("NewCircuit: %v", err)
	}
	err = c.AssignWitness(
		[]WitnessValue{crypto.BaseFromUint64(1), crypto.BaseFromUint64(2)},
		nil,
		[]crypto.Base{crypto.BaseFromUint64(3)},
	)
	if err != nil {
		t.Fatalf("AssignWitness: %v", err)
	}
}

func TestCircuitGasAddition(t *testing.T) {
	b := additionBinary()
	// 2 Base witnesses (10 each) + BaseAdd (15) + ConstrainInstance (10).
	want := uint64(10 + 10 + 15 + 10)
	if got := CircuitGas(b); got != want {
		t.Errorf("gas: got %d, want %d", got, want)
	}
}

func TestCircuitGasMerklePathWitness(t *testing.T) {
	b := &zkas.Binary{
		Witnesses: make([]zkas.VarType, 1),
	}
	// A single MerklePath witness already costs 10*32 = 320; this just
	// exercises that large-but-ordinary binaries don't trip the saturation
	// path, and that CircuitGas is a pure function of the binary's shape.
	b.Witnesses[0] = zkas.VarMerklePath
	if got := CircuitGas(b); got != 10*32 {
		t.Errorf("gas: got %d, want %d", got, 10*32)
	}
}

func TestCircuitGasPoseidonScalesWithInputCount(t *testing.T) {
	b := &zkas.Binary{
		Witnesses: []zkas.VarType{zkas.VarBase, zkas.VarBase, zkas.VarBase},
		Opcodes: []zkas.Instruction{
			{Op: zkas.OpPoseidonHash, Args: []uint32{0, 1, 2}},
		},
	}
	want := uint64(10*3) + (20 + 10*3)
	if got := CircuitGas(b); got != want {
		t.Errorf("gas: got %d, want %d", got, want)
	}
}
