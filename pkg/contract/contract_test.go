package contract

import (
	"bytes"
	"testing"

	"github.com/darkfi-core/engine/pkg/crypto"
)

func TestContractCallRoundTrip(t *testing.T) {
	want := ContractCall{
		ContractID: ContractId(crypto.BaseFromUint64(9)),
		Data:       []byte{0x01, 0xde, 0xad, 0xbe, 0xef},
	}

	var buf bytes.Buffer
	if err := EncodeContractCall(&buf, want); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := DecodeContractCall(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got.Data, want.Data) {
		t.Errorf("data mismatch: got %x, want %x", got.Data, want.Data)
	}
	sel, ok := got.Selector()
	if !ok || sel != 0x01 {
		t.Errorf("selector mismatch: got %d, ok=%v", sel, ok)
	}
}

func TestDarkLeafRoundTrip_Root(t *testing.T) {
	leaf := DarkLeaf[ContractCall]{
		Data:            ContractCall{ContractID: ContractId(crypto.BaseFromUint64(1)), Data: []byte{0x05}},
		ParentIndex:     nil,
		ChildrenIndexes: []uint64{1, 2},
	}

	var buf bytes.Buffer
	if err := EncodeDarkLeaf(&buf, leaf, EncodeContractCall); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeDarkLeaf(&buf, DecodeContractCall)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.IsRoot() {
		t.Errorf("expected decoded leaf to be a root")
	}
	if len(got.ChildrenIndexes) != 2 || got.ChildrenIndexes[0] != 1 || got.ChildrenIndexes[1] != 2 {
		t.Errorf("children mismatch: got %v", got.ChildrenIndexes)
	}
}

func TestDarkLeafRoundTrip_Child(t *testing.T) {
	parent := uint64(3)
	leaf := DarkLeaf[ContractCall]{
		Data:        ContractCall{ContractID: ContractId(crypto.BaseFromUint64(2)), Data: []byte{0x02}},
		ParentIndex: &parent,
	}

	var buf bytes.Buffer
	if err := EncodeDarkLeaf(&buf, leaf, EncodeContractCall); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeDarkLeaf(&buf, DecodeContractCall)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.IsRoot() {
		t.Errorf("expected decoded leaf to not be a root")
	}
	if *got.ParentIndex != parent {
		t.Errorf("parent index mismatch: got %d, want %d", *got.ParentIndex, parent)
	}
}

func TestErrorCodeString(t *testing.T) {
	if Success.String() != "SUCCESS" {
		t.Errorf("got %q", Success.String())
	}
	if ErrOutOfGas.String() != "OUT_OF_GAS" {
		t.Errorf("got %q", ErrOutOfGas.String())
	}
}
