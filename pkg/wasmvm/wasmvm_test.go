package wasmvm

import (
	"bytes"
	"testing"

	"github.com/darkfi-core/engine/pkg/contract"
	"github.com/darkfi-core/engine/pkg/crypto"
)

func TestGasMeterChargesAndExhausts(t *testing.T) {
	g := NewGasMeter(10)
	if err := g.Charge(4); err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if g.Remaining() != 6 {
		t.Errorf("remaining: got %d, want 6", g.Remaining())
	}
	if err := g.Charge(7); err == nil {
		t.Fatal("expected ErrOutOfGas")
	}
	if g.Remaining() != 0 {
		t.Errorf("remaining after exhaustion: got %d, want 0", g.Remaining())
	}
}

func TestSectionPermissions(t *testing.T) {
	cases := []struct {
		section Section
		call    string
		want    bool
	}{
		{SectionDeploy, "zkas_db_set", true},
		{SectionMetadata, "zkas_db_set", false},
		{SectionExec, "tx_local_append_coin", true},
		{SectionUpdate, "tx_local_append_coin", false},
		{SectionMetadata, "db_set", false},
		{SectionUpdate, "db_set", true},
		{SectionExec, "merkle_add", false},
		{SectionUpdate, "merkle_add", true},
		{SectionExec, "sparse_merkle_insert_batch", false},
		{SectionUpdate, "sparse_merkle_insert_batch", true},
	}
	for _, c := range cases {
		if got := permitted(c.section, c.call); got != c.want {
			t.Errorf("permitted(%v, %q) = %v, want %v", c.section, c.call, got, c.want)
		}
	}
}

func TestExecArgsRoundTrip(t *testing.T) {
	leaf := contract.DarkLeaf[contract.ContractCall]{
		Data: contract.ContractCall{
			ContractID: contract.ContractId(crypto.BaseFromUint64(7)),
			Data:       []byte{0x01},
		},
	}
	want := ExecArgs{Calls: []contract.DarkLeaf[contract.ContractCall]{leaf}, CallIdx: 3}

	var buf bytes.Buffer
	if err := EncodeExecArgs(&buf, want); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeExecArgs(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.CallIdx != want.CallIdx {
		t.Errorf("call idx: got %d, want %d", got.CallIdx, want.CallIdx)
	}
	if len(got.Calls) != 1 || !bytes.Equal(got.Calls[0].Data.Data, []byte{0x01}) {
		t.Errorf("calls mismatch: got %+v", got.Calls)
	}
}

func TestUpdateArgsRoundTrip(t *testing.T) {
	want := UpdateArgs{
		ContractID: contract.ContractId(crypto.BaseFromUint64(5)),
		UpdateData: []byte{0x01, 0x02, 0x03},
	}
	var buf bytes.Buffer
	if err := EncodeUpdateArgs(&buf, want); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeUpdateArgs(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got.UpdateData, want.UpdateData) {
		t.Errorf("update data mismatch: got %x, want %x", got.UpdateData, want.UpdateData)
	}
}

func TestDeployArgsRoundTrip(t *testing.T) {
	want := DeployArgs{
		ContractID: contract.ContractId(crypto.BaseFromUint64(99)),
		Payload:    []byte{0xaa, 0xbb},
	}
	var buf bytes.Buffer
	if err := EncodeDeployArgs(&buf, want); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeDeployArgs(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(got.Payload, want.Payload) {
		t.Errorf("payload mismatch: got %x, want %x", got.Payload, want.Payload)
	}
}
