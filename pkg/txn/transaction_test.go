package txn

import (
	"bytes"
	"testing"

	"github.com/darkfi-core/engine/pkg/contract"
	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/zkverify"
)

var feeContractID = contract.ContractId(crypto.BaseFromUint64(1))

func feeCall() contract.DarkLeaf[contract.ContractCall] {
	return contract.DarkLeaf[contract.ContractCall]{
		Data: contract.ContractCall{ContractID: feeContractID, Data: []byte{FeeSelector}},
	}
}

func userCall(parent uint64, children ...uint64) contract.DarkLeaf[contract.ContractCall] {
	p := parent
	return contract.DarkLeaf[contract.ContractCall]{
		Data:            contract.ContractCall{ContractID: contract.ContractId(crypto.BaseFromUint64(2)), Data: []byte{0x01}},
		ParentIndex:     &p,
		ChildrenIndexes: children,
	}
}

func TestWellFormedAcceptsSingleFeeCall(t *testing.T) {
	tx := Transaction{
		Calls:      []contract.DarkLeaf[contract.ContractCall]{feeCall()},
		Proofs:     [][]zkverify.Proof{nil},
		Signatures: [][]crypto.Signature{nil},
	}
	if err := tx.WellFormed(feeContractID); err != nil {
		t.Fatalf("WellFormed: %v", err)
	}
}

func TestWellFormedRejectsMissingFeeCall(t *testing.T) {
	root := contract.DarkLeaf[contract.ContractCall]{
		Data: contract.ContractCall{ContractID: contract.ContractId(crypto.BaseFromUint64(2)), Data: []byte{0x01}},
	}
	tx := Transaction{
		Calls:      []contract.DarkLeaf[contract.ContractCall]{root},
		Proofs:     [][]zkverify.Proof{nil},
		Signatures: [][]crypto.Signature{nil},
	}
	if err := tx.WellFormed(feeContractID); err == nil {
		t.Fatal("expected ErrFeeCallCount")
	}
}

func TestWellFormedRejectsBadParentIndex(t *testing.T) {
	bad := uint64(5)
	leaf := contract.DarkLeaf[contract.ContractCall]{
		Data:        contract.ContractCall{ContractID: contract.ContractId(crypto.BaseFromUint64(2))},
		ParentIndex: &bad,
	}
	tx := Transaction{
		Calls:      []contract.DarkLeaf[contract.ContractCall]{feeCall(), leaf},
		Proofs:     [][]zkverify.Proof{nil, nil},
		Signatures: [][]crypto.Signature{nil, nil},
	}
	if err := tx.WellFormed(feeContractID); err == nil {
		t.Fatal("expected ErrMalformedParentIndex")
	}
}

func TestWellFormedChecksChildrenIndexes(t *testing.T) {
	fee := feeCall()
	fee.ChildrenIndexes = []uint64{1}
	child := userCall(0)
	tx := Transaction{
		Calls:      []contract.DarkLeaf[contract.ContractCall]{fee, child},
		Proofs:     [][]zkverify.Proof{nil, nil},
		Signatures: [][]crypto.Signature{nil, nil},
	}
	if err := tx.WellFormed(feeContractID); err != nil {
		t.Fatalf("WellFormed: %v", err)
	}

	fee.ChildrenIndexes = nil
	tx.Calls[0] = fee
	if err := tx.WellFormed(feeContractID); err == nil {
		t.Fatal("expected ErrChildrenIndexesMismatch")
	}
}

func TestWellFormedRejectsLengthMismatch(t *testing.T) {
	tx := Transaction{
		Calls:      []contract.DarkLeaf[contract.ContractCall]{feeCall()},
		Proofs:     [][]zkverify.Proof{},
		Signatures: [][]crypto.Signature{nil},
	}
	if err := tx.WellFormed(feeContractID); err == nil {
		t.Fatal("expected ErrLengthMismatch")
	}
}

func TestSigningMessageIndependentOfSignatures(t *testing.T) {
	tx1 := Transaction{
		Calls:      []contract.DarkLeaf[contract.ContractCall]{feeCall()},
		Proofs:     [][]zkverify.Proof{nil},
		Signatures: [][]crypto.Signature{nil},
	}
	msg1, err := tx1.SigningMessage()
	if err != nil {
		t.Fatalf("SigningMessage: %v", err)
	}

	key, err := crypto.Sign(crypto.ScalarFromUint64(42), msg1)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tx2 := tx1
	tx2.Signatures = [][]crypto.Signature{{key}}
	msg2, err := tx2.SigningMessage()
	if err != nil {
		t.Fatalf("SigningMessage: %v", err)
	}
	if !bytes.Equal(msg1, msg2) {
		t.Fatal("signing message changed when signatures were populated")
	}

	hash1, err := tx1.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	hash2, err := tx2.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash1 != hash2 {
		t.Fatal("Hash changed when signatures were populated")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	fee := feeCall()
	fee.ChildrenIndexes = []uint64{1}
	child := userCall(0)
	tx := Transaction{
		Calls:      []contract.DarkLeaf[contract.ContractCall]{fee, child},
		Proofs:     [][]zkverify.Proof{nil, nil},
		Signatures: [][]crypto.Signature{nil, nil},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, tx); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Calls) != 2 {
		t.Fatalf("calls: got %d, want 2", len(got.Calls))
	}
	if got.Calls[1].ParentIndex == nil || *got.Calls[1].ParentIndex != 0 {
		t.Errorf("child parent index mismatch")
	}
}
