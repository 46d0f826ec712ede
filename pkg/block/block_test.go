package block

import (
	"bytes"
	"context"
	"testing"

	"github.com/darkfi-core/engine/pkg/contract"
	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/merkletree"
	"github.com/darkfi-core/engine/pkg/store"
	"github.com/darkfi-core/engine/pkg/txn"
	"github.com/darkfi-core/engine/pkg/validator"
	"github.com/darkfi-core/engine/pkg/zkverify"
)

// memKV is a trivial in-memory store.KVStore, mirroring pkg/store's own test
// helper so these tests don't need a goleveldb file on disk.
type memKV struct {
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: make(map[string][]byte)} }

func (m *memKV) Get(key []byte) ([]byte, error) {
	v, ok := m.data[string(key)]
	if !ok {
		return nil, nil
	}
	return v, nil
}
func (m *memKV) Has(key []byte) (bool, error) { _, ok := m.data[string(key)]; return ok, nil }
func (m *memKV) Set(key, value []byte) error  { m.data[string(key)] = value; return nil }
func (m *memKV) Delete(key []byte) error      { delete(m.data, string(key)); return nil }
func (m *memKV) Close() error                 { return nil }
func (m *memKV) NewBatch() store.KVBatch      { return &memBatch{kv: m} }

type memOp struct {
	key     []byte
	value   []byte
	deleted bool
}
type memBatch struct {
	kv  *memKV
	ops []memOp
}

func (b *memBatch) Set(key, value []byte) { b.ops = append(b.ops, memOp{key: key, value: value}) }
func (b *memBatch) Delete(key []byte)     { b.ops = append(b.ops, memOp{key: key, deleted: true}) }
func (b *memBatch) WriteSync() error {
	for _, op := range b.ops {
		if op.deleted {
			_ = b.kv.Delete(op.key)
		} else {
			_ = b.kv.Set(op.key, op.value)
		}
	}
	return nil
}
func (b *memBatch) Close() error { return nil }

func TestExpectedRewardHalves(t *testing.T) {
	if got := ExpectedReward(0); got != InitialReward {
		t.Errorf("reward at height 0: got %d, want %d", got, InitialReward)
	}
	if got := ExpectedReward(RewardHalvingInterval); got != InitialReward/2 {
		t.Errorf("reward at first halving: got %d, want %d", got, InitialReward/2)
	}
	if got := ExpectedReward(RewardHalvingInterval*2 - 1); got != InitialReward/2 {
		t.Errorf("reward just before second halving: got %d, want %d", got, InitialReward/2)
	}
	if got := ExpectedReward(RewardHalvingInterval * 64); got != 0 {
		t.Errorf("reward should floor at zero after enough halvings, got %d", got)
	}
}

func emptyTx(feeContractID contract.ContractId) txn.Transaction {
	return txn.Transaction{
		Calls: []contract.DarkLeaf[contract.ContractCall]{
			{Data: contract.ContractCall{ContractID: feeContractID, Data: []byte{txn.FeeSelector}}},
		},
		Proofs:     [][]zkverify.Proof{nil},
		Signatures: [][]crypto.Signature{nil},
	}
}

func TestTransactionsRootEmptyBlockIsZero(t *testing.T) {
	root, err := TransactionsRoot(nil)
	if err != nil {
		t.Fatalf("TransactionsRoot: %v", err)
	}
	if root != (crypto.Hash{}) {
		t.Errorf("expected zero root for an empty block, got %x", root)
	}
}

func TestTransactionsRootChangesWithContent(t *testing.T) {
	feeContractID := contract.ContractId(crypto.BaseFromUint64(1))
	tx1 := emptyTx(feeContractID)
	tx2 := emptyTx(feeContractID)
	tx2.Calls[0].Data.Data = []byte{txn.FeeSelector, 0x01}

	root1, err := TransactionsRoot([]txn.Transaction{tx1})
	if err != nil {
		t.Fatalf("TransactionsRoot: %v", err)
	}
	root2, err := TransactionsRoot([]txn.Transaction{tx2})
	if err != nil {
		t.Fatalf("TransactionsRoot: %v", err)
	}
	if root1 == root2 {
		t.Error("expected different roots for different transaction content")
	}

	rootPair, err := TransactionsRoot([]txn.Transaction{tx1, tx2})
	if err != nil {
		t.Fatalf("TransactionsRoot: %v", err)
	}
	if rootPair == root1 || rootPair == root2 {
		t.Error("expected a two-leaf root distinct from either single-leaf root")
	}
}

func TestStateRootReflectsCoinsAndNullifiers(t *testing.T) {
	trees := validator.Trees{
		Coins:      merkletree.NewIncrementalTree(),
		Nullifiers: merkletree.NewSparseMerkleTree(),
	}
	empty, err := StateRoot(trees)
	if err != nil {
		t.Fatalf("StateRoot: %v", err)
	}

	if _, err := trees.Coins.Append(crypto.BaseFromUint64(7)); err != nil {
		t.Fatalf("append: %v", err)
	}
	afterAppend, err := StateRoot(trees)
	if err != nil {
		t.Fatalf("StateRoot: %v", err)
	}
	if empty == afterAppend {
		t.Error("state root did not change after appending a coin")
	}

	trees.Nullifiers.InsertBatch(map[crypto.Base]crypto.Base{crypto.BaseFromUint64(1): crypto.BaseFromUint64(1)})
	afterNullifier, err := StateRoot(trees)
	if err != nil {
		t.Fatalf("StateRoot: %v", err)
	}
	if afterNullifier == afterAppend {
		t.Error("state root did not change after inserting a nullifier")
	}
}

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := Header{
		Version:          1,
		PreviousHash:     crypto.Hash{1, 2, 3},
		Height:           42,
		Timestamp:        1700000000,
		Nonce:            7,
		TransactionsRoot: crypto.Hash{4, 5, 6},
		StateRoot:        crypto.Hash{7, 8, 9},
		Reward:           2_000_000,
	}
	sk := crypto.ScalarFromUint64(9)
	sig, err := crypto.Sign(sk, []byte("header"))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	h.ProducerSignature = sig

	var buf bytes.Buffer
	if err := EncodeHeader(&buf, h); err != nil {
		t.Fatalf("EncodeHeader: %v", err)
	}
	got, err := DecodeHeader(&buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if got.Height != h.Height || got.Timestamp != h.Timestamp || got.Reward != h.Reward {
		t.Errorf("round trip mismatch: got %+v", got)
	}
	if got.PreviousHash != h.PreviousHash || got.TransactionsRoot != h.TransactionsRoot || got.StateRoot != h.StateRoot {
		t.Errorf("hash fields mismatch: got %+v", got)
	}
	if !got.ProducerSignature.R.Equal(sig.R) {
		t.Errorf("signature R mismatch")
	}
}

func TestValidateSequencingRejectsWrongHeight(t *testing.T) {
	parent := Header{Height: 10, Timestamp: 100}
	parentHash, err := parent.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	bad := Header{PreviousHash: parentHash, Height: 12, Timestamp: 200}
	if err := ValidateSequencing(parent, bad); err != ErrHeightMismatch {
		t.Fatalf("expected ErrHeightMismatch, got %v", err)
	}
}

func TestValidateSequencingRejectsStaleTimestamp(t *testing.T) {
	parent := Header{Height: 10, Timestamp: 100}
	parentHash, err := parent.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	bad := Header{PreviousHash: parentHash, Height: 11, Timestamp: 100}
	if err := ValidateSequencing(parent, bad); err != ErrTimestampNotIncreasing {
		t.Fatalf("expected ErrTimestampNotIncreasing, got %v", err)
	}
}

func TestValidateSequencingRejectsWrongPreviousHash(t *testing.T) {
	parent := Header{Height: 10, Timestamp: 100}
	bad := Header{PreviousHash: crypto.Hash{0xff}, Height: 11, Timestamp: 200}
	if err := ValidateSequencing(parent, bad); err != ErrPreviousHashMismatch {
		t.Fatalf("expected ErrPreviousHashMismatch, got %v", err)
	}
}

func TestValidateSequencingAccepts(t *testing.T) {
	parent := Header{Height: 10, Timestamp: 100}
	parentHash, err := parent.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	good := Header{PreviousHash: parentHash, Height: 11, Timestamp: 200}
	if err := ValidateSequencing(parent, good); err != nil {
		t.Fatalf("ValidateSequencing: %v", err)
	}
}

func TestValidateRewardMismatch(t *testing.T) {
	h := Header{Height: 0, Reward: 1}
	if err := ValidateReward(h, 0); err == nil {
		t.Fatal("expected reward mismatch error")
	}
	h.Reward = InitialReward + 500
	if err := ValidateReward(h, 500); err != nil {
		t.Fatalf("ValidateReward: %v", err)
	}
}

func TestApplyBlockRejectsBadSequencing(t *testing.T) {
	bc := store.OpenWith(newMemKV())
	feeContractID := contract.ContractId(crypto.BaseFromUint64(1))
	v := validator.New(nil, feeContractID)
	trees := validator.Trees{Coins: merkletree.NewIncrementalTree(), Nullifiers: merkletree.NewSparseMerkleTree()}

	parent := Header{Height: 5, Timestamp: 1000}
	bad := Block{Header: Header{
		PreviousHash: crypto.Hash{0xAA}, // deliberately wrong
		Height:       6,
		Timestamp:    2000,
	}}

	_, err := ApplyBlock(context.Background(), v, bc, parent, trees, bad)
	if err != ErrPreviousHashMismatch {
		t.Fatalf("expected ErrPreviousHashMismatch, got %v", err)
	}
}

func TestApplyBlockRejectsTransactionsRootMismatch(t *testing.T) {
	bc := store.OpenWith(newMemKV())
	feeContractID := contract.ContractId(crypto.BaseFromUint64(1))
	v := validator.New(nil, feeContractID)
	trees := validator.Trees{Coins: merkletree.NewIncrementalTree(), Nullifiers: merkletree.NewSparseMerkleTree()}

	parent := Header{Height: 5, Timestamp: 1000}
	parentHash, err := parent.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	blk := Block{
		Header: Header{
			PreviousHash:     parentHash,
			Height:           6,
			Timestamp:        2000,
			TransactionsRoot: crypto.Hash{0x01}, // does not match (empty) transactions
		},
	}

	_, err = ApplyBlock(context.Background(), v, bc, parent, trees, blk)
	if err != ErrTransactionsRootMismatch {
		t.Fatalf("expected ErrTransactionsRootMismatch, got %v", err)
	}
}
