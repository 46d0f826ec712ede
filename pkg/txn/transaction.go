// Package txn defines the transaction composition model: a forest of
// contract calls carrying per-call proofs and signatures, its
// well-formedness invariants, and the canonical hash/signing-message
// derivations used by the validator and by wallets constructing
// transactions.
package txn

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/darkfi-core/engine/pkg/contract"
	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/zkverify"
)

var (
	// ErrMalformedParentIndex is returned when a call's parent_index does
	// not reference an earlier call in the forest.
	ErrMalformedParentIndex = errors.New("txn: parent_index does not reference an earlier call")

	// ErrChildrenIndexesMismatch is returned when a call's children_indexes
	// does not match the set of calls whose parent_index points back to it.
	ErrChildrenIndexesMismatch = errors.New("txn: children_indexes mismatch")

	// ErrFeeCallCount is returned when the forest does not contain exactly
	// one root fee call.
	ErrFeeCallCount = errors.New("txn: transaction must have exactly one root fee call")

	// ErrLengthMismatch is returned when calls/proofs/signatures don't have
	// matching lengths.
	ErrLengthMismatch = errors.New("txn: calls, proofs and signatures must have equal length")
)

// FeeSelector is the function selector of the fee call.
const FeeSelector uint8 = 0x00

// Transaction is a forest of contract calls in topological (parent before
// child) order, with each call's ZK proofs and signatures carried
// parallel to it.
type Transaction struct {
	Calls      []contract.DarkLeaf[contract.ContractCall]
	Proofs     [][]zkverify.Proof
	Signatures [][]crypto.Signature
}

// IsFeeCall reports whether call is the transaction's fee call: a root
// whose selector is FeeSelector against feeContractID. The fee contract's
// id is deployment-specific (derived from the Deployooor's own deploy
// call), so it is always passed in rather than assumed fixed.
func IsFeeCall(call contract.ContractCall, feeContractID contract.ContractId) bool {
	sel, ok := call.Selector()
	return ok && sel == FeeSelector && call.ContractID == feeContractID
}

// WellFormed checks the structural invariants every transaction must
// satisfy before any of its calls are executed: a valid forest, exactly
// one fee call, and matching slice lengths.
func (t Transaction) WellFormed(feeContractID contract.ContractId) error {
	n := len(t.Calls)
	if len(t.Proofs) != n || len(t.Signatures) != n {
		return ErrLengthMismatch
	}

	wantChildren := make([][]uint64, n)
	feeCalls := 0
	for i, leaf := range t.Calls {
		if leaf.ParentIndex != nil {
			if *leaf.ParentIndex >= uint64(i) {
				return fmt.Errorf("%w: call %d parent %d", ErrMalformedParentIndex, i, *leaf.ParentIndex)
			}
			wantChildren[*leaf.ParentIndex] = append(wantChildren[*leaf.ParentIndex], uint64(i))
		} else if IsFeeCall(leaf.Data, feeContractID) {
			feeCalls++
		}
	}
	if feeCalls != 1 {
		return ErrFeeCallCount
	}

	for i, leaf := range t.Calls {
		if !sameIndexSet(leaf.ChildrenIndexes, wantChildren[i]) {
			return fmt.Errorf("%w: call %d", ErrChildrenIndexesMismatch, i)
		}
	}
	return nil
}

func sameIndexSet(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[uint64]int, len(b))
	for _, v := range b {
		seen[v]++
	}
	for _, v := range a {
		if seen[v] == 0 {
			return false
		}
		seen[v]--
	}
	return true
}

// SigningMessage returns the canonical encoding of t with Signatures
// cleared: the bytes every per-call signature is produced over. Clearing
// signatures before hashing is what makes Hash independent of the order
// signatures were collected in.
func (t Transaction) SigningMessage() ([]byte, error) {
	stripped := Transaction{
		Calls:      t.Calls,
		Proofs:     t.Proofs,
		Signatures: make([][]crypto.Signature, len(t.Calls)),
	}
	var buf bytes.Buffer
	if err := Encode(&buf, stripped); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Hash returns the transaction's on-chain id: the content hash of its
// canonical encoding with Signatures cleared, the same message
// SigningMessage produces. Signing draws a fresh random nonce every call,
// so hashing with signatures populated would make Hash depend on the order
// (and number of times) they were collected instead of just the
// transaction's content.
func (t Transaction) Hash() (crypto.Hash, error) {
	msg, err := t.SigningMessage()
	if err != nil {
		return crypto.Hash{}, err
	}
	return crypto.HashBytes(msg), nil
}
