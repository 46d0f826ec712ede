// Package block defines the block header/body types, the reward schedule,
// the transactions-root and state-root commitments a header carries, and
// the validity invariants and apply algorithm that turn a proposed block
// into committed store state.
package block

import (
	"bytes"

	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/txn"
)

// Header is a block's fixed-size envelope: everything needed to check a
// block's validity without touching its transaction bodies.
type Header struct {
	Version           uint8
	PreviousHash      crypto.Hash
	Height            uint64
	Timestamp         int64
	Nonce             uint64
	TransactionsRoot  crypto.Hash
	StateRoot         crypto.Hash
	// Reward is the coinbase value the producer claims for this block,
	// checked against ExpectedReward(Height) plus the transactions' paid
	// fees. Not itself named by the header field list, which stops at
	// producer_signature; the fifth block validity invariant needs
	// somewhere to read the claimed value from, so it is carried here.
	Reward            uint64
	ProducerSignature crypto.Signature
}

// Block is a header paired with the transaction forest it commits to.
type Block struct {
	Header       Header
	Transactions []txn.Transaction
}

// Hash returns the block's content address: the hash of its header alone,
// since TransactionsRoot already commits to the transaction bodies.
func (h Header) Hash() (crypto.Hash, error) {
	var buf bytes.Buffer
	if err := EncodeHeader(&buf, h); err != nil {
		return crypto.Hash{}, err
	}
	return crypto.HashBytes(buf.Bytes()), nil
}
