package block

import (
	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/txn"
)

// TransactionsRoot computes a simple pairwise Merkle root over a block's
// transaction hashes, in order. It is distinct from merkletree.IncrementalTree:
// transactions are never witnessed individually inside a circuit, so there is
// no need for a fixed depth or a Poseidon-hashed frontier, only a
// deterministic commitment a light client can recompute from the full list.
// An empty block commits to the zero hash.
func TransactionsRoot(txs []txn.Transaction) (crypto.Hash, error) {
	if len(txs) == 0 {
		return crypto.Hash{}, nil
	}
	hashes := make([]crypto.Hash, len(txs))
	for i, tx := range txs {
		h, err := tx.Hash()
		if err != nil {
			return crypto.Hash{}, err
		}
		hashes[i] = h
	}
	return merkleRoot(hashes), nil
}

// merkleRoot folds a non-empty list of leaf hashes pairwise until one hash
// remains, duplicating the last element of an odd-sized level so every
// level halves cleanly.
func merkleRoot(level []crypto.Hash) crypto.Hash {
	for len(level) > 1 {
		next := make([]crypto.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, hashPair(left, right))
		}
		level = next
	}
	return level[0]
}

func hashPair(left, right crypto.Hash) crypto.Hash {
	buf := make([]byte, 0, 64)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return crypto.HashBytes(buf)
}
