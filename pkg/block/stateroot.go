package block

import (
	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/merkletree"
	"github.com/darkfi-core/engine/pkg/validator"
)

// Fixed keys identifying the two roots the monotree commits to. A literal
// per-contract monotree (one leaf per contract database's own root) is not
// reachable here: pkg/store's KVStore and BlockchainOverlay only expose
// keyed point lookups (Get/Insert/Remove/ContainsKey), never key
// enumeration, so there is no way to walk "every contract database" to
// build its leaf set. The two trees below are the only per-block roots the
// engine actually maintains outside that flat KV space, so they stand in
// for the monotree's leaves.
var (
	stateRootCoinsKey      = crypto.BaseFromUint64(0)
	stateRootNullifiersKey = crypto.BaseFromUint64(1)
)

// StateRoot commits to a block's post-execution state: a small sparse
// Merkle tree keyed by stateRootCoinsKey/stateRootNullifiersKey, whose
// values are the coins IncrementalTree's current root (checkpointDepth 0,
// always retained) and the nullifiers SparseMerkleTree root.
func StateRoot(trees validator.Trees) (crypto.Hash, error) {
	coinsRoot, err := trees.Coins.Root(0)
	if err != nil {
		return crypto.Hash{}, err
	}
	commit := merkletree.NewSparseMerkleTree()
	commit.InsertBatch(map[crypto.Base]crypto.Base{
		stateRootCoinsKey:      coinsRoot,
		stateRootNullifiersKey: trees.Nullifiers.Root(),
	})
	root := commit.Root()
	return crypto.Hash(root.Bytes()), nil
}
