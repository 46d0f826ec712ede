// Package merkletree implements the engine's two Merkle structures: an
// append-only incremental tree for the global coin commitment tree, and a
// sparse Merkle tree for the global nullifier tree (and for the small
// commitment pkg/block.StateRoot builds). Neither is used as a per-contract
// monotree; per-contract state trees are plain key-value trees in
// pkg/store.
//
// Both are grounded on the shape of pkg/merkle.Tree (build-from-leaves,
// generate/verify an inclusion path against a root), generalized from a
// rebuild-on-every-call binary tree over SHA-256 leaves into fixed-depth
// trees over Poseidon-hashed field elements, with an append-only frontier
// so adding a leaf does not require rehashing the whole tree.
package merkletree

import (
	"errors"
	"sync"

	"github.com/darkfi-core/engine/pkg/crypto"
)

// IncrementalTreeDepth is the fixed depth of an IncrementalTree.
const IncrementalTreeDepth = 32

// ErrTreeFull is returned by Append once 2^IncrementalTreeDepth leaves have
// been inserted.
var ErrTreeFull = errors.New("merkletree: incremental tree is full")

// ErrPositionNotMarked is returned by Witness for a position that was never
// passed to Mark.
var ErrPositionNotMarked = errors.New("merkletree: position was not marked")

// ErrCheckpointNotFound is returned by Root/Witness when checkpointDepth
// reaches further back than the ring buffer has retained.
var ErrCheckpointNotFound = errors.New("merkletree: checkpoint not retained")

// CheckpointRingCapacity bounds how many roots the tree retains, the
// current one included. A checkpoint is recorded on every Append, so a
// caller can reach back at most CheckpointRingCapacity-1 appends with
// checkpointDepth.
const CheckpointRingCapacity = 128

// checkpoint pairs a retained root with the tree size it was computed at,
// so Witness can rebuild the exact authentication path that root implies.
type checkpoint struct {
	size uint64
	root crypto.Base
}

// MerklePath is a bottom-up list of sibling hashes accompanying a leaf,
// together with the leaf's index (whose bits select left/right at each
// level: bit 0 of the index selects the level-0 sibling side, and so on).
type MerklePath struct {
	Position uint64
	Siblings [IncrementalTreeDepth]crypto.Base
}

// ComputeRoot recomputes the root a leaf and its MerklePath imply.
func (p MerklePath) ComputeRoot(leaf crypto.Base) crypto.Base {
	cur := leaf
	pos := p.Position
	for lvl := 0; lvl < IncrementalTreeDepth; lvl++ {
		sib := p.Siblings[lvl]
		if pos&1 == 0 {
			cur = nodeHash(lvl, cur, sib)
		} else {
			cur = nodeHash(lvl, sib, cur)
		}
		pos >>= 1
	}
	return cur
}

// nodeHash combines two children at level lvl (0 = just above the leaves)
// into their parent. The level is folded into the hash so that a leaf value
// can never be replayed as an internal node at a different level.
func nodeHash(lvl int, left, right crypto.Base) crypto.Base {
	return crypto.PoseidonHash(crypto.BaseFromUint64(uint64(lvl)), left, right)
}

var emptyNodes = computeEmptyNodes()

func computeEmptyNodes() [IncrementalTreeDepth + 1]crypto.Base {
	var e [IncrementalTreeDepth + 1]crypto.Base
	e[0] = crypto.BaseFromUint64(0)
	for lvl := 1; lvl <= IncrementalTreeDepth; lvl++ {
		e[lvl] = nodeHash(lvl-1, e[lvl-1], e[lvl-1])
	}
	return e
}

// IncrementalTree is a fixed-depth, append-only Merkle tree. New leaves are
// always appended at the next free position; Root and Append run in
// O(depth) using a maintained frontier of completed left-subtree hashes.
// Marked leaves retain their full input so a MerklePath can be recomputed
// for them later, at the cost of keeping those leaves in memory. Every
// Append also records a checkpoint of the resulting root, so a caller
// holding an older witness can still verify it against Root/Witness at the
// matching checkpointDepth as long as the ring buffer still retains it.
type IncrementalTree struct {
	mu sync.Mutex

	size   uint64
	leaves []crypto.Base // leaves ever appended, index i == position i

	filled    [IncrementalTreeDepth]crypto.Base
	filledSet [IncrementalTreeDepth]bool

	marked map[uint64]struct{}

	// checkpoints is a ring buffer of recent (size, root) pairs, oldest
	// first, one appended per Append call, bounded to
	// CheckpointRingCapacity so recent-root membership can be verified
	// without retaining the tree's whole history.
	checkpoints []checkpoint
}

// NewIncrementalTree returns an empty tree.
func NewIncrementalTree() *IncrementalTree {
	return &IncrementalTree{
		marked:      make(map[uint64]struct{}),
		checkpoints: []checkpoint{{size: 0, root: emptyNodes[IncrementalTreeDepth]}},
	}
}

// Size returns the number of leaves appended so far.
func (t *IncrementalTree) Size() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

// Append inserts leaf at the next free position and returns its index.
func (t *IncrementalTree) Append(leaf crypto.Base) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.size >= 1<<IncrementalTreeDepth {
		return 0, ErrTreeFull
	}

	pos := t.size
	t.leaves = append(t.leaves, leaf)

	cur := leaf
	for lvl := 0; lvl < IncrementalTreeDepth; lvl++ {
		if (pos>>uint(lvl))&1 == 0 {
			t.filled[lvl] = cur
			t.filledSet[lvl] = true
			break
		}
		cur = nodeHash(lvl, t.filled[lvl], cur)
	}

	t.size++

	t.checkpoints = append(t.checkpoints, checkpoint{size: t.size, root: t.rootLocked()})
	if len(t.checkpoints) > CheckpointRingCapacity {
		t.checkpoints = t.checkpoints[len(t.checkpoints)-CheckpointRingCapacity:]
	}

	return pos, nil
}

// Root returns the root retained checkpointDepth appends back from the
// current tip (0 is the current root). It fails with ErrCheckpointNotFound
// once checkpointDepth reaches past the oldest retained checkpoint: at
// CheckpointRingCapacity or beyond, or beyond the number of appends made.
func (t *IncrementalTree) Root(checkpointDepth uint64) (crypto.Base, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := len(t.checkpoints) - 1 - int(checkpointDepth)
	if idx < 0 {
		return crypto.Base{}, ErrCheckpointNotFound
	}
	return t.checkpoints[idx].root, nil
}

func (t *IncrementalTree) rootLocked() crypto.Base {
	cur := emptyNodes[0]
	haveCur := false

	for lvl := 0; lvl < IncrementalTreeDepth; lvl++ {
		if t.filledSet[lvl] {
			if haveCur {
				cur = nodeHash(lvl, t.filled[lvl], cur)
			} else {
				cur = nodeHash(lvl, t.filled[lvl], emptyNodes[lvl])
			}
			haveCur = true
		} else if haveCur {
			cur = nodeHash(lvl, cur, emptyNodes[lvl])
		}
	}
	if !haveCur {
		return emptyNodes[IncrementalTreeDepth]
	}
	return cur
}

// Mark records that pos must remain witnessable; Witness fails for
// positions that were never marked.
func (t *IncrementalTree) Mark(pos uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.marked[pos] = struct{}{}
}

// Witness returns the authentication path for a previously marked position,
// recomputed against the tree as it stood checkpointDepth appends back from
// the current tip (0 is the current root). It fails with
// ErrCheckpointNotFound once checkpointDepth reaches past the oldest
// retained checkpoint (as Root does), and with ErrPositionNotMarked if the position was
// never marked or was appended after the requested checkpoint.
func (t *IncrementalTree) Witness(pos, checkpointDepth uint64) (MerklePath, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.marked[pos]; !ok {
		return MerklePath{}, ErrPositionNotMarked
	}

	idx := len(t.checkpoints) - 1 - int(checkpointDepth)
	if idx < 0 {
		return MerklePath{}, ErrCheckpointNotFound
	}
	size := t.checkpoints[idx].size

	if pos >= size {
		return MerklePath{}, ErrPositionNotMarked
	}

	level := make([]crypto.Base, size)
	copy(level, t.leaves[:size])

	var path MerklePath
	path.Position = pos
	leafIdx := pos

	for lvl := 0; lvl < IncrementalTreeDepth; lvl++ {
		var sibling crypto.Base
		siblingIdx := leafIdx ^ 1
		if int(siblingIdx) < len(level) {
			sibling = level[siblingIdx]
		} else {
			sibling = emptyNodes[lvl]
		}
		path.Siblings[lvl] = sibling

		next := make([]crypto.Base, (len(level)+1)/2)
		for i := 0; i < len(next); i++ {
			l := level[2*i]
			var r crypto.Base
			if 2*i+1 < len(level) {
				r = level[2*i+1]
			} else {
				r = emptyNodes[lvl]
			}
			next[i] = nodeHash(lvl, l, r)
		}
		level = next
		leafIdx >>= 1
	}

	return path, nil
}
