package merkletree

import (
	"fmt"
	"sync"

	"github.com/darkfi-core/engine/pkg/crypto"
)

// SparseMerkleTreeDepth covers every possible Base key: one level per bit
// of the scalar field's bit length, plus the leaf level.
const SparseMerkleTreeDepth = 255

// smtDomainTag separates this tree's node/leaf hashes from IncrementalTree's,
// so a node from one tree can never be replayed as a node of the other.
const smtDomainTag = 0x534d54

func smtNodeHash(height int, left, right crypto.Base) crypto.Base {
	return crypto.PoseidonHash(crypto.BaseFromUint64(smtDomainTag), crypto.BaseFromUint64(uint64(height)), left, right)
}

func smtLeafHash(key, value crypto.Base) crypto.Base {
	return crypto.PoseidonHash(crypto.BaseFromUint64(smtDomainTag), key, value)
}

var emptySMTNodes = computeEmptySMTNodes()

func computeEmptySMTNodes() [SparseMerkleTreeDepth + 1]crypto.Base {
	var e [SparseMerkleTreeDepth + 1]crypto.Base
	e[0] = crypto.BaseFromUint64(0)
	for h := 1; h <= SparseMerkleTreeDepth; h++ {
		e[h] = smtNodeHash(h-1, e[h-1], e[h-1])
	}
	return e
}

// keyPath returns key's bits MSB-first, one decision per tree level: bits[0]
// is the decision taken at the root, bits[depth-1] the decision taken just
// above the leaf.
func keyPath(key crypto.Base) []bool {
	bi := key.BigInt()
	bits := make([]bool, SparseMerkleTreeDepth)
	for i := 0; i < SparseMerkleTreeDepth; i++ {
		bitIndex := SparseMerkleTreeDepth - 1 - i
		bits[i] = bi.Bit(bitIndex) == 1
	}
	return bits
}

func bitsToPrefix(bits []bool, n int) string {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		if bits[i] {
			buf[i] = '1'
		} else {
			buf[i] = '0'
		}
	}
	return string(buf)
}

func flipLastBit(prefix string) string {
	b := []byte(prefix)
	last := len(b) - 1
	if b[last] == '0' {
		b[last] = '1'
	} else {
		b[last] = '0'
	}
	return string(b)
}

func nodeKey(height int, prefix string) string {
	return fmt.Sprintf("%d:%s", height, prefix)
}

// SparseMerklePath is the sibling list needed to verify a key's membership
// or non-membership against a SparseMerkleTree root.
type SparseMerklePath struct {
	Siblings [SparseMerkleTreeDepth]crypto.Base
}

// SparseMerkleTree is a fixed-depth tree keyed by the full Base field,
// storing only touched paths; every untouched subtree is implicitly one of
// the precomputed emptySMTNodes. It backs the nullifier tree and the
// commitment built by pkg/block.StateRoot; no per-contract monotree keyed
// by ContractId||db_name is built from it.
type SparseMerkleTree struct {
	mu sync.RWMutex

	// nodes maps "<height>:<bit-prefix>" to that node's hash, for every
	// prefix that insertion has touched.
	nodes map[string]crypto.Base
	// leaves maps the full-depth bit-prefix of a key to its stored value.
	leaves map[string]crypto.Base
}

// NewSparseMerkleTree returns an empty tree.
func NewSparseMerkleTree() *SparseMerkleTree {
	return &SparseMerkleTree{
		nodes:  make(map[string]crypto.Base),
		leaves: make(map[string]crypto.Base),
	}
}

// InsertBatch inserts or overwrites every (key, value) pair, recomputing the
// path to the root for each touched key.
func (t *SparseMerkleTree) InsertBatch(entries map[crypto.Base]crypto.Base) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for key, value := range entries {
		bits := keyPath(key)
		full := bitsToPrefix(bits, SparseMerkleTreeDepth)
		t.leaves[full] = value

		cur := smtLeafHash(key, value)
		prefix := full
		for h := 0; h < SparseMerkleTreeDepth; h++ {
			decisionBit := bits[SparseMerkleTreeDepth-1-h]
			siblingPrefix := flipLastBit(prefix)

			sibling, ok := t.nodes[nodeKey(h, siblingPrefix)]
			if !ok {
				sibling = emptySMTNodes[h]
			}

			t.nodes[nodeKey(h, prefix)] = cur

			if decisionBit {
				cur = smtNodeHash(h, sibling, cur)
			} else {
				cur = smtNodeHash(h, cur, sibling)
			}
			prefix = prefix[:len(prefix)-1]
		}
		t.nodes[nodeKey(SparseMerkleTreeDepth, "")] = cur
	}
}

// Root returns the tree's current root.
func (t *SparseMerkleTree) Root() crypto.Base {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if r, ok := t.nodes[nodeKey(SparseMerkleTreeDepth, "")]; ok {
		return r
	}
	return emptySMTNodes[SparseMerkleTreeDepth]
}

// ProveInclusion returns key's stored value (and whether it is present) and
// the sibling path needed to check it against the root with VerifyInclusion.
func (t *SparseMerkleTree) ProveInclusion(key crypto.Base) (path SparseMerklePath, value crypto.Base, present bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	bits := keyPath(key)
	full := bitsToPrefix(bits, SparseMerkleTreeDepth)
	value, present = t.leaves[full]

	prefix := full
	for h := 0; h < SparseMerkleTreeDepth; h++ {
		siblingPrefix := flipLastBit(prefix)
		sib, ok := t.nodes[nodeKey(h, siblingPrefix)]
		if !ok {
			sib = emptySMTNodes[h]
		}
		path.Siblings[h] = sib
		prefix = prefix[:len(prefix)-1]
	}
	return path, value, present
}

// VerifyInclusion checks a key/value/presence claim against root using a
// SparseMerklePath, without requiring the tree itself.
func VerifyInclusion(key, value crypto.Base, present bool, path SparseMerklePath, root crypto.Base) bool {
	var cur crypto.Base
	if present {
		cur = smtLeafHash(key, value)
	} else {
		cur = emptySMTNodes[0]
	}

	bits := keyPath(key)
	for h := 0; h < SparseMerkleTreeDepth; h++ {
		decisionBit := bits[SparseMerkleTreeDepth-1-h]
		sib := path.Siblings[h]
		if decisionBit {
			cur = smtNodeHash(h, sib, cur)
		} else {
			cur = smtNodeHash(h, cur, sib)
		}
	}
	return cur.Equal(root)
}
