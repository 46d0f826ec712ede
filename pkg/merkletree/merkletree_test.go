package merkletree

import (
	"testing"

	"github.com/darkfi-core/engine/pkg/crypto"
)

func TestIncrementalTree_EmptyRootIsStable(t *testing.T) {
	a := NewIncrementalTree()
	b := NewIncrementalTree()
	aRoot, err := a.Root(0)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	bRoot, err := b.Root(0)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if !aRoot.Equal(bRoot) {
		t.Fatalf("two empty trees should share a root")
	}
}

func TestIncrementalTree_AppendChangesRoot(t *testing.T) {
	tree := NewIncrementalTree()
	before, err := tree.Root(0)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	if _, err := tree.Append(crypto.BaseFromUint64(1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	after, err := tree.Root(0)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	if before.Equal(after) {
		t.Fatalf("root did not change after append")
	}
}

func TestIncrementalTree_MarkAndWitness(t *testing.T) {
	tree := NewIncrementalTree()

	var positions []uint64
	for i := uint64(0); i < 8; i++ {
		pos, err := tree.Append(crypto.BaseFromUint64(i + 100))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		positions = append(positions, pos)
	}
	tree.Mark(positions[3])

	path, err := tree.Witness(positions[3], 0)
	if err != nil {
		t.Fatalf("witness: %v", err)
	}

	root, err := tree.Root(0)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	recomputed := path.ComputeRoot(crypto.BaseFromUint64(3 + 100))
	if !recomputed.Equal(root) {
		t.Fatalf("witness path does not recompute tree root")
	}
}

func TestIncrementalTree_WitnessRejectsUnmarked(t *testing.T) {
	tree := NewIncrementalTree()
	pos, _ := tree.Append(crypto.BaseFromUint64(7))

	if _, err := tree.Witness(pos, 0); err != ErrPositionNotMarked {
		t.Fatalf("expected ErrPositionNotMarked, got %v", err)
	}
}

func TestIncrementalTree_WitnessAtOlderCheckpoint(t *testing.T) {
	tree := NewIncrementalTree()

	pos, err := tree.Append(crypto.BaseFromUint64(42))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	tree.Mark(pos)

	rootAtCheckpoint, err := tree.Root(0)
	if err != nil {
		t.Fatalf("Root: %v", err)
	}

	if _, err := tree.Append(crypto.BaseFromUint64(43)); err != nil {
		t.Fatalf("append: %v", err)
	}

	// pos is now one checkpoint behind the tip.
	path, err := tree.Witness(pos, 1)
	if err != nil {
		t.Fatalf("witness at checkpointDepth 1: %v", err)
	}
	recomputed := path.ComputeRoot(crypto.BaseFromUint64(42))
	if !recomputed.Equal(rootAtCheckpoint) {
		t.Fatalf("witness at older checkpoint does not recompute that checkpoint's root")
	}

	currentRoot, err := tree.Root(1)
	if err != nil {
		t.Fatalf("Root at checkpointDepth 1: %v", err)
	}
	if !currentRoot.Equal(rootAtCheckpoint) {
		t.Fatalf("Root(1) should equal the root retained one append ago")
	}
}

func TestIncrementalTree_RootRejectsUnretainedCheckpoint(t *testing.T) {
	tree := NewIncrementalTree()
	if _, err := tree.Append(crypto.BaseFromUint64(1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := tree.Root(CheckpointRingCapacity + 1); err != ErrCheckpointNotFound {
		t.Fatalf("expected ErrCheckpointNotFound, got %v", err)
	}
}

func TestSparseMerkleTree_InsertAndProveMembership(t *testing.T) {
	smt := NewSparseMerkleTree()
	key := crypto.BaseFromUint64(42)
	value := crypto.BaseFromUint64(1000)

	smt.InsertBatch(map[crypto.Base]crypto.Base{key: value})
	root := smt.Root()

	path, gotValue, present := smt.ProveInclusion(key)
	if !present {
		t.Fatalf("expected key to be present")
	}
	if !gotValue.Equal(value) {
		t.Fatalf("stored value mismatch")
	}
	if !VerifyInclusion(key, value, true, path, root) {
		t.Fatalf("membership proof failed to verify")
	}
}

func TestSparseMerkleTree_NonMembership(t *testing.T) {
	smt := NewSparseMerkleTree()
	smt.InsertBatch(map[crypto.Base]crypto.Base{
		crypto.BaseFromUint64(1): crypto.BaseFromUint64(11),
	})
	root := smt.Root()

	absentKey := crypto.BaseFromUint64(2)
	path, _, present := smt.ProveInclusion(absentKey)
	if present {
		t.Fatalf("key should not be present")
	}
	if !VerifyInclusion(absentKey, crypto.Base{}, false, path, root) {
		t.Fatalf("non-membership proof failed to verify")
	}
}

func TestSparseMerkleTree_EmptyRootStable(t *testing.T) {
	a := NewSparseMerkleTree()
	b := NewSparseMerkleTree()
	if !a.Root().Equal(b.Root()) {
		t.Fatalf("two empty sparse trees should share a root")
	}
}
