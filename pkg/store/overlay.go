package store

import (
	"log"
	"runtime"
)

type overlayEntry struct {
	value   []byte
	deleted bool
}

// BlockchainOverlay is a nested, copy-on-write view over the blockchain
// store. A root overlay (returned by Blockchain.NewOverlay) is backed
// directly by the committed store; Fork produces a child overlay whose
// reads fall through to its parent and whose writes stay local until
// Apply merges them upward.
//
// An overlay is a single-owner, move-semantics value: once Apply or
// Discard has run, every further Insert, Remove, Get, ContainsKey, Apply
// or Discard returns ErrOverlayConsumed. Fork does not check this flag.
// It is not safe for concurrent use — confining one overlay to one
// goroutine is the caller's responsibility, a single-writer constraint
// by convention rather than by a mutex.
type BlockchainOverlay struct {
	root   *Blockchain       // set only on a root overlay
	parent *BlockchainOverlay // set only on a forked overlay

	pending  map[string]map[string]overlayEntry
	consumed bool
}

func newTrackedOverlay(o *BlockchainOverlay) *BlockchainOverlay {
	runtime.SetFinalizer(o, func(leaked *BlockchainOverlay) {
		if !leaked.consumed {
			log.Printf("store: BlockchainOverlay garbage-collected without Apply or Discard; pending writes were lost")
		}
	})
	return o
}

// Fork returns a nested overlay sharing this overlay's view. The parent is
// not touched until the child is Applied.
func (o *BlockchainOverlay) Fork() *BlockchainOverlay {
	child := &BlockchainOverlay{parent: o, pending: make(map[string]map[string]overlayEntry)}
	return newTrackedOverlay(child)
}

func (o *BlockchainOverlay) treeMap(tree string) map[string]overlayEntry {
	m, ok := o.pending[tree]
	if !ok {
		m = make(map[string]overlayEntry)
		o.pending[tree] = m
	}
	return m
}

// Insert stages a write of key=value in tree.
func (o *BlockchainOverlay) Insert(tree string, key, value []byte) error {
	if o.consumed {
		return ErrOverlayConsumed
	}
	o.treeMap(tree)[string(key)] = overlayEntry{value: append([]byte(nil), value...)}
	return nil
}

// Remove stages a deletion of key in tree.
func (o *BlockchainOverlay) Remove(tree string, key []byte) error {
	if o.consumed {
		return ErrOverlayConsumed
	}
	o.treeMap(tree)[string(key)] = overlayEntry{deleted: true}
	return nil
}

// Get reads key from tree, consulting this overlay's pending writes first,
// then its parent, then (for a root overlay) the committed store.
func (o *BlockchainOverlay) Get(tree string, key []byte) ([]byte, error) {
	if o.consumed {
		return nil, ErrOverlayConsumed
	}
	if m, ok := o.pending[tree]; ok {
		if e, ok := m[string(key)]; ok {
			if e.deleted {
				return nil, ErrNotFound
			}
			return e.value, nil
		}
	}
	if o.parent != nil {
		return o.parent.Get(tree, key)
	}
	return o.root.get(tree, key)
}

// ContainsKey reports whether key is present in tree, under the same
// pending-then-parent-then-store resolution order as Get.
func (o *BlockchainOverlay) ContainsKey(tree string, key []byte) (bool, error) {
	_, err := o.Get(tree, key)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Apply atomically merges this overlay's pending writes into its parent
// (for a forked overlay) or commits them to the underlying store (for a
// root overlay). The overlay is consumed afterwards.
func (o *BlockchainOverlay) Apply() error {
	if o.consumed {
		return ErrOverlayConsumed
	}
	o.consumed = true
	runtime.SetFinalizer(o, nil)

	if o.parent != nil {
		for tree, entries := range o.pending {
			parentTree := o.parent.treeMap(tree)
			for key, entry := range entries {
				parentTree[key] = entry
			}
		}
		return nil
	}

	batch := o.root.kv.NewBatch()
	defer batch.Close()
	for tree, entries := range o.pending {
		for key, entry := range entries {
			k := treeKey(tree, []byte(key))
			if entry.deleted {
				batch.Delete(k)
			} else {
				batch.Set(k, entry.value)
			}
		}
	}
	return batch.WriteSync()
}

// Discard drops every pending write in this overlay without touching its
// parent or the store. The overlay is consumed afterwards.
func (o *BlockchainOverlay) Discard() error {
	if o.consumed {
		return ErrOverlayConsumed
	}
	o.consumed = true
	runtime.SetFinalizer(o, nil)
	o.pending = nil
	return nil
}
