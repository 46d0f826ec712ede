package store

import (
	"encoding/binary"
	"fmt"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/darkfi-core/engine/pkg/crypto"
)

// Reserved tree names. None can be created or written to through the
// contract host ABI: the zkas tree holds a contract's compiled circuit
// bincode, and the wasm tree holds the contract's deployed bytecode and
// lock bit (only the validator's deploy logic ever writes it). The
// monotree name is refused to contracts as well; no code writes to it, and
// no per-contract Merkle roots are stored.
const (
	TreeZkas     = "__zkas"
	TreeMonotree = "__monotree"
	TreeWasm     = "__wasm"
)

// Blockchain owns the canonical, committed store: one physical KVStore
// multiplexed into named trees by key prefix (blocks-by-hash,
// blocks-by-height, transactions-by-hash, and one tree per
// (ContractId, db name)). Only a BlockchainOverlay's Apply at the root of
// the overlay chain may write here.
type Blockchain struct {
	kv KVStore
}

// Open opens (creating if necessary) a goleveldb-backed store at path.
func Open(path string) (*Blockchain, error) {
	db, err := dbm.NewDB("blockchain", dbm.GoLevelDBBackend, path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	return &Blockchain{kv: NewKVAdapter(db)}, nil
}

// OpenWith wraps an already-constructed KVStore, primarily for tests using
// an in-memory backend.
func OpenWith(kv KVStore) *Blockchain {
	return &Blockchain{kv: kv}
}

// Close releases the underlying database handle.
func (b *Blockchain) Close() error {
	return b.kv.Close()
}

// NewOverlay returns a root BlockchainOverlay backed directly by the
// committed store.
func (b *Blockchain) NewOverlay() *BlockchainOverlay {
	o := &BlockchainOverlay{root: b, pending: make(map[string]map[string]overlayEntry)}
	return newTrackedOverlay(o)
}

const (
	treeHeaderByHash   = "hdr_by_hash"
	treeHeaderByHeight = "hdr_by_height"
	treeTxByHash       = "tx_by_hash"
)

func contractTreeName(contractID crypto.ContractId, dbName string) string {
	id := contractID.Bytes()
	return fmt.Sprintf("c/%x/%s", id, dbName)
}

func treeKey(tree string, key []byte) []byte {
	out := make([]byte, 0, len(tree)+1+len(key))
	out = append(out, tree...)
	out = append(out, 0)
	out = append(out, key...)
	return out
}

func heightKey(height uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], height)
	return b[:]
}

// GetHeaderByHash returns the raw encoded header stored under hash.
func (b *Blockchain) GetHeaderByHash(hash crypto.Hash) ([]byte, error) {
	return b.get(treeHeaderByHash, hash[:])
}

// GetHeaderByHeight returns the raw encoded header stored at height.
func (b *Blockchain) GetHeaderByHeight(height uint64) ([]byte, error) {
	return b.get(treeHeaderByHeight, heightKey(height))
}

// GetTransaction returns the raw encoded transaction stored under hash.
func (b *Blockchain) GetTransaction(hash crypto.Hash) ([]byte, error) {
	return b.get(treeTxByHash, hash[:])
}

// InsertHeader stages an encoded block header under both of its lookup
// keys (hash and height); block commit is what finally persists it.
func (o *BlockchainOverlay) InsertHeader(hash crypto.Hash, height uint64, encoded []byte) error {
	if err := o.Insert(treeHeaderByHash, hash[:], encoded); err != nil {
		return err
	}
	return o.Insert(treeHeaderByHeight, heightKey(height), encoded)
}

// InsertTransaction stages an encoded transaction under its hash.
func (o *BlockchainOverlay) InsertTransaction(hash crypto.Hash, encoded []byte) error {
	return o.Insert(treeTxByHash, hash[:], encoded)
}

// GetContractValue reads a single key from a (ContractId, db name) tree
// in the committed store. It does not check dbName against the reserved
// tree names; that check lives in ContractDb.
func (b *Blockchain) GetContractValue(contractID crypto.ContractId, dbName string, key []byte) ([]byte, error) {
	return b.get(contractTreeName(contractID, dbName), key)
}

func (b *Blockchain) get(tree string, key []byte) ([]byte, error) {
	v, err := b.kv.Get(treeKey(tree, key))
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNotFound
	}
	return v, nil
}
