package wasmvm

import (
	"bytes"
	"errors"
	"log"

	"github.com/tetratelabs/wazero/api"

	"github.com/darkfi-core/engine/pkg/contract"
	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/merkletree"
	"github.com/darkfi-core/engine/pkg/serialize"
	"github.com/darkfi-core/engine/pkg/store"
)

// hostContext is the per-invocation state every host call closes over: the
// gas meter, the contract's database view, its current section, and the
// scratch state the Exec section's tx_local_* calls read and write.
type hostContext struct {
	section Section
	gas     *GasMeter
	db      *store.ContractDb

	tree *merkletree.IncrementalTree
	smt  *merkletree.SparseMerkleTree

	callIdx    uint64
	returnData []byte

	txLocalCoins map[[32]byte]struct{}
}

func newHostContext(section Section, gas *GasMeter, db *store.ContractDb, tree *merkletree.IncrementalTree, smt *merkletree.SparseMerkleTree, callIdx uint64) *hostContext {
	return &hostContext{
		section:      section,
		gas:          gas,
		db:           db,
		tree:         tree,
		smt:          smt,
		callIdx:      callIdx,
		txLocalCoins: make(map[[32]byte]struct{}),
	}
}

func readGuestBytes(mod api.Module, ptr, length uint32) ([]byte, error) {
	b, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return nil, ErrGuestMemory
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func writeGuestBytes(mod api.Module, ptr, capacity uint32, data []byte) (int64, error) {
	if uint32(len(data)) > capacity {
		return 0, errors.New("wasmvm: result exceeds the guest's output buffer")
	}
	if !mod.Memory().Write(ptr, data) {
		return 0, ErrGuestMemory
	}
	return int64(len(data)), nil
}

type treeKeyArgs struct {
	Tree string
	Key  []byte
}

func decodeTreeKeyArgs(raw []byte) (treeKeyArgs, error) {
	r := bytes.NewReader(raw)
	tree, err := serialize.DecodeString(r)
	if err != nil {
		return treeKeyArgs{}, err
	}
	key, err := serialize.DecodeBytes(r)
	if err != nil {
		return treeKeyArgs{}, err
	}
	return treeKeyArgs{Tree: tree, Key: key}, nil
}

type treeKeyValueArgs struct {
	Tree  string
	Key   []byte
	Value []byte
}

func decodeTreeKeyValueArgs(raw []byte) (treeKeyValueArgs, error) {
	r := bytes.NewReader(raw)
	tree, err := serialize.DecodeString(r)
	if err != nil {
		return treeKeyValueArgs{}, err
	}
	key, err := serialize.DecodeBytes(r)
	if err != nil {
		return treeKeyValueArgs{}, err
	}
	value, err := serialize.DecodeBytes(r)
	if err != nil {
		return treeKeyValueArgs{}, err
	}
	return treeKeyValueArgs{Tree: tree, Key: key, Value: value}, nil
}

// hostFunc is the uniform shape every host call takes: read its argument
// from the guest's (argPtr, argLen) buffer, do its work, and write any
// result into (outPtr, outCap). The i64 return is a non-negative byte
// count on success or a contract.ErrorCode on failure.
type hostFunc func(hc *hostContext, mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64

func checkSection(hc *hostContext, name string) bool { return permitted(hc.section, name) }

func (hc *hostContext) dbInit(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	if !checkSection(hc, "db_init") {
		return int64(contract.ErrCallerAccessDenied)
	}
	raw, err := readGuestBytes(mod, argPtr, argLen)
	if err != nil {
		return int64(contract.ErrDbInitFailed)
	}
	tree, err := serialize.DecodeExact(raw, serialize.DecodeString)
	if err != nil {
		return int64(contract.ErrDbInitFailed)
	}
	if err := hc.gas.ChargeFixed(); err != nil {
		return int64(contract.ErrOutOfGas)
	}
	// A tree comes into existence the first time something is written to
	// it; db_init has nothing to do beyond validating the name and
	// charging gas, matching __initialize's idempotent-redeploy contract
	// (the caller is expected to db_lookup first).
	_ = tree
	return int64(contract.Success)
}

// dbLookup and dbContainsKey share an implementation (both check whether a
// key is present in a tree without returning its value); they are kept as
// two host calls because __initialize's idempotent-redeploy check
// (db_lookup before db_init) and a contract's own db_contains_key are
// conceptually different call sites even though the underlying query is
// the same.
func (hc *hostContext) dbLookup(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	if !checkSection(hc, "db_lookup") {
		return int64(contract.ErrCallerAccessDenied)
	}
	return hc.containsKey(mod, argPtr, argLen, outPtr, outCap)
}

func (hc *hostContext) dbContainsKey(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	if !checkSection(hc, "db_contains_key") {
		return int64(contract.ErrCallerAccessDenied)
	}
	return hc.containsKey(mod, argPtr, argLen, outPtr, outCap)
}

func (hc *hostContext) containsKey(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	raw, err := readGuestBytes(mod, argPtr, argLen)
	if err != nil {
		return int64(contract.ErrDbLookupFailed)
	}
	args, err := decodeTreeKeyArgs(raw)
	if err != nil {
		return int64(contract.ErrDbLookupFailed)
	}
	if err := hc.gas.ChargeFixed(); err != nil {
		return int64(contract.ErrOutOfGas)
	}
	ok, err := hc.db.ContainsKey(args.Tree, args.Key)
	if err != nil {
		return int64(contract.ErrDbLookupFailed)
	}
	var result [1]byte
	if ok {
		result[0] = 1
	}
	n, err := writeGuestBytes(mod, outPtr, outCap, result[:])
	if err != nil {
		return int64(contract.ErrDataTooLarge)
	}
	return n
}

func (hc *hostContext) dbGet(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	if !checkSection(hc, "db_get") {
		return int64(contract.ErrCallerAccessDenied)
	}
	raw, err := readGuestBytes(mod, argPtr, argLen)
	if err != nil {
		return int64(contract.ErrDbGetFailed)
	}
	args, err := decodeTreeKeyArgs(raw)
	if err != nil {
		return int64(contract.ErrDbGetFailed)
	}
	val, err := hc.db.Get(args.Tree, args.Key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return int64(contract.ErrDbGetEmpty)
		}
		return int64(contract.ErrDbGetFailed)
	}
	if err := hc.gas.Charge(uint64(len(val))); err != nil {
		return int64(contract.ErrOutOfGas)
	}
	n, err := writeGuestBytes(mod, outPtr, outCap, val)
	if err != nil {
		return int64(contract.ErrDataTooLarge)
	}
	return n
}

func (hc *hostContext) dbSet(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	if !checkSection(hc, "db_set") {
		return int64(contract.ErrCallerAccessDenied)
	}
	raw, err := readGuestBytes(mod, argPtr, argLen)
	if err != nil {
		return int64(contract.ErrDbSetFailed)
	}
	args, err := decodeTreeKeyValueArgs(raw)
	if err != nil {
		return int64(contract.ErrDbSetFailed)
	}
	if err := hc.gas.Charge(uint64(len(args.Value))); err != nil {
		return int64(contract.ErrOutOfGas)
	}
	if err := hc.db.Set(args.Tree, args.Key, args.Value); err != nil {
		return int64(contract.ErrDbSetFailed)
	}
	return int64(contract.Success)
}

func (hc *hostContext) dbDel(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	if !checkSection(hc, "db_del") {
		return int64(contract.ErrCallerAccessDenied)
	}
	raw, err := readGuestBytes(mod, argPtr, argLen)
	if err != nil {
		return int64(contract.ErrDbSetFailed)
	}
	args, err := decodeTreeKeyArgs(raw)
	if err != nil {
		return int64(contract.ErrDbSetFailed)
	}
	if err := hc.gas.Charge(uint64(len(args.Key))); err != nil {
		return int64(contract.ErrOutOfGas)
	}
	if err := hc.db.Delete(args.Tree, args.Key); err != nil {
		return int64(contract.ErrDbSetFailed)
	}
	return int64(contract.Success)
}

func (hc *hostContext) zkasDbSet(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	if !checkSection(hc, "zkas_db_set") {
		return int64(contract.ErrCallerAccessDenied)
	}
	raw, err := readGuestBytes(mod, argPtr, argLen)
	if err != nil {
		return int64(contract.ErrDbSetFailed)
	}
	r := bytes.NewReader(raw)
	namespace, err := serialize.DecodeString(r)
	if err != nil {
		return int64(contract.ErrDbSetFailed)
	}
	bincode, err := serialize.DecodeBytes(r)
	if err != nil {
		return int64(contract.ErrDbSetFailed)
	}
	if err := hc.gas.Charge(uint64(len(bincode))); err != nil {
		return int64(contract.ErrOutOfGas)
	}
	if err := hc.db.SetZkas(namespace, bincode); err != nil {
		return int64(contract.ErrDbSetFailed)
	}
	return int64(contract.Success)
}

func (hc *hostContext) merkleAdd(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	if !checkSection(hc, "merkle_add") {
		return int64(contract.ErrCallerAccessDenied)
	}
	raw, err := readGuestBytes(mod, argPtr, argLen)
	if err != nil || len(raw) != 32 {
		return int64(contract.ErrDbSetFailed)
	}
	var buf [32]byte
	copy(buf[:], raw)
	leaf, err := crypto.BaseFromCanonicalBytes(buf)
	if err != nil {
		return int64(contract.ErrDbSetFailed)
	}
	if err := hc.gas.ChargeFixed(); err != nil {
		return int64(contract.ErrOutOfGas)
	}
	pos, err := hc.tree.Append(leaf)
	if err != nil {
		return int64(contract.ErrDbSetFailed)
	}
	var posBytes [8]byte
	var w bytes.Buffer
	_ = serialize.EncodeUint64(&w, pos)
	copy(posBytes[:], w.Bytes())
	n, err := writeGuestBytes(mod, outPtr, outCap, posBytes[:])
	if err != nil {
		return int64(contract.ErrDataTooLarge)
	}
	return n
}

type smtEntry struct {
	Key   [32]byte
	Value [32]byte
}

func (hc *hostContext) sparseMerkleInsertBatch(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	if !checkSection(hc, "sparse_merkle_insert_batch") {
		return int64(contract.ErrCallerAccessDenied)
	}
	raw, err := readGuestBytes(mod, argPtr, argLen)
	if err != nil {
		return int64(contract.ErrDbSetFailed)
	}
	r := bytes.NewReader(raw)
	count, err := serialize.DecodeVarInt(r)
	if err != nil {
		return int64(contract.ErrDbSetFailed)
	}
	entries := make(map[crypto.Base]crypto.Base, count)
	for i := uint64(0); i < uint64(count); i++ {
		var kb, vb [32]byte
		if err := serialize.DecodeFixed(r, kb[:]); err != nil {
			return int64(contract.ErrDbSetFailed)
		}
		if err := serialize.DecodeFixed(r, vb[:]); err != nil {
			return int64(contract.ErrDbSetFailed)
		}
		k, err := crypto.BaseFromCanonicalBytes(kb)
		if err != nil {
			return int64(contract.ErrDbSetFailed)
		}
		v, err := crypto.BaseFromCanonicalBytes(vb)
		if err != nil {
			return int64(contract.ErrDbSetFailed)
		}
		entries[k] = v
	}
	if err := hc.gas.Charge(uint64(len(entries))); err != nil {
		return int64(contract.ErrOutOfGas)
	}
	hc.smt.InsertBatch(entries)
	return int64(contract.Success)
}

func (hc *hostContext) setReturnData(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	if !checkSection(hc, "set_return_data") {
		return int64(contract.ErrCallerAccessDenied)
	}
	raw, err := readGuestBytes(mod, argPtr, argLen)
	if err != nil {
		return int64(contract.ErrDataTooLarge)
	}
	if err := hc.gas.ChargeFixed(); err != nil {
		return int64(contract.ErrOutOfGas)
	}
	hc.returnData = raw
	return int64(contract.Success)
}

func (hc *hostContext) getCallIndex(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	if !checkSection(hc, "get_call_index") {
		return int64(contract.ErrCallerAccessDenied)
	}
	if err := hc.gas.ChargeFixed(); err != nil {
		return int64(contract.ErrOutOfGas)
	}
	var w bytes.Buffer
	_ = serialize.EncodeUint64(&w, hc.callIdx)
	n, err := writeGuestBytes(mod, outPtr, outCap, w.Bytes())
	if err != nil {
		return int64(contract.ErrDataTooLarge)
	}
	return n
}

func (hc *hostContext) txLocalAppendCoin(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	if !checkSection(hc, "tx_local_append_coin") {
		return int64(contract.ErrCallerAccessDenied)
	}
	raw, err := readGuestBytes(mod, argPtr, argLen)
	if err != nil || len(raw) != 32 {
		return int64(contract.ErrDbSetFailed)
	}
	if err := hc.gas.ChargeFixed(); err != nil {
		return int64(contract.ErrOutOfGas)
	}
	var coin [32]byte
	copy(coin[:], raw)
	hc.txLocalCoins[coin] = struct{}{}
	return int64(contract.Success)
}

func (hc *hostContext) txLocalNewCoinsContains(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	if !checkSection(hc, "tx_local_new_coins_contains") {
		return int64(contract.ErrCallerAccessDenied)
	}
	raw, err := readGuestBytes(mod, argPtr, argLen)
	if err != nil || len(raw) != 32 {
		return int64(contract.ErrDbGetFailed)
	}
	if err := hc.gas.ChargeFixed(); err != nil {
		return int64(contract.ErrOutOfGas)
	}
	var coin [32]byte
	copy(coin[:], raw)
	_, ok := hc.txLocalCoins[coin]
	var result [1]byte
	if ok {
		result[0] = 1
	}
	n, err := writeGuestBytes(mod, outPtr, outCap, result[:])
	if err != nil {
		return int64(contract.ErrDataTooLarge)
	}
	return n
}

func (hc *hostContext) hashPoseidon(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	if !checkSection(hc, "hash_poseidon") {
		return int64(contract.ErrCallerAccessDenied)
	}
	raw, err := readGuestBytes(mod, argPtr, argLen)
	if err != nil || len(raw)%32 != 0 {
		return int64(contract.ErrDbGetFailed)
	}
	n := len(raw) / 32
	inputs := make([]crypto.Base, n)
	for i := 0; i < n; i++ {
		var buf [32]byte
		copy(buf[:], raw[i*32:(i+1)*32])
		b, err := crypto.BaseFromCanonicalBytes(buf)
		if err != nil {
			return int64(contract.ErrDbGetFailed)
		}
		inputs[i] = b
	}
	if err := hc.gas.ChargeFixed(); err != nil {
		return int64(contract.ErrOutOfGas)
	}
	out := crypto.PoseidonHash(inputs...)
	outBytes := out.Bytes()
	written, err := writeGuestBytes(mod, outPtr, outCap, outBytes[:])
	if err != nil {
		return int64(contract.ErrDataTooLarge)
	}
	return written
}

func (hc *hostContext) hostLog(mod api.Module, argPtr, argLen, outPtr, outCap uint32) int64 {
	if !checkSection(hc, "log") {
		return int64(contract.ErrCallerAccessDenied)
	}
	raw, err := readGuestBytes(mod, argPtr, argLen)
	if err != nil {
		return int64(contract.ErrDataTooLarge)
	}
	if err := hc.gas.ChargeFixed(); err != nil {
		return int64(contract.ErrOutOfGas)
	}
	log.Printf("[wasm] %s", raw)
	return int64(contract.Success)
}

// hostTable maps each exported host call name to its implementation.
// Section permission is re-checked inside every call (not just at
// registration time), since the same Runtime instantiates one module per
// section across a transaction's Deploy/Metadata/Exec/Update phases.
func (hc *hostContext) hostTable() map[string]hostFunc {
	return map[string]hostFunc{
		"db_init":                     hc.dbInit,
		"db_lookup":                   hc.dbLookup,
		"db_get":                      hc.dbGet,
		"db_set":                      hc.dbSet,
		"db_del":                      hc.dbDel,
		"db_contains_key":             hc.dbContainsKey,
		"zkas_db_set":                 hc.zkasDbSet,
		"merkle_add":                  hc.merkleAdd,
		"sparse_merkle_insert_batch":  hc.sparseMerkleInsertBatch,
		"set_return_data":             hc.setReturnData,
		"get_call_index":              hc.getCallIndex,
		"tx_local_append_coin":        hc.txLocalAppendCoin,
		"tx_local_new_coins_contains": hc.txLocalNewCoinsContains,
		"hash_poseidon":               hc.hashPoseidon,
		"log":                         hc.hostLog,
	}
}

