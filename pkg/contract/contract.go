// Package contract defines the ABI-level types every contract call and
// host invocation is built from: ContractId/FuncId (aliased from pkg/crypto,
// since they are Poseidon derivations, not ABI-specific types), ContractCall,
// and the DarkLeaf forest node used to thread both transactions and
// WASM-boundary arguments.
package contract

import "github.com/darkfi-core/engine/pkg/crypto"

// ContractId addresses a contract's state.
type ContractId = crypto.ContractId

// FuncId identifies a call target within a ContractId.
type FuncId = crypto.FuncId

// ContractCall is one call within a transaction's call forest. Data[0] is
// the contract-defined function selector; Data[1:] is contract-defined.
type ContractCall struct {
	ContractID ContractId
	Data       []byte
}

// Selector returns the function selector byte, or false if Data is empty.
func (c ContractCall) Selector() (uint8, bool) {
	if len(c.Data) == 0 {
		return 0, false
	}
	return c.Data[0], true
}

// DarkLeaf is one node of a forest stored as a flat, topologically ordered
// (parent before every child) slice. ParentIndex is nil for a root.
type DarkLeaf[T any] struct {
	Data            T
	ParentIndex     *uint64
	ChildrenIndexes []uint64
}

// IsRoot reports whether this leaf has no parent.
func (d DarkLeaf[T]) IsRoot() bool { return d.ParentIndex == nil }
