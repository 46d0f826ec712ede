package contract

import (
	"fmt"
	"io"

	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/serialize"
)

// EncodeContractCall writes c's canonical encoding.
func EncodeContractCall(w io.Writer, c ContractCall) error {
	idBytes := c.ContractID.Bytes()
	if err := serialize.EncodeFixed(w, idBytes[:]); err != nil {
		return err
	}
	return serialize.EncodeBytes(w, c.Data)
}

// DecodeContractCall reads a ContractCall written by EncodeContractCall.
func DecodeContractCall(r io.Reader) (ContractCall, error) {
	var idBytes [32]byte
	if err := serialize.DecodeFixed(r, idBytes[:]); err != nil {
		return ContractCall{}, err
	}
	base, err := crypto.BaseFromCanonicalBytes(idBytes)
	if err != nil {
		return ContractCall{}, fmt.Errorf("contract id: %w", err)
	}
	data, err := serialize.DecodeBytes(r)
	if err != nil {
		return ContractCall{}, err
	}
	return ContractCall{ContractID: ContractId(base), Data: data}, nil
}

// EncodeDarkLeaf writes a DarkLeaf[T], using enc to encode the payload.
func EncodeDarkLeaf[T any](w io.Writer, leaf DarkLeaf[T], enc func(io.Writer, T) error) error {
	if err := enc(w, leaf.Data); err != nil {
		return err
	}
	var parent uint64
	hasParent := leaf.ParentIndex != nil
	if hasParent {
		parent = *leaf.ParentIndex
	}
	if err := serialize.EncodeBool(w, hasParent); err != nil {
		return err
	}
	if hasParent {
		if err := serialize.EncodeUint64(w, parent); err != nil {
			return err
		}
	}
	return serialize.EncodeSlice(w, leaf.ChildrenIndexes, serialize.EncodeUint64)
}

// DecodeDarkLeaf reads a DarkLeaf[T] written by EncodeDarkLeaf.
func DecodeDarkLeaf[T any](r io.Reader, dec func(io.Reader) (T, error)) (DarkLeaf[T], error) {
	var leaf DarkLeaf[T]

	data, err := dec(r)
	if err != nil {
		return leaf, err
	}
	leaf.Data = data

	hasParent, err := serialize.DecodeBool(r)
	if err != nil {
		return leaf, err
	}
	if hasParent {
		parent, err := serialize.DecodeUint64(r)
		if err != nil {
			return leaf, err
		}
		leaf.ParentIndex = &parent
	}

	children, err := serialize.DecodeSlice(r, serialize.DecodeUint64)
	if err != nil {
		return leaf, err
	}
	leaf.ChildrenIndexes = children
	return leaf, nil
}
