package validator

import (
	"bytes"
	"io"

	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/serialize"
)

// ProofRequirement is one circuit a call's metadata declares it needs a
// proof for, along with the public inputs that proof must be checked
// against.
type ProofRequirement struct {
	Namespace    string
	PublicInputs []crypto.Base
}

// CallMetadata is the decoded return value of a call's __metadata export:
// the circuits it needs proofs for, in order, and the public keys its
// signatures must cover, in order.
type CallMetadata struct {
	ProofReqs  []ProofRequirement
	SignerKeys []crypto.Point
}

// EncodeMetadata writes m's canonical encoding. Validators only ever
// decode a guest's __metadata output; this exists so contract test code
// and wallets can build fixtures symmetrically.
func EncodeMetadata(w io.Writer, m CallMetadata) error {
	if err := serialize.EncodeSlice(w, m.ProofReqs, encodeProofRequirement); err != nil {
		return err
	}
	return serialize.EncodeSlice(w, m.SignerKeys, encodePoint)
}

// DecodeMetadata reads a CallMetadata written by EncodeMetadata (the
// format a contract's __metadata export must return).
func DecodeMetadata(data []byte) (CallMetadata, error) {
	r := bytes.NewReader(data)
	reqs, err := serialize.DecodeSlice(r, decodeProofRequirement)
	if err != nil {
		return CallMetadata{}, err
	}
	keys, err := serialize.DecodeSlice(r, decodePoint)
	if err != nil {
		return CallMetadata{}, err
	}
	return CallMetadata{ProofReqs: reqs, SignerKeys: keys}, nil
}

func encodeProofRequirement(w io.Writer, p ProofRequirement) error {
	if err := serialize.EncodeString(w, p.Namespace); err != nil {
		return err
	}
	return serialize.EncodeSlice(w, p.PublicInputs, encodeBase)
}

func decodeProofRequirement(r io.Reader) (ProofRequirement, error) {
	namespace, err := serialize.DecodeString(r)
	if err != nil {
		return ProofRequirement{}, err
	}
	inputs, err := serialize.DecodeSlice(r, decodeBase)
	if err != nil {
		return ProofRequirement{}, err
	}
	return ProofRequirement{Namespace: namespace, PublicInputs: inputs}, nil
}

func encodeBase(w io.Writer, b crypto.Base) error {
	bs := b.Bytes()
	return serialize.EncodeFixed(w, bs[:])
}

func decodeBase(r io.Reader) (crypto.Base, error) {
	var bs [32]byte
	if err := serialize.DecodeFixed(r, bs[:]); err != nil {
		return crypto.Base{}, err
	}
	return crypto.BaseFromCanonicalBytes(bs)
}

func encodePoint(w io.Writer, p crypto.Point) error {
	bs := p.Bytes()
	return serialize.EncodeFixed(w, bs[:])
}

func decodePoint(r io.Reader) (crypto.Point, error) {
	var bs [32]byte
	if err := serialize.DecodeFixed(r, bs[:]); err != nil {
		return crypto.Point{}, err
	}
	return crypto.PointFromCompressedBytes(bs)
}
