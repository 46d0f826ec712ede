package txn

import (
	"bytes"
	"io"

	"github.com/darkfi-core/engine/pkg/contract"
	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/serialize"
	"github.com/darkfi-core/engine/pkg/zkverify"
)

// Encode writes t's canonical encoding.
func Encode(w io.Writer, t Transaction) error {
	encCall := func(w io.Writer, c contract.ContractCall) error {
		return contract.EncodeContractCall(w, c)
	}
	if err := serialize.EncodeSlice(w, t.Calls, func(w io.Writer, leaf contract.DarkLeaf[contract.ContractCall]) error {
		return contract.EncodeDarkLeaf(w, leaf, encCall)
	}); err != nil {
		return err
	}
	if err := serialize.EncodeSlice(w, t.Proofs, encodeProofList); err != nil {
		return err
	}
	return serialize.EncodeSlice(w, t.Signatures, encodeSignatureList)
}

// Decode reads a Transaction written by Encode.
func Decode(r io.Reader) (Transaction, error) {
	var t Transaction
	decCall := func(r io.Reader) (contract.ContractCall, error) {
		return contract.DecodeContractCall(r)
	}
	calls, err := serialize.DecodeSlice(r, func(r io.Reader) (contract.DarkLeaf[contract.ContractCall], error) {
		return contract.DecodeDarkLeaf(r, decCall)
	})
	if err != nil {
		return t, err
	}
	proofs, err := serialize.DecodeSlice(r, decodeProofList)
	if err != nil {
		return t, err
	}
	sigs, err := serialize.DecodeSlice(r, decodeSignatureList)
	if err != nil {
		return t, err
	}
	t.Calls, t.Proofs, t.Signatures = calls, proofs, sigs
	return t, nil
}

func encodeProofList(w io.Writer, proofs []zkverify.Proof) error {
	return serialize.EncodeSlice(w, proofs, encodeProof)
}

func decodeProofList(r io.Reader) ([]zkverify.Proof, error) {
	return serialize.DecodeSlice(r, decodeProof)
}

func encodeProof(w io.Writer, p zkverify.Proof) error {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return err
	}
	return serialize.EncodeBytes(w, buf.Bytes())
}

func decodeProof(r io.Reader) (zkverify.Proof, error) {
	raw, err := serialize.DecodeBytes(r)
	if err != nil {
		return zkverify.Proof{}, err
	}
	var p zkverify.Proof
	if _, err := p.ReadFrom(bytes.NewReader(raw)); err != nil {
		return zkverify.Proof{}, err
	}
	return p, nil
}

func encodeSignatureList(w io.Writer, sigs []crypto.Signature) error {
	return serialize.EncodeSlice(w, sigs, encodeSignature)
}

func decodeSignatureList(r io.Reader) ([]crypto.Signature, error) {
	return serialize.DecodeSlice(r, decodeSignature)
}

func encodeSignature(w io.Writer, sig crypto.Signature) error {
	rBytes := sig.R.Bytes()
	if err := serialize.EncodeFixed(w, rBytes[:]); err != nil {
		return err
	}
	sBytes := sig.S.Bytes()
	return serialize.EncodeFixed(w, sBytes[:])
}

func decodeSignature(r io.Reader) (crypto.Signature, error) {
	var rBytes, sBytes [32]byte
	if err := serialize.DecodeFixed(r, rBytes[:]); err != nil {
		return crypto.Signature{}, err
	}
	if err := serialize.DecodeFixed(r, sBytes[:]); err != nil {
		return crypto.Signature{}, err
	}
	rPoint, err := crypto.PointFromCompressedBytes(rBytes)
	if err != nil {
		return crypto.Signature{}, err
	}
	s, err := crypto.ScalarFromCanonicalBytes(sBytes)
	if err != nil {
		return crypto.Signature{}, err
	}
	return crypto.Signature{R: rPoint, S: s}, nil
}
