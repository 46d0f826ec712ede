package block

import (
	"io"

	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/serialize"
	"github.com/darkfi-core/engine/pkg/txn"
)

// EncodeHeader writes h's canonical encoding.
func EncodeHeader(w io.Writer, h Header) error {
	if err := serialize.EncodeUint8(w, h.Version); err != nil {
		return err
	}
	if err := serialize.EncodeFixed(w, h.PreviousHash[:]); err != nil {
		return err
	}
	if err := serialize.EncodeUint64(w, h.Height); err != nil {
		return err
	}
	if err := serialize.EncodeUint64(w, uint64(h.Timestamp)); err != nil {
		return err
	}
	if err := serialize.EncodeUint64(w, h.Nonce); err != nil {
		return err
	}
	if err := serialize.EncodeFixed(w, h.TransactionsRoot[:]); err != nil {
		return err
	}
	if err := serialize.EncodeFixed(w, h.StateRoot[:]); err != nil {
		return err
	}
	if err := serialize.EncodeUint64(w, h.Reward); err != nil {
		return err
	}
	return encodeSignature(w, h.ProducerSignature)
}

// DecodeHeader reads a Header written by EncodeHeader.
func DecodeHeader(r io.Reader) (Header, error) {
	var h Header
	version, err := serialize.DecodeUint8(r)
	if err != nil {
		return h, err
	}
	h.Version = version

	if err := serialize.DecodeFixed(r, h.PreviousHash[:]); err != nil {
		return h, err
	}
	if h.Height, err = serialize.DecodeUint64(r); err != nil {
		return h, err
	}
	ts, err := serialize.DecodeUint64(r)
	if err != nil {
		return h, err
	}
	h.Timestamp = int64(ts)
	if h.Nonce, err = serialize.DecodeUint64(r); err != nil {
		return h, err
	}
	if err := serialize.DecodeFixed(r, h.TransactionsRoot[:]); err != nil {
		return h, err
	}
	if err := serialize.DecodeFixed(r, h.StateRoot[:]); err != nil {
		return h, err
	}
	if h.Reward, err = serialize.DecodeUint64(r); err != nil {
		return h, err
	}
	sig, err := decodeSignature(r)
	if err != nil {
		return h, err
	}
	h.ProducerSignature = sig
	return h, nil
}

// EncodeBlock writes b's canonical encoding: its header followed by its
// transaction list.
func EncodeBlock(w io.Writer, b Block) error {
	if err := EncodeHeader(w, b.Header); err != nil {
		return err
	}
	return serialize.EncodeSlice(w, b.Transactions, txn.Encode)
}

// DecodeBlock reads a Block written by EncodeBlock.
func DecodeBlock(r io.Reader) (Block, error) {
	var b Block
	header, err := DecodeHeader(r)
	if err != nil {
		return b, err
	}
	txs, err := serialize.DecodeSlice(r, txn.Decode)
	if err != nil {
		return b, err
	}
	b.Header, b.Transactions = header, txs
	return b, nil
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
