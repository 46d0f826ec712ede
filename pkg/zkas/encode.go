package zkas

import (
	"io"

	"github.com/darkfi-core/engine/pkg/serialize"
)

// Encode writes b in the format Decode expects. Used by tests and by the
// contract build tooling that produces zkas binaries in the first place.
func (b *Binary) Encode(w io.Writer) error {
	if err := serialize.EncodeUint8(w, binaryVersion); err != nil {
		return err
	}
	if err := serialize.EncodeUint32(w, b.K); err != nil {
		return err
	}
	if err := serialize.EncodeString(w, b.Namespace); err != nil {
		return err
	}

	if err := serialize.EncodeVarInt(w, serialize.VarInt(len(b.Witnesses))); err != nil {
		return err
	}
	for _, wt := range b.Witnesses {
		if err := serialize.EncodeUint8(w, uint8(wt)); err != nil {
			return err
		}
	}

	if err := serialize.EncodeVarInt(w, serialize.VarInt(len(b.Constants))); err != nil {
		return err
	}
	for _, c := range b.Constants {
		if err := serialize.EncodeString(w, c.Name); err != nil {
			return err
		}
		if err := serialize.EncodeUint8(w, uint8(c.Type)); err != nil {
			return err
		}
	}

	if err := serialize.EncodeVarInt(w, serialize.VarInt(len(b.Literals))); err != nil {
		return err
	}
	for _, lit := range b.Literals {
		buf := lit.Bytes()
		if err := serialize.EncodeFixed(w, buf[:]); err != nil {
			return err
		}
	}

	if err := serialize.EncodeVarInt(w, serialize.VarInt(len(b.Opcodes))); err != nil {
		return err
	}
	for _, instr := range b.Opcodes {
		if err := serialize.EncodeUint8(w, uint8(instr.Op)); err != nil {
			return err
		}
		if err := serialize.EncodeVarInt(w, serialize.VarInt(len(instr.Args))); err != nil {
			return err
		}
		for _, arg := range instr.Args {
			if err := serialize.EncodeUint32(w, arg); err != nil {
				return err
			}
		}
	}

	return nil
}
