// Package zkas decodes the compiled circuit binary a contract ships
// alongside its WASM module: a versioned header, a witness/constant/literal
// table, and an opcode stream that pkg/zkverify replays against a gnark
// circuit. Follows the same wire-decoding idiom as the rest of this tree:
// a versioned, length-prefixed binary format read field by field, rejecting
// anything malformed up front, the same shape pkg/serialize's VarInt
// decoder follows.
package zkas

import (
	"errors"
	"fmt"
	"io"

	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/serialize"
)

// ErrMalformedBinary is the single error kind Decode ever returns; wrap
// errors.Is(err, ErrMalformedBinary) to detect any decode/validation
// failure, and inspect the message for diagnostics.
var ErrMalformedBinary = errors.New("zkas: malformed binary")

const binaryVersion = 1

// VarType tags the kind of value a witness or constant heap slot holds.
type VarType uint8

const (
	VarEcPoint VarType = iota
	VarEcNiPoint
	VarEcFixedPoint
	VarBase
	VarScalar
	VarMerklePath
	VarSparseMerklePath
	VarUint32
	VarUint64
)

func (v VarType) valid() bool { return v <= VarUint64 }

// Opcode identifies a single zkas instruction.
type Opcode uint8

const (
	OpEcAdd Opcode = iota
	OpEcMul
	OpEcMulBase
	OpEcMulShort
	OpEcMulVarBase
	OpEcGetX
	OpEcGetY
	OpPoseidonHash
	OpMerkleRoot
	OpSparseMerkleRoot
	OpBaseAdd
	OpBaseMul
	OpBaseSub
	OpWitnessBase
	OpRangeCheck
	OpLessThanStrict
	OpLessThanLoose
	OpBoolCheck
	OpCondSelect
	OpZeroCondSelect
	OpConstrainEqualBase
	OpConstrainEqualPoint
	OpConstrainInstance
	OpDebugPrint
)

type opcodeInfo struct {
	minArgs   int
	variadic  bool
	hasOutput bool
}

var opcodeTable = map[Opcode]opcodeInfo{
	OpEcAdd:               {minArgs: 2, hasOutput: true},
	OpEcMul:               {minArgs: 2, hasOutput: true},
	OpEcMulBase:           {minArgs: 1, hasOutput: true},
	OpEcMulShort:          {minArgs: 1, hasOutput: true},
	OpEcMulVarBase:        {minArgs: 2, hasOutput: true},
	OpEcGetX:              {minArgs: 1, hasOutput: true},
	OpEcGetY:              {minArgs: 1, hasOutput: true},
	OpPoseidonHash:        {minArgs: 1, variadic: true, hasOutput: true},
	OpMerkleRoot:          {minArgs: 2, hasOutput: true},
	OpSparseMerkleRoot:    {minArgs: 3, hasOutput: true},
	OpBaseAdd:             {minArgs: 2, hasOutput: true},
	OpBaseMul:             {minArgs: 2, hasOutput: true},
	OpBaseSub:             {minArgs: 2, hasOutput: true},
	OpWitnessBase:         {minArgs: 1, hasOutput: true},
	OpRangeCheck:          {minArgs: 2, hasOutput: false},
	OpLessThanStrict:      {minArgs: 2, hasOutput: true},
	OpLessThanLoose:       {minArgs: 2, hasOutput: true},
	OpBoolCheck:           {minArgs: 1, hasOutput: false},
	OpCondSelect:          {minArgs: 3, hasOutput: true},
	OpZeroCondSelect:      {minArgs: 2, hasOutput: true},
	OpConstrainEqualBase:  {minArgs: 2, hasOutput: false},
	OpConstrainEqualPoint: {minArgs: 2, hasOutput: false},
	OpConstrainInstance:   {minArgs: 1, hasOutput: false},
	OpDebugPrint:          {minArgs: 1, hasOutput: false},
}

// NamedConstant is a named field constant baked into the binary.
type NamedConstant struct {
	Name string
	Type VarType
}

// Instruction is one opcode and the heap indices of its operands.
type Instruction struct {
	Op   Opcode
	Args []uint32
}

// Binary is a fully decoded and validated zkas circuit.
type Binary struct {
	K          uint32
	Namespace  string
	Witnesses  []VarType
	Constants  []NamedConstant
	Literals   []crypto.Base
	Opcodes    []Instruction
	heapSize   uint32 // witnesses + constants + literals + opcode outputs
}

// HeapSize returns the total number of heap slots the binary allocates,
// including every opcode's output slot.
func (b *Binary) HeapSize() uint32 { return b.heapSize }

// Decode parses and validates a compiled zkas binary. Any failure is
// reported wrapping ErrMalformedBinary.
func Decode(r io.Reader) (*Binary, error) {
	b, err := decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBinary, err)
	}
	return b, nil
}

func decode(r io.Reader) (*Binary, error) {
	version, err := serialize.DecodeUint8(r)
	if err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != binaryVersion {
		return nil, fmt.Errorf("unsupported version %d", version)
	}

	k, err := serialize.DecodeUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read k: %w", err)
	}
	if k < 1 || k > 20 {
		return nil, fmt.Errorf("k=%d out of range [1,20]", k)
	}

	namespace, err := serialize.DecodeString(r)
	if err != nil {
		return nil, fmt.Errorf("read namespace: %w", err)
	}

	witnesses, err := decodeVarTypes(r)
	if err != nil {
		return nil, fmt.Errorf("read witnesses: %w", err)
	}

	constants, err := decodeConstants(r)
	if err != nil {
		return nil, fmt.Errorf("read constants: %w", err)
	}

	literals, err := decodeLiterals(r)
	if err != nil {
		return nil, fmt.Errorf("read literals: %w", err)
	}

	heapSize := uint32(len(witnesses) + len(constants) + len(literals))

	opcodes, finalHeapSize, err := decodeOpcodes(r, heapSize)
	if err != nil {
		return nil, fmt.Errorf("read opcodes: %w", err)
	}

	return &Binary{
		K:         k,
		Namespace: namespace,
		Witnesses: witnesses,
		Constants: constants,
		Literals:  literals,
		Opcodes:   opcodes,
		heapSize:  finalHeapSize,
	}, nil
}

func decodeVarTypes(r io.Reader) ([]VarType, error) {
	count, err := serialize.DecodeVarInt(r)
	if err != nil {
		return nil, err
	}
	out := make([]VarType, count)
	for i := range out {
		raw, err := serialize.DecodeUint8(r)
		if err != nil {
			return nil, err
		}
		vt := VarType(raw)
		if !vt.valid() {
			return nil, fmt.Errorf("invalid VarType %d at index %d", raw, i)
		}
		out[i] = vt
	}
	return out, nil
}

func decodeConstants(r io.Reader) ([]NamedConstant, error) {
	count, err := serialize.DecodeVarInt(r)
	if err != nil {
		return nil, err
	}
	out := make([]NamedConstant, count)
	for i := range out {
		name, err := serialize.DecodeString(r)
		if err != nil {
			return nil, err
		}
		raw, err := serialize.DecodeUint8(r)
		if err != nil {
			return nil, err
		}
		vt := VarType(raw)
		if !vt.valid() {
			return nil, fmt.Errorf("invalid VarType %d for constant %q", raw, name)
		}
		out[i] = NamedConstant{Name: name, Type: vt}
	}
	return out, nil
}

func decodeLiterals(r io.Reader) ([]crypto.Base, error) {
	count, err := serialize.DecodeVarInt(r)
	if err != nil {
		return nil, err
	}
	out := make([]crypto.Base, count)
	for i := range out {
		var buf [32]byte
		if err := serialize.DecodeFixed(r, buf[:]); err != nil {
			return nil, err
		}
		base, err := crypto.BaseFromCanonicalBytes(buf)
		if err != nil {
			return nil, fmt.Errorf("literal %d: %w", i, err)
		}
		out[i] = base
	}
	return out, nil
}

func decodeOpcodes(r io.Reader, heapSize uint32) ([]Instruction, uint32, error) {
	count, err := serialize.DecodeVarInt(r)
	if err != nil {
		return nil, 0, err
	}
	out := make([]Instruction, count)
	for i := range out {
		rawOp, err := serialize.DecodeUint8(r)
		if err != nil {
			return nil, 0, err
		}
		op := Opcode(rawOp)
		info, ok := opcodeTable[op]
		if !ok {
			return nil, 0, fmt.Errorf("unknown opcode %d at instruction %d", rawOp, i)
		}

		argCount, err := serialize.DecodeVarInt(r)
		if err != nil {
			return nil, 0, err
		}
		if int(argCount) < info.minArgs || (!info.variadic && int(argCount) != info.minArgs) {
			return nil, 0, fmt.Errorf("opcode %d at instruction %d: arity %d does not match expected %d", rawOp, i, argCount, info.minArgs)
		}

		args := make([]uint32, argCount)
		for j := range args {
			v, err := serialize.DecodeUint32(r)
			if err != nil {
				return nil, 0, err
			}
			if v >= heapSize {
				return nil, 0, fmt.Errorf("instruction %d arg %d references undefined heap index %d", i, j, v)
			}
			args[j] = v
		}

		out[i] = Instruction{Op: op, Args: args}
		if info.hasOutput {
			heapSize++
		}
	}
	return out, heapSize, nil
}
