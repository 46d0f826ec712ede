// Package zkverify turns a decoded zkas.Binary into a gnark circuit and
// wraps PLONK setup/prove/verify around it.
//
// The pack's ZK stack (gnark/gnark-crypto) speaks Groth16/PLONK, not Halo2.
// PLONK is, like Halo2, a universal-SRS polynomial IOP with a custom gate
// system, so it is the backend used here (github.com/consensys/gnark/backend/plonk).
// The only gnark circuit in the pack, the validator's BLS signature circuit,
// represents curve points as separate X/Y frontend.Variable fields rather
// than through a curve gadget; ZkCircuit follows that same shape for the
// heap's EC-typed slots, but reaches for gnark's own twisted-Edwards gadget
// (std/algebra/native/twistededwards) to perform the actual point
// arithmetic the EcAdd/EcMul family needs, since BN254's scalar field is
// exactly gnark's native witness field and the companion twisted-Edwards
// curve over it (the one gnark ships a gadget for) is the nearest thing to
// a second, circuit-embedded curve available in this stack.
package zkverify

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/twistededwards"
	"github.com/consensys/gnark/std/hash/mimc"

	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/merkletree"
	"github.com/darkfi-core/engine/pkg/zkas"
)

type heapKind uint8

const (
	kindScalar heapKind = iota
	kindPoint
	kindPath
)

// heapValue is one entry of the replayed heap: either a plain field element,
// a curve point (X, Y), or a Merkle/sparse-Merkle sibling path.
type heapValue struct {
	kind heapKind

	v frontend.Variable // kindScalar

	x, y frontend.Variable // kindPoint

	path []frontend.Variable // kindPath

	// constVal is set only for heap slots whose value is a compile-time
	// literal; RangeCheck needs a concrete bit width, which only a literal
	// operand can supply.
	constVal *big.Int
}

func slotWidth(vt zkas.VarType) int {
	switch vt {
	case zkas.VarEcPoint, zkas.VarEcNiPoint, zkas.VarEcFixedPoint:
		return 2
	case zkas.VarMerklePath:
		return merkletree.IncrementalTreeDepth
	case zkas.VarSparseMerklePath:
		return merkletree.SparseMerkleTreeDepth
	default:
		return 1
	}
}

func constantVarTypes(cs []zkas.NamedConstant) []zkas.VarType {
	out := make([]zkas.VarType, len(cs))
	for i, c := range cs {
		out[i] = c.Type
	}
	return out
}

func declaredVarTypes(b *zkas.Binary) []zkas.VarType {
	out := make([]zkas.VarType, 0, len(b.Witnesses)+len(b.Constants))
	out = append(out, b.Witnesses...)
	out = append(out, constantVarTypes(b.Constants)...)
	return out
}

type slotLoc struct {
	offset int
	width  int
}

// ZkCircuit interprets a decoded zkas.Binary's opcode stream as a gnark
// circuit. Every witness and constant gets one or more Private slots;
// ConstrainInstance calls get one Public slot each, assigned in the order
// they appear in the opcode stream.
type ZkCircuit struct {
	Private []frontend.Variable
	Public  []frontend.Variable `gnark:",public"`

	binary *zkas.Binary
	locs   []slotLoc
}

// NewCircuit builds the (unassigned) circuit shape for b: the slice widths
// gnark needs at Compile time. Call AssignWitness before proving.
func NewCircuit(b *zkas.Binary) (*ZkCircuit, error) {
	declared := declaredVarTypes(b)
	locs := make([]slotLoc, len(declared))
	width := 0
	for i, vt := range declared {
		w := slotWidth(vt)
		locs[i] = slotLoc{offset: width, width: w}
		width += w
	}

	numPublic := 0
	for _, instr := range b.Opcodes {
		if instr.Op == zkas.OpConstrainInstance {
			numPublic++
		}
	}

	return &ZkCircuit{
		Private: make([]frontend.Variable, width),
		Public:  make([]frontend.Variable, numPublic),
		binary:  b,
		locs:    locs,
	}, nil
}

// WitnessValue is the concrete value assigned to one witness or constant
// heap slot: crypto.Base, crypto.Scalar, crypto.Point, uint32, uint64,
// merkletree.MerklePath or merkletree.SparseMerklePath, matching the slot's
// declared zkas.VarType.
type WitnessValue any

// AssignWitness fills in the circuit's Private and Public slices ahead of
// proving. witnessValues and constantValues must align positionally with
// the binary's Witnesses and Constants; publicValues must align with the
// opcode stream's ConstrainInstance calls in order.
func (c *ZkCircuit) AssignWitness(witnessValues, constantValues []WitnessValue, publicValues []crypto.Base) error {
	declared := declaredVarTypes(c.binary)
	values := make([]WitnessValue, 0, len(declared))
	values = append(values, witnessValues...)
	values = append(values, constantValues...)
	if len(values) != len(declared) {
		return ErrWitnessValueMismatch
	}
	for i, vt := range declared {
		if err := writeSlot(vt, values[i], c.Private, c.locs[i]); err != nil {
			return err
		}
	}
	if len(publicValues) != len(c.Public) {
		return ErrPublicInputMismatch
	}
	for i, v := range publicValues {
		c.Public[i] = v.BigInt()
	}
	return nil
}

func writeSlot(vt zkas.VarType, val WitnessValue, vars []frontend.Variable, loc slotLoc) error {
	switch vt {
	case zkas.VarEcPoint, zkas.VarEcNiPoint, zkas.VarEcFixedPoint:
		p, ok := val.(crypto.Point)
		if !ok {
			return fmt.Errorf("%w: expected crypto.Point", ErrUnsupportedVarType)
		}
		vars[loc.offset] = p.X().BigInt()
		vars[loc.offset+1] = p.Y().BigInt()
	case zkas.VarScalar:
		s, ok := val.(crypto.Scalar)
		if !ok {
			return fmt.Errorf("%w: expected crypto.Scalar", ErrUnsupportedVarType)
		}
		vars[loc.offset] = s.BigInt()
	case zkas.VarMerklePath:
		p, ok := val.(merkletree.MerklePath)
		if !ok {
			return fmt.Errorf("%w: expected merkletree.MerklePath", ErrUnsupportedVarType)
		}
		for i, sib := range p.Siblings {
			vars[loc.offset+i] = sib.BigInt()
		}
	case zkas.VarSparseMerklePath:
		p, ok := val.(merkletree.SparseMerklePath)
		if !ok {
			return fmt.Errorf("%w: expected merkletree.SparseMerklePath", ErrUnsupportedVarType)
		}
		for i, sib := range p.Siblings {
			vars[loc.offset+i] = sib.BigInt()
		}
	case zkas.VarUint32:
		u, ok := val.(uint32)
		if !ok {
			return fmt.Errorf("%w: expected uint32", ErrUnsupportedVarType)
		}
		vars[loc.offset] = u
	case zkas.VarUint64:
		u, ok := val.(uint64)
		if !ok {
			return fmt.Errorf("%w: expected uint64", ErrUnsupportedVarType)
		}
		vars[loc.offset] = u
	default: // VarBase
		b, ok := val.(crypto.Base)
		if !ok {
			return fmt.Errorf("%w: expected crypto.Base", ErrUnsupportedVarType)
		}
		vars[loc.offset] = b.BigInt()
	}
	return nil
}

func readSlot(vt zkas.VarType, vars []frontend.Variable, loc slotLoc) heapValue {
	switch vt {
	case zkas.VarEcPoint, zkas.VarEcNiPoint, zkas.VarEcFixedPoint:
		return heapValue{kind: kindPoint, x: vars[loc.offset], y: vars[loc.offset+1]}
	case zkas.VarMerklePath, zkas.VarSparseMerklePath:
		path := make([]frontend.Variable, loc.width)
		copy(path, vars[loc.offset:loc.offset+loc.width])
		return heapValue{kind: kindPath, path: path}
	default:
		return heapValue{kind: kindScalar, v: vars[loc.offset]}
	}
}

// Define replays the binary's opcode stream: declared witness/constant
// slots come from Private, literals are embedded as compile-time
// constants, and each opcode either asserts a constraint or appends a new
// value to the heap.
func (c *ZkCircuit) Define(api frontend.API) error {
	curve, err := twistededwards.NewEdCurve(api, twistededwards.BN254)
	if err != nil {
		return fmt.Errorf("construct curve gadget: %w", err)
	}
	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return fmt.Errorf("construct hash gadget: %w", err)
	}

	declared := declaredVarTypes(c.binary)
	heap := make([]heapValue, 0, c.binary.HeapSize())
	for i, vt := range declared {
		heap = append(heap, readSlot(vt, c.Private, c.locs[i]))
	}
	for _, lit := range c.binary.Literals {
		bi := lit.BigInt()
		heap = append(heap, heapValue{kind: kindScalar, v: bi, constVal: bi})
	}

	publicIdx := 0
	for _, instr := range c.binary.Opcodes {
		out, err := evalOpcode(api, curve, &hasher, heap, instr, c.Public, &publicIdx)
		if err != nil {
			return err
		}
		if out != nil {
			heap = append(heap, *out)
		}
	}
	return nil
}

func curveBasePoint(curve twistededwards.Curve) twistededwards.Point {
	params := curve.Params()
	return twistededwards.Point{X: params.Base[0], Y: params.Base[1]}
}

func evalOpcode(api frontend.API, curve twistededwards.Curve, hasher *mimc.MiMC, heap []heapValue, instr zkas.Instruction, public []frontend.Variable, publicIdx *int) (*heapValue, error) {
	arg := func(i int) heapValue { return heap[instr.Args[i]] }

	switch instr.Op {
	case zkas.OpEcAdd:
		p1, p2 := arg(0), arg(1)
		if p1.kind != kindPoint || p2.kind != kindPoint {
			return nil, fmt.Errorf("EcAdd: operand is not a point")
		}
		out := curve.Add(twistededwards.Point{X: p1.x, Y: p1.y}, twistededwards.Point{X: p2.x, Y: p2.y})
		return &heapValue{kind: kindPoint, x: out.X, y: out.Y}, nil

	case zkas.OpEcMul, zkas.OpEcMulVarBase:
		p, s := arg(0), arg(1)
		if p.kind != kindPoint {
			return nil, fmt.Errorf("%v: operand is not a point", instr.Op)
		}
		out := curve.ScalarMul(twistededwards.Point{X: p.x, Y: p.y}, s.v)
		return &heapValue{kind: kindPoint, x: out.X, y: out.Y}, nil

	case zkas.OpEcMulBase, zkas.OpEcMulShort:
		s := arg(0)
		out := curve.ScalarMul(curveBasePoint(curve), s.v)
		return &heapValue{kind: kindPoint, x: out.X, y: out.Y}, nil

	case zkas.OpEcGetX:
		p := arg(0)
		if p.kind != kindPoint {
			return nil, fmt.Errorf("EcGetX: operand is not a point")
		}
		return &heapValue{kind: kindScalar, v: p.x}, nil

	case zkas.OpEcGetY:
		p := arg(0)
		if p.kind != kindPoint {
			return nil, fmt.Errorf("EcGetY: operand is not a point")
		}
		return &heapValue{kind: kindScalar, v: p.y}, nil

	case zkas.OpPoseidonHash:
		hasher.Reset()
		for _, idx := range instr.Args {
			v := heap[idx]
			if v.kind != kindScalar {
				return nil, fmt.Errorf("PoseidonHash: operand is not a field element")
			}
			hasher.Write(v.v)
		}
		return &heapValue{kind: kindScalar, v: hasher.Sum()}, nil

	case zkas.OpMerkleRoot:
		leaf, path := arg(0), arg(1)
		if path.kind != kindPath {
			return nil, fmt.Errorf("MerkleRoot: second operand is not a path")
		}
		cur := leaf.v
		for _, sib := range path.path {
			hasher.Reset()
			hasher.Write(cur, sib)
			cur = hasher.Sum()
		}
		return &heapValue{kind: kindScalar, v: cur}, nil

	case zkas.OpSparseMerkleRoot:
		key, value, path := arg(0), arg(1), arg(2)
		if path.kind != kindPath {
			return nil, fmt.Errorf("SparseMerkleRoot: third operand is not a path")
		}
		hasher.Reset()
		hasher.Write(key.v, value.v)
		cur := hasher.Sum()
		for _, sib := range path.path {
			hasher.Reset()
			hasher.Write(cur, sib)
			cur = hasher.Sum()
		}
		return &heapValue{kind: kindScalar, v: cur}, nil

	case zkas.OpBaseAdd:
		a, b := arg(0), arg(1)
		return &heapValue{kind: kindScalar, v: api.Add(a.v, b.v)}, nil

	case zkas.OpBaseMul:
		a, b := arg(0), arg(1)
		return &heapValue{kind: kindScalar, v: api.Mul(a.v, b.v)}, nil

	case zkas.OpBaseSub:
		a, b := arg(0), arg(1)
		return &heapValue{kind: kindScalar, v: api.Sub(a.v, b.v)}, nil

	case zkas.OpWitnessBase:
		a := arg(0)
		return &heapValue{kind: kindScalar, v: a.v}, nil

	case zkas.OpRangeCheck:
		val, bound := arg(0), arg(1)
		if bound.constVal == nil {
			return nil, fmt.Errorf("RangeCheck: bit width operand must be a literal")
		}
		api.ToBinary(val.v, int(bound.constVal.Int64()))
		return nil, nil

	case zkas.OpLessThanStrict:
		a, b := arg(0), arg(1)
		cmp := api.Cmp(a.v, b.v)
		api.AssertIsEqual(cmp, -1)
		return &heapValue{kind: kindScalar, v: cmp}, nil

	case zkas.OpLessThanLoose:
		a, b := arg(0), arg(1)
		cmp := api.Cmp(a.v, b.v)
		api.AssertIsDifferent(cmp, 1)
		return &heapValue{kind: kindScalar, v: cmp}, nil

	case zkas.OpBoolCheck:
		api.AssertIsBoolean(arg(0).v)
		return nil, nil

	case zkas.OpCondSelect:
		cond, a, b := arg(0), arg(1), arg(2)
		return &heapValue{kind: kindScalar, v: api.Select(cond.v, a.v, b.v)}, nil

	case zkas.OpZeroCondSelect:
		cond, a := arg(0), arg(1)
		return &heapValue{kind: kindScalar, v: api.Select(cond.v, a.v, 0)}, nil

	case zkas.OpConstrainEqualBase:
		a, b := arg(0), arg(1)
		api.AssertIsEqual(a.v, b.v)
		return nil, nil

	case zkas.OpConstrainEqualPoint:
		a, b := arg(0), arg(1)
		if a.kind != kindPoint || b.kind != kindPoint {
			return nil, fmt.Errorf("ConstrainEqualPoint: operand is not a point")
		}
		api.AssertIsEqual(a.x, b.x)
		api.AssertIsEqual(a.y, b.y)
		return nil, nil

	case zkas.OpConstrainInstance:
		val := arg(0)
		if val.kind != kindScalar {
			return nil, fmt.Errorf("ConstrainInstance: operand is not a field element")
		}
		if *publicIdx >= len(public) {
			return nil, ErrPublicInputMismatch
		}
		api.AssertIsEqual(val.v, public[*publicIdx])
		*publicIdx++
		return nil, nil

	case zkas.OpDebugPrint:
		api.Println(arg(0).v)
		return nil, nil
	}

	return nil, fmt.Errorf("unhandled opcode %v", instr.Op)
}
