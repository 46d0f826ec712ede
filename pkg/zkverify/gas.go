package zkverify

import (
	"math"

	"github.com/darkfi-core/engine/pkg/merkletree"
	"github.com/darkfi-core/engine/pkg/zkas"
)

const (
	costConstant          = 10
	costLiteral           = 10
	costWitnessEcLike     = 20
	costWitnessBaseLike   = 10
	costWitnessMerklePath = 10 * merkletree.IncrementalTreeDepth
	costWitnessSMTPath    = 10 * merkletree.SparseMerkleTreeDepth
	costEcArith           = 30
	costEcGetCoord        = 5
	costPoseidonBase      = 20
	costPoseidonPerInput  = 10
	costMerkleRoot        = 10 * merkletree.IncrementalTreeDepth
	costSparseMerkleRoot  = 10 * merkletree.SparseMerkleTreeDepth
	costBaseArith         = 15
	costSmallConstraint   = 10
	costConstrainPoint    = 20
	costBoolCheck         = 20
	costRangeCheck        = 60
	costLessThan          = 100
	costDebugPrint        = 100
)

func addSaturating(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return math.MaxUint64
	}
	return sum
}

// CircuitGas computes the deterministic gas cost of verifying b, from its
// witness/constant/literal table and its opcode stream. Arithmetic
// saturates at math.MaxUint64 rather than wrapping.
func CircuitGas(b *zkas.Binary) uint64 {
	var gas uint64
	for _, vt := range b.Witnesses {
		gas = addSaturating(gas, witnessCost(vt))
	}
	gas = addSaturating(gas, costConstant*uint64(len(b.Constants)))
	gas = addSaturating(gas, costLiteral*uint64(len(b.Literals)))
	for _, instr := range b.Opcodes {
		gas = addSaturating(gas, opcodeCost(instr))
	}
	return gas
}

func witnessCost(vt zkas.VarType) uint64 {
	switch vt {
	case zkas.VarEcPoint, zkas.VarEcNiPoint, zkas.VarEcFixedPoint, zkas.VarScalar:
		return costWitnessEcLike
	case zkas.VarMerklePath:
		return costWitnessMerklePath
	case zkas.VarSparseMerklePath:
		return costWitnessSMTPath
	default:
		return costWitnessBaseLike
	}
}

func opcodeCost(instr zkas.Instruction) uint64 {
	switch instr.Op {
	case zkas.OpEcAdd, zkas.OpEcMul, zkas.OpEcMulBase, zkas.OpEcMulShort, zkas.OpEcMulVarBase:
		return costEcArith
	case zkas.OpEcGetX, zkas.OpEcGetY:
		return costEcGetCoord
	case zkas.OpPoseidonHash:
		return addSaturating(costPoseidonBase, costPoseidonPerInput*uint64(len(instr.Args)))
	case zkas.OpMerkleRoot:
		return costMerkleRoot
	case zkas.OpSparseMerkleRoot:
		return costSparseMerkleRoot
	case zkas.OpBaseAdd, zkas.OpBaseMul, zkas.OpBaseSub:
		return costBaseArith
	case zkas.OpWitnessBase, zkas.OpCondSelect, zkas.OpZeroCondSelect, zkas.OpConstrainEqualBase, zkas.OpConstrainInstance:
		return costSmallConstraint
	case zkas.OpConstrainEqualPoint:
		return costConstrainPoint
	case zkas.OpBoolCheck:
		return costBoolCheck
	case zkas.OpRangeCheck:
		return costRangeCheck
	case zkas.OpLessThanStrict, zkas.OpLessThanLoose:
		return costLessThan
	case zkas.OpDebugPrint:
		return costDebugPrint
	default:
		return 0
	}
}
