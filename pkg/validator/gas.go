package validator

import "math"

// GasData accumulates the gas charged against a transaction across the
// validation pipeline's sections, plus what its fee call declared paid.
type GasData struct {
	Wasm        uint64
	ZkCircuits  uint64
	Signatures  uint64
	Deployments uint64
	Paid        uint64
}

func addSaturating(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// TotalGasUsed is the saturating sum of every section but Paid.
func (g GasData) TotalGasUsed() uint64 {
	total := addSaturating(g.Wasm, g.ZkCircuits)
	total = addSaturating(total, g.Signatures)
	return addSaturating(total, g.Deployments)
}

// ComputeFee is the minimum fee a transaction charging gas g must pay.
func ComputeFee(gas uint64) uint64 {
	return gas / 100
}
