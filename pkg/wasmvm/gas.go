package wasmvm

import "errors"

// ErrOutOfGas is returned by Charge once the budget is exhausted.
var ErrOutOfGas = errors.New("wasmvm: out of gas")

const fixedCallCost = 1

// GasMeter tracks a single invocation's gas budget. Fixed-cost primitives
// cost 1; db_set/db_del cost the number of bytes written; db_get costs the
// length of the returned value.
type GasMeter struct {
	limit uint64
	used  uint64
}

// NewGasMeter returns a meter with the given budget.
func NewGasMeter(limit uint64) *GasMeter {
	return &GasMeter{limit: limit}
}

// Charge subtracts amount from the remaining budget, returning ErrOutOfGas
// if that would exceed the limit. used still reflects the full charge on
// failure, so GasUsed reports what the guest attempted to spend.
func (g *GasMeter) Charge(amount uint64) error {
	g.used += amount
	if g.used > g.limit {
		return ErrOutOfGas
	}
	return nil
}

// ChargeFixed charges the constant cost of a fixed-cost primitive host call.
func (g *GasMeter) ChargeFixed() error { return g.Charge(fixedCallCost) }

// Used returns the gas consumed so far.
func (g *GasMeter) Used() uint64 { return g.used }

// Remaining returns the unspent budget, or 0 once exhausted.
func (g *GasMeter) Remaining() uint64 {
	if g.used >= g.limit {
		return 0
	}
	return g.limit - g.used
}
