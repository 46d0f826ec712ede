package zkverify

import (
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/scs"
	"github.com/consensys/gnark/test/unsafekzg"

	"github.com/darkfi-core/engine/pkg/crypto"
	"github.com/darkfi-core/engine/pkg/zkas"
)

// ProvingKey lets a prover build a Proof for one compiled circuit. Building
// one is expensive; validators never need it.
type ProvingKey struct {
	ccs constraint.ConstraintSystem
	pk  plonk.ProvingKey
}

// VerifyingKey lets a validator check a Proof. Cheap to build, and its
// wire form round-trips bit-exactly via WriteTo/ReadFrom.
type VerifyingKey struct {
	vk plonk.VerifyingKey
}

// Build compiles b into a PLONK circuit and runs trusted setup, returning
// both keys. The SRS is generated in-process via gnark's own
// test/unsafekzg helper: there is no production SRS distribution pipeline
// reachable here, so this is recorded as a known limitation rather than
// something safe to use unmodified against real value.
func Build(b *zkas.Binary) (*ProvingKey, *VerifyingKey, error) {
	circuit, err := NewCircuit(b)
	if err != nil {
		return nil, nil, err
	}

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), scs.NewBuilder, circuit)
	if err != nil {
		return nil, nil, fmt.Errorf("compile circuit %q: %w", b.Namespace, err)
	}

	srs, srsLagrange, err := unsafekzg.NewSRS(ccs)
	if err != nil {
		return nil, nil, fmt.Errorf("generate SRS for %q: %w", b.Namespace, err)
	}

	pk, vk, err := plonk.Setup(ccs, srs, srsLagrange)
	if err != nil {
		return nil, nil, fmt.Errorf("plonk setup for %q: %w", b.Namespace, err)
	}

	return &ProvingKey{ccs: ccs, pk: pk}, &VerifyingKey{vk: vk}, nil
}

// WriteTo writes vk's canonical wire encoding.
func (vk *VerifyingKey) WriteTo(w io.Writer) (int64, error) {
	return vk.vk.WriteTo(w)
}

// ReadFrom reads a VerifyingKey written by WriteTo.
func (vk *VerifyingKey) ReadFrom(r io.Reader) (int64, error) {
	vk.vk = plonk.NewVerifyingKey(ecc.BN254)
	return vk.vk.ReadFrom(r)
}

// Proof is a PLONK proof for one circuit instance.
type Proof struct {
	proof plonk.Proof
}

// Prove builds a Proof that the given witness/constant/public values satisfy
// b's circuit.
func Prove(pk *ProvingKey, b *zkas.Binary, witnessValues, constantValues []WitnessValue, publicValues []crypto.Base) (*Proof, error) {
	circuit, err := NewCircuit(b)
	if err != nil {
		return nil, err
	}
	if err := circuit.AssignWitness(witnessValues, constantValues, publicValues); err != nil {
		return nil, err
	}

	fullWitness, err := frontend.NewWitness(circuit, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("build witness for %q: %w", b.Namespace, err)
	}

	proof, err := plonk.Prove(pk.ccs, pk.pk, fullWitness)
	if err != nil {
		return nil, fmt.Errorf("plonk prove for %q: %w", b.Namespace, err)
	}
	return &Proof{proof: proof}, nil
}

// Verify checks p against vk and the claimed public inputs.
func (p *Proof) Verify(vk *VerifyingKey, publicValues []crypto.Base) error {
	assignment := &ZkCircuit{Public: make([]frontend.Variable, len(publicValues))}
	for i, v := range publicValues {
		assignment.Public[i] = v.BigInt()
	}

	publicWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("build public witness: %w", err)
	}

	return plonk.Verify(p.proof, vk.vk, publicWitness)
}

// WriteTo writes p's canonical wire encoding.
func (p *Proof) WriteTo(w io.Writer) (int64, error) {
	return p.proof.WriteTo(w)
}

// ReadFrom reads a Proof written by WriteTo.
func (p *Proof) ReadFrom(r io.Reader) (int64, error) {
	p.proof = plonk.NewProof(ecc.BN254)
	return p.proof.ReadFrom(r)
}
