package zkverify

import "errors"

var (
	// ErrUnsupportedVarType is returned by AssignWitness when a value's Go
	// type does not match its slot's declared VarType.
	ErrUnsupportedVarType = errors.New("zkverify: unsupported var type")

	// ErrPublicInputMismatch is returned by AssignWitness, and by Define,
	// when the public inputs don't match the count the circuit's
	// ConstrainInstance calls expect. Proof.Verify does not check the count.
	ErrPublicInputMismatch = errors.New("zkverify: public input count mismatch")

	// ErrWitnessValueMismatch is returned when AssignWitness is given a
	// different number of values than the binary declares witnesses and
	// constants together.
	ErrWitnessValueMismatch = errors.New("zkverify: witness value count mismatch")
)
