package crypto

import (
	"crypto/sha256"

	"github.com/consensys/gnark-crypto/hash"
)

// Hash is the 32-byte content address used for blocks, transactions and
// Merkle leaves. It is a plain SHA-256 digest of a value's canonical
// serialization, kept distinct from the Poseidon-style algebraic hash
// below, which is reserved for values that must be provable inside a
// circuit.
type Hash [32]byte

// HashBytes computes the content-address Hash of canonically serialized
// bytes.
func HashBytes(b []byte) Hash {
	return Hash(sha256.Sum256(b))
}

// PoseidonHash computes the engine's algebraic, circuit-friendly hash over
// one or more Base elements: used for Coin/Nullifier/ContractId/FuncId
// derivation, Merkle/sparse-Merkle node hashing, and the PoseidonHash
// circuit opcode. Built on gnark-crypto's MiMC permutation
// (github.com/consensys/gnark-crypto/hash), the SNARK-friendly hash the
// available ZK stack ships.
func PoseidonHash(inputs ...Base) Base {
	h := hash.MIMC_BN254.New()
	for _, in := range inputs {
		be := in.inner.Bytes()
		h.Write(be[:])
	}
	sum := h.Sum(nil)
	var out Base
	out.inner.SetBytes(sum)
	return out
}

// ContractId addresses a contract's state and gates deploy/update
// permission; derived from the deployer's public key.
type ContractId Base

// DeriveContractId computes the ContractId for a deployer's public key.
func DeriveContractId(deployerPubKey Point) ContractId {
	return ContractId(PoseidonHash(deployerPubKey.X(), deployerPubKey.Y()))
}

// Bytes returns the canonical 32-byte little-endian encoding of the id.
func (c ContractId) Bytes() [32]byte { return Base(c).Bytes() }

// FuncId identifies a call target within a ContractId.
type FuncId Base

// DeriveFuncId computes the FuncId for (contractId, funcCode).
func DeriveFuncId(contractID ContractId, funcCode uint8) FuncId {
	return FuncId(PoseidonHash(Base(contractID), BaseFromUint64(uint64(funcCode))))
}

// Bytes returns the canonical 32-byte little-endian encoding of the id.
func (f FuncId) Bytes() [32]byte { return Base(f).Bytes() }

// Coin is a Poseidon commitment to a spendable note.
type Coin Base

// DeriveCoin computes the Coin commitment for a note's public fields.
func DeriveCoin(pubkey Point, value uint64, tokenID, spendHook, userData, blind, serial Base) Coin {
	return Coin(PoseidonHash(
		pubkey.X(), pubkey.Y(),
		BaseFromUint64(value),
		tokenID, spendHook, userData, blind, serial,
	))
}

// Bytes returns the canonical 32-byte little-endian encoding of the coin.
func (c Coin) Bytes() [32]byte { return Base(c).Bytes() }

// Nullifier prevents a Coin from being spent twice.
type Nullifier Base

// DeriveNullifier computes the Nullifier for a secret key and a coin's serial.
func DeriveNullifier(secretKey Scalar, serial Base) Nullifier {
	skAsBase := baseFromFieldBytes(secretKey.inner.Bytes())
	return Nullifier(PoseidonHash(skAsBase, serial))
}

// Bytes returns the canonical 32-byte little-endian encoding of the nullifier.
func (n Nullifier) Bytes() [32]byte { return Base(n).Bytes() }
