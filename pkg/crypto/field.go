// Package crypto implements the engine's field elements, curve points and
// Poseidon-style hashing.
//
// There is no Go implementation of the Pallas curve available to build on
// here. The nearest substitute is the curve gnark/gnark-crypto natively
// speaks: BN254, whose scalar field (github.com/consensys/gnark-crypto's
// ecc/bn254/fr) is exactly the field gnark circuit witnesses
// (frontend.Variable) live in. Base is modelled on that field, matching the
// role of "the field constraints are expressed over". Scalar shares the
// same modulus as Base here — on a Pallas/Vesta cycle these would be two
// different curves' base fields, a relationship this single-curve
// substitution cannot reproduce exactly — and is kept as a distinct Go type
// so the two roles stay separated at the API level. Recorded in DESIGN.md.
package crypto

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Base is a base-field element: the field circuit witnesses, constants and
// Poseidon-style hash outputs are expressed over. Canonically encodes to 32
// little-endian bytes.
type Base struct {
	inner fr.Element
}

// Scalar is a scalar-field element, used for EC scalar-multiplication
// exponents (EcMul/EcMulBase/EcMulVarBase witnesses).
type Scalar struct {
	inner fr.Element
}

// BaseFromUint64 builds a Base from a small non-negative integer.
func BaseFromUint64(v uint64) Base {
	var b Base
	b.inner.SetUint64(v)
	return b
}

// ScalarFromUint64 builds a Scalar from a small non-negative integer.
func ScalarFromUint64(v uint64) Scalar {
	var s Scalar
	s.inner.SetUint64(v)
	return s
}

// Bytes returns the canonical 32-byte little-endian encoding of b.
func (b Base) Bytes() [32]byte {
	be := b.inner.Bytes() // big-endian, canonical (< modulus)
	return reverse32(be)
}

// Bytes returns the canonical 32-byte little-endian encoding of s.
func (s Scalar) Bytes() [32]byte {
	be := s.inner.Bytes()
	return reverse32(be)
}

// BaseFromCanonicalBytes decodes 32 little-endian bytes, rejecting any
// representative that is not strictly less than the field modulus.
func BaseFromCanonicalBytes(le [32]byte) (Base, error) {
	bi, err := canonicalBigInt(le)
	if err != nil {
		return Base{}, err
	}
	var b Base
	b.inner.SetBigInt(bi)
	return b, nil
}

// ScalarFromCanonicalBytes decodes 32 little-endian bytes, rejecting
// non-canonical representatives.
func ScalarFromCanonicalBytes(le [32]byte) (Scalar, error) {
	bi, err := canonicalBigInt(le)
	if err != nil {
		return Scalar{}, err
	}
	var s Scalar
	s.inner.SetBigInt(bi)
	return s, nil
}

func canonicalBigInt(le [32]byte) (*big.Int, error) {
	be := reverse32(le)
	bi := new(big.Int).SetBytes(be[:])
	if bi.Cmp(fr.Modulus()) >= 0 {
		return nil, ErrNonCanonicalField
	}
	return bi, nil
}

// Equal reports whether b and o encode the same field element.
func (b Base) Equal(o Base) bool {
	return b.inner.Equal(&o.inner)
}

// Equal reports whether s and o encode the same field element.
func (s Scalar) Equal(o Scalar) bool {
	return s.inner.Equal(&o.inner)
}

// Add returns b + o.
func (b Base) Add(o Base) Base {
	var out Base
	out.inner.Add(&b.inner, &o.inner)
	return out
}

// Sub returns b - o.
func (b Base) Sub(o Base) Base {
	var out Base
	out.inner.Sub(&b.inner, &o.inner)
	return out
}

// Mul returns b * o.
func (b Base) Mul(o Base) Base {
	var out Base
	out.inner.Mul(&b.inner, &o.inner)
	return out
}

// BigInt returns the field element as a big.Int in [0, modulus).
func (b Base) BigInt() *big.Int {
	var out big.Int
	b.inner.BigInt(&out)
	return &out
}

// BigInt returns the field element as a big.Int in [0, modulus).
func (s Scalar) BigInt() *big.Int {
	var out big.Int
	s.inner.BigInt(&out)
	return &out
}

// Add returns s + o.
func (s Scalar) Add(o Scalar) Scalar {
	var out Scalar
	out.inner.Add(&s.inner, &o.inner)
	return out
}

// Mul returns s * o.
func (s Scalar) Mul(o Scalar) Scalar {
	var out Scalar
	out.inner.Mul(&s.inner, &o.inner)
	return out
}

func reverse32(b [32]byte) [32]byte {
	var out [32]byte
	for i := 0; i < 32; i++ {
		out[i] = b[31-i]
	}
	return out
}
