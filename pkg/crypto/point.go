package crypto

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
)

// Point is an affine curve point, canonically encoded as 32 compressed
// bytes.
type Point struct {
	inner bn254.G1Affine
}

// Generator returns the curve's standard base point.
func Generator() Point {
	_, _, g1, _ := bn254.Generators()
	return Point{inner: g1}
}

// Bytes returns the 32-byte compressed encoding of p.
func (p Point) Bytes() [32]byte {
	return p.inner.Bytes()
}

// PointFromCompressedBytes decodes a 32-byte compressed point, validating
// that it lies on the curve.
func PointFromCompressedBytes(b [32]byte) (Point, error) {
	var pt bn254.G1Affine
	if _, err := pt.SetBytes(b[:]); err != nil {
		return Point{}, ErrInvalidPoint
	}
	if !pt.IsOnCurve() {
		return Point{}, ErrInvalidPoint
	}
	return Point{inner: pt}, nil
}

// Add returns p + o using affine Jacobian arithmetic.
func (p Point) Add(o Point) Point {
	var jp, jo, jout bn254.G1Jac
	jp.FromAffine(&p.inner)
	jo.FromAffine(&o.inner)
	jout.Set(&jp).AddAssign(&jo)
	var out bn254.G1Affine
	out.FromJacobian(&jout)
	return Point{inner: out}
}

// ScalarMul returns s*p.
func (p Point) ScalarMul(s Scalar) Point {
	var out bn254.G1Affine
	out.ScalarMultiplication(&p.inner, s.BigInt())
	return Point{inner: out}
}

// Equal reports whether p and o are the same affine point.
func (p Point) Equal(o Point) bool {
	return p.inner.Equal(&o.inner)
}

// X returns the affine X coordinate reduced into a Base element.
// The coordinate lives in BN254's base field (fp), a different modulus than
// Base's native field (fr); since no Pallas-cycle curve is available to
// build on, the coordinate is carried across via its canonical big-endian
// bytes reduced mod Base's modulus, the same abstraction boundary recorded
// for Base/Scalar in field.go.
func (p Point) X() Base {
	return baseFromFieldBytes(p.inner.X.Bytes())
}

// Y returns the affine Y coordinate reduced into a Base element.
func (p Point) Y() Base {
	return baseFromFieldBytes(p.inner.Y.Bytes())
}

func baseFromFieldBytes(be [32]byte) Base {
	bi := new(big.Int).SetBytes(be[:])
	var b Base
	b.inner.SetBigInt(bi)
	return b
}
