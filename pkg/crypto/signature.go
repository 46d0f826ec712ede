package crypto

import (
	"crypto/rand"
	"errors"
)

// ErrInvalidSignature is the error value for a signature that fails to
// check. Neither function below returns it: Verify reports failure as
// false, and Sign returns the random source's own error if a nonce cannot
// be drawn.
var ErrInvalidSignature = errors.New("crypto: invalid signature")

// Signature is a Schnorr signature over this package's substitute curve
// (see field.go/point.go for why BN254 stands in for Pallas). Named
// after the scheme the engine charges a fixed signature-verification gas
// cost for; no available Go module implements Schnorr over Pallas or
// BN254 directly, so this is built from the curve/field primitives
// already present in this package rather than ported from elsewhere.
// Recorded in DESIGN.md.
type Signature struct {
	R Point
	S Scalar
}

// Sign produces a Schnorr signature over message under sk, using the
// standard construction: a fresh nonce k, R = k*G, challenge
// c = PoseidonHash(R, pubkey, message), response s = k + c*sk.
func Sign(sk Scalar, message []byte) (Signature, error) {
	pubkey := Generator().ScalarMul(sk)
	k, err := randomScalar()
	if err != nil {
		return Signature{}, err
	}
	r := Generator().ScalarMul(k)
	c := challengeScalar(r, pubkey, message)
	s := k.Add(c.Mul(sk))
	return Signature{R: r, S: s}, nil
}

// Verify reports whether sig is a valid signature over message under
// pubkey: checks s*G == R + c*pubkey.
func Verify(pubkey Point, message []byte, sig Signature) bool {
	c := challengeScalar(sig.R, pubkey, message)
	lhs := Generator().ScalarMul(sig.S)
	rhs := sig.R.Add(pubkey.ScalarMul(c))
	return lhs.Equal(rhs)
}

func challengeScalar(r, pubkey Point, message []byte) Scalar {
	msgHash := HashBytes(message)
	msgBase := baseFromFieldBytes([32]byte(msgHash))
	c := PoseidonHash(r.X(), r.Y(), pubkey.X(), pubkey.Y(), msgBase)
	// Base and Scalar share a modulus in this substitution (see
	// field.go), so c's canonical bytes always decode as a Scalar.
	s, err := ScalarFromCanonicalBytes(c.Bytes())
	if err != nil {
		return Scalar{}
	}
	return s
}

// randomScalar draws a uniform Scalar via rejection sampling against the
// field modulus.
func randomScalar() (Scalar, error) {
	for {
		var buf [32]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return Scalar{}, err
		}
		s, err := ScalarFromCanonicalBytes(buf)
		if err == nil {
			return s, nil
		}
	}
}
