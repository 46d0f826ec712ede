package crypto

import "errors"

// ErrNonCanonicalField is returned when decoding a field element whose byte
// representation does not correspond to the unique canonical representative
// (i.e. the encoded integer is >= the field modulus).
var ErrNonCanonicalField = errors.New("crypto: non-canonical field element")

// ErrInvalidPoint is returned when decoding a curve point that does not lie
// on the curve, or whose compressed encoding is malformed.
var ErrInvalidPoint = errors.New("crypto: invalid curve point encoding")
