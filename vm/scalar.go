package vm

import (
	"math/big"
)

// scalarModulus is the order of the group generator (the secp256k1 curve
// order), the modulus of the scalar field.
var scalarModulus, _ = new(big.Int).SetString(
	"fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

// Scalar is an element of the scalar field, held in canonical reduced form.
type Scalar struct {
	n *big.Int
}

func (Scalar) Kind() Kind { return KindScalar }

// NewScalar reduces v into the scalar field.
func NewScalar(v *big.Int) Scalar {
	n := new(big.Int).Mod(v, scalarModulus)
	if n.Sign() < 0 {
		n.Add(n, scalarModulus)
	}
	return Scalar{n: n}
}

// ScalarFromUint64 is a construction shorthand for literals and tests.
func ScalarFromUint64(v uint64) Scalar {
	return Scalar{n: new(big.Int).SetUint64(v)}
}

// Big returns the canonical representative of s. The caller must not
// mutate the result.
func (s Scalar) Big() *big.Int {
	if s.n == nil {
		return big.NewInt(0)
	}
	return s.n
}

func (s Scalar) Equal(other Value) bool {
	o, ok := other.(Scalar)
	return ok && s.Big().Cmp(o.Big()) == 0
}

func (s Scalar) String() string { return s.Big().String() + "scalar" }

func (s Scalar) add(o Scalar) Scalar {
	return NewScalar(new(big.Int).Add(s.Big(), o.Big()))
}

func (s Scalar) sub(o Scalar) Scalar {
	return NewScalar(new(big.Int).Sub(s.Big(), o.Big()))
}

func (s Scalar) mul(o Scalar) Scalar {
	return NewScalar(new(big.Int).Mul(s.Big(), o.Big()))
}

func (s Scalar) cmp(o Scalar) int { return s.Big().Cmp(o.Big()) }
