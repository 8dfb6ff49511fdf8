package vm

import (
	"math/big"
)

// fieldModulus is the prime of the base field the engine computes over
// (the secp256k1 coordinate field, 2^256 - 2^32 - 977).
var fieldModulus, _ = new(big.Int).SetString(
	"fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f", 16)

// Field is an element of the prime base field, held in canonical reduced
// form. Field values are immutable; every operation allocates.
type Field struct {
	n *big.Int
}

func (Field) Kind() Kind { return KindField }

// NewField reduces v into the base field.
func NewField(v *big.Int) Field {
	n := new(big.Int).Mod(v, fieldModulus)
	if n.Sign() < 0 {
		n.Add(n, fieldModulus)
	}
	return Field{n: n}
}

// FieldFromUint64 is a construction shorthand for literals and tests.
func FieldFromUint64(v uint64) Field {
	return Field{n: new(big.Int).SetUint64(v)}
}

// Big returns the canonical representative of f. The caller must not
// mutate the result.
func (f Field) Big() *big.Int {
	if f.n == nil {
		return big.NewInt(0)
	}
	return f.n
}

func (f Field) Equal(other Value) bool {
	o, ok := other.(Field)
	return ok && f.Big().Cmp(o.Big()) == 0
}

func (f Field) String() string { return f.Big().String() + "field" }

func (f Field) isZero() bool { return f.Big().Sign() == 0 }

// ---------------------------------------------------------------------------
// Field arithmetic
// ---------------------------------------------------------------------------

func (f Field) add(o Field) Field {
	return NewField(new(big.Int).Add(f.Big(), o.Big()))
}

func (f Field) sub(o Field) Field {
	return NewField(new(big.Int).Sub(f.Big(), o.Big()))
}

func (f Field) mul(o Field) Field {
	return NewField(new(big.Int).Mul(f.Big(), o.Big()))
}

func (f Field) neg() Field {
	return NewField(new(big.Int).Neg(f.Big()))
}

func (f Field) double() Field { return f.add(f) }

func (f Field) square() Field { return f.mul(f) }

// inverse returns the multiplicative inverse, halting on zero.
func (f Field) inverse() (Field, error) {
	if f.isZero() {
		return Field{}, Haltf("inverse of zero field element")
	}
	return Field{n: new(big.Int).ModInverse(f.Big(), fieldModulus)}, nil
}

func (f Field) div(o Field) (Field, error) {
	inv, err := o.inverse()
	if err != nil {
		return Field{}, Haltf("field division by zero")
	}
	return f.mul(inv), nil
}

// squareRoot returns a square root of f, halting if f is a non-residue.
// Which of the two roots is returned follows big.Int.ModSqrt.
func (f Field) squareRoot() (Field, error) {
	r := new(big.Int).ModSqrt(f.Big(), fieldModulus)
	if r == nil {
		return Field{}, Haltf("field element %s has no square root", f.Big())
	}
	return Field{n: r}, nil
}

func (f Field) pow(o Field) Field {
	return Field{n: new(big.Int).Exp(f.Big(), o.Big(), fieldModulus)}
}

// cmp orders field elements by their canonical representative.
func (f Field) cmp(o Field) int { return f.Big().Cmp(o.Big()) }
