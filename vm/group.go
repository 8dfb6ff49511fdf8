package vm

import (
	"math/big"
)

// The group is the secp256k1 curve y^2 = x^3 + 7 over the base field, in
// affine coordinates with an explicit point at infinity.

var (
	curveB = big.NewInt(7)

	generatorX, _ = new(big.Int).SetString(
		"79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798", 16)
	generatorY, _ = new(big.Int).SetString(
		"483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8", 16)
)

// Group is a point on the curve, or the identity (Infinity true).
type Group struct {
	X, Y     *big.Int
	Infinity bool
}

func (Group) Kind() Kind { return KindGroup }

// GroupIdentity returns the additive identity of the group.
func GroupIdentity() Group { return Group{Infinity: true} }

// GroupGenerator returns the fixed generator point.
func GroupGenerator() Group {
	return Group{X: new(big.Int).Set(generatorX), Y: new(big.Int).Set(generatorY)}
}

func (g Group) Equal(other Value) bool {
	o, ok := other.(Group)
	if !ok {
		return false
	}
	if g.Infinity || o.Infinity {
		return g.Infinity == o.Infinity
	}
	return g.X.Cmp(o.X) == 0 && g.Y.Cmp(o.Y) == 0
}

func (g Group) String() string {
	if g.Infinity {
		return "0group"
	}
	return g.X.String() + "group"
}

// toX returns the affine x-coordinate as a field element.
func (g Group) toX() Field {
	if g.Infinity {
		return Field{}
	}
	return NewField(g.X)
}

// toY returns the affine y-coordinate as a field element.
func (g Group) toY() Field {
	if g.Infinity {
		return Field{}
	}
	return NewField(g.Y)
}

// ---------------------------------------------------------------------------
// Group arithmetic
// ---------------------------------------------------------------------------

func (g Group) neg() Group {
	if g.Infinity {
		return g
	}
	return Group{X: new(big.Int).Set(g.X), Y: new(big.Int).Sub(fieldModulus, g.Y)}
}

func (g Group) add(o Group) Group {
	if g.Infinity {
		return o
	}
	if o.Infinity {
		return g
	}
	if g.X.Cmp(o.X) == 0 {
		if g.Y.Cmp(o.Y) != 0 {
			return GroupIdentity()
		}
		return g.double()
	}
	// slope = (y2 - y1) / (x2 - x1)
	dy := new(big.Int).Sub(o.Y, g.Y)
	dx := new(big.Int).Sub(o.X, g.X)
	dx.Mod(dx, fieldModulus)
	slope := new(big.Int).Mul(dy, new(big.Int).ModInverse(dx, fieldModulus))
	return g.chord(o, slope)
}

func (g Group) double() Group {
	if g.Infinity || g.Y.Sign() == 0 {
		return GroupIdentity()
	}
	// slope = 3x^2 / 2y
	num := new(big.Int).Mul(g.X, g.X)
	num.Mul(num, big.NewInt(3))
	den := new(big.Int).Lsh(g.Y, 1)
	den.Mod(den, fieldModulus)
	slope := new(big.Int).Mul(num, new(big.Int).ModInverse(den, fieldModulus))
	return g.chord(g, slope)
}

// chord completes a chord-and-tangent step given the line slope.
func (g Group) chord(o Group, slope *big.Int) Group {
	slope.Mod(slope, fieldModulus)
	x := new(big.Int).Mul(slope, slope)
	x.Sub(x, g.X)
	x.Sub(x, o.X)
	x.Mod(x, fieldModulus)
	y := new(big.Int).Sub(g.X, x)
	y.Mul(y, slope)
	y.Sub(y, g.Y)
	y.Mod(y, fieldModulus)
	return Group{X: x, Y: y}
}

func (g Group) sub(o Group) Group { return g.add(o.neg()) }

// scalarMul computes s*g by double-and-add.
func (g Group) scalarMul(s Scalar) Group {
	acc := GroupIdentity()
	addend := g
	k := s.Big()
	for i := 0; i < k.BitLen(); i++ {
		if k.Bit(i) == 1 {
			acc = acc.add(addend)
		}
		addend = addend.double()
	}
	return acc
}
