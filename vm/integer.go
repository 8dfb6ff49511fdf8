package vm

import (
	"math/big"

	"github.com/holiman/uint256"
)

// IntType identifies one of the fixed-width integer kinds.
type IntType int

const (
	I8 IntType = iota
	I16
	I32
	I64
	I128
	U8
	U16
	U32
	U64
	U128
)

var intTypeNames = [...]string{
	I8: "i8", I16: "i16", I32: "i32", I64: "i64", I128: "i128",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64", U128: "u128",
}

func (t IntType) String() string { return intTypeNames[t] }

// Signed reports whether t is a two's-complement signed kind.
func (t IntType) Signed() bool { return t <= I128 }

// BitSize returns the width of t in bits.
func (t IntType) BitSize() uint {
	switch t {
	case I8, U8:
		return 8
	case I16, U16:
		return 16
	case I32, U32:
		return 32
	case I64, U64:
		return 64
	default:
		return 128
	}
}

// Integer is a fixed-width integer. The low BitSize bits of bits hold the
// value in two's complement; all higher bits are zero.
type Integer struct {
	typ  IntType
	bits uint256.Int
}

func (Integer) Kind() Kind { return KindInteger }

// Type returns the integer kind of i.
func (i Integer) Type() IntType { return i.typ }

func (i Integer) Equal(other Value) bool {
	o, ok := other.(Integer)
	return ok && i.typ == o.typ && i.bits.Eq(&o.bits)
}

func (i Integer) String() string {
	return i.toBig().String() + i.typ.String()
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

// NewInteger constructs an integer of type t from a native int64, truncating
// to the width of t. Intended for literals already validated upstream.
func NewInteger(t IntType, v int64) Integer {
	var u uint256.Int
	if v < 0 {
		u.SetUint64(uint64(-v))
		u.Neg(&u)
	} else {
		u.SetUint64(uint64(v))
	}
	return Integer{typ: t, bits: *mask(&u, t)}
}

// IntegerFromBig constructs an integer of type t from v, reporting false if
// v is outside the representable range.
func IntegerFromBig(t IntType, v *big.Int) (Integer, bool) {
	if !fitsInt(t, v) {
		return Integer{}, false
	}
	return integerTruncate(t, v), true
}

// integerTruncate keeps the low BitSize bits of v reinterpreted as t.
func integerTruncate(t IntType, v *big.Int) Integer {
	m := new(big.Int).And(v, bigMask(t.BitSize()))
	var u uint256.Int
	u.SetFromBig(m)
	return Integer{typ: t, bits: u}
}

func fitsInt(t IntType, v *big.Int) bool {
	bits := int(t.BitSize())
	if t.Signed() {
		min := new(big.Int).Lsh(big.NewInt(-1), uint(bits-1))
		max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits-1)), big.NewInt(1))
		return v.Cmp(min) >= 0 && v.Cmp(max) <= 0
	}
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits)), big.NewInt(1))
	return v.Sign() >= 0 && v.Cmp(max) <= 0
}

func bigMask(bits uint) *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
}

// ---------------------------------------------------------------------------
// Bit-level helpers
// ---------------------------------------------------------------------------

// mask zeroes every bit of u above the width of t, in place.
func mask(u *uint256.Int, t IntType) *uint256.Int {
	bits := t.BitSize()
	if bits == 256 {
		return u
	}
	var m uint256.Int
	m.SetOne()
	m.Lsh(&m, bits)
	m.SubUint64(&m, 1)
	return u.And(u, &m)
}

// signExtend widens the in-range bits of i to a full 256-bit two's
// complement value. Unsigned kinds are returned unchanged.
func (i Integer) signExtend() uint256.Int {
	if !i.typ.Signed() || !i.isNegative() {
		return i.bits
	}
	// Negative: set every bit above the width.
	var high uint256.Int
	high.SetAllOne()
	high.Lsh(&high, i.typ.BitSize())
	out := i.bits
	out.Or(&out, &high)
	return out
}

// fitsBack reports whether the 256-bit two's-complement value wide survives
// truncation to t, i.e. the operation did not overflow.
func fitsBack(wide *uint256.Int, t IntType) bool {
	narrow := *wide
	mask(&narrow, t)
	re := Integer{typ: t, bits: narrow}.signExtend()
	return re.Eq(wide)
}

// RawBytes returns the big-endian raw bits of i, two's complement within
// the declared width. Used by the wire codec.
func (i Integer) RawBytes() []byte {
	return i.bits.Bytes()
}

// IntegerFromRaw rebuilds an integer of type t from its RawBytes form.
func IntegerFromRaw(t IntType, raw []byte) Integer {
	var u uint256.Int
	u.SetBytes(raw)
	return Integer{typ: t, bits: *mask(&u, t)}
}

// toBig returns the mathematically-signed value of i.
func (i Integer) toBig() *big.Int {
	v := i.bits.ToBig()
	if i.typ.Signed() {
		bits := i.typ.BitSize()
		half := new(big.Int).Lsh(big.NewInt(1), bits-1)
		if v.Cmp(half) >= 0 {
			v.Sub(v, new(big.Int).Lsh(half, 1))
		}
	}
	return v
}

// Uint64 returns the value as a uint64, reporting false for negative values
// or values that do not fit. Used for shift amounts and array indices.
func (i Integer) Uint64() (uint64, bool) {
	if i.typ.Signed() && i.isNegative() {
		return 0, false
	}
	if !i.bits.IsUint64() {
		return 0, false
	}
	return i.bits.Uint64(), true
}

func (i Integer) isNegative() bool {
	if !i.typ.Signed() {
		return false
	}
	return i.bits.ToBig().Bit(int(i.typ.BitSize())-1) == 1
}

func (i Integer) isZero() bool { return i.bits.IsZero() }

// cmp compares a and b of the same type, returning -1, 0 or 1.
func (a Integer) cmp(b Integer) int {
	if a.typ.Signed() {
		wa, wb := a.signExtend(), b.signExtend()
		if wa.Slt(&wb) {
			return -1
		}
		if wa.Sgt(&wb) {
			return 1
		}
		return 0
	}
	return a.bits.Cmp(&b.bits)
}

// ---------------------------------------------------------------------------
// Arithmetic
//
// Checked variants halt on overflow; wrapped variants reduce modulo 2^width.
// All arithmetic runs in 256-bit two's complement, which is exact for every
// width up to 128 bits, then either verifies or masks the narrowing.
// ---------------------------------------------------------------------------

func (a Integer) add(b Integer, wrapped bool) (Value, error) {
	wa, wb := a.signExtend(), b.signExtend()
	var wide uint256.Int
	wide.Add(&wa, &wb)
	return a.narrow(&wide, wrapped, "add")
}

func (a Integer) sub(b Integer, wrapped bool) (Value, error) {
	wa, wb := a.signExtend(), b.signExtend()
	var wide uint256.Int
	wide.Sub(&wa, &wb)
	return a.narrow(&wide, wrapped, "sub")
}

func (a Integer) mul(b Integer, wrapped bool) (Value, error) {
	wa, wb := a.signExtend(), b.signExtend()
	var wide uint256.Int
	wide.Mul(&wa, &wb)
	return a.narrow(&wide, wrapped, "mul")
}

func (a Integer) double(wrapped bool) (Value, error) {
	return a.add(a, wrapped)
}

// narrow truncates wide to a's type, halting on overflow unless wrapped.
func (a Integer) narrow(wide *uint256.Int, wrapped bool, op string) (Value, error) {
	if !wrapped && !fitsBack(wide, a.typ) {
		return nil, Haltf("%s overflowed on %s", op, a.typ)
	}
	out := *wide
	mask(&out, a.typ)
	return Integer{typ: a.typ, bits: out}, nil
}

func (a Integer) div(b Integer, wrapped bool) (Value, error) {
	if b.isZero() {
		return nil, Haltf("division by zero on %s", a.typ)
	}
	q := new(big.Int).Quo(a.toBig(), b.toBig())
	if !wrapped && !fitsInt(a.typ, q) {
		return nil, Haltf("div overflowed on %s", a.typ)
	}
	return integerTruncate(a.typ, q), nil
}

// rem is the remainder with the sign of the dividend.
func (a Integer) rem(b Integer, wrapped bool) (Value, error) {
	if b.isZero() {
		return nil, Haltf("remainder by zero on %s", a.typ)
	}
	r := new(big.Int).Rem(a.toBig(), b.toBig())
	_ = wrapped // rem.w cannot overflow; the wrapped form exists for symmetry
	return integerTruncate(a.typ, r), nil
}

// modulo is the Euclidean modulus, defined for unsigned kinds only.
func (a Integer) modulo(b Integer) (Value, error) {
	if a.typ.Signed() {
		return nil, Internalf("mod is not defined on signed type %s", a.typ)
	}
	if b.isZero() {
		return nil, Haltf("modulo by zero on %s", a.typ)
	}
	var out uint256.Int
	out.Mod(&a.bits, &b.bits)
	return Integer{typ: a.typ, bits: out}, nil
}

func (a Integer) pow(b Integer, wrapped bool) (Value, error) {
	if b.typ.Signed() {
		return nil, Internalf("pow exponent must be unsigned, got %s", b.typ)
	}
	base := a.toBig()
	exp := b.toBig()
	if wrapped {
		modulus := new(big.Int).Lsh(big.NewInt(1), a.typ.BitSize())
		r := new(big.Int).Exp(new(big.Int).And(base, bigMask(a.typ.BitSize())), exp, modulus)
		return integerTruncate(a.typ, r), nil
	}
	// Checked exponentiation by squaring with an early range bail-out.
	result := big.NewInt(1)
	factor := new(big.Int).Set(base)
	e := new(big.Int).Set(exp)
	two := big.NewInt(2)
	for e.Sign() > 0 {
		if e.Bit(0) == 1 {
			result.Mul(result, factor)
			if !fitsInt(a.typ, result) {
				return nil, Haltf("pow overflowed on %s", a.typ)
			}
		}
		e.Rsh(e, 1)
		if e.Sign() > 0 {
			factor.Mul(factor, factor)
			if !fitsInt(a.typ, factor) && factor.CmpAbs(two) >= 0 {
				return nil, Haltf("pow overflowed on %s", a.typ)
			}
		}
	}
	return integerTruncate(a.typ, result), nil
}

func (a Integer) abs(wrapped bool) (Value, error) {
	if !a.typ.Signed() {
		return a, nil
	}
	if !a.isNegative() {
		return a, nil
	}
	return a.neg(wrapped)
}

func (a Integer) neg(wrapped bool) (Value, error) {
	if !a.typ.Signed() {
		return nil, Internalf("negate is not defined on unsigned type %s", a.typ)
	}
	zero := Integer{typ: a.typ}
	return zero.sub(a, wrapped)
}

func (a Integer) not() Value {
	out := a.bits
	var all uint256.Int
	all.SetAllOne()
	out.Xor(&out, &all)
	mask(&out, a.typ)
	return Integer{typ: a.typ, bits: out}
}

func (a Integer) bitwise(op Opcode, b Integer) (Value, error) {
	if a.typ != b.typ {
		return nil, Internalf("bitwise %s on mismatched types %s and %s", op, a.typ, b.typ)
	}
	var out uint256.Int
	switch op {
	case OpAnd:
		out.And(&a.bits, &b.bits)
	case OpOr:
		out.Or(&a.bits, &b.bits)
	case OpXor:
		out.Xor(&a.bits, &b.bits)
	default:
		return nil, Internalf("bitwise %s is not defined on %s", op, a.typ)
	}
	return Integer{typ: a.typ, bits: out}, nil
}

func (a Integer) shl(b Integer, wrapped bool) (Value, error) {
	n, ok := b.Uint64()
	if !ok {
		return nil, Haltf("shift amount %s out of range", b)
	}
	bits := uint64(a.typ.BitSize())
	if wrapped {
		n %= bits
	} else if n >= bits {
		return nil, Haltf("shl by %d overflowed on %s", n, a.typ)
	}
	wide := a.signExtend()
	wide.Lsh(&wide, uint(n))
	return a.narrow(&wide, wrapped, "shl")
}

func (a Integer) shr(b Integer, wrapped bool) (Value, error) {
	n, ok := b.Uint64()
	if !ok {
		return nil, Haltf("shift amount %s out of range", b)
	}
	bits := uint64(a.typ.BitSize())
	if wrapped {
		n %= bits
	} else if n >= bits {
		return nil, Haltf("shr by %d exceeds width of %s", n, a.typ)
	}
	wide := a.signExtend()
	if a.typ.Signed() {
		wide.SRsh(&wide, uint(n))
	} else {
		wide.Rsh(&wide, uint(n))
	}
	out := wide
	mask(&out, a.typ)
	return Integer{typ: a.typ, bits: out}, nil
}

