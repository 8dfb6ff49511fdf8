package vm

import "fmt"

// LiteralType names a plain (non-composite) destination type, as requested
// by cast, hash, commit and rand instructions.
type LiteralType int

const (
	LitBoolean LiteralType = iota
	LitI8
	LitI16
	LitI32
	LitI64
	LitI128
	LitU8
	LitU16
	LitU32
	LitU64
	LitU128
	LitField
	LitGroup
	LitScalar
	LitAddress
	LitSignature
	LitString
)

var literalNames = [...]string{
	LitBoolean: "boolean",
	LitI8:      "i8", LitI16: "i16", LitI32: "i32", LitI64: "i64", LitI128: "i128",
	LitU8: "u8", LitU16: "u16", LitU32: "u32", LitU64: "u64", LitU128: "u128",
	LitField: "field", LitGroup: "group", LitScalar: "scalar",
	LitAddress: "address", LitSignature: "signature", LitString: "string",
}

func (t LiteralType) String() string {
	if int(t) < len(literalNames) {
		return literalNames[t]
	}
	return fmt.Sprintf("literal(%d)", int(t))
}

// IntType returns the integer kind for an integer literal type, reporting
// false otherwise.
func (t LiteralType) IntType() (IntType, bool) {
	switch t {
	case LitI8:
		return I8, true
	case LitI16:
		return I16, true
	case LitI32:
		return I32, true
	case LitI64:
		return I64, true
	case LitI128:
		return I128, true
	case LitU8:
		return U8, true
	case LitU16:
		return U16, true
	case LitU32:
		return U32, true
	case LitU64:
		return U64, true
	case LitU128:
		return U128, true
	}
	return 0, false
}
