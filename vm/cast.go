package vm

import (
	"io"
	"math/big"
)

// castLiteral converts v to the requested literal type. Checked casts halt
// when the value does not fit the destination; lossy casts truncate
// instead. Lossy casts accept literal targets only, which executeCast
// enforces before calling here.
func castLiteral(v Value, t LiteralType, lossy bool) (Value, error) {
	// Identity casts first.
	switch x := v.(type) {
	case Boolean:
		if t == LitBoolean {
			return x, nil
		}
	case Address:
		if t == LitAddress {
			return x, nil
		}
	case Signature:
		if t == LitSignature {
			return x, nil
		}
	case Str:
		if t == LitString {
			return x, nil
		}
	case Group:
		switch t {
		case LitGroup:
			return x, nil
		case LitField:
			// A group casts to its x-coordinate.
			return x.toX(), nil
		}
	}

	// Numeric casts go through the canonical big representative.
	n, err := numericBig(v)
	if err != nil {
		return nil, err
	}

	switch t {
	case LitBoolean:
		if lossy {
			return Boolean(n.Bit(0) == 1), nil
		}
		switch {
		case n.Sign() == 0:
			return Boolean(false), nil
		case n.Cmp(big.NewInt(1)) == 0:
			return Boolean(true), nil
		}
		return nil, Haltf("cast of %s to boolean requires 0 or 1", v)
	case LitField:
		if !lossy && n.Sign() >= 0 && n.Cmp(fieldModulus) >= 0 {
			return nil, Haltf("cast of %s exceeds the field modulus", v)
		}
		return NewField(n), nil
	case LitScalar:
		if !lossy && n.Sign() >= 0 && n.Cmp(scalarModulus) >= 0 {
			return nil, Haltf("cast of %s exceeds the scalar modulus", v)
		}
		return NewScalar(n), nil
	case LitGroup:
		return GroupGenerator().scalarMul(NewScalar(n)), nil
	case LitAddress, LitSignature, LitString:
		return nil, Internalf("cannot cast %s value to %s", v.Kind(), t)
	default:
		it, ok := t.IntType()
		if !ok {
			return nil, Internalf("unsupported cast destination %s", t)
		}
		if lossy {
			return integerTruncate(it, n), nil
		}
		out, fits := IntegerFromBig(it, n)
		if !fits {
			return nil, Haltf("cast of %s does not fit in %s", v, it)
		}
		return out, nil
	}
}

// numericBig returns the canonical integer representative of a numeric
// value: the signed value for integers, the reduced representative for
// field and scalar elements, 0/1 for booleans.
func numericBig(v Value) (*big.Int, error) {
	switch x := v.(type) {
	case Integer:
		return x.toBig(), nil
	case Field:
		return x.Big(), nil
	case Scalar:
		return x.Big(), nil
	case Boolean:
		if x {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	default:
		return nil, Internalf("cannot cast %s value numerically", v.Kind())
	}
}

// executeCast applies a cast instruction's resolved operands to the target
// shape. Composite targets pair operand values positionally with the
// declared field order of the shape.
func (c *Cursor) executeCast(p *Program, values []Value, target *CastTarget, lossy bool, tx *Transaction) (Value, error) {
	if target == nil {
		return nil, Internalf("cast instruction carries no target")
	}
	if lossy && target.Kind != CastLiteral {
		return nil, Internalf("lossy cast accepts literal targets only")
	}

	switch target.Kind {
	case CastLiteral:
		if len(values) != 1 {
			return nil, Internalf("literal cast expects one operand, got %d", len(values))
		}
		return castLiteral(values[0], target.Literal, lossy)

	case CastArray:
		if len(values) != target.Length {
			return nil, Internalf("array cast of length %d received %d operands", target.Length, len(values))
		}
		out := make(Array, len(values))
		copy(out, values)
		return out, nil

	case CastStruct:
		decl, ok := p.Structs[target.Name]
		if !ok {
			return nil, Internalf("program %s declares no struct %q", p.ID, target.Name)
		}
		if len(values) != len(decl.Fields) {
			return nil, Internalf("struct %s has %d fields, cast received %d operands", decl.Name, len(decl.Fields), len(values))
		}
		fields := make([]StructField, len(values))
		for i, v := range values {
			fields[i] = StructField{Name: decl.Fields[i], Value: v}
		}
		return Struct{Name: decl.Name, Fields: fields}, nil

	case CastRecord:
		decl, ok := p.Records[target.Name]
		if !ok {
			return nil, Internalf("program %s declares no record %q", p.ID, target.Name)
		}
		if len(values) != len(decl.Fields)+1 {
			return nil, Internalf("record %s cast expects owner plus %d fields, got %d operands", decl.Name, len(decl.Fields), len(values))
		}
		owner, ok := values[0].(Address)
		if !ok {
			return nil, Internalf("record cast owner must be an address, got %s", values[0].Kind())
		}
		fields := make([]StructField, len(decl.Fields))
		for i, name := range decl.Fields {
			fields[i] = StructField{Name: name, Value: values[i+1]}
		}
		nonce, err := drawNonce(tx)
		if err != nil {
			return nil, err
		}
		return Record{Name: decl.Name, Owner: owner, Fields: fields, Nonce: nonce}, nil

	default:
		return nil, Internalf("unknown cast target kind %d", target.Kind)
	}
}

// drawNonce derives a fresh record nonce from the transaction entropy, as
// a generator multiple so it stays a valid group element.
func drawNonce(tx *Transaction) (Group, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(tx.entropy(), buf); err != nil {
		return Group{}, Internalf("entropy source failed: %v", err)
	}
	return GroupGenerator().scalarMul(NewScalar(new(big.Int).SetBytes(buf))), nil
}
