package vm

// evalBinary executes a two-operand instruction. Equality and inequality
// are structural across all value kinds; everything else dispatches on the
// kind of the first operand.
func evalBinary(op Opcode, a, b Value) (Value, error) {
	switch op {
	case OpIsEq:
		return Boolean(a.Equal(b)), nil
	case OpIsNeq:
		return Boolean(!a.Equal(b)), nil
	}

	switch op {
	case OpAdd, OpAddWrapped:
		switch x := a.(type) {
		case Integer:
			y, err := sameInteger(op, b, x)
			if err != nil {
				return nil, err
			}
			return x.add(y, op == OpAddWrapped)
		case Field:
			y, ok := b.(Field)
			if !ok {
				return nil, kindMismatch(op, a, b)
			}
			return x.add(y), nil
		case Group:
			y, ok := b.(Group)
			if !ok {
				return nil, kindMismatch(op, a, b)
			}
			return x.add(y), nil
		case Scalar:
			y, ok := b.(Scalar)
			if !ok {
				return nil, kindMismatch(op, a, b)
			}
			return x.add(y), nil
		}
		return nil, Internalf("%s on %s value", op, a.Kind())

	case OpSub, OpSubWrapped:
		switch x := a.(type) {
		case Integer:
			y, err := sameInteger(op, b, x)
			if err != nil {
				return nil, err
			}
			return x.sub(y, op == OpSubWrapped)
		case Field:
			y, ok := b.(Field)
			if !ok {
				return nil, kindMismatch(op, a, b)
			}
			return x.sub(y), nil
		case Group:
			y, ok := b.(Group)
			if !ok {
				return nil, kindMismatch(op, a, b)
			}
			return x.sub(y), nil
		case Scalar:
			y, ok := b.(Scalar)
			if !ok {
				return nil, kindMismatch(op, a, b)
			}
			return x.sub(y), nil
		}
		return nil, Internalf("%s on %s value", op, a.Kind())

	case OpMul, OpMulWrapped:
		switch x := a.(type) {
		case Integer:
			y, err := sameInteger(op, b, x)
			if err != nil {
				return nil, err
			}
			return x.mul(y, op == OpMulWrapped)
		case Field:
			y, ok := b.(Field)
			if !ok {
				return nil, kindMismatch(op, a, b)
			}
			return x.mul(y), nil
		case Scalar:
			// scalar * group
			if g, ok := b.(Group); ok {
				return g.scalarMul(x), nil
			}
			y, ok := b.(Scalar)
			if !ok {
				return nil, kindMismatch(op, a, b)
			}
			return x.mul(y), nil
		case Group:
			// group * scalar
			s, ok := b.(Scalar)
			if !ok {
				return nil, kindMismatch(op, a, b)
			}
			return x.scalarMul(s), nil
		}
		return nil, Internalf("%s on %s value", op, a.Kind())

	case OpDiv, OpDivWrapped:
		switch x := a.(type) {
		case Integer:
			y, err := sameInteger(op, b, x)
			if err != nil {
				return nil, err
			}
			return x.div(y, op == OpDivWrapped)
		case Field:
			y, ok := b.(Field)
			if !ok {
				return nil, kindMismatch(op, a, b)
			}
			return x.div(y)
		}
		return nil, Internalf("%s on %s value", op, a.Kind())

	case OpRem, OpRemWrapped:
		x, err := asInteger(op, a)
		if err != nil {
			return nil, err
		}
		y, err := sameInteger(op, b, x)
		if err != nil {
			return nil, err
		}
		return x.rem(y, op == OpRemWrapped)

	case OpMod:
		x, err := asInteger(op, a)
		if err != nil {
			return nil, err
		}
		y, err := sameInteger(op, b, x)
		if err != nil {
			return nil, err
		}
		return x.modulo(y)

	case OpPow, OpPowWrapped:
		switch x := a.(type) {
		case Integer:
			y, ok := b.(Integer)
			if !ok {
				return nil, kindMismatch(op, a, b)
			}
			return x.pow(y, op == OpPowWrapped)
		case Field:
			y, ok := b.(Field)
			if !ok {
				return nil, kindMismatch(op, a, b)
			}
			return x.pow(y), nil
		}
		return nil, Internalf("%s on %s value", op, a.Kind())

	case OpShl, OpShlWrapped:
		x, err := asInteger(op, a)
		if err != nil {
			return nil, err
		}
		y, err := asInteger(op, b)
		if err != nil {
			return nil, err
		}
		return x.shl(y, op == OpShlWrapped)

	case OpShr, OpShrWrapped:
		x, err := asInteger(op, a)
		if err != nil {
			return nil, err
		}
		y, err := asInteger(op, b)
		if err != nil {
			return nil, err
		}
		return x.shr(y, op == OpShrWrapped)

	case OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual:
		cmp, err := compareOrdered(op, a, b)
		if err != nil {
			return nil, err
		}
		switch op {
		case OpLessThan:
			return Boolean(cmp < 0), nil
		case OpLessThanOrEqual:
			return Boolean(cmp <= 0), nil
		case OpGreaterThan:
			return Boolean(cmp > 0), nil
		default:
			return Boolean(cmp >= 0), nil
		}

	case OpAnd, OpOr, OpXor:
		if x, ok := a.(Boolean); ok {
			y, ok := b.(Boolean)
			if !ok {
				return nil, kindMismatch(op, a, b)
			}
			switch op {
			case OpAnd:
				return x && y, nil
			case OpOr:
				return x || y, nil
			default:
				return Boolean(x != y), nil
			}
		}
		x, err := asInteger(op, a)
		if err != nil {
			return nil, err
		}
		y, err := asInteger(op, b)
		if err != nil {
			return nil, err
		}
		return x.bitwise(op, y)

	case OpNand, OpNor:
		x, ok := a.(Boolean)
		if !ok {
			return nil, Internalf("%s on %s value", op, a.Kind())
		}
		y, ok := b.(Boolean)
		if !ok {
			return nil, kindMismatch(op, a, b)
		}
		if op == OpNand {
			return !(x && y), nil
		}
		return Boolean(!(bool(x) || bool(y))), nil

	default:
		return nil, Internalf("%s is not a binary opcode", op)
	}
}

func asInteger(op Opcode, v Value) (Integer, error) {
	i, ok := v.(Integer)
	if !ok {
		return Integer{}, Internalf("%s on %s value", op, v.Kind())
	}
	return i, nil
}

// sameInteger asserts b is an integer of the same width and sign as ref.
func sameInteger(op Opcode, b Value, ref Integer) (Integer, error) {
	y, ok := b.(Integer)
	if !ok {
		return Integer{}, kindMismatch(op, ref, b)
	}
	if y.typ != ref.typ {
		return Integer{}, Internalf("%s on mismatched integer types %s and %s", op, ref.typ, y.typ)
	}
	return y, nil
}

func kindMismatch(op Opcode, a, b Value) error {
	return Internalf("%s on mismatched kinds %s and %s", op, a.Kind(), b.Kind())
}

// compareOrdered returns -1, 0 or 1 for the ordered kinds.
func compareOrdered(op Opcode, a, b Value) (int, error) {
	switch x := a.(type) {
	case Integer:
		y, err := sameInteger(op, b, x)
		if err != nil {
			return 0, err
		}
		return x.cmp(y), nil
	case Field:
		y, ok := b.(Field)
		if !ok {
			return 0, kindMismatch(op, a, b)
		}
		return x.cmp(y), nil
	case Scalar:
		y, ok := b.(Scalar)
		if !ok {
			return 0, kindMismatch(op, a, b)
		}
		return x.cmp(y), nil
	default:
		return 0, Internalf("%s on unordered %s value", op, a.Kind())
	}
}
