package vm

// evalUnary executes a single-operand instruction. Wrapped variants never
// fail on overflow; unwrapped variants halt per fixed-width modular
// arithmetic. Applying an operation to a kind it is not defined on is an
// internal inconsistency (the upstream type checker rules it out).
func evalUnary(op Opcode, v Value) (Value, error) {
	switch op {
	case OpAbs, OpAbsWrapped:
		i, ok := v.(Integer)
		if !ok {
			return nil, Internalf("abs on %s value", v.Kind())
		}
		return i.abs(op == OpAbsWrapped)

	case OpDouble:
		switch x := v.(type) {
		case Integer:
			return x.double(false)
		case Field:
			return x.double(), nil
		case Group:
			return x.double(), nil
		}
		return nil, Internalf("double on %s value", v.Kind())

	case OpInverse:
		f, ok := v.(Field)
		if !ok {
			return nil, Internalf("inverse on %s value", v.Kind())
		}
		return f.inverse()

	case OpNegate:
		switch x := v.(type) {
		case Integer:
			return x.neg(false)
		case Field:
			return x.neg(), nil
		case Group:
			return x.neg(), nil
		}
		return nil, Internalf("negate on %s value", v.Kind())

	case OpNot:
		switch x := v.(type) {
		case Boolean:
			return !x, nil
		case Integer:
			return x.not(), nil
		}
		return nil, Internalf("not on %s value", v.Kind())

	case OpSquare:
		f, ok := v.(Field)
		if !ok {
			return nil, Internalf("square on %s value", v.Kind())
		}
		return f.square(), nil

	case OpSquareRoot:
		f, ok := v.(Field)
		if !ok {
			return nil, Internalf("square root on %s value", v.Kind())
		}
		return f.squareRoot()

	case OpToXCoordinate:
		g, ok := v.(Group)
		if !ok {
			return nil, Internalf("x-coordinate of %s value", v.Kind())
		}
		return g.toX(), nil

	case OpToYCoordinate:
		g, ok := v.(Group)
		if !ok {
			return nil, Internalf("y-coordinate of %s value", v.Kind())
		}
		return g.toY(), nil

	default:
		return nil, Internalf("%s is not a unary opcode", op)
	}
}
