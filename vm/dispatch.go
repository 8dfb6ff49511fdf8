package vm

import "io"

// execInstruction executes one plain instruction against the active frame.
// Single-pass instructions advance the frame's instruction position; the
// two-pass instructions (call, async) advance it only on their second pass.
func (c *Cursor) execInstruction(f *Frame, ins *Instruction, tx *Transaction) error {
	c.record(len(c.stack)-1, ins.Op.String())

	switch ins.Op {
	case OpAbs, OpAbsWrapped, OpDouble, OpInverse, OpNegate, OpNot,
		OpSquare, OpSquareRoot, OpToXCoordinate, OpToYCoordinate:
		v, err := c.operandAt(f, ins, 0, tx)
		if err != nil {
			return err
		}
		out, err := evalUnary(ins.Op, v)
		if err != nil {
			return err
		}
		return c.writeAndAdvance(f, ins, out)

	case OpAdd, OpAddWrapped, OpSub, OpSubWrapped, OpMul, OpMulWrapped,
		OpDiv, OpDivWrapped, OpRem, OpRemWrapped, OpMod, OpPow, OpPowWrapped,
		OpShl, OpShlWrapped, OpShr, OpShrWrapped,
		OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual,
		OpIsEq, OpIsNeq, OpAnd, OpOr, OpXor, OpNand, OpNor:
		a, err := c.operandAt(f, ins, 0, tx)
		if err != nil {
			return err
		}
		b, err := c.operandAt(f, ins, 1, tx)
		if err != nil {
			return err
		}
		out, err := evalBinary(ins.Op, a, b)
		if err != nil {
			return err
		}
		return c.writeAndAdvance(f, ins, out)

	case OpAssertEq, OpAssertNeq:
		a, err := c.operandAt(f, ins, 0, tx)
		if err != nil {
			return err
		}
		b, err := c.operandAt(f, ins, 1, tx)
		if err != nil {
			return err
		}
		equal := a.Equal(b)
		if ins.Op == OpAssertEq && !equal {
			return Haltf("assertion failed: %s is not equal to %s", a, b)
		}
		if ins.Op == OpAssertNeq && equal {
			return Haltf("assertion failed: %s is equal to %s", a, b)
		}
		f.ip++
		return nil

	case OpTernary:
		cond, err := c.operandAt(f, ins, 0, tx)
		if err != nil {
			return err
		}
		pick, ok := cond.(Boolean)
		if !ok {
			return Internalf("ternary condition is a %s value", cond.Kind())
		}
		idx := 2
		if pick {
			idx = 1
		}
		v, err := c.operandAt(f, ins, idx, tx)
		if err != nil {
			return err
		}
		return c.writeAndAdvance(f, ins, v)

	case OpCast, OpCastLossy:
		values, err := c.resolveOperands(f, ins.Operands, tx)
		if err != nil {
			return err
		}
		out, err := c.executeCast(f.ctx.program, values, ins.Cast, ins.Op == OpCastLossy, tx)
		if err != nil {
			return err
		}
		return c.writeAndAdvance(f, ins, out)

	case OpHash:
		v, err := c.operandAt(f, ins, 0, tx)
		if err != nil {
			return err
		}
		fn, err := c.oracles.lookupHash(ins.Algorithm)
		if err != nil {
			return err
		}
		input, err := KeyBytes(v)
		if err != nil {
			return err
		}
		out, err := digestToValue(fn(input), ins.DestType)
		if err != nil {
			return err
		}
		return c.writeAndAdvance(f, ins, out)

	case OpCommit:
		v, err := c.operandAt(f, ins, 0, tx)
		if err != nil {
			return err
		}
		r, err := c.operandAt(f, ins, 1, tx)
		if err != nil {
			return err
		}
		randomizer, ok := r.(Scalar)
		if !ok {
			return Internalf("commit randomizer is a %s value", r.Kind())
		}
		fn, err := c.oracles.lookupCommit(ins.Algorithm)
		if err != nil {
			return err
		}
		input, err := KeyBytes(v)
		if err != nil {
			return err
		}
		out, err := digestToValue(fn(input, randomizer.Big().Bytes()), ins.DestType)
		if err != nil {
			return err
		}
		return c.writeAndAdvance(f, ins, out)

	case OpSignVerify:
		s, err := c.operandAt(f, ins, 0, tx)
		if err != nil {
			return err
		}
		sig, ok := s.(Signature)
		if !ok {
			return Internalf("sign.verify applied to a %s value", s.Kind())
		}
		a, err := c.operandAt(f, ins, 1, tx)
		if err != nil {
			return err
		}
		addr, ok := a.(Address)
		if !ok {
			return Internalf("sign.verify signer is a %s value", a.Kind())
		}
		msg, err := c.operandAt(f, ins, 2, tx)
		if err != nil {
			return err
		}
		fn, err := c.oracles.lookupVerify()
		if err != nil {
			return err
		}
		m, err := KeyBytes(msg)
		if err != nil {
			return err
		}
		ok = fn(sig.Challenge.Big().Bytes(), sig.Response.Big().Bytes(), []byte(addr), m)
		return c.writeAndAdvance(f, ins, Boolean(ok))

	case OpRand:
		buf := make([]byte, 32)
		if _, err := io.ReadFull(tx.entropy(), buf); err != nil {
			return Internalf("entropy source failed: %v", err)
		}
		out, err := digestToValue(buf, ins.DestType)
		if err != nil {
			return err
		}
		return c.writeAndAdvance(f, ins, out)

	case OpCall:
		return c.execCall(f, ins, tx)

	case OpAsync:
		return c.execAsync(f, ins, tx)

	default:
		return Internalf("unknown opcode %s", ins.Op)
	}
}

// operandAt resolves one operand by index, reporting a structured error
// when the compiled tree is missing it.
func (c *Cursor) operandAt(f *Frame, ins *Instruction, i int, tx *Transaction) (Value, error) {
	if i >= len(ins.Operands) {
		return nil, Internalf("%s expects operand %d, instruction carries %d", ins.Op, i, len(ins.Operands))
	}
	return c.resolveOperand(f, ins.Operands[i], tx)
}

// writeAndAdvance stores a single result to destination 0 and advances.
func (c *Cursor) writeAndAdvance(f *Frame, ins *Instruction, v Value) error {
	if len(ins.Destinations) != 1 {
		return Internalf("%s expects one destination, instruction carries %d", ins.Op, len(ins.Destinations))
	}
	if err := f.Store(ins.Destinations[0], v); err != nil {
		return err
	}
	f.ip++
	return nil
}

// ---------------------------------------------------------------------------
// Two-pass instructions
// ---------------------------------------------------------------------------

// execCall implements the two-step call protocol. Step 0 resolves the
// callee and arguments and pushes the callee frame, advancing only the
// step counter. Step 1, reached after the callee completed, consumes
// exactly one pending value and binds it to the destinations.
func (c *Cursor) execCall(f *Frame, ins *Instruction, tx *Transaction) error {
	if f.step == 0 {
		args, err := c.resolveOperands(f, ins.Operands, tx)
		if err != nil {
			return err
		}
		if err := c.doCall(ins.Call, args, false); err != nil {
			return err
		}
		f.step = 1
		return nil
	}

	v, err := f.popPending()
	if err != nil {
		return err
	}
	if err := c.bindCallResult(f, ins, v); err != nil {
		return err
	}
	f.step = 0
	f.ip++
	return nil
}

// bindCallResult distributes one forwarded callee result over the call's
// destinations, unwrapping a Tuple for multi-output callees.
func (c *Cursor) bindCallResult(f *Frame, ins *Instruction, v Value) error {
	dests := ins.Destinations
	switch len(dests) {
	case 0:
		if _, ok := v.(Unit); !ok {
			return Internalf("callee forwarded a %s value to a call with no destinations", v.Kind())
		}
		return nil
	case 1:
		return f.Store(dests[0], v)
	default:
		tuple, ok := v.(Tuple)
		if !ok {
			return Internalf("call with %d destinations received a %s value", len(dests), v.Kind())
		}
		if len(tuple) != len(dests) {
			return Internalf("call destinations (%d) do not match callee outputs (%d)", len(dests), len(tuple))
		}
		for i, d := range dests {
			if err := f.Store(d, tuple[i]); err != nil {
				return err
			}
		}
		return nil
	}
}

// execAsync implements the deferred finalize call. In deferred mode, step
// 0 constructs the Future without executing the callee. In immediate mode
// the finalize call runs inline via the same orchestration as call, and
// step 1 receives a placeholder Future once it completes.
func (c *Cursor) execAsync(f *Frame, ins *Instruction, tx *Transaction) error {
	if ins.Call == nil {
		return Internalf("async instruction carries no target")
	}
	targetProgram := ins.Call.Program
	if targetProgram == "" {
		targetProgram = f.ctx.program.ID
	}

	if f.step == 0 {
		args, err := c.resolveOperands(f, ins.Operands, tx)
		if err != nil {
			return err
		}
		if c.mode == EvalDeferred {
			fut := Future{Program: targetProgram, Function: ins.Call.Name, Args: args}
			return c.writeAndAdvance(f, ins, fut)
		}
		if err := c.doCall(ins.Call, args, true); err != nil {
			return err
		}
		f.step = 1
		return nil
	}

	if _, err := f.popPending(); err != nil {
		return err
	}
	args, err := c.resolveOperands(f, ins.Operands, tx)
	if err != nil {
		return err
	}
	fut := Future{Program: targetProgram, Function: ins.Call.Name, Args: args}
	if err := c.bindCallResult(f, ins, fut); err != nil {
		return err
	}
	f.step = 0
	f.ip++
	return nil
}
