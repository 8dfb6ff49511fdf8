package vm

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testTx() *Transaction {
	return NewTransaction(Address("strata1signer"), 42)
}

func runToCompletion(t *testing.T, c *Cursor, tx *Transaction) []Value {
	t.Helper()
	if err := c.Run(tx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !c.Done() {
		t.Fatal("cursor not done after Run")
	}
	return c.Outputs()
}

// addProgram declares: function sum(r0, r1) { r2 = r0 + r1 } -> r2
func addProgram() *Program {
	return NewProgram("adder").AddFunction(&Function{
		Name:   "sum",
		Inputs: []Input{{Register: NewRegister(0)}, {Register: NewRegister(1)}},
		Instructions: []Instruction{{
			Op:           OpAdd,
			Operands:     []Operand{RegisterOperand(NewRegister(0)), RegisterOperand(NewRegister(1))},
			Destinations: []Register{NewRegister(2)},
		}},
		Outputs: []Output{{Operand: RegisterOperand(NewRegister(2))}},
	})
}

// ---------------------------------------------------------------------------
// Plain execution
// ---------------------------------------------------------------------------

func TestRunSimpleFunction(t *testing.T) {
	c := NewCursor(NewProgramSet(addProgram()), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("adder", "sum", []Value{NewInteger(U64, 2), NewInteger(U64, 3)}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	outs := runToCompletion(t, c, testTx())
	if len(outs) != 1 || !outs[0].Equal(NewInteger(U64, 5)) {
		t.Errorf("outputs = %v, want [5u64]", outs)
	}
}

func TestStepAfterCompletion(t *testing.T) {
	c := NewCursor(NewProgramSet(addProgram()), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("adder", "sum", []Value{NewInteger(U64, 1), NewInteger(U64, 1)}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	tx := testTx()
	runToCompletion(t, c, tx)
	if err := c.Step(tx); err != ErrComplete {
		t.Errorf("step after completion: err = %v, want ErrComplete", err)
	}
}

func TestInvokeArityMismatch(t *testing.T) {
	c := NewCursor(NewProgramSet(addProgram()), NewMemoryStore(), EvalDeferred)
	err := c.Invoke("adder", "sum", []Value{NewInteger(U64, 1)})
	if !IsInternal(err) {
		t.Errorf("arity mismatch: err = %v, want internal", err)
	}
}

func TestReadUnwrittenRegister(t *testing.T) {
	p := NewProgram("p").AddFunction(&Function{
		Name: "f",
		Instructions: []Instruction{{
			Op:           OpNot,
			Operands:     []Operand{RegisterOperand(NewRegister(9))},
			Destinations: []Register{NewRegister(1)},
		}},
	})
	c := NewCursor(NewProgramSet(p), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("p", "f", nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	err := c.Run(testTx())
	if !IsInternal(err) {
		t.Errorf("unwritten register: err = %v, want internal", err)
	}
}

func TestTernary(t *testing.T) {
	p := NewProgram("p").AddFunction(&Function{
		Name:   "pick",
		Inputs: []Input{{Register: NewRegister(0)}},
		Instructions: []Instruction{{
			Op: OpTernary,
			Operands: []Operand{
				RegisterOperand(NewRegister(0)),
				LiteralOperand(Str("yes")),
				LiteralOperand(Str("no")),
			},
			Destinations: []Register{NewRegister(1)},
		}},
		Outputs: []Output{{Operand: RegisterOperand(NewRegister(1))}},
	})
	c := NewCursor(NewProgramSet(p), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("p", "pick", []Value{Boolean(true)}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	outs := runToCompletion(t, c, testTx())
	if !outs[0].Equal(Str("yes")) {
		t.Errorf("ternary picked %s", outs[0])
	}
}

func TestAssertHalts(t *testing.T) {
	p := NewProgram("p").AddFunction(&Function{
		Name: "f",
		Instructions: []Instruction{{
			Op:       OpAssertEq,
			Operands: []Operand{LiteralOperand(NewInteger(U8, 1)), LiteralOperand(NewInteger(U8, 2))},
		}},
	})
	c := NewCursor(NewProgramSet(p), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("p", "f", nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	err := c.Run(testTx())
	if !IsHalt(err) {
		t.Errorf("assert.eq on unequal values: err = %v, want halt", err)
	}
}

func TestRunTagsErrorsWithTransactionID(t *testing.T) {
	p := NewProgram("p").AddFunction(&Function{
		Name: "f",
		Instructions: []Instruction{{
			Op:       OpAssertEq,
			Operands: []Operand{LiteralOperand(NewInteger(U8, 1)), LiteralOperand(NewInteger(U8, 2))},
		}},
	})
	c := NewCursor(NewProgramSet(p), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("p", "f", nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	tx := testTx()
	err := c.Run(tx)
	if !IsHalt(err) {
		t.Fatalf("err = %v, want halt", err)
	}
	if !strings.Contains(err.Error(), tx.ID.String()) {
		t.Errorf("halt message %q does not name transaction %s", err, tx.ID)
	}
}

func TestNestedRegisterAccess(t *testing.T) {
	p := NewProgram("p").
		AddStruct(&StructType{Name: "pair", Fields: []string{"first", "second"}}).
		AddFunction(&Function{
			Name:   "f",
			Inputs: []Input{{Register: NewRegister(0)}},
			Instructions: []Instruction{{
				Op: OpAdd,
				Operands: []Operand{
					RegisterOperand(NewRegister(0).Member("second").Index(1)),
					LiteralOperand(NewInteger(U8, 1)),
				},
				Destinations: []Register{NewRegister(1)},
			}},
			Outputs: []Output{{Operand: RegisterOperand(NewRegister(1))}},
		})
	arg := Struct{Name: "pair", Fields: []StructField{
		{Name: "first", Value: Boolean(false)},
		{Name: "second", Value: Array{NewInteger(U8, 10), NewInteger(U8, 20)}},
	}}
	c := NewCursor(NewProgramSet(p), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("p", "f", []Value{arg}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	outs := runToCompletion(t, c, testTx())
	if !outs[0].Equal(NewInteger(U8, 21)) {
		t.Errorf("r0.second[1] + 1 = %s, want 21u8", outs[0])
	}
}

func TestAccessOnDestinationRejected(t *testing.T) {
	f := newFrame(executionContext{kind: ctxFunction, program: NewProgram("p"), function: &Function{Name: "f"}})
	err := f.Store(NewRegister(0).Member("x"), Boolean(true))
	if !IsInternal(err) {
		t.Errorf("store through access chain: err = %v, want internal", err)
	}
}

// ---------------------------------------------------------------------------
// Ambient operands
// ---------------------------------------------------------------------------

func TestSignerAndBlockHeightOperands(t *testing.T) {
	p := NewProgram("p").AddFunction(&Function{
		Name: "f",
		Instructions: []Instruction{
			{
				Op:           OpIsEq,
				Operands:     []Operand{SignerOperand(), SignerOperand()},
				Destinations: []Register{NewRegister(0)},
			},
			{
				Op:           OpAdd,
				Operands:     []Operand{BlockHeightOperand(), LiteralOperand(NewInteger(U32, 1))},
				Destinations: []Register{NewRegister(1)},
			},
		},
		Outputs: []Output{
			{Operand: SignerOperand()},
			{Operand: RegisterOperand(NewRegister(1))},
		},
	})
	c := NewCursor(NewProgramSet(p), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("p", "f", nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	outs := runToCompletion(t, c, testTx())
	if !outs[0].Equal(Address("strata1signer")) {
		t.Errorf("signer output = %s", outs[0])
	}
	if !outs[1].Equal(NewInteger(U32, 43)) {
		t.Errorf("block height + 1 = %s, want 43u32", outs[1])
	}
}

func TestCallerFallsBackToSigner(t *testing.T) {
	p := NewProgram("p").AddFunction(&Function{
		Name:    "f",
		Outputs: []Output{{Operand: CallerOperand()}},
	})
	c := NewCursor(NewProgramSet(p), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("p", "f", nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	outs := runToCompletion(t, c, testTx())
	if !outs[0].Equal(Address("strata1signer")) {
		t.Errorf("root caller = %s, want the signer", outs[0])
	}
}

func TestCallerInsideNestedCall(t *testing.T) {
	callee := NewProgram("callee").AddFunction(&Function{
		Name:    "who",
		Outputs: []Output{{Operand: CallerOperand()}},
	})
	caller := NewProgram("caller").AddFunction(&Function{
		Name: "f",
		Instructions: []Instruction{{
			Op:           OpCall,
			Call:         &CallTarget{Program: "callee", Name: "who"},
			Destinations: []Register{NewRegister(0)},
		}},
		Outputs: []Output{{Operand: RegisterOperand(NewRegister(0))}},
	})
	c := NewCursor(NewProgramSet(callee, caller), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("caller", "f", nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	outs := runToCompletion(t, c, testTx())
	if !outs[0].Equal(ProgramAddress("caller")) {
		t.Errorf("nested caller = %s, want %s", outs[0], ProgramAddress("caller"))
	}
}

// ---------------------------------------------------------------------------
// Call protocol
// ---------------------------------------------------------------------------

func TestCallTwoStepProtocol(t *testing.T) {
	caller := NewProgram("caller").AddFunction(&Function{
		Name: "f",
		Instructions: []Instruction{{
			Op:           OpCall,
			Operands:     []Operand{LiteralOperand(NewInteger(U64, 4)), LiteralOperand(NewInteger(U64, 6))},
			Call:         &CallTarget{Program: "adder", Name: "sum"},
			Destinations: []Register{NewRegister(0)},
		}},
		Outputs: []Output{{Operand: RegisterOperand(NewRegister(0))}},
	})
	c := NewCursor(NewProgramSet(addProgram(), caller), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("caller", "f", nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	tx := testTx()

	// First pass of the call pushes the callee without advancing.
	if err := c.Step(tx); err != nil {
		t.Fatalf("step: %v", err)
	}
	if len(c.stack) != 2 {
		t.Fatalf("stack depth after call step 0 = %d, want 2", len(c.stack))
	}
	root := c.stack[0]
	if root.ip != 0 || root.step != 1 {
		t.Fatalf("caller frame at ip=%d step=%d, want ip=0 step=1", root.ip, root.step)
	}

	// Callee body, then callee completion.
	if err := c.Step(tx); err != nil {
		t.Fatalf("callee step: %v", err)
	}
	if err := c.Step(tx); err != nil {
		t.Fatalf("callee return: %v", err)
	}
	if len(c.stack) != 1 {
		t.Fatalf("stack depth after callee return = %d, want 1", len(c.stack))
	}
	if len(root.pending) != 1 {
		t.Fatalf("pending values = %d, want 1", len(root.pending))
	}

	// Second pass consumes the pending value and advances.
	if err := c.Step(tx); err != nil {
		t.Fatalf("call step 1: %v", err)
	}
	if root.ip != 1 || root.step != 0 {
		t.Fatalf("caller frame at ip=%d step=%d, want ip=1 step=0", root.ip, root.step)
	}

	outs := runToCompletion(t, c, tx)
	if !outs[0].Equal(NewInteger(U64, 10)) {
		t.Errorf("call result = %s, want 10u64", outs[0])
	}
}

func TestCallMultipleOutputs(t *testing.T) {
	callee := NewProgram("p").AddFunction(&Function{
		Name:   "minmax",
		Inputs: []Input{{Register: NewRegister(0)}, {Register: NewRegister(1)}},
		Outputs: []Output{
			{Operand: RegisterOperand(NewRegister(0))},
			{Operand: RegisterOperand(NewRegister(1))},
		},
	})
	callee.AddFunction(&Function{
		Name: "f",
		Instructions: []Instruction{{
			Op:           OpCall,
			Operands:     []Operand{LiteralOperand(NewInteger(U8, 1)), LiteralOperand(NewInteger(U8, 2))},
			Call:         &CallTarget{Name: "minmax"},
			Destinations: []Register{NewRegister(0), NewRegister(1)},
		}},
		Outputs: []Output{
			{Operand: RegisterOperand(NewRegister(1))},
			{Operand: RegisterOperand(NewRegister(0))},
		},
	})
	c := NewCursor(NewProgramSet(callee), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("p", "f", nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	outs := runToCompletion(t, c, testTx())
	if len(outs) != 2 || !outs[0].Equal(NewInteger(U8, 2)) || !outs[1].Equal(NewInteger(U8, 1)) {
		t.Errorf("outputs = %v, want [2u8 1u8]", outs)
	}
}

func TestCallWithNoOutputs(t *testing.T) {
	p := NewProgram("p").AddFunction(&Function{
		Name: "noop",
	}).AddFunction(&Function{
		Name: "f",
		Instructions: []Instruction{
			{Op: OpCall, Call: &CallTarget{Name: "noop"}},
			{
				Op:           OpIsEq,
				Operands:     []Operand{LiteralOperand(Boolean(true)), LiteralOperand(Boolean(true))},
				Destinations: []Register{NewRegister(0)},
			},
		},
		Outputs: []Output{{Operand: RegisterOperand(NewRegister(0))}},
	})
	c := NewCursor(NewProgramSet(p), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("p", "f", nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	outs := runToCompletion(t, c, testTx())
	if !outs[0].Equal(Boolean(true)) {
		t.Errorf("post-call instruction did not run: %v", outs)
	}
}

func TestClosureShadowsFunctionLocally(t *testing.T) {
	p := NewProgram("p").AddFunction(&Function{
		Name:    "pick",
		Outputs: []Output{{Operand: LiteralOperand(Str("function"))}},
	}).AddClosure(&Closure{
		Name:    "pick",
		Outputs: []Output{{Operand: LiteralOperand(Str("closure"))}},
	}).AddFunction(&Function{
		Name: "f",
		Instructions: []Instruction{{
			Op:           OpCall,
			Call:         &CallTarget{Name: "pick"},
			Destinations: []Register{NewRegister(0)},
		}},
		Outputs: []Output{{Operand: RegisterOperand(NewRegister(0))}},
	})
	c := NewCursor(NewProgramSet(p), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("p", "f", nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	outs := runToCompletion(t, c, testTx())
	if !outs[0].Equal(Str("closure")) {
		t.Errorf("local call resolved to %s, want the closure", outs[0])
	}
}

func TestCrossProgramCallIgnoresClosures(t *testing.T) {
	ext := NewProgram("ext").AddFunction(&Function{
		Name:    "pick",
		Outputs: []Output{{Operand: LiteralOperand(Str("function"))}},
	}).AddClosure(&Closure{
		Name:    "pick",
		Outputs: []Output{{Operand: LiteralOperand(Str("closure"))}},
	})
	caller := NewProgram("caller").AddFunction(&Function{
		Name: "f",
		Instructions: []Instruction{{
			Op:           OpCall,
			Call:         &CallTarget{Program: "ext", Name: "pick"},
			Destinations: []Register{NewRegister(0)},
		}},
		Outputs: []Output{{Operand: RegisterOperand(NewRegister(0))}},
	})
	c := NewCursor(NewProgramSet(ext, caller), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("caller", "f", nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	outs := runToCompletion(t, c, testTx())
	if !outs[0].Equal(Str("function")) {
		t.Errorf("cross-program call resolved to %s, want the function", outs[0])
	}
}

func TestUnknownCalleeIsInternal(t *testing.T) {
	p := NewProgram("p").AddFunction(&Function{
		Name: "f",
		Instructions: []Instruction{{
			Op:   OpCall,
			Call: &CallTarget{Name: "missing"},
		}},
	})
	c := NewCursor(NewProgramSet(p), NewMemoryStore(), EvalDeferred)
	if err := c.Invoke("p", "f", nil); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	err := c.Run(testTx())
	if !IsInternal(err) {
		t.Errorf("unknown callee: err = %v, want internal", err)
	}
}

// ---------------------------------------------------------------------------
// Tracing
// ---------------------------------------------------------------------------

func TestTraceRecordsSteps(t *testing.T) {
	c := NewCursor(NewProgramSet(addProgram()), NewMemoryStore(), EvalDeferred, WithTrace())
	if err := c.Invoke("adder", "sum", []Value{NewInteger(U64, 1), NewInteger(U64, 2)}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	runToCompletion(t, c, testTx())
	trace := c.Trace()
	if len(trace) == 0 {
		t.Fatal("trace is empty")
	}
	if trace[0].Where != "add" {
		t.Errorf("trace[0] = %q, want \"add\"", trace[0].Where)
	}
	last := trace[len(trace)-1]
	if last.Where != "return from sum" {
		t.Errorf("last trace entry = %q", last.Where)
	}
}
