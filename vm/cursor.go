package vm

import (
	"errors"
	"fmt"
)

// ErrComplete is returned by Step once execution has finished.
var ErrComplete = errors.New("execution complete")

// EvalMode selects how async instructions evaluate.
type EvalMode int

const (
	// EvalDeferred constructs a Future without executing the callee;
	// the cross-program boundary resolves it later.
	EvalDeferred EvalMode = iota
	// EvalImmediate performs the finalize call inline via the same
	// orchestration as call.
	EvalImmediate
)

// TraceEntry records one executed step when tracing is enabled.
type TraceEntry struct {
	Depth int
	Where string
}

// CursorOption configures a Cursor at construction.
type CursorOption func(*Cursor)

// WithOracles installs a custom oracle catalog.
func WithOracles(o *Oracles) CursorOption {
	return func(c *Cursor) { c.oracles = o }
}

// WithTrace enables the per-step execution transcript.
func WithTrace() CursorOption {
	return func(c *Cursor) { c.traceOn = true }
}

// Cursor is the step-driven execution engine. One Cursor owns its entire
// call stack and mapping store exclusively; execution is single-threaded
// and synchronous, so no locking is involved. Any halting error aborts the
// whole invocation; snapshotting and rollback belong to the surrounding
// ledger layer.
type Cursor struct {
	set     *ProgramSet
	store   MappingStore
	oracles *Oracles
	mode    EvalMode

	// stack is the call stack, top-mutated. callers is the parallel
	// context stack of caller identities for ambient resolution.
	stack   []*Frame
	callers []Address

	// futures is the pending-futures queue: awaited but not yet
	// resolved, in call order.
	futures []Future

	outputs []Value
	done    bool

	traceOn bool
	trace   []TraceEntry
}

// NewCursor builds an engine over the given programs and mapping store.
func NewCursor(set *ProgramSet, store MappingStore, mode EvalMode, opts ...CursorOption) *Cursor {
	c := &Cursor{
		set:     set,
		store:   store,
		oracles: DefaultOracles(),
		mode:    mode,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke pushes the root frame for a function call. Arguments bind
// positionally to the function's declared input registers.
func (c *Cursor) Invoke(program, function string, args []Value) error {
	p, ok := c.set.Get(program)
	if !ok {
		return Internalf("unknown program %q", program)
	}
	fn, ok := p.Functions[function]
	if !ok {
		return Internalf("program %s has no function %q", program, function)
	}
	ctx := executionContext{kind: ctxFunction, program: p, function: fn}
	return c.pushFrame(ctx, fn.Inputs, args, false)
}

// InvokeFinalize pushes the root frame for a finalize body, the entry
// point the surrounding ledger uses to resolve a deferred Future.
func (c *Cursor) InvokeFinalize(program, function string, args []Value) error {
	p, ok := c.set.Get(program)
	if !ok {
		return Internalf("unknown program %q", program)
	}
	fn, ok := p.Functions[function]
	if !ok {
		return Internalf("program %s has no function %q", program, function)
	}
	if fn.Finalize == nil {
		return Internalf("function %s/%s has no finalize body", program, function)
	}
	ctx := executionContext{kind: ctxFinalize, program: p, function: fn, finalize: fn.Finalize}
	return c.pushFrame(ctx, fn.Finalize.Inputs, args, false)
}

// ResolveFuture is InvokeFinalize driven by a Future value.
func (c *Cursor) ResolveFuture(f Future) error {
	return c.InvokeFinalize(f.Program, f.Function, f.Args)
}

// pushFrame allocates a fresh frame for ctx, binds args to the declared
// input registers in positional order, and pushes it. Nested calls push a
// caller-identity entry on the parallel context stack.
func (c *Cursor) pushFrame(ctx executionContext, inputs []Input, args []Value, nested bool) error {
	if len(args) != len(inputs) {
		return Internalf("%s expects %d inputs, got %d", ctx.name(), len(inputs), len(args))
	}
	f := newFrame(ctx)
	for i, in := range inputs {
		if err := f.Store(in.Register, args[i]); err != nil {
			return err
		}
	}
	if nested {
		caller := c.currentProgram()
		c.callers = append(c.callers, ProgramAddress(caller.ID))
		f.pushedCaller = true
	}
	c.stack = append(c.stack, f)
	return nil
}

func (c *Cursor) top() *Frame {
	return c.stack[len(c.stack)-1]
}

func (c *Cursor) currentProgram() *Program {
	return c.top().ctx.program
}

// Done reports whether execution has completed.
func (c *Cursor) Done() bool { return c.done }

// Outputs returns the completed top-level frame's declared return values.
func (c *Cursor) Outputs() []Value { return c.outputs }

// PendingFutures returns the awaited-but-unresolved futures, in call order.
func (c *Cursor) PendingFutures() []Future { return c.futures }

// Trace returns the execution transcript when tracing is enabled.
func (c *Cursor) Trace() []TraceEntry { return c.trace }

// Step advances execution by one unit: one finalize command, one plain
// instruction, or one frame completion. It returns ErrComplete once the
// root frame has finished.
func (c *Cursor) Step(tx *Transaction) error {
	if c.done {
		return ErrComplete
	}
	if len(c.stack) == 0 {
		return Internalf("step with no active frame")
	}
	f := c.top()

	if f.ctx.kind == ctxFinalize {
		cmds := f.ctx.finalize.Commands
		if f.ip < len(cmds) {
			return c.execCommand(f, cmds[f.ip], tx)
		}
		return c.finishFrame(tx)
	}

	ins := f.ctx.instructions()
	if f.ip < len(ins) {
		return c.execInstruction(f, &ins[f.ip], tx)
	}
	return c.finishFrame(tx)
}

// Run steps until completion. The caller still owns halting semantics:
// the first error aborts, tagged with the transaction id, leaving the
// mapping store to the surrounding ledger's snapshot.
func (c *Cursor) Run(tx *Transaction) error {
	for !c.done {
		if err := c.Step(tx); err != nil {
			return fmt.Errorf("transaction %s: %w", tx.ID, err)
		}
	}
	return nil
}

// finishFrame completes the active frame: collect its declared outputs,
// pop it, forward the outputs to the caller's pending value stack (wrapped
// in a Tuple when more than one), and pop the parallel context entry.
func (c *Cursor) finishFrame(tx *Transaction) error {
	f := c.top()
	decls := f.ctx.outputs()
	outs := make([]Value, len(decls))
	for i, d := range decls {
		v, err := c.resolveOperand(f, d.Operand, tx)
		if err != nil {
			return err
		}
		outs[i] = v
	}

	c.stack = c.stack[:len(c.stack)-1]
	if f.pushedCaller {
		c.callers = c.callers[:len(c.callers)-1]
	}
	c.record(len(c.stack), "return from "+f.ctx.name())

	if len(c.stack) == 0 {
		c.outputs = outs
		c.done = true
		return nil
	}

	var forwarded Value
	switch len(outs) {
	case 0:
		forwarded = Unit{}
	case 1:
		forwarded = outs[0]
	default:
		forwarded = Tuple(outs)
	}
	caller := c.top()
	caller.pending = append(caller.pending, forwarded)
	return nil
}

func (c *Cursor) record(depth int, where string) {
	if c.traceOn {
		c.trace = append(c.trace, TraceEntry{Depth: depth, Where: where})
	}
}

// ---------------------------------------------------------------------------
// Call orchestration
// ---------------------------------------------------------------------------

// doCall resolves the callee's compiled body, allocates a fresh frame,
// binds arguments positionally, and pushes it. The caller frame's step
// counter is the sole mechanism distinguishing "about to call" from
// "about to receive a result".
func (c *Cursor) doCall(target *CallTarget, args []Value, isFinalize bool) error {
	if target == nil {
		return Internalf("call instruction carries no target")
	}
	caller := c.currentProgram()
	p := caller
	if target.Program != "" && target.Program != caller.ID {
		ext, ok := c.set.Get(target.Program)
		if !ok {
			return Internalf("unknown program %q in call target", target.Program)
		}
		p = ext
	}

	if isFinalize {
		fn, ok := p.Functions[target.Name]
		if !ok || fn.Finalize == nil {
			return Internalf("program %s has no finalize %q", p.ID, target.Name)
		}
		ctx := executionContext{kind: ctxFinalize, program: p, function: fn, finalize: fn.Finalize}
		return c.pushFrame(ctx, fn.Finalize.Inputs, args, true)
	}

	// Closures shadow functions only within the calling program.
	if p == caller {
		if cl, ok := p.Closures[target.Name]; ok {
			ctx := executionContext{kind: ctxClosure, program: p, closure: cl}
			return c.pushFrame(ctx, cl.Inputs, args, true)
		}
	}
	fn, ok := p.Functions[target.Name]
	if !ok {
		return Internalf("program %s has no callable %q", p.ID, target.Name)
	}
	ctx := executionContext{kind: ctxFunction, program: p, function: fn}
	return c.pushFrame(ctx, fn.Inputs, args, true)
}
