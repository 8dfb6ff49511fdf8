package vm

// contextKind distinguishes the three body kinds a frame can execute.
type contextKind int

const (
	ctxFunction contextKind = iota
	ctxClosure
	ctxFinalize
)

// executionContext is the read-only body a frame walks.
type executionContext struct {
	kind     contextKind
	program  *Program
	function *Function
	closure  *Closure
	finalize *Finalize
}

func (ec executionContext) name() string {
	switch ec.kind {
	case ctxClosure:
		return ec.closure.Name
	case ctxFinalize:
		return ec.finalize.Name
	default:
		return ec.function.Name
	}
}

// instructions returns the plain instruction body, nil for finalize frames.
func (ec executionContext) instructions() []Instruction {
	switch ec.kind {
	case ctxFunction:
		return ec.function.Instructions
	case ctxClosure:
		return ec.closure.Instructions
	default:
		return nil
	}
}

// outputs returns the declared outputs of the body. Finalize bodies
// declare none.
func (ec executionContext) outputs() []Output {
	switch ec.kind {
	case ctxFunction:
		return ec.function.Outputs
	case ctxClosure:
		return ec.closure.Outputs
	default:
		return nil
	}
}

// Frame is one call activation: register storage built fresh for the call,
// the current position in its body, and a step counter used only by the
// two-pass instructions (call, async, await).
type Frame struct {
	ctx       executionContext
	registers map[uint64]Value
	ip        int
	step      int

	// pending holds values forwarded by completed callees, consumed by
	// the second pass of call and async instructions.
	pending []Value

	// awaiting is the pending-futures queue position of the future this
	// frame's in-flight await recorded at its first pass.
	awaiting int

	// pushedCaller records whether this frame pushed a context-stack
	// entry, so completion pops symmetrically. Root frames push none.
	pushedCaller bool
}

func newFrame(ctx executionContext) *Frame {
	return &Frame{ctx: ctx, registers: make(map[uint64]Value)}
}

// Store writes v to the plain register slot of r. Destinations never carry
// access chains; the upstream register allocator assigns a fresh locator
// per write.
func (f *Frame) Store(r Register, v Value) error {
	if len(r.Access) != 0 {
		return Internalf("destination register %s carries an access chain", r)
	}
	f.registers[r.Locator] = v
	return nil
}

// Load reads the register slot of r and walks its access chain. A read of
// an unwritten slot or a chain step against the wrong shape indicates a
// defect in an upstream compiler pass, not a user error.
func (f *Frame) Load(r Register) (Value, error) {
	v, ok := f.registers[r.Locator]
	if !ok {
		return nil, Internalf("read of unwritten register r%d in %s", r.Locator, f.ctx.name())
	}
	for _, a := range r.Access {
		next, err := resolveAccess(v, a)
		if err != nil {
			return nil, err
		}
		v = next
	}
	return v, nil
}

// popPending consumes the oldest forwarded callee result.
func (f *Frame) popPending() (Value, error) {
	if len(f.pending) == 0 {
		return nil, Internalf("no pending value to consume in %s", f.ctx.name())
	}
	v := f.pending[0]
	f.pending = f.pending[1:]
	return v, nil
}
