package vm

// OperandKind distinguishes the sources an instruction operand can draw
// from.
type OperandKind int

const (
	// OperandLiteral is an inline constant from the compiled tree.
	OperandLiteral OperandKind = iota
	// OperandRegister reads a frame register, walking any access chain.
	OperandRegister
	// OperandSigner yields the transaction signer address.
	OperandSigner
	// OperandCaller yields the top context-stack caller, else the signer.
	OperandCaller
	// OperandBlockHeight yields the ambient block height as a u32.
	OperandBlockHeight
	// OperandProgramID is reserved for future work and rejected.
	OperandProgramID
)

// Operand is one instruction input.
type Operand struct {
	Kind     OperandKind
	Literal  Value
	Register Register
}

// LiteralOperand wraps a constant value.
func LiteralOperand(v Value) Operand {
	return Operand{Kind: OperandLiteral, Literal: v}
}

// RegisterOperand reads the given register.
func RegisterOperand(r Register) Operand {
	return Operand{Kind: OperandRegister, Register: r}
}

// SignerOperand yields the transaction signer.
func SignerOperand() Operand { return Operand{Kind: OperandSigner} }

// CallerOperand yields the ambient caller.
func CallerOperand() Operand { return Operand{Kind: OperandCaller} }

// BlockHeightOperand yields the ambient block height.
func BlockHeightOperand() Operand { return Operand{Kind: OperandBlockHeight} }

// resolveOperand converts op into a Value against the given frame and
// ambient transaction context.
func (c *Cursor) resolveOperand(f *Frame, op Operand, tx *Transaction) (Value, error) {
	switch op.Kind {
	case OperandLiteral:
		if op.Literal == nil {
			return nil, Internalf("literal operand holds no value")
		}
		return op.Literal, nil
	case OperandRegister:
		return f.Load(op.Register)
	case OperandSigner:
		return tx.Signer, nil
	case OperandCaller:
		if len(c.callers) > 0 {
			return c.callers[len(c.callers)-1], nil
		}
		return tx.Signer, nil
	case OperandBlockHeight:
		return NewInteger(U32, int64(tx.BlockHeight)), nil
	case OperandProgramID:
		return nil, Internalf("program-id operands are not supported")
	default:
		return nil, Internalf("unknown operand kind %d", op.Kind)
	}
}

// resolveOperands resolves a slice of operands in order.
func (c *Cursor) resolveOperands(f *Frame, ops []Operand, tx *Transaction) ([]Value, error) {
	out := make([]Value, len(ops))
	for i, op := range ops {
		v, err := c.resolveOperand(f, op, tx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
