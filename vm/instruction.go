package vm

import "fmt"

// Opcode identifies one instruction of the compiled tree. The tree arrives
// already parsed and type checked; opcodes are structured values rather
// than a byte stream.
type Opcode int

const (
	// Unary
	OpAbs Opcode = iota
	OpAbsWrapped
	OpDouble
	OpInverse
	OpNegate
	OpNot
	OpSquare
	OpSquareRoot
	OpToXCoordinate
	OpToYCoordinate

	// Binary arithmetic
	OpAdd
	OpAddWrapped
	OpSub
	OpSubWrapped
	OpMul
	OpMulWrapped
	OpDiv
	OpDivWrapped
	OpRem
	OpRemWrapped
	OpMod
	OpPow
	OpPowWrapped
	OpShl
	OpShlWrapped
	OpShr
	OpShrWrapped

	// Relational
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpIsEq
	OpIsNeq

	// Bitwise / logical
	OpAnd
	OpOr
	OpXor
	OpNand
	OpNor

	// Assertions
	OpAssertEq
	OpAssertNeq

	// Selection
	OpTernary

	// Conversion
	OpCast
	OpCastLossy

	// Oracles
	OpHash
	OpCommit
	OpSignVerify

	// Control
	OpCall
	OpAsync

	// Randomness
	OpRand
)

var opcodeNames = map[Opcode]string{
	OpAbs: "abs", OpAbsWrapped: "abs.w", OpDouble: "double", OpInverse: "inv",
	OpNegate: "neg", OpNot: "not", OpSquare: "square", OpSquareRoot: "sqrt",
	OpToXCoordinate: "to.x", OpToYCoordinate: "to.y",
	OpAdd: "add", OpAddWrapped: "add.w", OpSub: "sub", OpSubWrapped: "sub.w",
	OpMul: "mul", OpMulWrapped: "mul.w", OpDiv: "div", OpDivWrapped: "div.w",
	OpRem: "rem", OpRemWrapped: "rem.w", OpMod: "mod",
	OpPow: "pow", OpPowWrapped: "pow.w",
	OpShl: "shl", OpShlWrapped: "shl.w", OpShr: "shr", OpShrWrapped: "shr.w",
	OpLessThan: "lt", OpLessThanOrEqual: "lte",
	OpGreaterThan: "gt", OpGreaterThanOrEqual: "gte",
	OpIsEq: "is.eq", OpIsNeq: "is.neq",
	OpAnd: "and", OpOr: "or", OpXor: "xor", OpNand: "nand", OpNor: "nor",
	OpAssertEq: "assert.eq", OpAssertNeq: "assert.neq",
	OpTernary: "ternary",
	OpCast:    "cast", OpCastLossy: "cast.lossy",
	OpHash: "hash", OpCommit: "commit", OpSignVerify: "sign.verify",
	OpCall: "call", OpAsync: "async",
	OpRand: "rand",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// CastTargetKind distinguishes the shapes a cast can produce.
type CastTargetKind int

const (
	CastLiteral CastTargetKind = iota
	CastStruct
	CastRecord
	CastArray
)

// CastTarget describes the requested destination shape of a cast
// instruction. Lossy casts accept literal targets only.
type CastTarget struct {
	Kind    CastTargetKind
	Literal LiteralType // for CastLiteral
	Name    string      // declared struct or record name
	Length  int         // declared array length
}

// CallTarget names the callee of a call or async instruction. An empty
// Program refers to the current program.
type CallTarget struct {
	Program string
	Name    string
}

// Instruction is one executable operation of a closure, function or
// finalize body.
type Instruction struct {
	Op           Opcode
	Operands     []Operand
	Destinations []Register

	Cast      *CastTarget // cast / cast.lossy
	Algorithm string      // hash / commit oracle name
	DestType  LiteralType // hash / commit / rand destination type
	Call      *CallTarget // call / async
}

// ---------------------------------------------------------------------------
// Finalize commands
// ---------------------------------------------------------------------------

// Command is one step of a finalize body: either a plain instruction or a
// finalize-only operation (branching, awaiting, mapping access).
type Command interface {
	isCommand()
}

// InstructionCommand delegates to the plain instruction path.
type InstructionCommand struct {
	Instruction Instruction
}

// BranchCommand compares two operands and jumps to the position matching
// Target when the comparison (equality, or inequality if OnNotEqual)
// holds; otherwise it falls through.
type BranchCommand struct {
	OnNotEqual bool
	First      Operand
	Second     Operand
	Target     string
}

// PositionCommand is a jump label. Executing it performs no state change.
type PositionCommand struct {
	Label string
}

// AwaitCommand resolves the Future held in Register by executing its
// finalize body, recording it on the pending-futures queue meanwhile.
type AwaitCommand struct {
	Register Register
}

// GetCommand reads a mapping entry, halting if the key is absent.
type GetCommand struct {
	Mapping     string
	Key         Operand
	Destination Register
}

// GetOrUseCommand reads a mapping entry, substituting Default if absent.
type GetOrUseCommand struct {
	Mapping     string
	Key         Operand
	Default     Operand
	Destination Register
}

// SetCommand writes a mapping entry.
type SetCommand struct {
	Mapping string
	Key     Operand
	Value   Operand
}

// RemoveCommand deletes a mapping entry. Removing an absent key is not an
// error.
type RemoveCommand struct {
	Mapping string
	Key     Operand
}

// ContainsCommand queries key presence without side effects.
type ContainsCommand struct {
	Mapping     string
	Key         Operand
	Destination Register
}

func (InstructionCommand) isCommand() {}
func (BranchCommand) isCommand()      {}
func (PositionCommand) isCommand()    {}
func (AwaitCommand) isCommand()       {}
func (GetCommand) isCommand()         {}
func (GetOrUseCommand) isCommand()    {}
func (SetCommand) isCommand()         {}
func (RemoveCommand) isCommand()      {}
func (ContainsCommand) isCommand()    {}
