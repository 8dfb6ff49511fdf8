package vm

// StructType is a declared composite shape. Only field order and names are
// needed at runtime; field types were checked upstream.
type StructType struct {
	Name   string
	Fields []string
}

// RecordType is a declared owned-record shape.
type RecordType struct {
	Name   string
	Fields []string
}

// MappingType declares a persistent mapping. Key and value types are
// restricted upstream to plain, non-future, non-tuple, non-record types;
// at runtime only the declaration's existence matters.
type MappingType struct {
	Name string
}

// Input binds one positional argument to a register slot.
type Input struct {
	Register Register
}

// Output declares one return value as an operand resolved in the completed
// frame.
type Output struct {
	Operand Operand
}

// Closure is an internally-callable instruction body.
type Closure struct {
	Name         string
	Inputs       []Input
	Instructions []Instruction
	Outputs      []Output
}

// Function is an externally-callable transition with an optional deferred
// finalize body.
type Function struct {
	Name         string
	Inputs       []Input
	Instructions []Instruction
	Outputs      []Output
	Finalize     *Finalize
}

// Finalize is the state-mutating half of a function, executed against the
// mapping store as a distinct command sequence.
type Finalize struct {
	Name     string
	Inputs   []Input
	Commands []Command
}

// Program is one compiled, already type-checked program: its declarations
// and executable bodies. Programs are read-only to the engine.
type Program struct {
	ID        string
	Structs   map[string]*StructType
	Records   map[string]*RecordType
	Mappings  map[string]*MappingType
	Closures  map[string]*Closure
	Functions map[string]*Function
}

// NewProgram returns an empty program with the given identifier.
func NewProgram(id string) *Program {
	return &Program{
		ID:        id,
		Structs:   make(map[string]*StructType),
		Records:   make(map[string]*RecordType),
		Mappings:  make(map[string]*MappingType),
		Closures:  make(map[string]*Closure),
		Functions: make(map[string]*Function),
	}
}

// AddStruct declares a struct shape.
func (p *Program) AddStruct(t *StructType) *Program {
	p.Structs[t.Name] = t
	return p
}

// AddRecord declares a record shape.
func (p *Program) AddRecord(t *RecordType) *Program {
	p.Records[t.Name] = t
	return p
}

// AddMapping declares a mapping.
func (p *Program) AddMapping(name string) *Program {
	p.Mappings[name] = &MappingType{Name: name}
	return p
}

// AddClosure registers a closure body.
func (p *Program) AddClosure(c *Closure) *Program {
	p.Closures[c.Name] = c
	return p
}

// AddFunction registers a function body.
func (p *Program) AddFunction(f *Function) *Program {
	p.Functions[f.Name] = f
	return p
}

// ProgramSet resolves cross-program call targets.
type ProgramSet struct {
	programs map[string]*Program
}

// NewProgramSet indexes the given programs by ID.
func NewProgramSet(programs ...*Program) *ProgramSet {
	set := &ProgramSet{programs: make(map[string]*Program, len(programs))}
	for _, p := range programs {
		set.programs[p.ID] = p
	}
	return set
}

// Add registers a program, replacing any previous program of the same ID.
func (s *ProgramSet) Add(p *Program) {
	s.programs[p.ID] = p
}

// Get resolves a program by ID.
func (s *ProgramSet) Get(id string) (*Program, bool) {
	p, ok := s.programs[id]
	return p, ok
}
