package vm

import (
	"fmt"
	"strings"
)

// Kind identifies the runtime type of a Value.
type Kind int

const (
	KindUnit Kind = iota
	KindBoolean
	KindInteger
	KindField
	KindGroup
	KindScalar
	KindAddress
	KindSignature
	KindString
	KindStruct
	KindArray
	KindTuple
	KindRecord
	KindFuture
)

var kindNames = [...]string{
	KindUnit:      "unit",
	KindBoolean:   "boolean",
	KindInteger:   "integer",
	KindField:     "field",
	KindGroup:     "group",
	KindScalar:    "scalar",
	KindAddress:   "address",
	KindSignature: "signature",
	KindString:    "string",
	KindStruct:    "struct",
	KindArray:     "array",
	KindTuple:     "tuple",
	KindRecord:    "record",
	KindFuture:    "future",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is the runtime representation of every Strata value.
//
// Equality is structural over all variants. Key material (see KeyBytes)
// intentionally disregards parts of Record and Future that Equal does
// compare; that asymmetry is documented at KeyBytes.
type Value interface {
	Kind() Kind
	Equal(other Value) bool
	String() string
}

// ---------------------------------------------------------------------------
// Unit
// ---------------------------------------------------------------------------

// Unit is the empty value, forwarded when a callee declares no outputs.
type Unit struct{}

func (Unit) Kind() Kind { return KindUnit }

func (Unit) Equal(other Value) bool {
	_, ok := other.(Unit)
	return ok
}

func (Unit) String() string { return "()" }

// ---------------------------------------------------------------------------
// Boolean
// ---------------------------------------------------------------------------

// Boolean is a runtime true/false value.
type Boolean bool

func (Boolean) Kind() Kind { return KindBoolean }

func (b Boolean) Equal(other Value) bool {
	o, ok := other.(Boolean)
	return ok && b == o
}

func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

// ---------------------------------------------------------------------------
// Address
// ---------------------------------------------------------------------------

// Address identifies an account or a deployed program.
type Address string

func (Address) Kind() Kind { return KindAddress }

func (a Address) Equal(other Value) bool {
	o, ok := other.(Address)
	return ok && a == o
}

func (a Address) String() string { return string(a) }

// ProgramAddress derives the ambient caller identity for a program.
func ProgramAddress(programID string) Address {
	return Address("strata1" + programID)
}

// ---------------------------------------------------------------------------
// Signature
// ---------------------------------------------------------------------------

// Signature is a Schnorr-style (challenge, response) scalar pair. The engine
// carries signatures through equality and casts; verification is an oracle.
type Signature struct {
	Challenge Scalar
	Response  Scalar
}

func (Signature) Kind() Kind { return KindSignature }

func (s Signature) Equal(other Value) bool {
	o, ok := other.(Signature)
	return ok && s.Challenge.Equal(o.Challenge) && s.Response.Equal(o.Response)
}

func (s Signature) String() string {
	return fmt.Sprintf("sign(%s, %s)", s.Challenge, s.Response)
}

// ---------------------------------------------------------------------------
// Str
// ---------------------------------------------------------------------------

// Str is a runtime string value.
type Str string

func (Str) Kind() Kind { return KindString }

func (s Str) Equal(other Value) bool {
	o, ok := other.(Str)
	return ok && s == o
}

func (s Str) String() string { return fmt.Sprintf("%q", string(s)) }

// ---------------------------------------------------------------------------
// Struct
// ---------------------------------------------------------------------------

// StructField is one named member of a Struct or Record.
type StructField struct {
	Name  string
	Value Value
}

// Struct is an ordered field-name to value mapping with an optional
// identity tag naming the declared struct type it was cast into.
type Struct struct {
	Name   string
	Fields []StructField
}

func (Struct) Kind() Kind { return KindStruct }

func (s Struct) Equal(other Value) bool {
	o, ok := other.(Struct)
	if !ok || s.Name != o.Name || len(s.Fields) != len(o.Fields) {
		return false
	}
	for i, f := range s.Fields {
		if f.Name != o.Fields[i].Name || !f.Value.Equal(o.Fields[i].Value) {
			return false
		}
	}
	return true
}

func (s Struct) String() string {
	var b strings.Builder
	if s.Name != "" {
		b.WriteString(s.Name)
		b.WriteByte(' ')
	}
	b.WriteByte('{')
	for i, f := range s.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %s", f.Name, f.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// Member returns the named field value, reporting whether it exists.
func (s Struct) Member(name string) (Value, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Array and Tuple
// ---------------------------------------------------------------------------

// Array is an ordered, fixed-length sequence of homogeneous values.
type Array []Value

func (Array) Kind() Kind { return KindArray }

func (a Array) Equal(other Value) bool {
	o, ok := other.(Array)
	if !ok || len(a) != len(o) {
		return false
	}
	for i := range a {
		if !a[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func (a Array) String() string { return joinValues("[", []Value(a), "]") }

// Tuple groups multiple callee outputs into a single pending value.
type Tuple []Value

func (Tuple) Kind() Kind { return KindTuple }

func (t Tuple) Equal(other Value) bool {
	o, ok := other.(Tuple)
	if !ok || len(t) != len(o) {
		return false
	}
	for i := range t {
		if !t[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func (t Tuple) String() string { return joinValues("(", []Value(t), ")") }

func joinValues(open string, vs []Value, closing string) string {
	var b strings.Builder
	b.WriteString(open)
	for i, v := range vs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteString(closing)
	return b.String()
}

// ---------------------------------------------------------------------------
// Record
// ---------------------------------------------------------------------------

// Record is an owned data record. Owner and Nonce are hidden fields: Equal
// compares them, KeyBytes does not.
type Record struct {
	Name   string
	Owner  Address
	Fields []StructField
	Nonce  Group
}

func (Record) Kind() Kind { return KindRecord }

func (r Record) Equal(other Value) bool {
	o, ok := other.(Record)
	if !ok || r.Name != o.Name || r.Owner != o.Owner || !r.Nonce.Equal(o.Nonce) {
		return false
	}
	if len(r.Fields) != len(o.Fields) {
		return false
	}
	for i, f := range r.Fields {
		if f.Name != o.Fields[i].Name || !f.Value.Equal(o.Fields[i].Value) {
			return false
		}
	}
	return true
}

func (r Record) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s { owner: %s", r.Name, r.Owner)
	for _, f := range r.Fields {
		fmt.Fprintf(&b, ", %s: %s", f.Name, f.Value)
	}
	b.WriteString(" }")
	return b.String()
}

// Member resolves a record member, treating owner as an addressable field.
func (r Record) Member(name string) (Value, bool) {
	if name == "owner" {
		return r.Owner, true
	}
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Future
// ---------------------------------------------------------------------------

// Future is a deferred finalize invocation: the target program and function
// plus the already-resolved argument list. Arguments are compared by Equal
// but excluded from KeyBytes.
type Future struct {
	Program  string
	Function string
	Args     []Value
}

func (Future) Kind() Kind { return KindFuture }

func (f Future) Equal(other Value) bool {
	o, ok := other.(Future)
	if !ok || f.Program != o.Program || f.Function != o.Function {
		return false
	}
	if len(f.Args) != len(o.Args) {
		return false
	}
	for i := range f.Args {
		if !f.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

func (f Future) String() string {
	return fmt.Sprintf("future(%s/%s, %s)", f.Program, f.Function, joinValues("[", f.Args, "]"))
}
