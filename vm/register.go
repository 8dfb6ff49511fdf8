package vm

import (
	"fmt"
	"strings"
)

// AccessKind distinguishes the two access-path steps.
type AccessKind int

const (
	// AccessMember resolves a named field of a Struct or Record.
	AccessMember AccessKind = iota
	// AccessIndex resolves an element of an Array.
	AccessIndex
)

// Access is one step of a register access path.
type Access struct {
	Kind  AccessKind
	Name  string // member name, for AccessMember
	Index int    // element index, for AccessIndex
}

// Register addresses a frame register slot by its compiler-assigned
// locator, optionally followed by a chain of accesses resolved against
// whatever value occupies the slot at read time.
type Register struct {
	Locator uint64
	Access  []Access
}

// NewRegister addresses a plain register slot.
func NewRegister(locator uint64) Register {
	return Register{Locator: locator}
}

// Member extends the access path with a named-member step.
func (r Register) Member(name string) Register {
	return Register{Locator: r.Locator, Access: appendAccess(r.Access, Access{Kind: AccessMember, Name: name})}
}

// Index extends the access path with an element-index step.
func (r Register) Index(i int) Register {
	return Register{Locator: r.Locator, Access: appendAccess(r.Access, Access{Kind: AccessIndex, Index: i})}
}

func appendAccess(chain []Access, step Access) []Access {
	out := make([]Access, len(chain), len(chain)+1)
	copy(out, chain)
	return append(out, step)
}

func (r Register) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "r%d", r.Locator)
	for _, a := range r.Access {
		if a.Kind == AccessMember {
			b.WriteByte('.')
			b.WriteString(a.Name)
		} else {
			fmt.Fprintf(&b, "[%d]", a.Index)
		}
	}
	return b.String()
}

// resolveAccess walks one access step against v. A step applied to a value
// of the wrong shape is an internal inconsistency: the upstream type
// checker guarantees shapes in well-formed programs.
func resolveAccess(v Value, a Access) (Value, error) {
	switch a.Kind {
	case AccessMember:
		switch c := v.(type) {
		case Struct:
			if m, ok := c.Member(a.Name); ok {
				return m, nil
			}
			return nil, Internalf("struct %s has no member %q", c.Name, a.Name)
		case Record:
			if m, ok := c.Member(a.Name); ok {
				return m, nil
			}
			return nil, Internalf("record %s has no member %q", c.Name, a.Name)
		default:
			return nil, Internalf("member access %q on non-composite %s value", a.Name, v.Kind())
		}
	case AccessIndex:
		arr, ok := v.(Array)
		if !ok {
			return nil, Internalf("index access [%d] on non-array %s value", a.Index, v.Kind())
		}
		if a.Index < 0 || a.Index >= len(arr) {
			return nil, Internalf("index %d out of bounds for array of length %d", a.Index, len(arr))
		}
		return arr[a.Index], nil
	default:
		return nil, Internalf("unknown access kind %d", a.Kind)
	}
}
