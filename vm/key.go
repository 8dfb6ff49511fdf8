package vm

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// keyEncMode is the canonical CBOR mode used for key material, so equal
// values always serialize to equal bytes.
var keyEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	keyEncMode = em
}

// KeyBytes returns the canonical byte form of v, used for mapping keys and
// oracle input marshalling.
//
// Known, deliberate asymmetry with Equal: the hidden fields of Record
// (owner, nonce) and the arguments of Future are excluded here although
// Equal compares them. This relies on the upstream invariant that records
// and futures never serve as mapping keys;
// it is a narrow-use-only shortcut, not a general-purpose digest.
func KeyBytes(v Value) ([]byte, error) {
	tree, err := keyTree(v)
	if err != nil {
		return nil, err
	}
	out, err := keyEncMode.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encoding key bytes: %w", err)
	}
	return out, nil
}

func keyTree(v Value) (any, error) {
	switch x := v.(type) {
	case Unit:
		return []any{int(KindUnit)}, nil
	case Boolean:
		return []any{int(KindBoolean), bool(x)}, nil
	case Integer:
		return []any{int(KindInteger), int(x.typ), x.bits.Bytes()}, nil
	case Field:
		return []any{int(KindField), x.Big().Bytes()}, nil
	case Group:
		if x.Infinity {
			return []any{int(KindGroup), true}, nil
		}
		return []any{int(KindGroup), false, x.X.Bytes(), x.Y.Bytes()}, nil
	case Scalar:
		return []any{int(KindScalar), x.Big().Bytes()}, nil
	case Address:
		return []any{int(KindAddress), string(x)}, nil
	case Signature:
		return []any{int(KindSignature), x.Challenge.Big().Bytes(), x.Response.Big().Bytes()}, nil
	case Str:
		return []any{int(KindString), string(x)}, nil
	case Struct:
		fields, err := keyFields(x.Fields)
		if err != nil {
			return nil, err
		}
		return []any{int(KindStruct), x.Name, fields}, nil
	case Array:
		elems, err := keyElems([]Value(x))
		if err != nil {
			return nil, err
		}
		return []any{int(KindArray), elems}, nil
	case Tuple:
		elems, err := keyElems([]Value(x))
		if err != nil {
			return nil, err
		}
		return []any{int(KindTuple), elems}, nil
	case Record:
		// Owner and nonce intentionally omitted; see KeyBytes.
		fields, err := keyFields(x.Fields)
		if err != nil {
			return nil, err
		}
		return []any{int(KindRecord), x.Name, fields}, nil
	case Future:
		// Arguments intentionally omitted; see KeyBytes.
		return []any{int(KindFuture), x.Program, x.Function}, nil
	default:
		return nil, Internalf("cannot derive key bytes for %T", v)
	}
}

func keyFields(fields []StructField) ([]any, error) {
	out := make([]any, len(fields))
	for i, f := range fields {
		enc, err := keyTree(f.Value)
		if err != nil {
			return nil, err
		}
		out[i] = []any{f.Name, enc}
	}
	return out, nil
}

func keyElems(vs []Value) ([]any, error) {
	out := make([]any, len(vs))
	for i, v := range vs {
		enc, err := keyTree(v)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}
