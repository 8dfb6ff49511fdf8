// Package wire provides the canonical CBOR encoding of runtime values,
// used by the ledger for persistence. Unlike vm.KeyBytes, the wire form is
// full fidelity: record owners, nonces and future arguments round-trip.
package wire

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"

	"github.com/strata-lang/strata/vm"
)

// cborEncMode holds CBOR encoding options in canonical mode for
// deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// node is the self-describing CBOR shape of one value.
type node struct {
	Kind     int     `cbor:"k"`
	Bool     bool    `cbor:"b,omitempty"`
	IntType  int     `cbor:"it,omitempty"`
	Bytes    []byte  `cbor:"by,omitempty"`
	Bytes2   []byte  `cbor:"b2,omitempty"`
	Text     string  `cbor:"s,omitempty"`
	Name     string  `cbor:"n,omitempty"`
	Program  string  `cbor:"p,omitempty"`
	Function string  `cbor:"f,omitempty"`
	Owner    string  `cbor:"o,omitempty"`
	Infinity bool    `cbor:"i,omitempty"`
	Fields   []field `cbor:"fs,omitempty"`
	Elems    []node  `cbor:"es,omitempty"`
	Nonce    *node   `cbor:"nn,omitempty"`
}

type field struct {
	Name  string `cbor:"n"`
	Value node   `cbor:"v"`
}

// Marshal serializes a value to canonical CBOR bytes.
func Marshal(v vm.Value) ([]byte, error) {
	n, err := encode(v)
	if err != nil {
		return nil, err
	}
	out, err := cborEncMode.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal value: %w", err)
	}
	return out, nil
}

// Unmarshal deserializes a value from CBOR bytes.
func Unmarshal(data []byte) (vm.Value, error) {
	var n node
	if err := cbor.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("wire: unmarshal value: %w", err)
	}
	return decode(&n)
}

func encode(v vm.Value) (node, error) {
	switch x := v.(type) {
	case vm.Unit:
		return node{Kind: int(vm.KindUnit)}, nil
	case vm.Boolean:
		return node{Kind: int(vm.KindBoolean), Bool: bool(x)}, nil
	case vm.Integer:
		return node{Kind: int(vm.KindInteger), IntType: int(x.Type()), Bytes: x.RawBytes()}, nil
	case vm.Field:
		return encodeNumeric(vm.KindField, x.Big().Bytes())
	case vm.Scalar:
		return encodeNumeric(vm.KindScalar, x.Big().Bytes())
	case vm.Group:
		if x.Infinity {
			return node{Kind: int(vm.KindGroup), Infinity: true}, nil
		}
		return node{Kind: int(vm.KindGroup), Bytes: x.X.Bytes(), Bytes2: x.Y.Bytes()}, nil
	case vm.Address:
		return node{Kind: int(vm.KindAddress), Text: string(x)}, nil
	case vm.Signature:
		return node{
			Kind:   int(vm.KindSignature),
			Bytes:  x.Challenge.Big().Bytes(),
			Bytes2: x.Response.Big().Bytes(),
		}, nil
	case vm.Str:
		return node{Kind: int(vm.KindString), Text: string(x)}, nil
	case vm.Struct:
		fields, err := encodeFields(x.Fields)
		if err != nil {
			return node{}, err
		}
		return node{Kind: int(vm.KindStruct), Name: x.Name, Fields: fields}, nil
	case vm.Array:
		elems, err := encodeElems(x)
		if err != nil {
			return node{}, err
		}
		return node{Kind: int(vm.KindArray), Elems: elems}, nil
	case vm.Tuple:
		elems, err := encodeElems(x)
		if err != nil {
			return node{}, err
		}
		return node{Kind: int(vm.KindTuple), Elems: elems}, nil
	case vm.Record:
		fields, err := encodeFields(x.Fields)
		if err != nil {
			return node{}, err
		}
		nonce, err := encode(x.Nonce)
		if err != nil {
			return node{}, err
		}
		return node{
			Kind:   int(vm.KindRecord),
			Name:   x.Name,
			Owner:  string(x.Owner),
			Fields: fields,
			Nonce:  &nonce,
		}, nil
	case vm.Future:
		elems, err := encodeElems(x.Args)
		if err != nil {
			return node{}, err
		}
		return node{
			Kind:     int(vm.KindFuture),
			Program:  x.Program,
			Function: x.Function,
			Elems:    elems,
		}, nil
	default:
		return node{}, fmt.Errorf("wire: cannot encode %T", v)
	}
}

func encodeNumeric(k vm.Kind, b []byte) (node, error) {
	return node{Kind: int(k), Bytes: b}, nil
}

func encodeFields(fs []vm.StructField) ([]field, error) {
	out := make([]field, len(fs))
	for i, f := range fs {
		n, err := encode(f.Value)
		if err != nil {
			return nil, err
		}
		out[i] = field{Name: f.Name, Value: n}
	}
	return out, nil
}

func encodeElems(vs []vm.Value) ([]node, error) {
	out := make([]node, len(vs))
	for i, v := range vs {
		n, err := encode(v)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func decode(n *node) (vm.Value, error) {
	switch vm.Kind(n.Kind) {
	case vm.KindUnit:
		return vm.Unit{}, nil
	case vm.KindBoolean:
		return vm.Boolean(n.Bool), nil
	case vm.KindInteger:
		return vm.IntegerFromRaw(vm.IntType(n.IntType), n.Bytes), nil
	case vm.KindField:
		return vm.NewField(new(big.Int).SetBytes(n.Bytes)), nil
	case vm.KindScalar:
		return vm.NewScalar(new(big.Int).SetBytes(n.Bytes)), nil
	case vm.KindGroup:
		if n.Infinity {
			return vm.GroupIdentity(), nil
		}
		return vm.Group{
			X: new(big.Int).SetBytes(n.Bytes),
			Y: new(big.Int).SetBytes(n.Bytes2),
		}, nil
	case vm.KindAddress:
		return vm.Address(n.Text), nil
	case vm.KindSignature:
		return vm.Signature{
			Challenge: vm.NewScalar(new(big.Int).SetBytes(n.Bytes)),
			Response:  vm.NewScalar(new(big.Int).SetBytes(n.Bytes2)),
		}, nil
	case vm.KindString:
		return vm.Str(n.Text), nil
	case vm.KindStruct:
		fields, err := decodeFields(n.Fields)
		if err != nil {
			return nil, err
		}
		return vm.Struct{Name: n.Name, Fields: fields}, nil
	case vm.KindArray:
		elems, err := decodeElems(n.Elems)
		if err != nil {
			return nil, err
		}
		return vm.Array(elems), nil
	case vm.KindTuple:
		elems, err := decodeElems(n.Elems)
		if err != nil {
			return nil, err
		}
		return vm.Tuple(elems), nil
	case vm.KindRecord:
		fields, err := decodeFields(n.Fields)
		if err != nil {
			return nil, err
		}
		rec := vm.Record{Name: n.Name, Owner: vm.Address(n.Owner), Fields: fields, Nonce: vm.GroupIdentity()}
		if n.Nonce != nil {
			nonce, err := decode(n.Nonce)
			if err != nil {
				return nil, err
			}
			g, ok := nonce.(vm.Group)
			if !ok {
				return nil, fmt.Errorf("wire: record nonce decoded as %s", nonce.Kind())
			}
			rec.Nonce = g
		}
		return rec, nil
	case vm.KindFuture:
		elems, err := decodeElems(n.Elems)
		if err != nil {
			return nil, err
		}
		return vm.Future{Program: n.Program, Function: n.Function, Args: elems}, nil
	default:
		return nil, fmt.Errorf("wire: unknown value kind %d", n.Kind)
	}
}

func decodeFields(fs []field) ([]vm.StructField, error) {
	out := make([]vm.StructField, len(fs))
	for i, f := range fs {
		v, err := decode(&f.Value)
		if err != nil {
			return nil, err
		}
		out[i] = vm.StructField{Name: f.Name, Value: v}
	}
	return out, nil
}

func decodeElems(ns []node) ([]vm.Value, error) {
	out := make([]vm.Value, len(ns))
	for i := range ns {
		v, err := decode(&ns[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
