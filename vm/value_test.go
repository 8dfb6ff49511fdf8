package vm

import (
	"bytes"
	"testing"
)

// ---------------------------------------------------------------------------
// Structural equality
// ---------------------------------------------------------------------------

func TestEqualAcrossKinds(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"unit", Unit{}, Unit{}, true},
		{"bool same", Boolean(true), Boolean(true), true},
		{"bool differs", Boolean(true), Boolean(false), false},
		{"bool vs integer", Boolean(true), NewInteger(U8, 1), false},
		{"integer same", NewInteger(U64, 42), NewInteger(U64, 42), true},
		{"integer width differs", NewInteger(U64, 42), NewInteger(U32, 42), false},
		{"integer sign differs", NewInteger(I8, -1), NewInteger(U8, 255), false},
		{"field same", FieldFromUint64(7), FieldFromUint64(7), true},
		{"field differs", FieldFromUint64(7), FieldFromUint64(8), false},
		{"scalar vs field", ScalarFromUint64(7), FieldFromUint64(7), false},
		{"address same", Address("strata1abc"), Address("strata1abc"), true},
		{"string same", Str("hi"), Str("hi"), true},
		{"group identity", GroupIdentity(), GroupIdentity(), true},
		{"group identity vs generator", GroupIdentity(), GroupGenerator(), false},
		{
			"array elementwise",
			Array{NewInteger(U8, 1), NewInteger(U8, 2)},
			Array{NewInteger(U8, 1), NewInteger(U8, 2)},
			true,
		},
		{
			"array length differs",
			Array{NewInteger(U8, 1)},
			Array{NewInteger(U8, 1), NewInteger(U8, 2)},
			false,
		},
		{
			"tuple vs array",
			Tuple{NewInteger(U8, 1)},
			Array{NewInteger(U8, 1)},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("%s.Equal(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.Equal(tt.a); got != tt.want {
				t.Errorf("equality is not symmetric for %s and %s", tt.a, tt.b)
			}
		})
	}
}

func TestStructEquality(t *testing.T) {
	a := Struct{Name: "point", Fields: []StructField{
		{Name: "x", Value: FieldFromUint64(1)},
		{Name: "y", Value: FieldFromUint64(2)},
	}}
	b := Struct{Name: "point", Fields: []StructField{
		{Name: "x", Value: FieldFromUint64(1)},
		{Name: "y", Value: FieldFromUint64(2)},
	}}
	if !a.Equal(b) {
		t.Error("identical structs compare unequal")
	}

	// Field order matters.
	c := Struct{Name: "point", Fields: []StructField{
		{Name: "y", Value: FieldFromUint64(2)},
		{Name: "x", Value: FieldFromUint64(1)},
	}}
	if a.Equal(c) {
		t.Error("structs with reordered fields compare equal")
	}
}

func TestRecordEqualityIncludesOwnerAndNonce(t *testing.T) {
	base := Record{
		Name:   "token",
		Owner:  Address("strata1alice"),
		Fields: []StructField{{Name: "amount", Value: NewInteger(U64, 100)}},
		Nonce:  GroupIdentity(),
	}
	same := base
	if !base.Equal(same) {
		t.Error("identical records compare unequal")
	}

	otherOwner := base
	otherOwner.Owner = Address("strata1bob")
	if base.Equal(otherOwner) {
		t.Error("records with different owners compare equal")
	}

	otherNonce := base
	otherNonce.Nonce = GroupGenerator()
	if base.Equal(otherNonce) {
		t.Error("records with different nonces compare equal")
	}
}

func TestRecordMemberExposesOwner(t *testing.T) {
	r := Record{
		Name:   "token",
		Owner:  Address("strata1alice"),
		Fields: []StructField{{Name: "amount", Value: NewInteger(U64, 100)}},
		Nonce:  GroupIdentity(),
	}
	v, ok := r.Member("owner")
	if !ok {
		t.Fatal("record has no owner member")
	}
	if !v.Equal(Address("strata1alice")) {
		t.Errorf("owner = %s, want strata1alice", v)
	}
	if _, ok := r.Member("missing"); ok {
		t.Error("record resolved an undeclared member")
	}
}

func TestFutureEqualityIncludesArgs(t *testing.T) {
	a := Future{Program: "bank", Function: "transfer", Args: []Value{NewInteger(U64, 5)}}
	b := Future{Program: "bank", Function: "transfer", Args: []Value{NewInteger(U64, 5)}}
	c := Future{Program: "bank", Function: "transfer", Args: []Value{NewInteger(U64, 6)}}
	if !a.Equal(b) {
		t.Error("identical futures compare unequal")
	}
	if a.Equal(c) {
		t.Error("futures with different args compare equal")
	}
}

// ---------------------------------------------------------------------------
// Key encoding
// ---------------------------------------------------------------------------

func TestKeyBytesDeterministic(t *testing.T) {
	v := Struct{Name: "point", Fields: []StructField{
		{Name: "x", Value: FieldFromUint64(1)},
		{Name: "y", Value: FieldFromUint64(2)},
	}}
	a, err := KeyBytes(v)
	if err != nil {
		t.Fatalf("KeyBytes: %v", err)
	}
	b, err := KeyBytes(v)
	if err != nil {
		t.Fatalf("KeyBytes: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("KeyBytes is not deterministic")
	}
}

func TestKeyBytesDistinguishesKinds(t *testing.T) {
	// Same numeric payload, different kinds: the encodings must differ.
	pairs := []struct {
		name string
		a, b Value
	}{
		{"field vs scalar", FieldFromUint64(7), ScalarFromUint64(7)},
		{"u8 vs u16", NewInteger(U8, 7), NewInteger(U16, 7)},
		{"bool vs u8", Boolean(true), NewInteger(U8, 1)},
		{"tuple vs array", Tuple{Boolean(true)}, Array{Boolean(true)}},
	}
	for _, p := range pairs {
		t.Run(p.name, func(t *testing.T) {
			ka, err := KeyBytes(p.a)
			if err != nil {
				t.Fatalf("KeyBytes(%s): %v", p.a, err)
			}
			kb, err := KeyBytes(p.b)
			if err != nil {
				t.Fatalf("KeyBytes(%s): %v", p.b, err)
			}
			if bytes.Equal(ka, kb) {
				t.Errorf("%s and %s share a key encoding", p.a, p.b)
			}
		})
	}
}

// Records hash by name and fields only; equality additionally compares
// owner and nonce. Two records distinguishable by Equal may therefore
// collide as mapping keys.
func TestKeyBytesIgnoresRecordOwnerAndNonce(t *testing.T) {
	a := Record{
		Name:   "token",
		Owner:  Address("strata1alice"),
		Fields: []StructField{{Name: "amount", Value: NewInteger(U64, 100)}},
		Nonce:  GroupIdentity(),
	}
	b := a
	b.Owner = Address("strata1bob")
	b.Nonce = GroupGenerator()

	if a.Equal(b) {
		t.Fatal("records should differ under Equal")
	}
	ka, err := KeyBytes(a)
	if err != nil {
		t.Fatalf("KeyBytes: %v", err)
	}
	kb, err := KeyBytes(b)
	if err != nil {
		t.Fatalf("KeyBytes: %v", err)
	}
	if !bytes.Equal(ka, kb) {
		t.Error("record key encoding should ignore owner and nonce")
	}
}

func TestKeyBytesIgnoresFutureArgs(t *testing.T) {
	a := Future{Program: "bank", Function: "transfer", Args: []Value{NewInteger(U64, 5)}}
	b := Future{Program: "bank", Function: "transfer", Args: []Value{NewInteger(U64, 6)}}

	ka, err := KeyBytes(a)
	if err != nil {
		t.Fatalf("KeyBytes: %v", err)
	}
	kb, err := KeyBytes(b)
	if err != nil {
		t.Fatalf("KeyBytes: %v", err)
	}
	if !bytes.Equal(ka, kb) {
		t.Error("future key encoding should ignore arguments")
	}
}

func TestProgramAddress(t *testing.T) {
	a := ProgramAddress("bank")
	if a != Address("strata1bank") {
		t.Errorf("ProgramAddress = %s", a)
	}
}
