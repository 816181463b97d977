package types

import "testing"

func TestPrimSizes(t *testing.T) {
	cases := []struct {
		typ  PrimType
		size int
	}{
		{PrimVoid, 0},
		{PrimInt8, 1},
		{PrimUInt8, 1},
		{PrimInt32, 4},
		{PrimUInt32, 4},
	}

	for _, c := range cases {
		if c.typ.Size() != c.size {
			t.Errorf("%s: size %d, want %d", c.typ.Repr(), c.typ.Size(), c.size)
		}
	}
}

func TestEqualsIgnoresValueCategory(t *testing.T) {
	a := &RValType{Inner: PrimInt32}

	if !Equals(a, PrimInt32) {
		t.Error("right-value i32 should equal i32")
	}

	if Equals(&ConstType{Inner: PrimInt32}, PrimInt32) {
		t.Error("const i32 should not equal i32")
	}
}

func TestStructNominalIdentity(t *testing.T) {
	a := &StructType{Name: "point", Fields: []StructField{{Name: "x", Type: PrimInt32}}}
	b := &StructType{Name: "point"}
	c := &StructType{Name: "vec"}

	if !Equals(a, b) {
		t.Error("structs of the same name must be identical")
	}

	if Equals(a, c) {
		t.Error("structs of different names must differ")
	}
}

func TestStructLayout(t *testing.T) {
	st := &StructType{Name: "mixed", Fields: []StructField{
		{Name: "c", Type: PrimInt8},
		{Name: "n", Type: PrimInt32},
		{Name: "d", Type: PrimInt8},
	}}

	if st.FieldOffset(1) != 4 {
		t.Errorf("field n at offset %d, want 4", st.FieldOffset(1))
	}

	if st.Size() != 12 {
		t.Errorf("struct size %d, want 12", st.Size())
	}
}

func TestCanAccept(t *testing.T) {
	if CanAccept(&ConstType{Inner: PrimInt32}, PrimInt32) {
		t.Error("a const left-value must not be assignable-to")
	}

	if CanAccept(&RValType{Inner: PrimInt32}, PrimInt32) {
		t.Error("a right-value must not be assignable-to")
	}

	if !CanAccept(PrimInt32, &RValType{Inner: PrimUInt8}) {
		t.Error("integers should implicitly convert on assignment")
	}

	arr := &ArrayType{ElemType: PrimInt32, Len: 4}
	if CanAccept(arr, arr) {
		t.Error("arrays are not reassignable")
	}

	if !CanInit(arr, arr) {
		t.Error("arrays initialize from structurally identical arrays")
	}

	ptr := &PointerType{ElemType: PrimInt32}
	if !CanInit(ptr, arr) {
		t.Error("an array should decay into a matching pointer")
	}
}

func TestCanCastTo(t *testing.T) {
	ptr := &PointerType{ElemType: PrimInt32}

	if !CanCastTo(PrimInt32, PrimUInt8) {
		t.Error("integer casts must be legal")
	}

	if !CanCastTo(ptr, PrimUInt32) || !CanCastTo(PrimInt32, ptr) {
		t.Error("pointer/integer casts must be legal")
	}

	if CanCastTo(PrimVoid, PrimInt32) {
		t.Error("nothing casts from void")
	}
}

func TestCommonTypePreservesSignedness(t *testing.T) {
	if CommonType(PrimInt8, PrimInt8) != PrimInt32 {
		t.Error("narrow signed operands promote to i32")
	}

	if CommonType(PrimInt32, PrimUInt32) != PrimUInt32 {
		t.Error("a u32 operand makes the result unsigned")
	}

	if CommonType(PrimUInt8, PrimInt32) != PrimUInt32 {
		t.Error("unsignedness survives promotion")
	}
}

func TestStructCycleDetection(t *testing.T) {
	// a contains b contains a: a cycle through an intermediate struct.
	a := &StructType{Name: "a"}
	b := &StructType{Name: "b"}
	a.Fields = []StructField{{Name: "b", Type: b}}
	b.Fields = []StructField{{Name: "a", Type: a}}

	if !StructCycle(a) {
		t.Error("cycle through an intermediate struct not caught")
	}

	// Pointers break cycles.
	c := &StructType{Name: "c"}
	c.Fields = []StructField{{Name: "next", Type: &PointerType{ElemType: c}}}

	if StructCycle(c) {
		t.Error("pointer self-reference flagged as a cycle")
	}

	// An array of itself is still containment.
	d := &StructType{Name: "d"}
	d.Fields = []StructField{{Name: "elems", Type: &ArrayType{ElemType: d, Len: 2}}}

	if !StructCycle(d) {
		t.Error("containment through an array not caught")
	}
}

func TestDecay(t *testing.T) {
	arr := &ArrayType{ElemType: PrimInt8, Len: 16}

	pt, ok := Decay(arr).(*PointerType)
	if !ok || !Equals(pt.ElemType, PrimInt8) {
		t.Error("array should decay to a pointer to its element type")
	}

	if Decay(PrimInt32) != PrimInt32 {
		t.Error("non-arrays must not decay")
	}
}
