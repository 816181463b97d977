package types

import (
	"strconv"
	"strings"
)

// PointerSize is the size of a pointer on the target architecture in bytes.
// The only supported target is 32-bit ARM.
const PointerSize = 4

// Type represents a MimiC data type.
type Type interface {
	// Returns whether this type is identical to the other type.  This does
	// not account for qualifier unwrapping: it should only be called through
	// the package-level Equals function.
	equals(other Type) bool

	// Returns the size of this type in bytes.
	Size() int

	// Returns the alignment of this type in bytes.
	Align() int

	// Returns the representative string for this type.
	Repr() string
}

// -----------------------------------------------------------------------------

// PrimType represents a primitive type.  This must be one of the enumerated
// primitive type values below.
type PrimType int

// Enumeration of the different primitive types.
const (
	PrimVoid = PrimType(iota)
	PrimInt8
	PrimUInt8
	PrimInt32
	PrimUInt32
)

func (pt PrimType) equals(other Type) bool {
	if opt, ok := other.(PrimType); ok {
		return pt == opt
	}

	return false
}

func (pt PrimType) Size() int {
	switch pt {
	case PrimVoid:
		return 0
	case PrimInt8, PrimUInt8:
		return 1
	default:
		return 4
	}
}

func (pt PrimType) Align() int {
	if pt == PrimVoid {
		return 1
	}

	return pt.Size()
}

func (pt PrimType) Repr() string {
	switch pt {
	case PrimVoid:
		return "void"
	case PrimInt8:
		return "i8"
	case PrimUInt8:
		return "u8"
	case PrimInt32:
		return "i32"
	default:
		return "u32"
	}
}

// -----------------------------------------------------------------------------

// PointerType represents a pointer type.
type PointerType struct {
	// The element (content) type of the pointer.
	ElemType Type
}

func (pt *PointerType) equals(other Type) bool {
	if opt, ok := other.(*PointerType); ok {
		return Equals(pt.ElemType, opt.ElemType)
	}

	return false
}

func (pt *PointerType) Size() int {
	return PointerSize
}

func (pt *PointerType) Align() int {
	return PointerSize
}

func (pt *PointerType) Repr() string {
	return pt.ElemType.Repr() + "*"
}

// -----------------------------------------------------------------------------

// ArrayType represents a fixed-length, homogeneous array type.
type ArrayType struct {
	// The element type of the array.
	ElemType Type

	// The number of elements in the array.
	Len int
}

func (at *ArrayType) equals(other Type) bool {
	if oat, ok := other.(*ArrayType); ok {
		return at.Len == oat.Len && Equals(at.ElemType, oat.ElemType)
	}

	return false
}

func (at *ArrayType) Size() int {
	return at.Len * at.ElemType.Size()
}

func (at *ArrayType) Align() int {
	return at.ElemType.Align()
}

func (at *ArrayType) Repr() string {
	return at.ElemType.Repr() + "[" + strconv.Itoa(at.Len) + "]"
}

// -----------------------------------------------------------------------------

// StructType represents a nominal structure type.
type StructType struct {
	// The struct's name.  Structs are nominal: two struct types are identical
	// exactly when their names are equal.
	Name string

	// The list of fields of the struct in order.
	Fields []StructField

	// The memoized struct size.
	size int

	// The memoized struct alignment.
	align int
}

// StructField represents a field of a structure type.
type StructField struct {
	// The field's name.
	Name string

	// The field's type.
	Type Type
}

func (st *StructType) equals(other Type) bool {
	if ost, ok := other.(*StructType); ok {
		return st.Name == ost.Name
	}

	return false
}

func (st *StructType) Size() int {
	// Use the memoized size if possible.
	if st.size != 0 {
		return st.size
	}

	size := 0

	// Calculate the size of the struct such that all fields are aligned.
	for _, field := range st.Fields {
		fieldAlign := field.Type.Align()

		if size%fieldAlign != 0 {
			size += fieldAlign - size%fieldAlign
		}

		size += field.Type.Size()
	}

	// Pad the end of the struct out to its own alignment so arrays of it stay
	// aligned.
	if align := st.Align(); size%align != 0 {
		size += align - size%align
	}

	st.size = size
	return size
}

func (st *StructType) Align() int {
	// Use the memoized alignment if possible.
	if st.align != 0 {
		return st.align
	}

	maxAlign := 1

	for _, field := range st.Fields {
		if fieldAlign := field.Type.Align(); fieldAlign > maxAlign {
			maxAlign = fieldAlign
		}
	}

	st.align = maxAlign
	return maxAlign
}

func (st *StructType) Repr() string {
	return "struct " + st.Name
}

// FieldIndex returns the index of the field with the given name or -1 if the
// struct has no such field.
func (st *StructType) FieldIndex(name string) int {
	for i, field := range st.Fields {
		if field.Name == name {
			return i
		}
	}

	return -1
}

// FieldOffset returns the byte offset of the field at the given index.
func (st *StructType) FieldOffset(ndx int) int {
	offset := 0

	for i, field := range st.Fields {
		fieldAlign := field.Type.Align()

		if offset%fieldAlign != 0 {
			offset += fieldAlign - offset%fieldAlign
		}

		if i == ndx {
			return offset
		}

		offset += field.Type.Size()
	}

	return offset
}

// -----------------------------------------------------------------------------

// FuncType represents a function type.
type FuncType struct {
	// The parameter types of the function in order.
	ParamTypes []Type

	// The return type of the function.
	ReturnType Type
}

func (ft *FuncType) equals(other Type) bool {
	oft, ok := other.(*FuncType)
	if !ok || len(ft.ParamTypes) != len(oft.ParamTypes) {
		return false
	}

	for i, paramType := range ft.ParamTypes {
		if !Equals(paramType, oft.ParamTypes[i]) {
			return false
		}
	}

	return Equals(ft.ReturnType, oft.ReturnType)
}

func (ft *FuncType) Size() int {
	return PointerSize
}

func (ft *FuncType) Align() int {
	return PointerSize
}

func (ft *FuncType) Repr() string {
	sb := strings.Builder{}

	sb.WriteString(ft.ReturnType.Repr())
	sb.WriteRune('(')

	for i, paramType := range ft.ParamTypes {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(paramType.Repr())
	}

	sb.WriteRune(')')
	return sb.String()
}

// -----------------------------------------------------------------------------

// ConstType is a qualifier wrapper marking its inner type as non-assignable.
type ConstType struct {
	// The qualified type.
	Inner Type
}

func (ct *ConstType) equals(other Type) bool {
	if oct, ok := other.(*ConstType); ok {
		return Equals(ct.Inner, oct.Inner)
	}

	return false
}

func (ct *ConstType) Size() int {
	return ct.Inner.Size()
}

func (ct *ConstType) Align() int {
	return ct.Inner.Align()
}

func (ct *ConstType) Repr() string {
	return "const " + ct.Inner.Repr()
}

// -----------------------------------------------------------------------------

// RValType is a qualifier wrapper marking its inner type as a right-value:
// the result of an expression rather than a named storage location.
type RValType struct {
	// The qualified type.
	Inner Type
}

func (rt *RValType) equals(other Type) bool {
	if ort, ok := other.(*RValType); ok {
		return Equals(rt.Inner, ort.Inner)
	}

	return false
}

func (rt *RValType) Size() int {
	return rt.Inner.Size()
}

func (rt *RValType) Align() int {
	return rt.Inner.Align()
}

func (rt *RValType) Repr() string {
	return rt.Inner.Repr()
}
