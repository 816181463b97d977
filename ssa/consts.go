package ssa

import (
	"mmcc/types"
)

// Constant is implemented by all constant values.  Constants are owned by the
// module and deduplicated where their kind allows it.
type Constant interface {
	Value

	isConstant()
}

// -----------------------------------------------------------------------------

// IntConst is an integer constant.  The payload is kept as an int32: the
// source language's integer semantics are 32-bit two's complement, with
// narrower types stored sign- or zero-extended as their type dictates.
type IntConst struct {
	ValueBase

	// The constant's value.
	Val int32
}

func (*IntConst) isConstant() {}

// IsZero returns whether the constant is zero.
func (ic *IntConst) IsZero() bool {
	return ic.Val == 0
}

// -----------------------------------------------------------------------------

// StrConst is a string literal constant.  Its type is a pointer to u8.
type StrConst struct {
	ValueBase

	// The string's contents, without the terminating NUL.
	Str string
}

func (*StrConst) isConstant() {}

// -----------------------------------------------------------------------------

// ZeroConst is a zero-initializer of an arbitrary type.  It is used for
// uninitialized globals and zero-filled aggregate tails.
type ZeroConst struct {
	ValueBase
}

func (*ZeroConst) isConstant() {}

// -----------------------------------------------------------------------------

// ArrayConst is a constant array aggregate.  Unlike scalar constants it is a
// user: its elements are operand slots, so rewriting an element keeps the
// use lists exact.
type ArrayConst struct {
	UserBase
}

func (*ArrayConst) isConstant() {}

// NewArrayConst creates a constant array of the given type from elems.
func NewArrayConst(typ types.Type, elems []Value) *ArrayConst {
	ac := &ArrayConst{UserBase: NewUserBase(typ)}
	ac.bindOperands(ac, elems...)
	return ac
}

// -----------------------------------------------------------------------------

// StructConst is a constant struct aggregate.
type StructConst struct {
	UserBase
}

func (*StructConst) isConstant() {}

// NewStructConst creates a constant struct of the given type from fields.
func NewStructConst(typ types.Type, fields []Value) *StructConst {
	sc := &StructConst{UserBase: NewUserBase(typ)}
	sc.bindOperands(sc, fields...)
	return sc
}

// -----------------------------------------------------------------------------

// IsConstant returns whether v is a constant value.
func IsConstant(v Value) bool {
	_, ok := v.(Constant)
	return ok
}

// AsIntConst returns v as an integer constant if it is one.
func AsIntConst(v Value) (*IntConst, bool) {
	ic, ok := v.(*IntConst)
	return ic, ok
}
