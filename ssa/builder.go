package ssa

import (
	"mmcc/report"
	"mmcc/types"
)

// Builder is the facade AST lowering constructs SSA through.  It maintains an
// insertion point (current function, current block, append-at-end) and mints
// every new value; nothing else creates SSA during lowering.
type Builder struct {
	mod   *Module
	fn    *Function
	block *BasicBlock

	logger *report.Logger
}

// NewBuilder creates a builder over the given module.
func NewBuilder(mod *Module) *Builder {
	return &Builder{mod: mod}
}

// Module returns the module being built.
func (b *Builder) Module() *Module { return b.mod }

// Func returns the function the insertion point is inside, or nil.
func (b *Builder) Func() *Function { return b.fn }

// Block returns the block the insertion point is at the end of, or nil.
func (b *Builder) Block() *BasicBlock { return b.block }

// SetFunc moves the insertion point to f with no current block.
func (b *Builder) SetFunc(f *Function) {
	b.fn = f
	b.block = nil
}

// SetBlock moves the insertion point to the end of block.
func (b *Builder) SetBlock(block *BasicBlock) {
	b.fn = block.Parent()
	b.block = block
}

// SetLogger sets the source back-link attached to subsequently minted values.
func (b *Builder) SetLogger(l *report.Logger) {
	b.logger = l
}

// Sealed returns whether the current block already has a terminator.
func (b *Builder) Sealed() bool {
	return b.block == nil || b.block.Terminator() != nil
}

func (b *Builder) insert(inst Inst) Inst {
	if b.block == nil {
		report.ReportICE("builder has no insertion block")
	}

	inst.SetLogger(b.logger)
	b.block.Append(inst)
	return inst
}

// -----------------------------------------------------------------------------

// Int returns the canonical i32 constant for val.
func (b *Builder) Int(val int32) *IntConst {
	return b.mod.Int(val, types.PrimInt32)
}

// TypedInt returns the canonical constant for val of the given integer type.
func (b *Builder) TypedInt(val int32, typ types.Type) *IntConst {
	return b.mod.Int(val, typ)
}

// -----------------------------------------------------------------------------

// CreateBinary builds a binary instruction over lhs and rhs.  Both operands
// are implicitly promoted to their common type: widths below 32 bits widen,
// and the result is unsigned if either operand is.  Comparisons yield i32.
func (b *Builder) CreateBinary(op BinaryOp, lhs, rhs Value) Value {
	var common types.Type

	if types.IsPointer(lhs.Type()) || types.IsPointer(rhs.Type()) {
		// Pointer arithmetic keeps the pointer type.
		common = types.CommonType(lhs.Type(), rhs.Type())
	} else {
		common = types.CommonType(lhs.Type(), rhs.Type())
		lhs = b.CreateCast(lhs, common)
		rhs = b.CreateCast(rhs, common)
	}

	resType := common
	if op.IsCompare() {
		resType = types.PrimInt32
	}

	return b.insert(NewBinary(op, types.Unqual(resType), lhs, rhs))
}

// CreateNeg builds an arithmetic negation.
func (b *Builder) CreateNeg(opr Value) Value {
	opr = b.CreateCast(opr, types.CommonType(opr.Type(), opr.Type()))
	return b.insert(NewUnary(OpNeg, types.Unqual(opr.Type()), opr))
}

// CreateNot builds a bitwise complement.
func (b *Builder) CreateNot(opr Value) Value {
	opr = b.CreateCast(opr, types.CommonType(opr.Type(), opr.Type()))
	return b.insert(NewUnary(OpNot, types.Unqual(opr.Type()), opr))
}

// CreateAlloca reserves a stack slot of the given type at the insertion
// point.
func (b *Builder) CreateAlloca(typ types.Type) Value {
	return b.insert(NewAlloca(types.Unqual(typ)))
}

// CreateLoad reads through ptr.
func (b *Builder) CreateLoad(ptr Value) Value {
	return b.insert(NewLoad(ptr))
}

// CreateStore writes val through ptr, implicitly converting val to the
// pointee type.
func (b *Builder) CreateStore(val, ptr Value) Value {
	if elem, ok := types.Deref(ptr.Type()); ok && types.IsInteger(elem) {
		val = b.CreateCast(val, elem)
	}

	return b.insert(NewStore(val, ptr))
}

// CreateCast converts val to typ, inserting a cast instruction only when the
// unqualified types differ.
func (b *Builder) CreateCast(val Value, typ types.Type) Value {
	typ = types.Unqual(typ)

	if val.Type() != nil && types.Equals(val.Type(), typ) {
		return val
	}

	return b.insert(NewCast(typ, val))
}

// CreateCall calls callee with args, implicitly converting integer arguments
// to the parameter types and decaying arrays.
func (b *Builder) CreateCall(callee Value, args []Value) Value {
	ft, ok := types.Unqual(callee.Type()).(*types.FuncType)
	if !ok {
		report.ReportICE("builder asked to call a non-function value")
	}

	conv := make([]Value, len(args))
	for i, arg := range args {
		if i < len(ft.ParamTypes) && types.IsInteger(ft.ParamTypes[i]) && types.IsInteger(arg.Type()) {
			arg = b.CreateCast(arg, ft.ParamTypes[i])
		}

		conv[i] = arg
	}

	return b.insert(NewCall(callee, conv))
}

// CreateElemPtr computes the address of an aggregate element.
func (b *Builder) CreateElemPtr(kind ElemKind, elemType types.Type, ptr, index Value) Value {
	return b.insert(NewElemPtr(kind, elemType, ptr, index))
}

// CreatePhi builds an empty phi of the given type at the insertion point.
func (b *Builder) CreatePhi(typ types.Type) *PhiInst {
	return b.insert(NewPhi(types.Unqual(typ))).(*PhiInst)
}

// -----------------------------------------------------------------------------

// CreateJump terminates the current block with an unconditional branch.
func (b *Builder) CreateJump(target *BasicBlock) {
	b.insert(NewJump(target))
}

// CreateBranch terminates the current block with a conditional branch.
func (b *Builder) CreateBranch(cond Value, then, els *BasicBlock) {
	b.insert(NewBranch(cond, then, els))
}

// CreateRet terminates the current block with a return, implicitly
// converting the value to the function's return type.
func (b *Builder) CreateRet(val Value) {
	if val != nil {
		if ret := b.fn.Signature().ReturnType; types.IsInteger(ret) && types.IsInteger(val.Type()) {
			val = b.CreateCast(val, ret)
		}
	}

	b.insert(NewRet(val))
}
