package ssa

import (
	"container/list"

	"mmcc/report"
	"mmcc/types"
)

// Inst is a single instruction inside a basic block.  Instructions are users:
// their operand slots carry the use-def graph.
type Inst interface {
	User

	// Parent returns the basic block owning this instruction, or nil if the
	// instruction is detached.
	Parent() *BasicBlock

	// IsTerminator returns whether this instruction transfers control.
	IsTerminator() bool

	// HasSideEffects returns whether the instruction has observable effects
	// beyond producing its value: stores, calls, and control transfers do.
	HasSideEffects() bool

	setParent(b *BasicBlock)
	setElem(e *list.Element)
	elemRef() *list.Element
	clearOperands()
}

// InstBase is the base struct for all instructions.
type InstBase struct {
	UserBase

	parent *BasicBlock
	elem   *list.Element
}

// NewInstBase creates a new detached instruction base of the given type.
func NewInstBase(typ types.Type) InstBase {
	return InstBase{UserBase: NewUserBase(typ)}
}

func (ib *InstBase) Parent() *BasicBlock       { return ib.parent }
func (ib *InstBase) setParent(b *BasicBlock)   { ib.parent = b }
func (ib *InstBase) setElem(e *list.Element)   { ib.elem = e }
func (ib *InstBase) elemRef() *list.Element    { return ib.elem }
func (ib *InstBase) IsTerminator() bool        { return false }
func (ib *InstBase) HasSideEffects() bool      { return false }

// -----------------------------------------------------------------------------

// BinaryOp enumerates the binary instruction opcodes, comparisons included.
type BinaryOp int

const (
	OpAdd = BinaryOp(iota)
	OpSub
	OpMul
	OpSDiv
	OpUDiv
	OpSRem
	OpURem
	OpAnd
	OpOr
	OpXor
	OpShl
	OpLShr
	OpAShr
	OpEq
	OpNe
	OpSLt
	OpULt
	OpSLe
	OpULe
	OpSGt
	OpUGt
	OpSGe
	OpUGe
)

var binaryOpNames = [...]string{
	"add", "sub", "mul", "sdiv", "udiv", "srem", "urem",
	"and", "or", "xor", "shl", "lshr", "ashr",
	"eq", "ne", "slt", "ult", "sle", "ule", "sgt", "ugt", "sge", "uge",
}

func (op BinaryOp) String() string {
	return binaryOpNames[op]
}

// IsCompare returns whether the opcode is a comparison.
func (op BinaryOp) IsCompare() bool {
	return op >= OpEq
}

// IsDivision returns whether the opcode is a division or remainder.
func (op BinaryOp) IsDivision() bool {
	return op == OpSDiv || op == OpUDiv || op == OpSRem || op == OpURem
}

// BinaryInst applies a binary opcode to its two operands.
type BinaryInst struct {
	InstBase

	// The binary opcode.
	Op BinaryOp
}

// NewBinary creates a new binary instruction of the given result type.
func NewBinary(op BinaryOp, typ types.Type, lhs, rhs Value) *BinaryInst {
	bi := &BinaryInst{InstBase: NewInstBase(typ), Op: op}
	bi.bindOperands(bi, lhs, rhs)
	return bi
}

// LHS returns the left operand.
func (bi *BinaryInst) LHS() Value { return bi.Operand(0) }

// RHS returns the right operand.
func (bi *BinaryInst) RHS() Value { return bi.Operand(1) }

// -----------------------------------------------------------------------------

// UnaryOp enumerates the unary instruction opcodes.
type UnaryOp int

const (
	OpNeg = UnaryOp(iota) // arithmetic negation
	OpNot                 // bitwise complement
)

func (op UnaryOp) String() string {
	if op == OpNeg {
		return "neg"
	}

	return "not"
}

// UnaryInst applies a unary opcode to its operand.
type UnaryInst struct {
	InstBase

	// The unary opcode.
	Op UnaryOp
}

// NewUnary creates a new unary instruction of the given result type.
func NewUnary(op UnaryOp, typ types.Type, opr Value) *UnaryInst {
	ui := &UnaryInst{InstBase: NewInstBase(typ), Op: op}
	ui.bindOperands(ui, opr)
	return ui
}

// -----------------------------------------------------------------------------

// AllocaInst reserves a stack slot in the enclosing function's frame.  Its
// type is a pointer to the allocated type.
type AllocaInst struct {
	InstBase
}

// NewAlloca creates an alloca of the given allocated type.
func NewAlloca(allocType types.Type) *AllocaInst {
	return &AllocaInst{InstBase: NewInstBase(&types.PointerType{ElemType: allocType})}
}

// AllocType returns the type of the allocated slot.
func (ai *AllocaInst) AllocType() types.Type {
	return ai.Type().(*types.PointerType).ElemType
}

// -----------------------------------------------------------------------------

// LoadInst reads the value a pointer refers to.
type LoadInst struct {
	InstBase
}

// NewLoad creates a load through ptr.  The result type is the pointee type.
func NewLoad(ptr Value) *LoadInst {
	elem, ok := types.Deref(ptr.Type())
	if !ok {
		report.ReportICE("load through a non-pointer operand of type `%s`", ptr.Type().Repr())
	}

	li := &LoadInst{InstBase: NewInstBase(types.Unqual(elem))}
	li.bindOperands(li, ptr)
	return li
}

// Ptr returns the address operand.
func (li *LoadInst) Ptr() Value { return li.Operand(0) }

// -----------------------------------------------------------------------------

// StoreInst writes a value through a pointer.
type StoreInst struct {
	InstBase
}

// NewStore creates a store of val through ptr.
func NewStore(val, ptr Value) *StoreInst {
	si := &StoreInst{InstBase: NewInstBase(types.PrimVoid)}
	si.bindOperands(si, val, ptr)
	return si
}

// Val returns the stored value operand.
func (si *StoreInst) Val() Value { return si.Operand(0) }

// Ptr returns the address operand.
func (si *StoreInst) Ptr() Value { return si.Operand(1) }

func (si *StoreInst) HasSideEffects() bool { return true }

// -----------------------------------------------------------------------------

// CastInst converts its operand to the instruction's result type.
type CastInst struct {
	InstBase
}

// NewCast creates a cast of val to typ.
func NewCast(typ types.Type, val Value) *CastInst {
	ci := &CastInst{InstBase: NewInstBase(typ)}
	ci.bindOperands(ci, val)
	return ci
}

// Val returns the casted operand.
func (ci *CastInst) Val() Value { return ci.Operand(0) }

// -----------------------------------------------------------------------------

// CallInst calls its first operand with the remaining operands as arguments.
type CallInst struct {
	InstBase
}

// NewCall creates a call to callee with args.  The result type is the
// callee's return type.
func NewCall(callee Value, args []Value) *CallInst {
	ft, ok := types.Unqual(callee.Type()).(*types.FuncType)
	if !ok {
		report.ReportICE("call of a non-function operand of type `%s`", callee.Type().Repr())
	}

	ci := &CallInst{InstBase: NewInstBase(ft.ReturnType)}
	ci.bindOperands(ci, append([]Value{callee}, args...)...)
	return ci
}

// Callee returns the called value.
func (ci *CallInst) Callee() Value { return ci.Operand(0) }

// Args returns the argument values in order.
func (ci *CallInst) Args() []Value {
	args := make([]Value, ci.NumOperands()-1)
	for i := 1; i < ci.NumOperands(); i++ {
		args[i-1] = ci.Operand(i)
	}

	return args
}

func (ci *CallInst) HasSideEffects() bool { return true }

// -----------------------------------------------------------------------------

// ElemKind distinguishes the two addressing shapes of ElemPtrInst.
type ElemKind int

const (
	// ElemArray indexes an array or pointed-to sequence: the index operand is
	// scaled by the element size.
	ElemArray = ElemKind(iota)

	// ElemField selects a struct field: the index operand is a constant field
	// number.
	ElemField
)

// ElemPtrInst computes the address of an element of an aggregate.
type ElemPtrInst struct {
	InstBase

	// The addressing shape.
	Kind ElemKind
}

// NewElemPtr creates an element-pointer instruction yielding a pointer to the
// selected element of elemType.
func NewElemPtr(kind ElemKind, elemType types.Type, ptr, index Value) *ElemPtrInst {
	ep := &ElemPtrInst{
		InstBase: NewInstBase(&types.PointerType{ElemType: types.Unqual(elemType)}),
		Kind:     kind,
	}
	ep.bindOperands(ep, ptr, index)
	return ep
}

// Ptr returns the base address operand.
func (ep *ElemPtrInst) Ptr() Value { return ep.Operand(0) }

// Index returns the index operand.
func (ep *ElemPtrInst) Index() Value { return ep.Operand(1) }

// -----------------------------------------------------------------------------

// PhiInst merges one value per predecessor edge.  Operand slots alternate
// (value, incoming block) so both halves of each pair carry real use edges.
type PhiInst struct {
	InstBase
}

// NewPhi creates an empty phi of the given type; incomings are added as the
// predecessor edges are discovered.
func NewPhi(typ types.Type) *PhiInst {
	return &PhiInst{InstBase: NewInstBase(typ)}
}

// NumIncoming returns the number of incoming (value, block) pairs.
func (pi *PhiInst) NumIncoming() int {
	return pi.NumOperands() / 2
}

// IncomingValue returns the value of the i-th incoming pair.
func (pi *PhiInst) IncomingValue(i int) Value {
	return pi.Operand(2 * i)
}

// IncomingBlock returns the block of the i-th incoming pair.
func (pi *PhiInst) IncomingBlock(i int) *BasicBlock {
	return pi.Operand(2*i + 1).(*BasicBlock)
}

// AddIncoming appends an incoming pair.
func (pi *PhiInst) AddIncoming(v Value, b *BasicBlock) {
	pi.appendOperand(pi, v)
	pi.appendOperand(pi, b)
}

// ReplaceIncomingBlock rewrites every incoming pair referencing old to
// reference new instead.
func (pi *PhiInst) ReplaceIncomingBlock(old, new *BasicBlock) {
	for i := 0; i < pi.NumIncoming(); i++ {
		if pi.IncomingBlock(i) == old {
			pi.SetOperand(2*i+1, new)
		}
	}
}

// RemoveIncoming deletes every incoming pair whose block is b.
func (pi *PhiInst) RemoveIncoming(b *BasicBlock) {
	for i := 0; i < pi.NumIncoming(); {
		if pi.IncomingBlock(i) == b {
			// Remove the pair; slot indices shift down by two.
			pi.removeOperand(2 * i)
			pi.removeOperand(2 * i)
		} else {
			i++
		}
	}
}

// -----------------------------------------------------------------------------

// JumpInst is an unconditional branch.
type JumpInst struct {
	InstBase
}

// NewJump creates an unconditional branch to target.
func NewJump(target *BasicBlock) *JumpInst {
	ji := &JumpInst{InstBase: NewInstBase(types.PrimVoid)}
	ji.bindOperands(ji, target)
	return ji
}

// Target returns the branch target.
func (ji *JumpInst) Target() *BasicBlock { return ji.Operand(0).(*BasicBlock) }

func (ji *JumpInst) IsTerminator() bool   { return true }
func (ji *JumpInst) HasSideEffects() bool { return true }

// -----------------------------------------------------------------------------

// BranchInst is a two-way conditional branch.
type BranchInst struct {
	InstBase
}

// NewBranch creates a conditional branch on cond.
func NewBranch(cond Value, then, els *BasicBlock) *BranchInst {
	bi := &BranchInst{InstBase: NewInstBase(types.PrimVoid)}
	bi.bindOperands(bi, cond, then, els)
	return bi
}

// Cond returns the branch condition.
func (bi *BranchInst) Cond() Value { return bi.Operand(0) }

// Then returns the taken target.
func (bi *BranchInst) Then() *BasicBlock { return bi.Operand(1).(*BasicBlock) }

// Else returns the fall-through target.
func (bi *BranchInst) Else() *BasicBlock { return bi.Operand(2).(*BasicBlock) }

func (bi *BranchInst) IsTerminator() bool   { return true }
func (bi *BranchInst) HasSideEffects() bool { return true }

// -----------------------------------------------------------------------------

// RetInst returns from the enclosing function, optionally with a value.
type RetInst struct {
	InstBase
}

// NewRet creates a return.  val may be nil for void returns.
func NewRet(val Value) *RetInst {
	ri := &RetInst{InstBase: NewInstBase(types.PrimVoid)}
	if val != nil {
		ri.bindOperands(ri, val)
	}

	return ri
}

// Val returns the returned value, or nil for a void return.
func (ri *RetInst) Val() Value {
	if ri.NumOperands() == 0 {
		return nil
	}

	return ri.Operand(0)
}

func (ri *RetInst) IsTerminator() bool   { return true }
func (ri *RetInst) HasSideEffects() bool { return true }

// -----------------------------------------------------------------------------

// Successors returns the blocks a terminator may transfer control to, in
// operand order.
func Successors(term Inst) []*BasicBlock {
	switch t := term.(type) {
	case *JumpInst:
		return []*BasicBlock{t.Target()}
	case *BranchInst:
		return []*BasicBlock{t.Then(), t.Else()}
	default:
		return nil
	}
}
