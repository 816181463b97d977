package ssa

import (
	"fmt"

	"mmcc/report"
	"mmcc/types"
	"mmcc/util"
)

// Linkage is the external visibility class of a top-level value.
type Linkage int

const (
	// LinkExternal values are visible outside the translation unit.
	LinkExternal = Linkage(iota)

	// LinkInternal values are local to the translation unit and eliminable
	// when unreferenced.
	LinkInternal

	// LinkInline values are local, eliminable, and candidates for inlining.
	LinkInline

	// LinkGlobalCtor marks a function run before `main`.
	LinkGlobalCtor
)

func (l Linkage) String() string {
	switch l {
	case LinkExternal:
		return "external"
	case LinkInternal:
		return "internal"
	case LinkInline:
		return "inline"
	default:
		return "ctor"
	}
}

// IsInternal returns whether the linkage makes an unreferenced value
// eliminable.
func (l Linkage) IsInternal() bool {
	return l == LinkInternal || l == LinkInline
}

// -----------------------------------------------------------------------------

// Param is a function argument value.
type Param struct {
	ValueBase

	// The parameter's source name.
	Name string

	// The parameter's position in the argument list.
	Index int
}

// -----------------------------------------------------------------------------

// Function is a top-level callable value.  A function without blocks is a
// declaration.
type Function struct {
	ValueBase

	// The function's symbol name.
	Name string

	// The function's linkage.
	Link Linkage

	params []*Param
	blocks []*BasicBlock
	parent *Module

	nextBlockID int

	dom      map[*BasicBlock]*BasicBlock // lazily built idom map
	domValid bool
}

// Module returns the module owning this function.
func (f *Function) Module() *Module {
	return f.parent
}

// Signature returns the function's type as a *types.FuncType.
func (f *Function) Signature() *types.FuncType {
	return f.Type().(*types.FuncType)
}

// Params returns the function's parameter values in order.
func (f *Function) Params() []*Param {
	return f.params
}

// Blocks returns the function's blocks in order; the entry block is first.
func (f *Function) Blocks() []*BasicBlock {
	return f.blocks
}

// Entry returns the function's entry block, or nil for declarations.
func (f *Function) Entry() *BasicBlock {
	if len(f.blocks) == 0 {
		return nil
	}

	return f.blocks[0]
}

// IsDecl returns whether the function is a body-less declaration.
func (f *Function) IsDecl() bool {
	return len(f.blocks) == 0
}

// NumInsts returns the total instruction count of the function's body.
func (f *Function) NumInsts() int {
	n := 0
	for _, b := range f.blocks {
		n += b.NumInsts()
	}

	return n
}

// -----------------------------------------------------------------------------

// NewBlock appends a new, empty block to the function.  The label hint is
// made unique by a monotonic suffix.
func (f *Function) NewBlock(hint string) *BasicBlock {
	if hint == "" {
		hint = "bb"
	}

	b := newBasicBlock(fmt.Sprintf("%s%d", hint, f.nextBlockID), f)
	f.nextBlockID++
	f.blocks = append(f.blocks, b)
	f.InvalidateCFG()
	return b
}

// RemoveBlock erases b from the function.  Instructions are removed back to
// front so operand use edges within the block unwind cleanly; remaining phi
// references to b from other blocks are removed as matching incoming pairs.
func (f *Function) RemoveBlock(b *BasicBlock) {
	ndx := util.IndexOf(f.blocks, b)
	if ndx < 0 {
		report.ReportICE("removing a block from a function that does not own it")
	}

	// Detach phi incomings in successors first so the terminator's use edges
	// are the only remaining references into b's successors.
	for _, succ := range b.Succs() {
		succ.RemovePredEdge(b)
	}

	insts := b.Insts()
	for i := len(insts) - 1; i >= 0; i-- {
		// Values still used outside the block must be rewritten by the caller
		// beforehand; anything left is internal to the dying block.
		for len(insts[i].Uses()) > 0 {
			insts[i].Uses()[0].set(nil)
		}

		b.Remove(insts[i])
	}

	// Remove phi/branch references to the block itself.
	for len(b.Uses()) > 0 {
		u := b.Uses()[0]
		if phi, ok := u.User().(*PhiInst); ok {
			phi.RemoveIncoming(b)
		} else {
			u.set(nil)
		}
	}

	f.blocks = append(f.blocks[:ndx], f.blocks[ndx+1:]...)
	b.parent = nil
	f.InvalidateCFG()
}

// -----------------------------------------------------------------------------

// InvalidateCFG discards cached CFG-derived analyses (the dominator tree).
// Any edit to block structure or terminators must call it.
func (f *Function) InvalidateCFG() {
	f.domValid = false
	f.dom = nil
}

// IDom returns the immediate dominator of b, or nil for the entry block.
// The dominator tree is built lazily and cached until the CFG changes.
func (f *Function) IDom(b *BasicBlock) *BasicBlock {
	if !f.domValid {
		f.buildDomTree()
	}

	return f.dom[b]
}

// BlockDominates returns whether a dominates b.
func (f *Function) BlockDominates(a, b *BasicBlock) bool {
	if !f.domValid {
		f.buildDomTree()
	}

	for ; b != nil; b = f.dom[b] {
		if a == b {
			return true
		}
	}

	return false
}

// Dominates returns whether instruction a dominates instruction b: within a
// block, list order decides; across blocks, the dominator tree does.
func Dominates(a, b Inst) bool {
	ba, bb := a.Parent(), b.Parent()
	if ba == nil || bb == nil {
		report.ReportICE("dominance query on a detached instruction")
	}

	if ba == bb {
		for e := a.elemRef(); e != nil; e = e.Next() {
			if e.Value.(Inst) == b {
				return true
			}
		}

		return false
	}

	return ba.parent.BlockDominates(ba, bb)
}
