package ssa

import (
	"container/list"

	"mmcc/report"
	"mmcc/util"
)

// BasicBlock is an ordered list of instructions ending in exactly one
// terminator.  Blocks are values: branch targets and phi incoming blocks
// reference them through ordinary operand slots, so retargeting control flow
// reuses the same use-list machinery as everything else.
type BasicBlock struct {
	ValueBase

	// The block's name, unique within its function.  Used by dumps and by
	// the instruction selector's label minting.
	Name string

	parent *Function
	insts  *list.List
}

func newBasicBlock(name string, parent *Function) *BasicBlock {
	return &BasicBlock{
		Name:   name,
		parent: parent,
		insts:  list.New(),
	}
}

// Parent returns the function owning this block.
func (b *BasicBlock) Parent() *Function {
	return b.parent
}

// NumInsts returns the number of instructions in the block.
func (b *BasicBlock) NumInsts() int {
	return b.insts.Len()
}

// Insts returns a snapshot of the block's instructions in order.  The
// snapshot tolerates removal of any instruction (the cursor's included)
// during traversal.
func (b *BasicBlock) Insts() []Inst {
	insts := make([]Inst, 0, b.insts.Len())
	for e := b.insts.Front(); e != nil; e = e.Next() {
		insts = append(insts, e.Value.(Inst))
	}

	return insts
}

// First returns the first instruction of the block, or nil if it is empty.
func (b *BasicBlock) First() Inst {
	if e := b.insts.Front(); e != nil {
		return e.Value.(Inst)
	}

	return nil
}

// Terminator returns the block's terminator, or nil if the block is still
// under construction.
func (b *BasicBlock) Terminator() Inst {
	if e := b.insts.Back(); e != nil {
		if term := e.Value.(Inst); term.IsTerminator() {
			return term
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Append adds inst at the end of the block.
func (b *BasicBlock) Append(inst Inst) {
	b.adopt(inst)

	if term := b.Terminator(); term != nil {
		report.ReportICE("appending an instruction after the terminator of block `%s`", b.Name)
	}

	inst.setElem(b.insts.PushBack(inst))

	if inst.IsTerminator() {
		b.invalidateCFG()
	}
}

// InsertBefore inserts inst immediately before at.
func (b *BasicBlock) InsertBefore(inst, at Inst) {
	b.adopt(inst)

	if at.Parent() != b {
		report.ReportICE("insertion point is not owned by block `%s`", b.Name)
	}

	inst.setElem(b.insts.InsertBefore(inst, at.elemRef()))
}

// InsertAfter inserts inst immediately after at.
func (b *BasicBlock) InsertAfter(inst, at Inst) {
	b.adopt(inst)

	if at.Parent() != b {
		report.ReportICE("insertion point is not owned by block `%s`", b.Name)
	}

	if at.IsTerminator() {
		report.ReportICE("inserting an instruction after the terminator of block `%s`", b.Name)
	}

	inst.setElem(b.insts.InsertAfter(inst, at.elemRef()))
}

// Remove erases inst from the block: the instruction's operand use edges are
// detached first, then it is unlinked from the list.  The instruction itself
// must no longer have uses.
func (b *BasicBlock) Remove(inst Inst) {
	if inst.Parent() != b {
		report.ReportICE("removing an instruction from a block that does not own it")
	}

	if len(inst.Uses()) != 0 {
		report.ReportICE("removing an instruction that still has uses")
	}

	wasTerm := inst.IsTerminator()

	inst.clearOperands()
	b.insts.Remove(inst.elemRef())
	inst.setParent(nil)
	inst.setElem(nil)

	if wasTerm {
		b.invalidateCFG()
	}
}

// MoveAppend unlinks inst from this block without touching its use edges and
// appends it to dest.  Used by control-flow surgery (block splitting,
// inlining) where the instruction stays live.
func (b *BasicBlock) MoveAppend(inst Inst, dest *BasicBlock) {
	if inst.Parent() != b {
		report.ReportICE("moving an instruction from a block that does not own it")
	}

	wasTerm := inst.IsTerminator()

	b.insts.Remove(inst.elemRef())
	inst.setParent(nil)
	inst.setElem(nil)
	dest.Append(inst)

	if wasTerm {
		b.invalidateCFG()
	}
}

// InsertFront inserts inst at the head of the block.
func (b *BasicBlock) InsertFront(inst Inst) {
	if first := b.First(); first != nil {
		b.InsertBefore(inst, first)
		return
	}

	b.Append(inst)
}

// adopt claims a detached instruction for this block.
func (b *BasicBlock) adopt(inst Inst) {
	if inst.Parent() != nil {
		report.ReportICE("inserting an instruction that is already owned by a block")
	}

	inst.setParent(b)
}

func (b *BasicBlock) invalidateCFG() {
	if b.parent != nil {
		b.parent.InvalidateCFG()
	}
}

// -----------------------------------------------------------------------------

// Preds returns the predecessor blocks in deterministic (use insertion)
// order.  A predecessor branching to the block twice appears once.
func (b *BasicBlock) Preds() []*BasicBlock {
	var preds []*BasicBlock

	for _, u := range b.Uses() {
		inst, ok := u.User().(Inst)
		if !ok || !inst.IsTerminator() || inst.Parent() == nil {
			continue
		}

		if pred := inst.Parent(); !util.Contains(preds, pred) {
			preds = append(preds, pred)
		}
	}

	return preds
}

// Succs returns the successor blocks in terminator operand order.
func (b *BasicBlock) Succs() []*BasicBlock {
	term := b.Terminator()
	if term == nil {
		return nil
	}

	return Successors(term)
}

// -----------------------------------------------------------------------------

// Phis returns the phi instructions at the head of the block.
func (b *BasicBlock) Phis() []*PhiInst {
	var phis []*PhiInst

	for e := b.insts.Front(); e != nil; e = e.Next() {
		phi, ok := e.Value.(*PhiInst)
		if !ok {
			break
		}

		phis = append(phis, phi)
	}

	return phis
}

// RemovePredEdge drops the control-flow edge from pred to this block:
// every phi in the block loses its matching incoming entries.  The caller is
// responsible for having already retargeted pred's terminator.
func (b *BasicBlock) RemovePredEdge(pred *BasicBlock) {
	for _, phi := range b.Phis() {
		phi.RemoveIncoming(pred)
	}

	b.invalidateCFG()
}
