package passes

import (
	"mmcc/opt"
	"mmcc/report"
	"mmcc/ssa"
	"mmcc/types"
)

// inlineMaxInsts is the body-size ceiling for inlining candidates.
const inlineMaxInsts = 48

// Inliner replaces calls to small functions marked inline with a copy of the
// callee body.  Functions participating in a recursion cycle of the static
// call graph are never inlined.
type Inliner struct {
	opt.PassBase
}

func (p *Inliner) RunOnModule(m *ssa.Module) bool {
	recursive := findRecursive(m)
	changed := false

	for _, f := range m.Functions() {
		if f.IsDecl() {
			continue
		}

		// Restart the scan after every inline: the block list has changed
		// under the cursor.
		for {
			call := findInlinableCall(f, recursive)
			if call == nil {
				break
			}

			inlineCall(f, call)
			changed = true
		}
	}

	return changed
}

// findInlinableCall returns the first call site in f eligible for inlining.
func findInlinableCall(f *ssa.Function, recursive map[*ssa.Function]bool) *ssa.CallInst {
	for _, b := range f.Blocks() {
		for _, inst := range b.Insts() {
			call, ok := inst.(*ssa.CallInst)
			if !ok {
				continue
			}

			callee, ok := call.Callee().(*ssa.Function)
			if !ok || callee.IsDecl() || callee.Link != ssa.LinkInline {
				continue
			}

			if callee == f || recursive[callee] || callee.NumInsts() > inlineMaxInsts {
				continue
			}

			return call
		}
	}

	return nil
}

// findRecursive returns the functions participating in a cycle of the static
// call graph.
func findRecursive(m *ssa.Module) map[*ssa.Function]bool {
	callees := make(map[*ssa.Function][]*ssa.Function)

	for _, f := range m.Functions() {
		for _, b := range f.Blocks() {
			for _, inst := range b.Insts() {
				if call, ok := inst.(*ssa.CallInst); ok {
					if target, ok := call.Callee().(*ssa.Function); ok {
						callees[f] = append(callees[f], target)
					}
				}
			}
		}
	}

	const (
		white = 0
		grey  = 1
		black = 2
	)

	color := make(map[*ssa.Function]int)
	recursive := make(map[*ssa.Function]bool)

	var visit func(f *ssa.Function)
	visit = func(f *ssa.Function) {
		color[f] = grey

		for _, c := range callees[f] {
			switch color[c] {
			case white:
				visit(c)
			case grey:
				// Every function on the active path back to c is cyclic; a
				// conservative over-approximation marks the edge's endpoints.
				recursive[c] = true
				recursive[f] = true
			}

			if recursive[c] && color[f] == grey {
				recursive[f] = true
			}
		}

		color[f] = black
	}

	for _, f := range m.Functions() {
		if color[f] == white {
			visit(f)
		}
	}

	return recursive
}

// -----------------------------------------------------------------------------

// inlineCall splices a copy of the callee's body into f at the call site.
func inlineCall(f *ssa.Function, call *ssa.CallInst) {
	callee := call.Callee().(*ssa.Function)
	callBlock := call.Parent()

	// Split the call block: everything after the call, the terminator
	// included, moves to the continuation block.
	cont := f.NewBlock(callee.Name + ".cont")

	insts := callBlock.Insts()
	callNdx := -1
	for i, inst := range insts {
		if inst == call {
			callNdx = i
			break
		}
	}

	for _, inst := range insts[callNdx+1:] {
		callBlock.MoveAppend(inst, cont)
	}

	// Successor phis recorded the call block as their incoming edge; that
	// edge now leaves the continuation block.
	for _, succ := range cont.Succs() {
		for _, phi := range succ.Phis() {
			phi.ReplaceIncomingBlock(callBlock, cont)
		}
	}

	// Map callee parameters to the call's arguments.
	valueMap := make(map[ssa.Value]ssa.Value)
	for i, param := range callee.Params() {
		valueMap[param] = call.Args()[i]
	}

	mapValue := func(v ssa.Value) ssa.Value {
		if mv, ok := valueMap[v]; ok {
			return mv
		}

		return v
	}

	// First pass: create the cloned blocks and empty phi shells, so forward
	// and backward references both have a mapping to land on.
	for _, b := range callee.Blocks() {
		clone := f.NewBlock(callee.Name + ".inl")
		valueMap[b] = clone

		for _, phi := range b.Phis() {
			phiClone := ssa.NewPhi(phi.Type())
			phiClone.SetLogger(phi.Logger())
			clone.Append(phiClone)
			valueMap[phi] = phiClone
		}
	}

	// Second pass: clone the straight-line instructions; returns become
	// jumps to the continuation block.
	type retEdge struct {
		block *ssa.BasicBlock
		val   ssa.Value
	}
	var rets []retEdge

	for _, b := range callee.Blocks() {
		clone := valueMap[b].(*ssa.BasicBlock)

		for _, inst := range b.Insts() {
			if _, ok := inst.(*ssa.PhiInst); ok {
				continue
			}

			if ret, ok := inst.(*ssa.RetInst); ok {
				var rv ssa.Value
				if ret.Val() != nil {
					rv = mapValue(ret.Val())
				}

				rets = append(rets, retEdge{block: clone, val: rv})
				clone.Append(ssa.NewJump(cont))
				continue
			}

			instClone := cloneInst(inst, mapValue)
			instClone.SetLogger(inst.Logger())
			clone.Append(instClone)
			valueMap[inst] = instClone
		}
	}

	// Third pass: fill the phi shells now that every value has a mapping.
	for _, b := range callee.Blocks() {
		for _, phi := range b.Phis() {
			phiClone := valueMap[phi].(*ssa.PhiInst)

			for i := 0; i < phi.NumIncoming(); i++ {
				phiClone.AddIncoming(
					mapValue(phi.IncomingValue(i)),
					mapValue(phi.IncomingBlock(i)).(*ssa.BasicBlock),
				)
			}
		}
	}

	// Materialize the call's result.
	var result ssa.Value
	switch {
	case len(rets) == 0 || rets[0].val == nil:
		result = nil
	case len(rets) == 1:
		result = rets[0].val
	default:
		phi := ssa.NewPhi(call.Type())
		phi.SetLogger(call.Logger())
		cont.InsertFront(phi)
		for _, re := range rets {
			phi.AddIncoming(re.val, re.block)
		}
		result = phi
	}

	if result != nil {
		ssa.ReplaceAllUsesWith(call, result)
	} else if len(call.Uses()) != 0 {
		report.ReportICE("inlined a void call whose result is used")
	}

	callBlock.Remove(call)
	callBlock.Append(ssa.NewJump(valueMap[callee.Entry()].(*ssa.BasicBlock)))
}

// cloneInst duplicates a non-phi, non-return instruction with its operands
// passed through mv.
func cloneInst(inst ssa.Inst, mv func(ssa.Value) ssa.Value) ssa.Inst {
	switch v := inst.(type) {
	case *ssa.BinaryInst:
		return ssa.NewBinary(v.Op, v.Type(), mv(v.LHS()), mv(v.RHS()))
	case *ssa.UnaryInst:
		return ssa.NewUnary(v.Op, v.Type(), mv(v.Operand(0)))
	case *ssa.AllocaInst:
		return ssa.NewAlloca(v.AllocType())
	case *ssa.LoadInst:
		return ssa.NewLoad(mv(v.Ptr()))
	case *ssa.StoreInst:
		return ssa.NewStore(mv(v.Val()), mv(v.Ptr()))
	case *ssa.CastInst:
		return ssa.NewCast(v.Type(), mv(v.Val()))
	case *ssa.CallInst:
		args := make([]ssa.Value, 0, len(v.Args()))
		for _, arg := range v.Args() {
			args = append(args, mv(arg))
		}
		return ssa.NewCall(mv(v.Callee()), args)
	case *ssa.ElemPtrInst:
		elemType := v.Type().(*types.PointerType).ElemType
		return ssa.NewElemPtr(v.Kind, elemType, mv(v.Ptr()), mv(v.Index()))
	case *ssa.JumpInst:
		return ssa.NewJump(mv(v.Target()).(*ssa.BasicBlock))
	case *ssa.BranchInst:
		return ssa.NewBranch(mv(v.Cond()),
			mv(v.Then()).(*ssa.BasicBlock), mv(v.Else()).(*ssa.BasicBlock))
	default:
		report.ReportICE("cannot clone instruction during inlining")
		return nil
	}
}
