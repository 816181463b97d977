package codegen

import (
	"mmcc/mir"
)

// Peephole performs the trivial final cleanups on an allocated function:
// moves whose source and destination alias disappear, as do unconditional
// branches to the label immediately following them, and frame adjustments by
// zero.
func Peephole(f *mir.Func) {
	var out []*mir.Inst

	for i, in := range f.Insts {
		switch {
		case isSelfMove(in):
			continue
		case isBranchToNext(f.Insts, i):
			continue
		case isZeroFrameAdjust(in):
			continue
		}

		out = append(out, in)
	}

	f.Insts = out
}

// isSelfMove returns whether in is an unconditional register-to-register
// move with identical source and destination.
func isSelfMove(in *mir.Inst) bool {
	return in.Op == mir.MOV && in.Cond == mir.CondAL &&
		len(in.Oprs) == 1 && in.Dest == in.Oprs[0] && in.Dest != nil && in.Dest.IsReg()
}

// isBranchToNext returns whether instruction i is an unconditional branch
// whose target label is the next emitted instruction.
func isBranchToNext(insts []*mir.Inst, i int) bool {
	in := insts[i]
	if in.Op != mir.B || in.Cond != mir.CondAL {
		return false
	}

	if i+1 >= len(insts) || !insts[i+1].IsLabel() {
		return false
	}

	return insts[i+1].Oprs[0] == in.Oprs[0]
}

// isZeroFrameAdjust returns whether in adjusts sp by a zero-valued frame
// immediate: empty frames need no adjustment at all.
func isZeroFrameAdjust(in *mir.Inst) bool {
	if in.Op != mir.ADD && in.Op != mir.SUB {
		return false
	}

	if in.Dest != mir.SP || len(in.Oprs) != 2 || in.Oprs[0] != mir.SP {
		return false
	}

	si, ok := in.Oprs[1].(*mir.SlotImm)
	return ok && si.Val == 0
}
