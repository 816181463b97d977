package passes

import (
	"mmcc/opt"
	"mmcc/ssa"
)

// DeadCodeElim removes instructions that are unused and free of observable
// side effects.  Removal repeats until a fixpoint: erasing one instruction
// may strand its operands.
type DeadCodeElim struct {
	opt.PassBase
}

func (p *DeadCodeElim) RunOnFunction(f *ssa.Function) bool {
	changed := false

	for {
		removedAny := false

		for _, b := range f.Blocks() {
			for _, inst := range b.Insts() {
				if isDead(inst) {
					b.Remove(inst)
					removedAny = true
				}
			}
		}

		if !removedAny {
			return changed
		}

		changed = true
	}
}

// isDead returns whether inst can be deleted: no side effects, not a
// terminator, and no uses of its value.  Calls are conservatively treated as
// side-effecting since callee purity is not tracked.
func isDead(inst ssa.Inst) bool {
	return !inst.IsTerminator() && !inst.HasSideEffects() && len(inst.Uses()) == 0
}
