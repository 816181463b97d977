package passes

import (
	"fmt"

	"mmcc/opt"
	"mmcc/ssa"
)

// LocalValueNumbering performs common-subexpression elimination within a
// block: pure instructions with equal opcode and operand identities receive
// the same value number, and later instances are replaced by the first.
// Loads and side-effecting instructions never participate; cross-block
// numbering is deliberately out of scope.
type LocalValueNumbering struct {
	opt.PassBase
}

func (p *LocalValueNumbering) RunOnBlock(b *ssa.BasicBlock) bool {
	changed := false
	numbering := make(map[string]ssa.Inst)

	for _, inst := range b.Insts() {
		key, ok := numberKey(inst)
		if !ok {
			continue
		}

		if first, seen := numbering[key]; seen {
			ssa.ReplaceAllUsesWith(inst, first)
			b.Remove(inst)
			changed = true
		} else {
			numbering[key] = inst
		}
	}

	return changed
}

// numberKey builds the value-number key for a pure instruction.  Operand
// identity is the value's pointer, which is stable for the lifetime of the
// block scan; the key never leaks into output, so formatting pointers is
// deterministic enough.
func numberKey(inst ssa.Inst) (string, bool) {
	switch v := inst.(type) {
	case *ssa.BinaryInst:
		return fmt.Sprintf("bin %d %s %p %p", v.Op, v.Type().Repr(), v.LHS(), v.RHS()), true
	case *ssa.UnaryInst:
		return fmt.Sprintf("un %d %s %p", v.Op, v.Type().Repr(), v.Operand(0)), true
	case *ssa.CastInst:
		return fmt.Sprintf("cast %s %p", v.Type().Repr(), v.Val()), true
	case *ssa.ElemPtrInst:
		return fmt.Sprintf("elem %d %s %p %p", v.Kind, v.Type().Repr(), v.Ptr(), v.Index()), true
	default:
		return "", false
	}
}
