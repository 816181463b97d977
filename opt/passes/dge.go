package passes

import (
	"mmcc/opt"
	"mmcc/ssa"
)

// DeadGlobalElim removes dead top-level values:
//  1. unused function declarations
//  2. unused internal/inline functions and global variables
type DeadGlobalElim struct {
	opt.PassBase
}

func (p *DeadGlobalElim) RunOnModule(m *ssa.Module) bool {
	changed := false

	// Index loop tolerates erasure at the cursor.
	for i := 0; i < len(m.TopLevel()); {
		if p.removable(m.TopLevel()[i]) {
			m.EraseTopLevel(i)
			changed = true
		} else {
			i++
		}
	}

	return changed
}

func (p *DeadGlobalElim) removable(v ssa.Value) bool {
	if len(v.Uses()) != 0 {
		return false
	}

	switch tv := v.(type) {
	case *ssa.Function:
		isInternal := tv.Link.IsInternal()
		if isInternal {
			tv.Logger().LogWarning("unused internal function definition")
		}

		return tv.IsDecl() || isInternal
	case *ssa.GlobalVar:
		if tv.Link.IsInternal() {
			tv.Logger().LogWarning("unused internal global variable")
			return true
		}
	}

	return false
}
