package opt

import (
	"strings"

	"mmcc/ssa"
)

// Pass is the common interface of all passes.  A pass implements exactly one
// of the three granularity interfaces below; which one decides how the pass
// manager drives it.
type Pass interface {
	isPass()
}

// ModulePass visits the module's top-level value list.  It may erase entries
// through Module.EraseTopLevel; the traversal it performs must tolerate
// erasure at the cursor (index-based loops do).
type ModulePass interface {
	Pass

	RunOnModule(m *ssa.Module) bool
}

// FunctionPass visits each function body.
type FunctionPass interface {
	Pass

	RunOnFunction(f *ssa.Function) bool
}

// BlockPass visits each basic block of each function body.
type BlockPass interface {
	Pass

	RunOnBlock(b *ssa.BasicBlock) bool
}

// PassBase is embedded by every pass to satisfy the marker method.
type PassBase struct{}

func (PassBase) isPass() {}

// -----------------------------------------------------------------------------

// Stage is a bitmask of pipeline phases a pass participates in.
type Stage uint

const (
	StagePreOpt = Stage(1 << iota)
	StageOpt
	StagePostOpt
	StagePreEmit
)

var stageNames = []struct {
	stage Stage
	name  string
}{
	{StagePreOpt, "PreOpt"},
	{StageOpt, "Opt"},
	{StagePostOpt, "PostOpt"},
	{StagePreEmit, "PreEmit"},
}

func (s Stage) String() string {
	var parts []string

	for _, sn := range stageNames {
		if s&sn.stage != 0 {
			parts = append(parts, sn.name)
		}
	}

	if len(parts) == 0 {
		return "<none>"
	}

	return strings.Join(parts, "|")
}
