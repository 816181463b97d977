package opt

import (
	"mmcc/report"
	"mmcc/ssa"
)

// maxStageIterations bounds the fixpoint loop of a stage: if a stage's pass
// sequence still reports changes after this many rounds, the remaining
// iteration is logged and skipped.
const maxStageIterations = 32

// PassManager schedules and runs registered passes over a module.
type PassManager struct {
	// The active `-O` level; passes above it are filtered out.
	optLevel int
}

// NewPassManager creates a pass manager for the given optimization level.
func NewPassManager(optLevel int) *PassManager {
	if optLevel < 0 || optLevel > 3 {
		report.ReportFatal("invalid optimization level %d", optLevel)
	}

	return &PassManager{optLevel: optLevel}
}

// OptLevel returns the manager's optimization level.
func (pm *PassManager) OptLevel() int {
	return pm.optLevel
}

// RunStage selects the passes for stage, orders them, and runs the sequence
// to a fixpoint over m.
func (pm *PassManager) RunStage(stage Stage, m *ssa.Module) {
	infos := pm.schedule(stage)
	if len(infos) == 0 {
		return
	}

	// Pass instances live for the whole stage.
	passes := make([]Pass, len(infos))
	for i, info := range infos {
		passes[i] = info.Ctor()
	}

	for iter := 0; ; iter++ {
		if iter == maxStageIterations {
			report.ReportCompileWarning(m.File, nil,
				"pass stage %s did not converge after %d iterations", stage, maxStageIterations)
			return
		}

		changed := false

		for _, pass := range passes {
			if !report.ShouldProceed() {
				return
			}

			if pm.runPass(pass, m) {
				changed = true
			}
		}

		if !changed {
			return
		}
	}
}

// runPass drives a single pass over the module according to its granularity
// and returns whether it reported a change.
func (pm *PassManager) runPass(pass Pass, m *ssa.Module) bool {
	changed := false

	switch p := pass.(type) {
	case ModulePass:
		changed = p.RunOnModule(m)
	case FunctionPass:
		for _, f := range m.Functions() {
			if f.IsDecl() {
				continue
			}

			if p.RunOnFunction(f) {
				changed = true
			}
		}
	case BlockPass:
		for _, f := range m.Functions() {
			if f.IsDecl() {
				continue
			}

			for _, b := range f.Blocks() {
				if p.RunOnBlock(b) {
					changed = true
				}
			}
		}
	default:
		report.ReportICE("pass implements no granularity interface")
	}

	return changed
}

// -----------------------------------------------------------------------------

// schedule filters the registry by stage and level and topologically orders
// the survivors by their declared dependencies.  Registration order is the
// tiebreak, so scheduling is deterministic.  A dependency cycle or an unknown
// dependency name is a fatal configuration error.
func (pm *PassManager) schedule(stage Stage) []*PassInfo {
	var selected []*PassInfo
	index := make(map[string]int)

	for _, info := range Registered() {
		if info.Stages&stage == 0 || info.MinOptLevel > pm.optLevel {
			continue
		}

		index[info.Name] = len(selected)
		selected = append(selected, info)
	}

	// Kahn's algorithm with registration-order tiebreak.
	indeg := make([]int, len(selected))
	succs := make([][]int, len(selected))

	for i, info := range selected {
		for _, dep := range info.Deps {
			if Lookup(dep) == nil {
				report.ReportFatal("pass `%s` depends on unknown pass `%s`", info.Name, dep)
			}

			// A dependency filtered out of this stage imposes no ordering.
			j, ok := index[dep]
			if !ok {
				continue
			}

			succs[j] = append(succs[j], i)
			indeg[i]++
		}
	}

	var order []*PassInfo
	done := make([]bool, len(selected))

	for len(order) < len(selected) {
		picked := -1

		for i := range selected {
			if !done[i] && indeg[i] == 0 {
				picked = i
				break
			}
		}

		if picked < 0 {
			report.ReportFatal("cyclic pass dependencies in stage %s", stage)
		}

		done[picked] = true
		order = append(order, selected[picked])

		for _, s := range succs[picked] {
			indeg[s]--
		}
	}

	return order
}
