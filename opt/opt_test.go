package opt

import (
	"strings"
	"testing"

	"mmcc/report"
	"mmcc/ssa"
)

func init() {
	report.InitReporter(report.LogLevelSilent)
}

// countingPass records how often it ran and reports change a fixed number of
// times.
type countingPass struct {
	PassBase

	runs       int
	changeFor  int
	ranAgainst []string
}

func (p *countingPass) RunOnModule(m *ssa.Module) bool {
	p.runs++
	return p.runs <= p.changeFor
}

// orderProbe records the order passes ran in via a shared log.
type orderProbe struct {
	PassBase

	name string
	log  *[]string
}

func (p *orderProbe) RunOnModule(m *ssa.Module) bool {
	*p.log = append(*p.log, p.name)
	return false
}

func TestScheduleRespectsDependencies(t *testing.T) {
	ResetRegistry()
	defer ResetRegistry()

	var log []string

	// Registered in reverse dependency order on purpose.
	Register(&PassInfo{
		Name:   "late",
		Ctor:   func() Pass { return &orderProbe{name: "late", log: &log} },
		Stages: StageOpt,
		Deps:   []string{"early"},
	})
	Register(&PassInfo{
		Name:   "early",
		Ctor:   func() Pass { return &orderProbe{name: "early", log: &log} },
		Stages: StageOpt,
	})

	pm := NewPassManager(0)
	pm.RunStage(StageOpt, ssa.NewModule("test.c"))

	if len(log) != 2 || log[0] != "early" || log[1] != "late" {
		t.Fatalf("ran in order %v, want early before late", log)
	}
}

func TestScheduleFiltersByLevel(t *testing.T) {
	ResetRegistry()
	defer ResetRegistry()

	var log []string

	Register(&PassInfo{
		Name:        "cheap",
		Ctor:        func() Pass { return &orderProbe{name: "cheap", log: &log} },
		Stages:      StageOpt,
		MinOptLevel: 0,
	})
	Register(&PassInfo{
		Name:        "expensive",
		Ctor:        func() Pass { return &orderProbe{name: "expensive", log: &log} },
		Stages:      StageOpt,
		MinOptLevel: 2,
	})

	NewPassManager(1).RunStage(StageOpt, ssa.NewModule("test.c"))

	if len(log) != 1 || log[0] != "cheap" {
		t.Fatalf("level filtering wrong: %v", log)
	}

	log = nil
	NewPassManager(2).RunStage(StageOpt, ssa.NewModule("test.c"))

	if len(log) != 2 {
		t.Fatalf("both passes should run at -O2: %v", log)
	}
}

func TestScheduleFiltersByStage(t *testing.T) {
	ResetRegistry()
	defer ResetRegistry()

	var log []string

	Register(&PassInfo{
		Name:   "pre",
		Ctor:   func() Pass { return &orderProbe{name: "pre", log: &log} },
		Stages: StagePreOpt,
	})

	NewPassManager(0).RunStage(StageOpt, ssa.NewModule("test.c"))

	if len(log) != 0 {
		t.Fatal("pass ran outside its stage mask")
	}
}

func TestFixpointIteration(t *testing.T) {
	ResetRegistry()
	defer ResetRegistry()

	p := &countingPass{changeFor: 3}
	Register(&PassInfo{
		Name:   "counting",
		Ctor:   func() Pass { return p },
		Stages: StageOpt,
	})

	NewPassManager(0).RunStage(StageOpt, ssa.NewModule("test.c"))

	// Three changing rounds plus the quiescent one.
	if p.runs != 4 {
		t.Fatalf("pass ran %d times, want 4", p.runs)
	}
}

func TestFixpointCap(t *testing.T) {
	ResetRegistry()
	defer ResetRegistry()

	// A pass that claims change forever must be cut off at the cap, with a
	// warning.
	p := &countingPass{changeFor: 1 << 30}
	Register(&PassInfo{
		Name:   "livelock",
		Ctor:   func() Pass { return p },
		Stages: StageOpt,
	})

	warningsBefore := report.WarningCount()
	NewPassManager(0).RunStage(StageOpt, ssa.NewModule("test.c"))

	if p.runs != maxStageIterations {
		t.Fatalf("pass ran %d times, want the %d-iteration cap", p.runs, maxStageIterations)
	}

	if report.WarningCount() == warningsBefore {
		t.Fatal("abandoning a stage must warn")
	}
}

func TestShowInfo(t *testing.T) {
	ResetRegistry()
	defer ResetRegistry()

	Register(&PassInfo{
		Name:        "example",
		Ctor:        func() Pass { return &countingPass{} },
		Stages:      StagePreOpt | StageOpt,
		MinOptLevel: 2,
		Deps:        []string{"other"},
	})

	sb := &strings.Builder{}
	ShowInfo(sb)
	out := sb.String()

	for _, want := range []string{"example", "PreOpt|Opt", "min level: 2", "other"} {
		if !strings.Contains(out, want) {
			t.Errorf("ShowInfo output missing %q:\n%s", want, out)
		}
	}
}
