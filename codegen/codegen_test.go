package codegen

import (
	"bufio"
	"strings"
	"testing"

	"mmcc/lower"
	"mmcc/mir"
	"mmcc/report"
	"mmcc/sema"
	"mmcc/ssa"
	"mmcc/syntax"
)

func compileSource(t *testing.T, src string) *ssa.Module {
	t.Helper()
	report.InitReporter(report.LogLevelSilent)

	p := syntax.NewParser("test.c", bufio.NewReader(strings.NewReader(src)))
	defs := p.Parse()
	if !report.ShouldProceed() {
		t.Fatal("parse failed")
	}

	an := sema.NewAnalyzer("test.c")
	an.Analyze(defs)
	if !report.ShouldProceed() {
		t.Fatal("analysis failed")
	}

	mod := lower.Lower("test.c", defs, an.Eval())
	if !report.ShouldProceed() {
		t.Fatal("lowering failed")
	}

	return mod
}

// -----------------------------------------------------------------------------

func TestCFGAndLivenessOnLoop(t *testing.T) {
	mod := compileSource(t, `
		int f(int n) {
			int s;
			s = 0;
			while (n) {
				s = s + 1;
				n = n - 1;
			}
			return s;
		}
	`)

	prog := Select(mod)
	if len(prog.Funcs) != 1 {
		t.Fatalf("got %d functions", len(prog.Funcs))
	}

	live := Analyze(prog.Funcs[0])

	// Prologue block, entry, loop header, body, exit.
	if len(live.order) != 5 {
		t.Fatalf("got %d blocks, want 5", len(live.order))
	}

	// Find the loop header: the block with two predecessors (entry and the
	// back edge from the body).
	var header *cfgBlock
	for _, b := range live.blocks {
		if len(b.preds) == 2 {
			header = b
		}
	}

	if header == nil {
		t.Fatal("no loop header with a back edge found")
	}

	if len(header.succs) != 2 {
		t.Fatalf("loop header has %d successors, want body and exit", len(header.succs))
	}

	// Some register (the slot address of the accumulator) must stay live
	// from before the loop through its last block.
	last := len(live.order) - 1
	spanning := false
	for _, iv := range live.Intervals() {
		if iv.Start <= 1 && iv.End >= last {
			spanning = true
		}
	}

	if !spanning {
		t.Fatal("no live interval spans the loop via the back edge")
	}
}

// -----------------------------------------------------------------------------

func TestLinearScanNoOverlapConflicts(t *testing.T) {
	// More simultaneously live intervals than physical registers: some must
	// spill, and no two overlapping intervals may share a register.
	var intervals []*Interval
	pool := mir.NewOperandPool()

	for i := 0; i < 32; i++ {
		intervals = append(intervals, &Interval{VReg: pool.NewVirtReg(), Start: i, End: 40})
	}

	alloc := AllocateRegisters(intervals)

	if len(alloc.Spills) == 0 {
		t.Fatal("32 overlapping intervals in 7 registers must spill")
	}

	if len(alloc.Regs)+len(alloc.Spills) != 32 {
		t.Fatal("every interval needs a register or a slot")
	}

	byReg := make(map[*mir.PhysReg][]*Interval)
	for _, iv := range intervals {
		if pr, ok := alloc.Regs[iv.VReg]; ok {
			byReg[pr] = append(byReg[pr], iv)
		}
	}

	for pr, ivs := range byReg {
		for i := 0; i < len(ivs); i++ {
			for j := i + 1; j < len(ivs); j++ {
				if ivs[i].Start <= ivs[j].End && ivs[j].Start <= ivs[i].End {
					t.Fatalf("%s assigned to overlapping intervals", pr.Repr())
				}
			}
		}
	}
}

func TestLinearScanReusesExpired(t *testing.T) {
	pool := mir.NewOperandPool()

	a := &Interval{VReg: pool.NewVirtReg(), Start: 0, End: 1}
	b := &Interval{VReg: pool.NewVirtReg(), Start: 2, End: 3}

	alloc := AllocateRegisters([]*Interval{a, b})

	if len(alloc.Spills) != 0 {
		t.Fatal("nothing should spill")
	}

	if alloc.Regs[a.VReg] != alloc.Regs[b.VReg] {
		t.Fatal("expired interval's register not reused")
	}
}

func TestLinearScanSpillsFurthestEnd(t *testing.T) {
	pool := mir.NewOperandPool()

	var intervals []*Interval
	for i := 0; i < len(allocatable); i++ {
		intervals = append(intervals, &Interval{VReg: pool.NewVirtReg(), Start: 0, End: 100})
	}

	short := &Interval{VReg: pool.NewVirtReg(), Start: 1, End: 2}
	intervals = append(intervals, short)

	alloc := AllocateRegisters(intervals)

	// The short newcomer must get a register; one long interval spills.
	if _, ok := alloc.Regs[short.VReg]; !ok {
		t.Fatal("short interval should displace a long-lived one")
	}

	if len(alloc.Spills) != 1 {
		t.Fatalf("got %d spills, want 1", len(alloc.Spills))
	}
}

// -----------------------------------------------------------------------------

func TestManyLocalsEndToEnd(t *testing.T) {
	// A function with many stack locals drives the whole backend: frame
	// layout, allocation, and rewriting must produce pure physical-register
	// assembly.
	sb := strings.Builder{}
	sb.WriteString("int f(int a, int b) {\n")
	for i := 0; i < 16; i++ {
		sb.WriteString("int t")
		sb.WriteByte(byte('a' + i))
		sb.WriteString(";\n")
		sb.WriteString("t")
		sb.WriteByte(byte('a' + i))
		sb.WriteString(" = a + b;\n")
	}
	sb.WriteString("return a + b;\n}\n")

	mod := compileSource(t, sb.String())
	prog := Select(mod)
	Compile(prog)

	asm := EmitString(prog)
	if !strings.Contains(asm, "f:") {
		t.Fatal("assembly missing the function label")
	}

	if strings.Contains(asm, "vr") {
		t.Fatal("virtual register leaked into assembly")
	}
}

func TestEmitEndToEnd(t *testing.T) {
	mod := compileSource(t, `
		static int counter = 3;

		int f(int x) {
			counter = counter + x;
			return counter;
		}
	`)

	prog := Select(mod)
	Compile(prog)
	asm := EmitString(prog)

	for _, want := range []string{
		"\t.text",
		"\t.global f",
		"f:",
		"\tpush {",
		"\tpop {",
		"\t.data",
		"counter:",
		"\t.word 3",
	} {
		if !strings.Contains(asm, want) {
			t.Errorf("assembly missing %q:\n%s", want, asm)
		}
	}

	// counter is static: no .global for it.
	if strings.Contains(asm, ".global counter") {
		t.Error("internal symbol emitted as global")
	}

	// No virtual registers survive allocation.
	if strings.Contains(asm, "vr") {
		t.Errorf("virtual register leaked into assembly:\n%s", asm)
	}
}

// -----------------------------------------------------------------------------

func TestPeepholeSelfMove(t *testing.T) {
	f := &mir.Func{Name: "f", Pool: mir.NewOperandPool()}

	f.Append(mir.NewInst(mir.MOV, mir.Reg(0), mir.Reg(0)))
	f.Append(mir.NewInst(mir.MOV, mir.Reg(0), mir.Reg(1)))

	Peephole(f)

	if len(f.Insts) != 1 {
		t.Fatalf("got %d instructions, want 1", len(f.Insts))
	}
}

func TestPeepholeBranchToNext(t *testing.T) {
	f := &mir.Func{Name: "f", Pool: mir.NewOperandPool()}
	label := f.Pool.Label(".L0")

	f.Append(mir.NewInst(mir.B, nil, label))
	f.Append(&mir.Inst{Op: mir.LABEL, Oprs: []mir.Operand{label}})

	other := f.Pool.Label(".L1")
	f.Append(mir.NewInst(mir.B, nil, other))
	f.Append(&mir.Inst{Op: mir.LABEL, Oprs: []mir.Operand{f.Pool.Label(".L2")}})

	Peephole(f)

	// The first branch collapses; the second branches elsewhere and stays.
	if len(f.Insts) != 3 {
		t.Fatalf("got %d instructions, want 3", len(f.Insts))
	}

	if f.Insts[0].Op != mir.LABEL {
		t.Fatal("wrong instruction removed")
	}
}
