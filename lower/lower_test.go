package lower

import (
	"bufio"
	"strings"
	"testing"

	"mmcc/report"
	"mmcc/sema"
	"mmcc/ssa"
	"mmcc/syntax"
	"mmcc/types"
)

func lowerSrc(t *testing.T, src string) *ssa.Module {
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

	mod := Lower("test.c", defs, an.Eval())

	if !report.ShouldProceed() {
		t.Fatal("lowering failed")
	}

	return mod
}

// checkInvariants verifies the structural SSA invariants over a whole
// module: every block ends with exactly one terminator, terminators appear
// only at block ends, and use lists are exact.
func checkInvariants(t *testing.T, mod *ssa.Module) {
	t.Helper()

	for _, f := range mod.Functions() {
		for _, b := range f.Blocks() {
			insts := b.Insts()
			if len(insts) == 0 {
				t.Fatalf("%s: empty block %s", f.Name, b.Name)
			}

			for i, inst := range insts {
				isLast := i == len(insts)-1

				if inst.IsTerminator() != isLast {
					t.Fatalf("%s: terminator misplaced in block %s", f.Name, b.Name)
				}

				for _, u := range inst.Operands() {
					if u.Value() == nil {
						t.Fatalf("%s: nil operand", f.Name)
					}

					found := false
					for _, vu := range u.Value().Uses() {
						if vu == u {
							found = true
						}
					}

					if !found {
						t.Fatalf("%s: operand slot missing from use list", f.Name)
					}
				}
			}
		}
	}
}

func TestLowerStraightLine(t *testing.T) {
	mod := lowerSrc(t, "int f(int x) { return x * 1 + 0; }")
	checkInvariants(t, mod)

	f := mod.FunctionByName("f")
	if f == nil || len(f.Blocks()) != 1 {
		t.Fatal("single-block function expected")
	}

	// The unmutated parameter binds directly: the multiply's operand is the
	// parameter value itself.
	dump := ssa.DumpString(mod)
	if !strings.Contains(dump, "mul i32 %x, 1 : i32") {
		t.Errorf("parameter not bound directly:\n%s", dump)
	}
}

func TestLowerWhileShape(t *testing.T) {
	mod := lowerSrc(t, `
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
	checkInvariants(t, mod)

	f := mod.FunctionByName("f")

	// entry, header, body, exit.
	if len(f.Blocks()) != 4 {
		t.Fatalf("got %d blocks, want 4", len(f.Blocks()))
	}

	header := f.Blocks()[1]
	if len(header.Preds()) != 2 {
		t.Fatalf("loop header has %d preds, want entry + back edge", len(header.Preds()))
	}

	if len(header.Succs()) != 2 {
		t.Fatal("loop header must branch to body and exit")
	}
}

func TestLowerShortCircuit(t *testing.T) {
	mod := lowerSrc(t, `
		int f(int a, int b) {
			if (a && b) return 1;
			return 0;
		}
	`)
	checkInvariants(t, mod)

	f := mod.FunctionByName("f")
	if len(f.Blocks()) < 4 {
		t.Fatal("short-circuit must introduce control flow")
	}
}

func TestLowerGlobals(t *testing.T) {
	mod := lowerSrc(t, `
		static int tbl[4] = {1, 2};
		int g = 7;
		int f() { return g + tbl[1]; }
	`)
	checkInvariants(t, mod)

	var tbl, g *ssa.GlobalVar
	for _, v := range mod.TopLevel() {
		if gv, ok := v.(*ssa.GlobalVar); ok {
			switch gv.Name {
			case "tbl":
				tbl = gv
			case "g":
				g = gv
			}
		}
	}

	if tbl == nil || tbl.Link != ssa.LinkInternal {
		t.Fatal("static global must have internal linkage")
	}

	if g == nil || g.Link != ssa.LinkExternal {
		t.Fatal("plain global must have external linkage")
	}

	// The initializer zero-fills the unwritten tail.
	init, ok := tbl.Init().(*ssa.ArrayConst)
	if !ok || init.NumOperands() != 4 {
		t.Fatal("array initializer shape wrong")
	}

	if _, isZero := init.Operand(2).(*ssa.ZeroConst); !isZero {
		t.Fatal("unwritten tail not zero-filled")
	}
}

func TestLowerEnumConstants(t *testing.T) {
	mod := lowerSrc(t, `
		enum e { A, B = 41 };
		int f() { return B + 1; }
	`)
	checkInvariants(t, mod)

	// B + 1 is a constant expression: it lowers to 42 directly.
	dump := ssa.DumpString(mod)
	if !strings.Contains(dump, "ret 42 : i32") {
		t.Errorf("enum constant not folded during lowering:\n%s", dump)
	}
}

func TestLowerInlineLinkage(t *testing.T) {
	mod := lowerSrc(t, `
		inline int helper(int x) { return x + 1; }
		static int hidden() { return 1; }
		int f() { return helper(1) + hidden(); }
	`)

	if mod.FunctionByName("helper").Link != ssa.LinkInline {
		t.Error("inline function must have inline linkage")
	}

	if mod.FunctionByName("hidden").Link != ssa.LinkInternal {
		t.Error("static function must have internal linkage")
	}
}

func TestLowerImplicitReturn(t *testing.T) {
	mod := lowerSrc(t, "void f(int x) { x = 1; }")
	checkInvariants(t, mod)

	f := mod.FunctionByName("f")
	term := f.Blocks()[len(f.Blocks())-1].Terminator()

	ret, ok := term.(*ssa.RetInst)
	if !ok || ret.Val() != nil {
		t.Fatal("void function must end in a bare return")
	}
}

func TestLowerPointerArithmetic(t *testing.T) {
	mod := lowerSrc(t, `
		int f(int *p) { return *(p + 2); }
	`)
	checkInvariants(t, mod)

	f := mod.FunctionByName("f")

	foundElemPtr := false
	for _, inst := range f.Entry().Insts() {
		if ep, ok := inst.(*ssa.ElemPtrInst); ok {
			foundElemPtr = true

			if !types.IsPointer(ep.Type()) {
				t.Fatal("pointer arithmetic must yield a pointer")
			}
		}
	}

	if !foundElemPtr {
		t.Fatal("pointer arithmetic did not lower to an element pointer")
	}
}
