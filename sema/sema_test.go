package sema

import (
	"bufio"
	"strings"
	"testing"

	"mmcc/ast"
	"mmcc/report"
	"mmcc/syntax"
	"mmcc/types"
)

func analyzeSrc(t *testing.T, src string) (*Analyzer, []ast.ASTDef) {
	t.Helper()

	report.InitReporter(report.LogLevelSilent)
	p := syntax.NewParser("test.c", bufio.NewReader(strings.NewReader(src)))
	defs := p.Parse()

	if !report.ShouldProceed() {
		t.Fatal("parse failed")
	}

	an := NewAnalyzer("test.c")
	an.Analyze(defs)
	return an, defs
}

func TestAnalyzeWellTyped(t *testing.T) {
	analyzeSrc(t, `
		int add(int a, int b) { return a + b; }
		int main() { return add(1, 2); }
	`)

	if !report.ShouldProceed() {
		t.Fatal("well-typed program rejected")
	}
}

func TestUndefinedIdentifier(t *testing.T) {
	analyzeSrc(t, "int f() { return missing; }")

	if report.ShouldProceed() {
		t.Fatal("use of an undefined identifier not reported")
	}
}

func TestAssignToConst(t *testing.T) {
	analyzeSrc(t, `
		int f() {
			const int k = 3;
			k = 4;
			return k;
		}
	`)

	if report.ShouldProceed() {
		t.Fatal("assignment to a const left-value not rejected")
	}
}

func TestAssignToRValue(t *testing.T) {
	analyzeSrc(t, "int f(int x) { (x + 1) = 2; return x; }")

	if report.ShouldProceed() {
		t.Fatal("assignment to a right-value not rejected")
	}
}

func TestSubscriptOutOfBoundsWarns(t *testing.T) {
	analyzeSrc(t, `
		int f() {
			int a[4];
			return a[4];
		}
	`)

	if !report.ShouldProceed() {
		t.Fatal("subscript at len rejected instead of warned")
	}

	if report.WarningCount() == 0 {
		t.Fatal("subscript at exactly len must warn")
	}
}

func TestStructRecursionRejected(t *testing.T) {
	// Nesting one struct by value in another is legal; a struct containing
	// itself by value is rejected.
	analyzeSrc(t, `
		struct a { int x; };
		struct b { struct a inner; };
	`)

	if !report.ShouldProceed() {
		t.Fatal("legal nesting rejected")
	}

	analyzeSrc(t, `
		struct c { struct c self; };
	`)

	if report.ShouldProceed() {
		t.Fatal("direct recursion not rejected")
	}
}

func TestAliasScopeSeparateFromEnums(t *testing.T) {
	an, _ := analyzeSrc(t, `
		enum color { RED };
		typedef int color_t;
	`)

	if !report.ShouldProceed() {
		t.Fatal("program rejected")
	}

	// The alias must be resolvable through the alias namespace.
	if _, ok := an.Table().LookupAlias("color_t"); !ok {
		t.Fatal("typedef not in the alias scope")
	}

	if an.Table().LookupEnum("color_t") {
		t.Fatal("typedef leaked into the enum scope")
	}

	if !an.Table().LookupEnum("color") {
		t.Fatal("enum name missing from the enum scope")
	}
}

func TestEnumValues(t *testing.T) {
	an, _ := analyzeSrc(t, "enum e { A, B = 5, C };")

	cases := map[string]int32{"A": 0, "B": 5, "C": 6}
	for name, want := range cases {
		val, ok := an.Eval().GlobalConst(name)
		if !ok || val != want {
			t.Errorf("%s = %d (known %v), want %d", name, val, ok, want)
		}
	}
}

func TestConstEvaluation(t *testing.T) {
	an, defs := analyzeSrc(t, `
		const int N = 4 * 8;
		int tbl[N * 2];
	`)

	if !report.ShouldProceed() {
		t.Fatal("constant-sized array rejected")
	}

	decl := defs[1].(*ast.VarDecl)
	at, ok := types.Unqual(decl.Defs[0].VarType).(*types.ArrayType)
	if !ok || at.Len != 64 {
		t.Fatalf("array type %s, want length 64", decl.Defs[0].VarType.Repr())
	}

	_ = an
}

func TestBreakOutsideLoop(t *testing.T) {
	analyzeSrc(t, "int f() { break; return 0; }")

	if report.ShouldProceed() {
		t.Fatal("break outside a loop not rejected")
	}
}

func TestCallArity(t *testing.T) {
	analyzeSrc(t, `
		int g(int a, int b) { return a; }
		int f() { return g(1); }
	`)

	if report.ShouldProceed() {
		t.Fatal("wrong argument count not rejected")
	}
}

func TestVoidReturnMismatch(t *testing.T) {
	analyzeSrc(t, "void f() { return 3; }")

	if report.ShouldProceed() {
		t.Fatal("returning a value from void not rejected")
	}
}

func TestScopeRelease(t *testing.T) {
	// A name from an inner scope must not leak into the outer one.
	analyzeSrc(t, `
		int f() {
			{ int inner; inner = 1; }
			return inner;
		}
	`)

	if report.ShouldProceed() {
		t.Fatal("inner-scope name visible after scope exit")
	}
}
