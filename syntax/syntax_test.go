package syntax

import (
	"bufio"
	"strings"
	"testing"

	"mmcc/ast"
	"mmcc/report"
)

func init() {
	report.InitReporter(report.LogLevelSilent)
}

func lexAll(t *testing.T, src string) []*Token {
	t.Helper()

	l := NewLexer("test.c", bufio.NewReader(strings.NewReader(src)))

	var toks []*Token
	for {
		tok, ok := l.NextToken()
		if !ok {
			t.Fatal("lexical error")
		}

		if tok.Kind == TOK_EOF {
			return toks
		}

		toks = append(toks, tok)
	}
}

func TestLexBasics(t *testing.T) {
	toks := lexAll(t, "int x = 0x1f + 010; // comment\nchar c = 'a';")

	kinds := []int{
		TOK_INT, TOK_IDENT, TOK_ASSIGN, TOK_INTLIT, TOK_PLUS, TOK_INTLIT, TOK_SEMI,
		TOK_CHAR, TOK_IDENT, TOK_ASSIGN, TOK_CHARLIT, TOK_SEMI,
	}

	if len(toks) != len(kinds) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(kinds))
	}

	for i, k := range kinds {
		if toks[i].Kind != k {
			t.Fatalf("token %d: kind %d, want %d (%q)", i, toks[i].Kind, k, toks[i].Value)
		}
	}

	// Hex and octal literals normalize to decimal spellings.
	if toks[3].Value != "31" || toks[5].Value != "8" {
		t.Errorf("literal values %q, %q", toks[3].Value, toks[5].Value)
	}
}

func TestLexOperators(t *testing.T) {
	toks := lexAll(t, "a <<= b >> c <= d -> e")

	kinds := []int{TOK_IDENT, TOK_LSHIFTASSIGN, TOK_IDENT, TOK_RSHIFT, TOK_IDENT,
		TOK_LTEQ, TOK_IDENT, TOK_ARROW, TOK_IDENT}

	for i, k := range kinds {
		if toks[i].Kind != k {
			t.Fatalf("token %d: kind %d, want %d", i, toks[i].Kind, k)
		}
	}
}

func TestLexPositions(t *testing.T) {
	toks := lexAll(t, "int\n  x;")

	x := toks[1]
	if x.Span.StartLine != 1 || x.Span.StartCol != 2 {
		t.Errorf("x at %d:%d, want 1:2", x.Span.StartLine, x.Span.StartCol)
	}
}

// -----------------------------------------------------------------------------

func parseSrc(t *testing.T, src string) []ast.ASTDef {
	t.Helper()

	report.InitReporter(report.LogLevelSilent)
	p := NewParser("test.c", bufio.NewReader(strings.NewReader(src)))
	defs := p.Parse()

	if !report.ShouldProceed() {
		t.Fatal("parse failed")
	}

	return defs
}

func TestParseFunction(t *testing.T) {
	defs := parseSrc(t, `
		int fib(int n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
	`)

	if len(defs) != 1 {
		t.Fatalf("got %d definitions", len(defs))
	}

	fd, ok := defs[0].(*ast.FuncDef)
	if !ok || fd.Name != "fib" || len(fd.Params) != 1 || fd.Body == nil {
		t.Fatal("function definition shape wrong")
	}

	if len(fd.Body.Stmts) != 2 {
		t.Fatalf("body has %d statements", len(fd.Body.Stmts))
	}

	if _, ok := fd.Body.Stmts[0].(*ast.If); !ok {
		t.Fatal("first statement is not an if")
	}
}

func TestParsePrecedence(t *testing.T) {
	defs := parseSrc(t, "int x = 1 + 2 * 3;")

	decl := defs[0].(*ast.VarDecl)
	add := decl.Defs[0].Init.(*ast.Binary)

	if add.Op != ast.BinAdd {
		t.Fatal("top operator should be +")
	}

	mul, ok := add.RHS.(*ast.Binary)
	if !ok || mul.Op != ast.BinMul {
		t.Fatal("* must bind tighter than +")
	}
}

func TestParseCompoundAssignDesugar(t *testing.T) {
	defs := parseSrc(t, "void f() { int a; a += 2; }")

	body := defs[0].(*ast.FuncDef).Body
	stmt := body.Stmts[1].(*ast.ExprStmt)

	assign := stmt.Expr.(*ast.Binary)
	if assign.Op != ast.BinAssign {
		t.Fatal("compound assignment must desugar to an assignment")
	}

	rhs, ok := assign.RHS.(*ast.Binary)
	if !ok || rhs.Op != ast.BinAdd {
		t.Fatal("desugared right side must repeat the operation")
	}
}

func TestParseStructEnumTypedef(t *testing.T) {
	defs := parseSrc(t, `
		struct point { int x; int y; };
		enum color { RED, GREEN = 5, BLUE };
		typedef unsigned int size_t;
		size_t total;
		struct point origin;
	`)

	if len(defs) != 5 {
		t.Fatalf("got %d definitions", len(defs))
	}

	if sd := defs[0].(*ast.StructDef); len(sd.Fields) != 2 {
		t.Fatal("struct fields wrong")
	}

	if ed := defs[1].(*ast.EnumDef); len(ed.Elems) != 3 || ed.Elems[1].Expr == nil {
		t.Fatal("enum elements wrong")
	}

	// The typedef name is usable as a type afterwards.
	decl := defs[3].(*ast.VarDecl)
	if _, ok := decl.DeclType.(*ast.UserTypeExpr); !ok {
		t.Fatal("alias not recognized as a type")
	}
}

func TestParseArraysAndPointers(t *testing.T) {
	defs := parseSrc(t, `
		static int tbl[4] = {1, 2, 3, 4};
		int sum(int *p, int xs[]) { return p[0] + xs[1]; }
	`)

	decl := defs[0].(*ast.VarDecl)
	if !decl.Static || len(decl.Defs[0].Dims) != 1 {
		t.Fatal("static array declaration shape wrong")
	}

	if _, ok := decl.Defs[0].Init.(*ast.InitList); !ok {
		t.Fatal("initializer list missing")
	}

	fd := defs[1].(*ast.FuncDef)
	if _, ok := fd.Params[0].ParamType.(*ast.PointerTypeExpr); !ok {
		t.Fatal("pointer parameter shape wrong")
	}

	if len(fd.Params[1].Dims) != 1 {
		t.Fatal("array parameter dimension missing")
	}
}

func TestParseErrorReported(t *testing.T) {
	report.InitReporter(report.LogLevelSilent)

	p := NewParser("test.c", bufio.NewReader(strings.NewReader("int f( {")))
	p.Parse()

	if report.ShouldProceed() {
		t.Fatal("syntax error not reported")
	}
}
