package llvmgen

import (
	"strings"
	"testing"

	"mmcc/report"
	"mmcc/ssa"
	"mmcc/types"
)

func init() {
	report.InitReporter(report.LogLevelSilent)
}

func TestGenerateFunction(t *testing.T) {
	mod := ssa.NewModule("test.c")

	sig := &types.FuncType{
		ParamTypes: []types.Type{types.PrimInt32},
		ReturnType: types.PrimInt32,
	}
	f := mod.NewFunction("f", sig, ssa.LinkExternal)
	f.Params()[0].Name = "x"

	b := f.NewBlock("entry")
	add := ssa.NewBinary(ssa.OpAdd, types.PrimInt32, f.Params()[0], mod.Int(1, types.PrimInt32))
	b.Append(add)
	b.Append(ssa.NewRet(add))

	out := Generate(mod)

	for _, want := range []string{"define i32 @f(i32 %x)", "add i32 %x, 1", "ret i32"} {
		if !strings.Contains(out, want) {
			t.Errorf("LLVM output missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateLinkageAndGlobals(t *testing.T) {
	mod := ssa.NewModule("test.c")

	mod.NewGlobalVar("hidden", types.PrimInt32, mod.Int(3, types.PrimInt32), ssa.LinkInternal)

	sig := &types.FuncType{ReturnType: types.PrimVoid}
	helper := mod.NewFunction("helper", sig, ssa.LinkInline)
	hb := helper.NewBlock("entry")
	hb.Append(ssa.NewRet(nil))

	// An external declaration.
	mod.NewFunction("getint", &types.FuncType{ReturnType: types.PrimInt32}, ssa.LinkExternal)

	out := Generate(mod)

	for _, want := range []string{
		"@hidden = internal global i32 3",
		"define internal void @helper()",
		"declare i32 @getint()",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("LLVM output missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateControlFlow(t *testing.T) {
	mod := ssa.NewModule("test.c")

	sig := &types.FuncType{
		ParamTypes: []types.Type{types.PrimInt32},
		ReturnType: types.PrimInt32,
	}
	f := mod.NewFunction("f", sig, ssa.LinkExternal)
	f.Params()[0].Name = "x"

	entry := f.NewBlock("entry")
	thenB := f.NewBlock("then")
	elseB := f.NewBlock("else")

	cmp := ssa.NewBinary(ssa.OpSGt, types.PrimInt32, f.Params()[0], mod.Int(0, types.PrimInt32))
	entry.Append(cmp)
	entry.Append(ssa.NewBranch(cmp, thenB, elseB))
	thenB.Append(ssa.NewRet(mod.Int(1, types.PrimInt32)))
	elseB.Append(ssa.NewRet(mod.Int(0, types.PrimInt32)))

	out := Generate(mod)

	for _, want := range []string{"icmp sgt i32 %x, 0", "br i1", "label %then", "label %else"} {
		if !strings.Contains(out, want) {
			t.Errorf("LLVM output missing %q:\n%s", want, out)
		}
	}
}
