package passes

import (
	"testing"

	"mmcc/opt"
	"mmcc/report"
	"mmcc/ssa"
	"mmcc/types"
)

func init() {
	report.InitReporter(report.LogLevelSilent)
}

func newFunc(mod *ssa.Module, name string, link ssa.Linkage) (*ssa.Function, *ssa.BasicBlock) {
	sig := &types.FuncType{
		ParamTypes: []types.Type{types.PrimInt32},
		ReturnType: types.PrimInt32,
	}
	f := mod.NewFunction(name, sig, link)
	f.Params()[0].Name = "x"

	return f, f.NewBlock("entry")
}

// -----------------------------------------------------------------------------

func TestAlgebraicIdentity(t *testing.T) {
	// return x * 1 + 0  =>  return x
	mod := ssa.NewModule("test.c")
	f, b := newFunc(mod, "f", ssa.LinkExternal)
	x := f.Params()[0]

	mul := ssa.NewBinary(ssa.OpMul, types.PrimInt32, x, mod.Int(1, types.PrimInt32))
	b.Append(mul)
	add := ssa.NewBinary(ssa.OpAdd, types.PrimInt32, mul, mod.Int(0, types.PrimInt32))
	b.Append(add)
	b.Append(ssa.NewRet(add))

	pass := &AlgebraicSimp{}
	if !pass.RunOnBlock(b) {
		t.Fatal("pass reported no change")
	}

	insts := b.Insts()
	if len(insts) != 1 {
		t.Fatalf("block has %d instructions, want just the return", len(insts))
	}

	ret := insts[0].(*ssa.RetInst)
	if ret.Val() != x {
		t.Fatal("return operand is not the parameter value")
	}

	// Idempotence: a second run must change nothing.
	if pass.RunOnBlock(b) {
		t.Fatal("pass not idempotent")
	}
}

func TestPowerOfTwoDivision(t *testing.T) {
	// return x / 8  =>  return x >> 3 (arithmetic)
	mod := ssa.NewModule("test.c")
	f, b := newFunc(mod, "f", ssa.LinkExternal)
	x := f.Params()[0]

	div := ssa.NewBinary(ssa.OpSDiv, types.PrimInt32, x, mod.Int(8, types.PrimInt32))
	b.Append(div)
	b.Append(ssa.NewRet(div))

	if !(&AlgebraicSimp{}).RunOnBlock(b) {
		t.Fatal("pass reported no change")
	}

	insts := b.Insts()
	shift, ok := insts[0].(*ssa.BinaryInst)
	if !ok || shift.Op != ssa.OpAShr {
		t.Fatal("division not strength-reduced to an arithmetic shift")
	}

	k, _ := ssa.AsIntConst(shift.RHS())
	if k == nil || k.Val != 3 {
		t.Fatal("wrong shift amount")
	}

	if insts[1].(*ssa.RetInst).Val() != shift {
		t.Fatal("return does not use the shift")
	}
}

func TestSameOperandIdentities(t *testing.T) {
	mod := ssa.NewModule("test.c")
	f, b := newFunc(mod, "f", ssa.LinkExternal)
	x := f.Params()[0]

	sub := ssa.NewBinary(ssa.OpSub, types.PrimInt32, x, x)
	b.Append(sub)
	and := ssa.NewBinary(ssa.OpAnd, types.PrimInt32, x, x)
	b.Append(and)
	xor := ssa.NewBinary(ssa.OpXor, types.PrimInt32, x, x)
	b.Append(xor)
	sum := ssa.NewBinary(ssa.OpAdd, types.PrimInt32, sub, xor)
	b.Append(sum)
	sum2 := ssa.NewBinary(ssa.OpAdd, types.PrimInt32, sum, and)
	b.Append(sum2)
	b.Append(ssa.NewRet(sum2))

	(&AlgebraicSimp{}).RunOnBlock(b)

	// x-x and x^x fold to 0, x&x folds to x, 0+0 folds to 0, 0+x folds to
	// x: the whole chain collapses to the parameter.
	if b.Insts()[len(b.Insts())-1].(*ssa.RetInst).Val() != x {
		t.Fatal("identity chain did not collapse to the parameter")
	}
}

func TestDivisionByZeroPreserved(t *testing.T) {
	mod := ssa.NewModule("test.c")
	f, b := newFunc(mod, "f", ssa.LinkExternal)
	x := f.Params()[0]

	div := ssa.NewBinary(ssa.OpSDiv, types.PrimInt32, x, mod.Int(0, types.PrimInt32))
	b.Append(div)
	b.Append(ssa.NewRet(div))

	warningsBefore := report.WarningCount()

	if (&AlgebraicSimp{}).RunOnBlock(b) {
		t.Fatal("division by zero must not set the change flag")
	}

	if report.WarningCount() == warningsBefore {
		t.Fatal("no warning emitted for division by zero")
	}

	if len(b.Insts()) != 2 {
		t.Fatal("instruction was removed")
	}
}

// -----------------------------------------------------------------------------

func TestConstFold(t *testing.T) {
	mod := ssa.NewModule("test.c")
	_, b := newFunc(mod, "f", ssa.LinkExternal)

	add := ssa.NewBinary(ssa.OpAdd, types.PrimInt32, mod.Int(2, types.PrimInt32), mod.Int(3, types.PrimInt32))
	b.Append(add)
	b.Append(ssa.NewRet(add))

	if !(&ConstFold{}).RunOnBlock(b) {
		t.Fatal("pass reported no change")
	}

	ret := b.Insts()[0].(*ssa.RetInst)
	c, _ := ssa.AsIntConst(ret.Val())
	if c == nil || c.Val != 5 {
		t.Fatal("2 + 3 did not fold to 5")
	}
}

func TestConstFoldWraps(t *testing.T) {
	mod := ssa.NewModule("test.c")
	_, b := newFunc(mod, "f", ssa.LinkExternal)

	big := mod.Int(2147483647, types.PrimInt32)
	add := ssa.NewBinary(ssa.OpAdd, types.PrimInt32, big, mod.Int(1, types.PrimInt32))
	b.Append(add)
	b.Append(ssa.NewRet(add))

	(&ConstFold{}).RunOnBlock(b)

	c, _ := ssa.AsIntConst(b.Insts()[0].(*ssa.RetInst).Val())
	if c == nil || c.Val != -2147483648 {
		t.Fatal("signed overflow must wrap two's-complement")
	}
}

func TestConstFoldSkipsDivByZero(t *testing.T) {
	mod := ssa.NewModule("test.c")
	_, b := newFunc(mod, "f", ssa.LinkExternal)

	div := ssa.NewBinary(ssa.OpSDiv, types.PrimInt32, mod.Int(1, types.PrimInt32), mod.Int(0, types.PrimInt32))
	b.Append(div)
	b.Append(ssa.NewRet(div))

	warningsBefore := report.WarningCount()

	if (&ConstFold{}).RunOnBlock(b) {
		t.Fatal("division by zero must not fold")
	}

	if report.WarningCount() == warningsBefore {
		t.Fatal("no warning emitted")
	}

	if _, ok := b.Insts()[0].(*ssa.BinaryInst); !ok {
		t.Fatal("instruction not preserved")
	}
}

// -----------------------------------------------------------------------------

func TestDCEPreservesCalls(t *testing.T) {
	// int f() { g() + 1; return 0; } with external g: the call stays, the
	// unused add on its result goes.
	mod := ssa.NewModule("test.c")

	gSig := &types.FuncType{ReturnType: types.PrimInt32}
	g := mod.NewFunction("g", gSig, ssa.LinkExternal)

	f, b := newFunc(mod, "f", ssa.LinkExternal)

	call := ssa.NewCall(g, nil)
	b.Append(call)
	dead := ssa.NewBinary(ssa.OpAdd, types.PrimInt32, call, mod.Int(1, types.PrimInt32))
	b.Append(dead)
	b.Append(ssa.NewRet(mod.Int(0, types.PrimInt32)))

	if !(&DeadCodeElim{}).RunOnFunction(f) {
		t.Fatal("pass reported no change")
	}

	insts := b.Insts()
	if len(insts) != 2 {
		t.Fatalf("got %d instructions, want call + ret", len(insts))
	}

	if _, ok := insts[0].(*ssa.CallInst); !ok {
		t.Fatal("call with unused result was removed")
	}
}

func TestDCEFixpoint(t *testing.T) {
	// A chain of unused pure instructions disappears entirely.
	mod := ssa.NewModule("test.c")
	f, b := newFunc(mod, "f", ssa.LinkExternal)
	x := f.Params()[0]

	a := ssa.NewBinary(ssa.OpAdd, types.PrimInt32, x, mod.Int(1, types.PrimInt32))
	b.Append(a)
	c := ssa.NewBinary(ssa.OpMul, types.PrimInt32, a, mod.Int(2, types.PrimInt32))
	b.Append(c)
	b.Append(ssa.NewRet(mod.Int(0, types.PrimInt32)))

	before := f.NumInsts()
	(&DeadCodeElim{}).RunOnFunction(f)

	if f.NumInsts() != 1 {
		t.Fatalf("got %d instructions, want 1", f.NumInsts())
	}

	if f.NumInsts() > before {
		t.Fatal("instruction count must be monotone non-increasing")
	}
}

// -----------------------------------------------------------------------------

func TestDGERemovesDeadInternalGlobal(t *testing.T) {
	mod := ssa.NewModule("test.c")

	arr := &types.ArrayType{ElemType: types.PrimInt32, Len: 4}
	mod.NewGlobalVar("unused_tbl", arr, nil, ssa.LinkInternal)

	// A used external global must survive.
	used := mod.NewGlobalVar("live", types.PrimInt32, nil, ssa.LinkExternal)
	f, b := newFunc(mod, "main", ssa.LinkExternal)
	load := ssa.NewLoad(used)
	b.Append(load)
	b.Append(ssa.NewRet(load))

	warningsBefore := report.WarningCount()

	if !(&DeadGlobalElim{}).RunOnModule(mod) {
		t.Fatal("pass reported no change")
	}

	if report.WarningCount() == warningsBefore {
		t.Fatal("removal of a defined internal global must warn")
	}

	for _, v := range mod.TopLevel() {
		if gv, ok := v.(*ssa.GlobalVar); ok && gv.Name == "unused_tbl" {
			t.Fatal("dead internal global not removed")
		}
	}

	if mod.FunctionByName("main") == nil {
		t.Fatal("live function removed")
	}

	_ = f
}

func TestDGERemovesInternalFunctionAndDecl(t *testing.T) {
	mod := ssa.NewModule("test.c")

	// Unused declaration: removable regardless of linkage.
	mod.NewFunction("ext_decl", &types.FuncType{ReturnType: types.PrimVoid}, ssa.LinkExternal)

	// Unused internal function with an (empty) body.
	internal, _ := newFunc(mod, "helper", ssa.LinkInternal)
	_ = internal

	(&DeadGlobalElim{}).RunOnModule(mod)

	if len(mod.TopLevel()) != 0 {
		t.Fatalf("%d top-level values remain, want 0", len(mod.TopLevel()))
	}
}

func TestDGEIdempotent(t *testing.T) {
	mod := ssa.NewModule("test.c")
	mod.NewGlobalVar("dead", types.PrimInt32, nil, ssa.LinkInternal)

	pass := &DeadGlobalElim{}
	if !pass.RunOnModule(mod) {
		t.Fatal("first run must report a change")
	}

	if pass.RunOnModule(mod) {
		t.Fatal("second run must be a no-op")
	}
}

// -----------------------------------------------------------------------------

func TestLocalValueNumbering(t *testing.T) {
	mod := ssa.NewModule("test.c")
	f, b := newFunc(mod, "f", ssa.LinkExternal)
	x := f.Params()[0]

	a1 := ssa.NewBinary(ssa.OpAdd, types.PrimInt32, x, mod.Int(1, types.PrimInt32))
	b.Append(a1)
	a2 := ssa.NewBinary(ssa.OpAdd, types.PrimInt32, x, mod.Int(1, types.PrimInt32))
	b.Append(a2)
	sum := ssa.NewBinary(ssa.OpMul, types.PrimInt32, a1, a2)
	b.Append(sum)
	b.Append(ssa.NewRet(sum))

	if !(&LocalValueNumbering{}).RunOnBlock(b) {
		t.Fatal("pass reported no change")
	}

	if sum.LHS() != sum.RHS() {
		t.Fatal("redundant computation not unified")
	}

	if len(b.Insts()) != 3 {
		t.Fatalf("got %d instructions, want 3", len(b.Insts()))
	}
}

// -----------------------------------------------------------------------------

func TestInliner(t *testing.T) {
	mod := ssa.NewModule("test.c")

	// inline int twice(int x) { return x + x; }
	callee, cb := newFunc(mod, "twice", ssa.LinkInline)
	cx := callee.Params()[0]
	dbl := ssa.NewBinary(ssa.OpAdd, types.PrimInt32, cx, cx)
	cb.Append(dbl)
	cb.Append(ssa.NewRet(dbl))

	// int f(int x) { return twice(x); }
	f, fb := newFunc(mod, "f", ssa.LinkExternal)
	call := ssa.NewCall(callee, []ssa.Value{f.Params()[0]})
	fb.Append(call)
	fb.Append(ssa.NewRet(call))

	if !(&Inliner{}).RunOnModule(mod) {
		t.Fatal("pass reported no change")
	}

	// No calls remain in f.
	for _, blk := range f.Blocks() {
		for _, inst := range blk.Insts() {
			if _, isCall := inst.(*ssa.CallInst); isCall {
				t.Fatal("call site not replaced")
			}
		}
	}

	// The callee body is now unreferenced and DGE can take it.
	if len(callee.Uses()) != 0 {
		t.Fatal("inlined callee still referenced")
	}

	if !(&DeadGlobalElim{}).RunOnModule(mod) {
		t.Fatal("dead inline function not collected")
	}
}

func TestRegisterAll(t *testing.T) {
	opt.ResetRegistry()
	defer opt.ResetRegistry()

	RegisterAll()

	for _, name := range []string{
		"dead_global_elim", "const_fold", "algebraic_simp",
		"inliner", "local_value_numbering", "dead_code_elim",
	} {
		if opt.Lookup(name) == nil {
			t.Errorf("pass `%s` not registered", name)
		}
	}
}

func TestPipelineReachesFixpoint(t *testing.T) {
	opt.ResetRegistry()
	defer opt.ResetRegistry()
	RegisterAll()

	// x * 1 + 0 with a dead internal global alongside: one -O1 Opt stage
	// leaves a single-return function and no dead global.
	mod := ssa.NewModule("test.c")
	mod.NewGlobalVar("unused", types.PrimInt32, nil, ssa.LinkInternal)

	f, b := newFunc(mod, "f", ssa.LinkExternal)
	x := f.Params()[0]
	mul := ssa.NewBinary(ssa.OpMul, types.PrimInt32, x, mod.Int(1, types.PrimInt32))
	b.Append(mul)
	add := ssa.NewBinary(ssa.OpAdd, types.PrimInt32, mul, mod.Int(0, types.PrimInt32))
	b.Append(add)
	b.Append(ssa.NewRet(add))

	before := f.NumInsts()
	opt.NewPassManager(1).RunStage(opt.StageOpt, mod)

	if f.NumInsts() != 1 || f.NumInsts() > before {
		t.Fatalf("got %d instructions after the Opt stage, want 1", f.NumInsts())
	}

	if len(mod.TopLevel()) != 1 {
		t.Fatalf("%d top-level values remain, want just f", len(mod.TopLevel()))
	}
}

func TestInlinerSkipsRecursive(t *testing.T) {
	mod := ssa.NewModule("test.c")

	rec, rb := newFunc(mod, "rec", ssa.LinkInline)
	call := ssa.NewCall(rec, []ssa.Value{rec.Params()[0]})
	rb.Append(call)
	rb.Append(ssa.NewRet(call))

	f, fb := newFunc(mod, "f", ssa.LinkExternal)
	outer := ssa.NewCall(rec, []ssa.Value{f.Params()[0]})
	fb.Append(outer)
	fb.Append(ssa.NewRet(outer))

	if (&Inliner{}).RunOnModule(mod) {
		t.Fatal("recursive function must not be inlined")
	}
}
