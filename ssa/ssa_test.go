package ssa

import (
	"strings"
	"testing"

	"mmcc/report"
	"mmcc/types"
)

func init() {
	report.InitReporter(report.LogLevelSilent)
}

func testFunc(t *testing.T) (*Module, *Function, *BasicBlock) {
	t.Helper()

	mod := NewModule("test.c")
	sig := &types.FuncType{
		ParamTypes: []types.Type{types.PrimInt32},
		ReturnType: types.PrimInt32,
	}
	f := mod.NewFunction("f", sig, LinkExternal)
	f.Params()[0].Name = "x"

	return mod, f, f.NewBlock("entry")
}

// checkUsesExact verifies the central invariant: a value's use set equals
// the multiset of operand slots referencing it.
func checkUsesExact(t *testing.T, f *Function) {
	t.Helper()

	// Gather every operand slot in the function.
	found := make(map[*Use]bool)
	for _, b := range f.Blocks() {
		for _, inst := range b.Insts() {
			for _, u := range inst.Operands() {
				found[u] = true
			}
		}
	}

	for _, b := range f.Blocks() {
		for _, inst := range b.Insts() {
			for _, u := range inst.Operands() {
				if u.Value() == nil {
					continue
				}

				present := false
				for _, vu := range u.Value().Uses() {
					if vu == u {
						present = true
						break
					}
				}

				if !present {
					t.Fatal("operand slot missing from its value's use list")
				}
			}

			for _, u := range inst.Uses() {
				if u.User().Operand(u.Index()) != inst {
					t.Fatal("use edge does not point back at the value")
				}

				if inUse, ok := u.User().(Inst); ok && inUse.Parent() != nil && !found[u] {
					t.Fatal("use edge from a slot that no longer exists")
				}
			}
		}
	}
}

func TestUseListBookkeeping(t *testing.T) {
	mod, f, b := testFunc(t)
	x := f.Params()[0]

	one := mod.Int(1, types.PrimInt32)
	mul := NewBinary(OpMul, types.PrimInt32, x, one)
	b.Append(mul)
	b.Append(NewRet(mul))

	if len(x.Uses()) != 1 || len(mul.Uses()) != 1 {
		t.Fatal("use counts wrong after construction")
	}

	checkUsesExact(t, f)

	// SetOperand removes the old edge and installs the new one.
	mul.SetOperand(1, x)
	if len(one.Uses()) != 0 {
		t.Fatal("old operand kept a use edge after SetOperand")
	}
	if len(x.Uses()) != 2 {
		t.Fatal("new operand did not gain a use edge")
	}

	checkUsesExact(t, f)
}

func TestReplaceAllUsesWith(t *testing.T) {
	mod, f, b := testFunc(t)
	x := f.Params()[0]

	mul := NewBinary(OpMul, types.PrimInt32, x, mod.Int(1, types.PrimInt32))
	b.Append(mul)
	add := NewBinary(OpAdd, types.PrimInt32, mul, mod.Int(0, types.PrimInt32))
	b.Append(add)
	b.Append(NewRet(add))

	ReplaceAllUsesWith(mul, x)

	if len(mul.Uses()) != 0 {
		t.Fatal("replaced value still has uses")
	}

	if add.LHS() != x {
		t.Fatal("operand slot not rewritten to the replacement")
	}

	// Now removable.
	b.Remove(mul)

	if b.NumInsts() != 2 {
		t.Fatalf("block has %d instructions, want 2", b.NumInsts())
	}

	checkUsesExact(t, f)
}

func TestEraseClearsOperandUses(t *testing.T) {
	mod, f, b := testFunc(t)
	x := f.Params()[0]

	add := NewBinary(OpAdd, types.PrimInt32, x, mod.Int(3, types.PrimInt32))
	b.Append(add)
	b.Append(NewRet(mod.Int(0, types.PrimInt32)))

	b.Remove(add)

	if len(x.Uses()) != 0 {
		t.Fatal("erased instruction left a dangling use on its operand")
	}

	_ = f
}

func TestConstantDeduplication(t *testing.T) {
	mod := NewModule("test.c")

	a := mod.Int(42, types.PrimInt32)
	b := mod.Int(42, types.PrimInt32)
	c := mod.Int(42, types.PrimUInt32)

	if a != b {
		t.Error("same-typed integer constants must share identity")
	}

	if a == c {
		t.Error("differently-typed constants must not share identity")
	}

	if mod.Str("hi") != mod.Str("hi") {
		t.Error("string constants must be deduplicated")
	}

	if mod.Zero(types.PrimInt32) != mod.Zero(types.PrimInt32) {
		t.Error("zero constants must be deduplicated")
	}
}

func TestTerminatorInvariant(t *testing.T) {
	mod, f, b := testFunc(t)

	b.Append(NewRet(mod.Int(0, types.PrimInt32)))

	if b.Terminator() == nil {
		t.Fatal("terminator not recognized")
	}

	_ = f
}

func TestPhiIncomingRemoval(t *testing.T) {
	mod, f, _ := testFunc(t)

	b1 := f.NewBlock("left")
	b2 := f.NewBlock("right")
	join := f.NewBlock("join")

	phi := NewPhi(types.PrimInt32)
	join.Append(phi)
	phi.AddIncoming(mod.Int(1, types.PrimInt32), b1)
	phi.AddIncoming(mod.Int(2, types.PrimInt32), b2)

	if phi.NumIncoming() != 2 {
		t.Fatal("wrong incoming count")
	}

	phi.RemoveIncoming(b1)

	if phi.NumIncoming() != 1 || phi.IncomingBlock(0) != b2 {
		t.Fatal("matching incoming pair not removed")
	}

	if len(b1.Uses()) != 0 {
		t.Fatal("removed incoming left a use on the block")
	}
}

func TestDominators(t *testing.T) {
	mod, f, entry := testFunc(t)
	x := f.Params()[0]

	thenB := f.NewBlock("then")
	elseB := f.NewBlock("else")
	exitB := f.NewBlock("exit")

	cmp := NewBinary(OpSGt, types.PrimInt32, x, mod.Int(0, types.PrimInt32))
	entry.Append(cmp)
	entry.Append(NewBranch(cmp, thenB, elseB))
	thenB.Append(NewJump(exitB))
	elseB.Append(NewJump(exitB))
	exitB.Append(NewRet(mod.Int(0, types.PrimInt32)))

	if !f.BlockDominates(entry, exitB) {
		t.Error("entry must dominate the exit")
	}

	if f.BlockDominates(thenB, exitB) {
		t.Error("a single arm must not dominate the join")
	}

	if f.IDom(exitB) != entry {
		t.Error("join's immediate dominator must be the entry")
	}

	// Instruction-level dominance within a block follows list order.
	if !Dominates(cmp, entry.Terminator()) {
		t.Error("earlier instruction must dominate later one in the same block")
	}
}

func TestDomInvalidation(t *testing.T) {
	mod, f, entry := testFunc(t)

	exitB := f.NewBlock("exit")
	entry.Append(NewJump(exitB))
	exitB.Append(NewRet(mod.Int(0, types.PrimInt32)))

	if f.IDom(exitB) != entry {
		t.Fatal("bad idom before edit")
	}

	// Splicing a block in between invalidates the cached tree.
	mid := f.NewBlock("mid")
	term := entry.Terminator()
	ReplaceAllUsesWith(exitB, mid)
	mid.Append(NewJump(exitB))

	if f.IDom(exitB) != mid {
		t.Fatal("dominator tree not recomputed after CFG edit")
	}

	_ = term
}

func TestBuilderPromotion(t *testing.T) {
	mod := NewModule("test.c")
	sig := &types.FuncType{
		ParamTypes: []types.Type{types.PrimInt8, types.PrimUInt32},
		ReturnType: types.PrimInt32,
	}
	f := mod.NewFunction("g", sig, LinkExternal)

	b := NewBuilder(mod)
	b.SetBlock(f.NewBlock("entry"))

	sum := b.CreateBinary(OpAdd, f.Params()[0], f.Params()[1])

	if !types.Equals(sum.Type(), types.PrimUInt32) {
		t.Errorf("sum type %s, want u32", sum.Type().Repr())
	}

	// The i8 operand must have been widened through a cast.
	if _, ok := sum.(*BinaryInst).LHS().(*CastInst); !ok {
		t.Error("narrow operand was not promoted through a cast")
	}
}

func TestDumpStable(t *testing.T) {
	mod, f, b := testFunc(t)
	x := f.Params()[0]

	add := NewBinary(OpAdd, types.PrimInt32, x, mod.Int(7, types.PrimInt32))
	b.Append(add)
	b.Append(NewRet(add))

	first := DumpString(mod)
	second := DumpString(mod)

	if first != second {
		t.Fatal("module dump is not deterministic")
	}

	for _, want := range []string{"func @f", "%entry0:", "add i32 %x, 7 : i32", "ret %0"} {
		if !strings.Contains(first, want) {
			t.Errorf("dump missing %q:\n%s", want, first)
		}
	}
}
