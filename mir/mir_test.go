package mir

import "testing"

func TestOperandInterning(t *testing.T) {
	pool := NewOperandPool()

	a := pool.Imm(42)
	b := pool.Imm(42)
	if a != b {
		t.Error("equal immediates must share identity")
	}

	l1 := pool.Label(".L0")
	l2 := pool.Label(".L0")
	if l1 != l2 {
		t.Error("equal labels must share identity")
	}

	v1 := pool.NewVirtReg()
	v2 := pool.NewVirtReg()
	if v1 == v2 || v1.ID == v2.ID {
		t.Error("virtual registers must be distinct")
	}

	if Reg(4) != Reg(4) {
		t.Error("physical registers must be canonical")
	}
}

func TestCondInvert(t *testing.T) {
	pairs := [][2]CondCode{
		{CondEQ, CondNE},
		{CondLT, CondGE},
		{CondLE, CondGT},
		{CondLO, CondHS},
		{CondLS, CondHI},
	}

	for _, p := range pairs {
		if p[0].Invert() != p[1] || p[1].Invert() != p[0] {
			t.Errorf("%s and %s must invert into each other", p[0], p[1])
		}
	}
}

func TestEndsBlockUnconditionally(t *testing.T) {
	pool := NewOperandPool()

	b := NewInst(B, nil, pool.Label(".L1"))
	if !b.EndsBlockUnconditionally() {
		t.Error("unconditional branch ends its block")
	}

	beq := NewCondInst(B, CondEQ, nil, pool.Label(".L1"))
	if beq.EndsBlockUnconditionally() {
		t.Error("conditional branch falls through")
	}

	epilogue := NewInst(POP, nil, Reg(4), PC)
	if !epilogue.EndsBlockUnconditionally() {
		t.Error("popping into pc exits the function")
	}

	push := NewInst(PUSH, nil, Reg(4), LR)
	if push.EndsBlockUnconditionally() {
		t.Error("a push never ends a block")
	}
}

func TestInstRepr(t *testing.T) {
	pool := NewOperandPool()

	add := NewInst(ADD, Reg(0), Reg(1), pool.Imm(4))
	if add.Repr() != "\tadd r0, r1, #4" {
		t.Errorf("bad repr: %q", add.Repr())
	}

	moveq := NewCondInst(MOV, CondEQ, Reg(0), pool.Imm(1))
	if moveq.Repr() != "\tmoveq r0, #1" {
		t.Errorf("bad repr: %q", moveq.Repr())
	}

	mem := &MemOperand{Base: SP, Offset: 8}
	ldr := NewInst(LDR, Reg(0), mem)
	if ldr.Repr() != "\tldr r0, [sp, #8]" {
		t.Errorf("bad repr: %q", ldr.Repr())
	}
}
