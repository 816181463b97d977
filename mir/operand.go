package mir

import (
	"fmt"
	"strconv"
)

// Operand is a machine-instruction operand.  Register, immediate and label
// operands are interned (per function for virtual registers, immediates and
// labels, per process for physical registers), so two of them are equal
// exactly when their pointers are: liveness sets and allocator maps key on
// Operand directly.  Slot immediates and memory operands are created fresh
// and are not interned.
type Operand interface {
	// Repr returns the operand's assembly spelling.
	Repr() string

	// IsVirtual returns whether the operand is a virtual register.
	IsVirtual() bool

	// IsReg returns whether the operand is a register, virtual or physical.
	IsReg() bool
}

// -----------------------------------------------------------------------------

// VirtReg is a virtual register awaiting allocation.
type VirtReg struct {
	// The register's id, unique within its function.
	ID int
}

func (vr *VirtReg) Repr() string    { return "vr" + strconv.Itoa(vr.ID) }
func (vr *VirtReg) IsVirtual() bool { return true }
func (vr *VirtReg) IsReg() bool     { return true }

// -----------------------------------------------------------------------------

// PhysReg is a physical register of the target.
type PhysReg struct {
	// The register's hardware index.
	Index int

	// The register's assembly name.
	Name string
}

func (pr *PhysReg) Repr() string    { return pr.Name }
func (pr *PhysReg) IsVirtual() bool { return false }
func (pr *PhysReg) IsReg() bool     { return true }

// The aarch32 register file.  Physical register operands are process-wide
// canonical: comparing pointers compares registers.
var regFile = func() []*PhysReg {
	names := []string{
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
		"r8", "r9", "r10", "r11", "r12", "sp", "lr", "pc",
	}

	regs := make([]*PhysReg, len(names))
	for i, name := range names {
		regs[i] = &PhysReg{Index: i, Name: name}
	}

	return regs
}()

// Reg returns the canonical physical register with the given index.
func Reg(index int) *PhysReg {
	return regFile[index]
}

// Named register accessors for the special-purpose registers.
var (
	SP = Reg(13)
	LR = Reg(14)
	PC = Reg(15)
)

// -----------------------------------------------------------------------------

// Imm is an immediate operand.
type Imm struct {
	// The immediate's value.
	Val int32
}

func (im *Imm) Repr() string    { return "#" + strconv.Itoa(int(im.Val)) }
func (im *Imm) IsVirtual() bool { return false }
func (im *Imm) IsReg() bool     { return false }

// -----------------------------------------------------------------------------

// SlotImm is a frame-relative immediate whose final value is only known once
// register allocation has fixed the spill area: local slot offsets and the
// frame size itself.  It is patched in place during frame finalization, so it
// is never interned.
type SlotImm struct {
	// The resolved byte value.  Holds the pre-layout placeholder until
	// finalization patches it.
	Val int32

	// Which frame region the value is relative to.
	Kind SlotKind
}

// SlotKind enumerates the frame regions a SlotImm can refer to.
type SlotKind int

const (
	// SlotLocal is an offset into the local (alloca) region; Val holds the
	// region-relative offset until finalization rebases it off sp.
	SlotLocal = SlotKind(iota)

	// SlotFrameSize is the function's total frame size.
	SlotFrameSize

	// SlotArg is an offset into the caller's outgoing-argument area; Val
	// holds the argument-relative offset until finalization rebases it past
	// the frame and the saved registers.
	SlotArg
)

func (si *SlotImm) Repr() string    { return "#" + strconv.Itoa(int(si.Val)) }
func (si *SlotImm) IsVirtual() bool { return false }
func (si *SlotImm) IsReg() bool     { return false }

// -----------------------------------------------------------------------------

// MemOperand is a base-plus-offset memory reference.
type MemOperand struct {
	// The base register.
	Base Operand

	// The byte offset off the base.
	Offset int32
}

func (mo *MemOperand) Repr() string {
	if mo.Offset == 0 {
		return fmt.Sprintf("[%s]", mo.Base.Repr())
	}

	return fmt.Sprintf("[%s, #%d]", mo.Base.Repr(), mo.Offset)
}

func (mo *MemOperand) IsVirtual() bool { return false }
func (mo *MemOperand) IsReg() bool     { return false }

// -----------------------------------------------------------------------------

// LabelRef names a label: a basic-block boundary or a global symbol.
type LabelRef struct {
	// The label's name.
	Name string
}

func (lr *LabelRef) Repr() string    { return lr.Name }
func (lr *LabelRef) IsVirtual() bool { return false }
func (lr *LabelRef) IsReg() bool     { return false }

// -----------------------------------------------------------------------------

// OperandPool interns the per-function operand kinds.
type OperandPool struct {
	vregs    map[int]*VirtReg
	imms     map[int32]*Imm
	labels   map[string]*LabelRef
	nextVReg int
}

// NewOperandPool creates an empty operand pool.
func NewOperandPool() *OperandPool {
	return &OperandPool{
		vregs:  make(map[int]*VirtReg),
		imms:   make(map[int32]*Imm),
		labels: make(map[string]*LabelRef),
	}
}

// NewVirtReg mints a fresh virtual register.
func (p *OperandPool) NewVirtReg() *VirtReg {
	vr := &VirtReg{ID: p.nextVReg}
	p.vregs[vr.ID] = vr
	p.nextVReg++
	return vr
}

// NumVirtRegs returns how many virtual registers have been minted.
func (p *OperandPool) NumVirtRegs() int {
	return p.nextVReg
}

// Imm returns the canonical immediate operand for val.
func (p *OperandPool) Imm(val int32) *Imm {
	if im, ok := p.imms[val]; ok {
		return im
	}

	im := &Imm{Val: val}
	p.imms[val] = im
	return im
}

// Label returns the canonical label operand for name.
func (p *OperandPool) Label(name string) *LabelRef {
	if lr, ok := p.labels[name]; ok {
		return lr
	}

	lr := &LabelRef{Name: name}
	p.labels[name] = lr
	return lr
}
