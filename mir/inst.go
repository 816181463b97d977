package mir

import (
	"strconv"
	"strings"
)

// OpCode enumerates the aarch32 instruction set used by the backend, plus
// the pseudo-instructions (LABEL) and assembler directives the emitter
// understands.
type OpCode int

const (
	// Data processing.
	MOV = OpCode(iota)
	MVN
	ADD
	SUB
	RSB
	MUL
	SDIV
	UDIV
	MLS
	AND
	ORR
	EOR
	LSL
	LSR
	ASR
	CMP
	SXTB
	UXTB

	// Memory.
	LDR
	STR
	LDRB
	STRB
	PUSH
	POP

	// Control.
	B
	BL
	BX

	// Pseudo-instructions and directives.
	LABEL
	WORD
	ASCIZ
	COMMENT
)

var opCodeNames = [...]string{
	"mov", "mvn", "add", "sub", "rsb", "mul", "sdiv", "udiv", "mls",
	"and", "orr", "eor", "lsl", "lsr", "asr", "cmp", "sxtb", "uxtb",
	"ldr", "str", "ldrb", "strb", "push", "pop",
	"b", "bl", "bx",
	"label", ".word", ".asciz", "@",
}

func (op OpCode) String() string {
	return opCodeNames[op]
}

// -----------------------------------------------------------------------------

// CondCode is an ARM condition suffix.
type CondCode int

const (
	CondAL = CondCode(iota) // always
	CondEQ
	CondNE
	CondLT
	CondLE
	CondGT
	CondGE
	CondLO // unsigned <
	CondLS // unsigned <=
	CondHI // unsigned >
	CondHS // unsigned >=
)

var condNames = [...]string{"", "eq", "ne", "lt", "le", "gt", "ge", "lo", "ls", "hi", "hs"}

func (cc CondCode) String() string {
	return condNames[cc]
}

// Invert returns the condition testing the opposite outcome.
func (cc CondCode) Invert() CondCode {
	switch cc {
	case CondEQ:
		return CondNE
	case CondNE:
		return CondEQ
	case CondLT:
		return CondGE
	case CondLE:
		return CondGT
	case CondGT:
		return CondLE
	case CondGE:
		return CondLT
	case CondLO:
		return CondHS
	case CondLS:
		return CondHI
	case CondHI:
		return CondLS
	case CondHS:
		return CondLO
	default:
		return CondAL
	}
}

// -----------------------------------------------------------------------------

// Inst is a single machine instruction: an opcode, an optional condition, an
// optional destination, and an ordered operand list.
type Inst struct {
	// The instruction's opcode.
	Op OpCode

	// The condition under which the instruction executes.
	Cond CondCode

	// The destination operand, or nil.
	Dest Operand

	// The source operands in order.
	Oprs []Operand

	// Free-form payload for ASCIZ/COMMENT directives.
	Text string
}

// NewInst creates an unconditional instruction.
func NewInst(op OpCode, dest Operand, oprs ...Operand) *Inst {
	return &Inst{Op: op, Dest: dest, Oprs: oprs}
}

// NewCondInst creates a conditional instruction.
func NewCondInst(op OpCode, cc CondCode, dest Operand, oprs ...Operand) *Inst {
	return &Inst{Op: op, Cond: cc, Dest: dest, Oprs: oprs}
}

// IsLabel returns whether the instruction is a LABEL pseudo-instruction.
func (in *Inst) IsLabel() bool {
	return in.Op == LABEL
}

// LabelName returns the name of a LABEL pseudo-instruction.
func (in *Inst) LabelName() string {
	return in.Oprs[0].(*LabelRef).Name
}

// EndsBlockUnconditionally returns whether control never falls through this
// instruction: an unconditional branch, a function-exiting pop, or a bx.
func (in *Inst) EndsBlockUnconditionally() bool {
	switch in.Op {
	case B:
		return in.Cond == CondAL
	case BX:
		return true
	case POP:
		// The epilogue pops the saved lr straight into pc.
		for _, opr := range in.Oprs {
			if opr == PC {
				return true
			}
		}
	}

	return false
}

// Repr returns the instruction's display form.
func (in *Inst) Repr() string {
	switch in.Op {
	case LABEL:
		return in.LabelName() + ":"
	case COMMENT:
		return "@ " + in.Text
	case ASCIZ:
		return "\t.asciz " + in.Text
	case WORD:
		if im, ok := in.Oprs[0].(*Imm); ok {
			return "\t.word " + strconv.Itoa(int(im.Val))
		}

		return "\t.word " + in.Oprs[0].Repr()
	}

	sb := strings.Builder{}
	sb.WriteRune('\t')
	sb.WriteString(in.Op.String())
	sb.WriteString(in.Cond.String())

	first := true
	writeOpr := func(o Operand) {
		if first {
			sb.WriteRune(' ')
			first = false
		} else {
			sb.WriteString(", ")
		}

		sb.WriteString(o.Repr())
	}

	if in.Dest != nil {
		writeOpr(in.Dest)
	}

	for _, opr := range in.Oprs {
		writeOpr(opr)
	}

	return sb.String()
}

// -----------------------------------------------------------------------------

// Func is the linear instruction list of a single compiled function together
// with its operand pool and frame bookkeeping.
type Func struct {
	// The function's symbol name.
	Name string

	// Whether the symbol is visible outside the object.
	Global bool

	// Whether the function registers itself as a global constructor.
	Ctor bool

	// The linear instruction list, LABEL pseudo-instructions included.
	Insts []*Inst

	// The operand pool the instruction list draws from.
	Pool *OperandPool

	// Byte size of the local (alloca) region of the frame.
	LocalSize int32

	// Byte size of the outgoing stack-argument area reserved at the bottom
	// of the frame.
	ArgArea int32

	// The callee-saved registers the function uses.  Filled by allocation.
	SavedRegs []*PhysReg
}

// Append adds an instruction at the end of the list.
func (f *Func) Append(in *Inst) {
	f.Insts = append(f.Insts, in)
}

// -----------------------------------------------------------------------------

// Program is the MIR of a whole translation unit.
type Program struct {
	// The functions in emission order.
	Funcs []*Func

	// Global data definitions in emission order.
	Data []*DataDef
}

// DataDef is a global data object.
type DataDef struct {
	// The symbol name.
	Name string

	// Whether the symbol is visible outside the object.
	Global bool

	// The emitted words/strings in order.
	Items []*Inst

	// Total byte size, for zero-filled objects emitted with .space.
	Size int32
}
