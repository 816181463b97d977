package codegen

import (
	"fmt"

	"mmcc/mir"
	"mmcc/report"
	"mmcc/ssa"
	"mmcc/types"
)

// Selector lowers an SSA module into aarch32 MIR.  Every SSA value is
// assigned a virtual register (allocas get frame slots whose addresses live
// in virtual registers); phi nodes are resolved by copy insertion on the
// incoming edges.
type Selector struct {
	mod  *ssa.Module
	prog *mir.Program

	fn   *mir.Func
	pool *mir.OperandPool

	// SSA value -> virtual register holding it.
	values map[ssa.Value]*mir.VirtReg

	// Compares fused into their single branch use; they emit nothing at
	// their own position.
	fused map[*ssa.BinaryInst]bool

	// Block label names within the current function.
	blockLabels map[*ssa.BasicBlock]string

	// String constants already emitted to the data section.
	strLabels map[*ssa.StrConst]string

	// Running offset into the local (alloca) frame region.
	localOffset int32

	// Byte size of the largest outgoing stack-argument area of any call.
	argArea int32

	// The frame-size immediate shared by the prologue and every epilogue of
	// the current function.
	frameImm *mir.SlotImm
}

// Select lowers mod to a MIR program.
func Select(mod *ssa.Module) *mir.Program {
	s := &Selector{
		mod:       mod,
		prog:      &mir.Program{},
		strLabels: make(map[*ssa.StrConst]string),
	}

	for _, v := range mod.TopLevel() {
		switch tv := v.(type) {
		case *ssa.GlobalVar:
			s.selectGlobal(tv)
		case *ssa.Function:
			if !tv.IsDecl() {
				s.selectFunction(tv)
			}
		}
	}

	return s.prog
}

// -----------------------------------------------------------------------------

// selectGlobal emits a data definition for a global variable.
func (s *Selector) selectGlobal(gv *ssa.GlobalVar) {
	def := &mir.DataDef{
		Name:   gv.Name,
		Global: gv.Link == ssa.LinkExternal,
		Size:   int32(gv.ContentType().Size()),
	}

	if init := gv.Init(); init != nil {
		s.emitData(def, init)
	}

	s.prog.Data = append(s.prog.Data, def)
}

// emitData flattens a constant initializer into .word directives.
func (s *Selector) emitData(def *mir.DataDef, init ssa.Value) {
	switch c := init.(type) {
	case *ssa.IntConst:
		def.Items = append(def.Items, &mir.Inst{Op: mir.WORD, Oprs: []mir.Operand{&mir.Imm{Val: c.Val}}})
	case *ssa.ZeroConst:
		// Left to the emitter's zero fill.
	case *ssa.StrConst:
		def.Items = append(def.Items, &mir.Inst{Op: mir.ASCIZ, Text: fmt.Sprintf("%q", c.Str)})
	case ssa.User:
		for _, u := range c.Operands() {
			s.emitData(def, u.Value())
		}
	default:
		report.ReportICE("unsupported global initializer")
	}
}

// -----------------------------------------------------------------------------

func (s *Selector) selectFunction(f *ssa.Function) {
	s.pool = mir.NewOperandPool()
	s.fn = &mir.Func{
		Name:   f.Name,
		Global: f.Link == ssa.LinkExternal,
		Ctor:   f.Link == ssa.LinkGlobalCtor,
		Pool:   s.pool,
	}
	s.values = make(map[ssa.Value]*mir.VirtReg)
	s.fused = make(map[*ssa.BinaryInst]bool)
	s.blockLabels = make(map[*ssa.BasicBlock]string)
	s.localOffset = 0
	s.argArea = 0
	s.frameImm = &mir.SlotImm{Kind: mir.SlotFrameSize}

	for _, b := range f.Blocks() {
		s.blockLabels[b] = fmt.Sprintf(".L%s_%s", f.Name, b.Name)
	}

	// Prologue stub: the saved-register set and frame size are patched after
	// allocation.
	s.emit(&mir.Inst{Op: mir.PUSH})
	s.emit(mir.NewInst(mir.SUB, mir.SP, mir.SP, s.frameImm))

	// Move the register arguments into virtual registers; stack arguments
	// are addressed off the finalized frame.
	for i, param := range f.Params() {
		vr := s.valueReg(param)

		if i < 4 {
			s.emit(mir.NewInst(mir.MOV, vr, mir.Reg(i)))
		} else {
			addr := s.pool.NewVirtReg()
			s.emit(mir.NewInst(mir.ADD, addr, mir.SP,
				&mir.SlotImm{Kind: mir.SlotArg, Val: int32(4 * (i - 4))}))
			s.emit(mir.NewInst(mir.LDR, vr, &mir.MemOperand{Base: addr}))
		}
	}

	for _, b := range f.Blocks() {
		s.emit(&mir.Inst{Op: mir.LABEL, Oprs: []mir.Operand{s.pool.Label(s.blockLabels[b])}})
		s.selectBlock(b)
	}

	s.fn.LocalSize = s.localOffset
	s.fn.ArgArea = s.argArea
	s.prog.Funcs = append(s.prog.Funcs, s.fn)
}

func (s *Selector) emit(in *mir.Inst) {
	s.fn.Append(in)
}

// valueReg returns (minting on demand) the virtual register assigned to an
// SSA value.
func (s *Selector) valueReg(v ssa.Value) *mir.VirtReg {
	if vr, ok := s.values[v]; ok {
		return vr
	}

	vr := s.pool.NewVirtReg()
	s.values[v] = vr
	return vr
}

// operand returns a MIR operand for an SSA operand value, materializing
// constants and addresses as needed.  If immOK is set, a small integer
// constant is returned as an immediate instead of being loaded.
func (s *Selector) operand(v ssa.Value, immOK bool) mir.Operand {
	switch c := v.(type) {
	case *ssa.IntConst:
		if immOK && fitsImmediate(c.Val) {
			return s.pool.Imm(c.Val)
		}

		vr := s.pool.NewVirtReg()
		s.materializeInt(vr, c.Val)
		return vr
	case *ssa.ZeroConst:
		if immOK {
			return s.pool.Imm(0)
		}

		vr := s.pool.NewVirtReg()
		s.materializeInt(vr, 0)
		return vr
	case *ssa.GlobalVar:
		vr := s.pool.NewVirtReg()
		s.emit(mir.NewInst(mir.LDR, vr, s.pool.Label("="+c.Name)))
		return vr
	case *ssa.StrConst:
		vr := s.pool.NewVirtReg()
		s.emit(mir.NewInst(mir.LDR, vr, s.pool.Label("="+s.stringLabel(c))))
		return vr
	default:
		return s.valueReg(v)
	}
}

// materializeInt loads an arbitrary 32-bit constant into dest: a mov for
// encodable immediates, the ldr-literal pseudo-instruction otherwise.
func (s *Selector) materializeInt(dest *mir.VirtReg, val int32) {
	if fitsImmediate(val) {
		s.emit(mir.NewInst(mir.MOV, dest, s.pool.Imm(val)))
	} else {
		s.emit(mir.NewInst(mir.LDR, dest, s.pool.Label(fmt.Sprintf("=%d", val))))
	}
}

// fitsImmediate conservatively approximates the ARM rotated-immediate
// encoding: byte-sized values always encode.
func fitsImmediate(val int32) bool {
	return val >= 0 && val <= 255
}

// stringLabel interns a string constant into the data section.
func (s *Selector) stringLabel(c *ssa.StrConst) string {
	if label, ok := s.strLabels[c]; ok {
		return label
	}

	label := fmt.Sprintf(".LSTR%d", len(s.strLabels))
	s.strLabels[c] = label

	s.prog.Data = append(s.prog.Data, &mir.DataDef{
		Name:  label,
		Items: []*mir.Inst{{Op: mir.ASCIZ, Text: fmt.Sprintf("%q", c.Str)}},
		Size:  int32(len(c.Str) + 1),
	})

	return label
}

// -----------------------------------------------------------------------------

func (s *Selector) selectBlock(b *ssa.BasicBlock) {
	for _, inst := range b.Insts() {
		s.selectInst(inst)
	}
}

func (s *Selector) selectInst(inst ssa.Inst) {
	switch v := inst.(type) {
	case *ssa.PhiInst:
		// Phis read the register their predecessors' edge copies wrote.
		s.valueReg(v)
	case *ssa.BinaryInst:
		s.selectBinary(v)
	case *ssa.UnaryInst:
		s.selectUnary(v)
	case *ssa.AllocaInst:
		s.selectAlloca(v)
	case *ssa.LoadInst:
		s.selectLoad(v)
	case *ssa.StoreInst:
		s.selectStore(v)
	case *ssa.CastInst:
		s.selectCast(v)
	case *ssa.CallInst:
		s.selectCall(v)
	case *ssa.ElemPtrInst:
		s.selectElemPtr(v)
	case *ssa.JumpInst:
		s.insertPhiCopies(v.Parent(), v.Target())
		s.emit(mir.NewInst(mir.B, nil, s.pool.Label(s.blockLabels[v.Target()])))
	case *ssa.BranchInst:
		s.selectBranch(v)
	case *ssa.RetInst:
		s.selectRet(v)
	default:
		report.ReportICE("instruction selection has no pattern for this instruction")
	}
}

// cmpCond maps a comparison opcode to its ARM condition.
func cmpCond(op ssa.BinaryOp) mir.CondCode {
	switch op {
	case ssa.OpEq:
		return mir.CondEQ
	case ssa.OpNe:
		return mir.CondNE
	case ssa.OpSLt:
		return mir.CondLT
	case ssa.OpSLe:
		return mir.CondLE
	case ssa.OpSGt:
		return mir.CondGT
	case ssa.OpSGe:
		return mir.CondGE
	case ssa.OpULt:
		return mir.CondLO
	case ssa.OpULe:
		return mir.CondLS
	case ssa.OpUGt:
		return mir.CondHI
	default:
		return mir.CondHS
	}
}

func (s *Selector) selectBinary(v *ssa.BinaryInst) {
	if v.Op.IsCompare() {
		// A compare whose only use is a branch in the same block fuses into
		// the branch's compare-and-branch pair.
		if uses := v.Uses(); len(uses) == 1 {
			if br, ok := uses[0].User().(*ssa.BranchInst); ok && br.Parent() == v.Parent() {
				s.fused[v] = true
				return
			}
		}

		dest := s.valueReg(v)
		s.emit(mir.NewInst(mir.CMP, nil, s.operand(v.LHS(), false), s.operand(v.RHS(), true)))
		s.emit(mir.NewInst(mir.MOV, dest, s.pool.Imm(0)))
		s.emit(mir.NewCondInst(mir.MOV, cmpCond(v.Op), dest, s.pool.Imm(1)))
		return
	}

	dest := s.valueReg(v)
	lhs := s.operand(v.LHS(), false)

	switch v.Op {
	case ssa.OpAdd:
		s.emit(mir.NewInst(mir.ADD, dest, lhs, s.operand(v.RHS(), true)))
	case ssa.OpSub:
		s.emit(mir.NewInst(mir.SUB, dest, lhs, s.operand(v.RHS(), true)))
	case ssa.OpMul:
		s.emit(mir.NewInst(mir.MUL, dest, lhs, s.operand(v.RHS(), false)))
	case ssa.OpSDiv:
		s.emit(mir.NewInst(mir.SDIV, dest, lhs, s.operand(v.RHS(), false)))
	case ssa.OpUDiv:
		s.emit(mir.NewInst(mir.UDIV, dest, lhs, s.operand(v.RHS(), false)))
	case ssa.OpSRem, ssa.OpURem:
		// rem = l - (l / r) * r, computed with a fused multiply-subtract.
		div := mir.SDIV
		if v.Op == ssa.OpURem {
			div = mir.UDIV
		}

		rhs := s.operand(v.RHS(), false)
		quot := s.pool.NewVirtReg()
		s.emit(mir.NewInst(div, quot, lhs, rhs))
		s.emit(mir.NewInst(mir.MLS, dest, quot, rhs, lhs))
	case ssa.OpAnd:
		s.emit(mir.NewInst(mir.AND, dest, lhs, s.operand(v.RHS(), true)))
	case ssa.OpOr:
		s.emit(mir.NewInst(mir.ORR, dest, lhs, s.operand(v.RHS(), true)))
	case ssa.OpXor:
		s.emit(mir.NewInst(mir.EOR, dest, lhs, s.operand(v.RHS(), true)))
	case ssa.OpShl:
		s.emit(mir.NewInst(mir.LSL, dest, lhs, s.operand(v.RHS(), true)))
	case ssa.OpLShr:
		s.emit(mir.NewInst(mir.LSR, dest, lhs, s.operand(v.RHS(), true)))
	case ssa.OpAShr:
		s.emit(mir.NewInst(mir.ASR, dest, lhs, s.operand(v.RHS(), true)))
	default:
		report.ReportICE("instruction selection has no pattern for this binary opcode")
	}
}

func (s *Selector) selectUnary(v *ssa.UnaryInst) {
	dest := s.valueReg(v)
	src := s.operand(v.Operand(0), false)

	if v.Op == ssa.OpNeg {
		s.emit(mir.NewInst(mir.RSB, dest, src, s.pool.Imm(0)))
	} else {
		s.emit(mir.NewInst(mir.MVN, dest, src))
	}
}

func (s *Selector) selectAlloca(v *ssa.AllocaInst) {
	size := int32(v.AllocType().Size())
	if size%4 != 0 {
		size += 4 - size%4
	}

	offset := s.localOffset
	s.localOffset += size

	dest := s.valueReg(v)
	s.emit(mir.NewInst(mir.ADD, dest, mir.SP, &mir.SlotImm{Kind: mir.SlotLocal, Val: offset}))
}

func (s *Selector) selectLoad(v *ssa.LoadInst) {
	dest := s.valueReg(v)
	base := s.operand(v.Ptr(), false)
	mem := &mir.MemOperand{Base: base}

	if v.Type().Size() == 1 {
		s.emit(mir.NewInst(mir.LDRB, dest, mem))
		if !types.IsUnsigned(v.Type()) {
			s.emit(mir.NewInst(mir.SXTB, dest, dest))
		}
	} else {
		s.emit(mir.NewInst(mir.LDR, dest, mem))
	}
}

func (s *Selector) selectStore(v *ssa.StoreInst) {
	val := s.operand(v.Val(), false)
	base := s.operand(v.Ptr(), false)
	mem := &mir.MemOperand{Base: base}

	elem, _ := types.Deref(v.Ptr().Type())
	if elem != nil && elem.Size() == 1 {
		s.emit(mir.NewInst(mir.STRB, nil, val, mem))
	} else {
		s.emit(mir.NewInst(mir.STR, nil, val, mem))
	}
}

func (s *Selector) selectCast(v *ssa.CastInst) {
	dest := s.valueReg(v)
	src := s.operand(v.Val(), false)

	// Registers hold every value widened to 32 bits, so only narrowing
	// casts re-extend; everything else is a plain move.
	switch types.Unqual(v.Type()) {
	case types.PrimInt8:
		s.emit(mir.NewInst(mir.SXTB, dest, src))
	case types.PrimUInt8:
		s.emit(mir.NewInst(mir.UXTB, dest, src))
	default:
		s.emit(mir.NewInst(mir.MOV, dest, src))
	}
}

func (s *Selector) selectCall(v *ssa.CallInst) {
	args := v.Args()

	// Stack arguments land in the permanently reserved outgoing-argument
	// area at the bottom of the frame.
	if extra := int32(4 * (len(args) - 4)); extra > s.argArea {
		s.argArea = extra
	}

	for i := len(args) - 1; i >= 4; i-- {
		val := s.operand(args[i], false)
		s.emit(mir.NewInst(mir.STR, nil, val, &mir.MemOperand{Base: mir.SP, Offset: int32(4 * (i - 4))}))
	}

	for i := 0; i < len(args) && i < 4; i++ {
		s.emit(mir.NewInst(mir.MOV, mir.Reg(i), s.operand(args[i], true)))
	}

	callee, ok := v.Callee().(*ssa.Function)
	if !ok {
		report.ReportICE("indirect calls are not supported by the selector")
	}

	s.emit(mir.NewInst(mir.BL, nil, s.pool.Label(callee.Name)))

	if !types.IsVoid(v.Type()) {
		s.emit(mir.NewInst(mir.MOV, s.valueReg(v), mir.Reg(0)))
	}
}

func (s *Selector) selectElemPtr(v *ssa.ElemPtrInst) {
	dest := s.valueReg(v)
	base := s.operand(v.Ptr(), false)

	if v.Kind == ssa.ElemField {
		st := types.Unqual(v.Ptr().Type().(*types.PointerType).ElemType).(*types.StructType)
		fieldNdx, _ := ssa.AsIntConst(v.Index())
		offset := int32(st.FieldOffset(int(fieldNdx.Val)))

		s.emit(mir.NewInst(mir.ADD, dest, base, s.pool.Imm(offset)))
		return
	}

	elemSize := int32(v.Type().(*types.PointerType).ElemType.Size())

	// A constant index folds into a single add.
	if ic, ok := ssa.AsIntConst(v.Index()); ok {
		off := ic.Val * elemSize
		if fitsImmediate(off) {
			s.emit(mir.NewInst(mir.ADD, dest, base, s.pool.Imm(off)))
		} else {
			tmp := s.pool.NewVirtReg()
			s.materializeInt(tmp, off)
			s.emit(mir.NewInst(mir.ADD, dest, base, tmp))
		}
		return
	}

	index := s.operand(v.Index(), false)
	scaled := s.pool.NewVirtReg()

	if elemSize == 1 {
		scaled = index.(*mir.VirtReg)
	} else if elemSize&(elemSize-1) == 0 {
		shift := int32(0)
		for sz := elemSize; sz > 1; sz >>= 1 {
			shift++
		}
		s.emit(mir.NewInst(mir.LSL, scaled, index, s.pool.Imm(shift)))
	} else {
		sizeReg := s.pool.NewVirtReg()
		s.materializeInt(sizeReg, elemSize)
		s.emit(mir.NewInst(mir.MUL, scaled, index, sizeReg))
	}

	s.emit(mir.NewInst(mir.ADD, dest, base, scaled))
}

func (s *Selector) selectBranch(v *ssa.BranchInst) {
	s.insertPhiCopies(v.Parent(), v.Then())
	s.insertPhiCopies(v.Parent(), v.Else())

	cc := mir.CondNE

	if cmp, ok := v.Cond().(*ssa.BinaryInst); ok && s.fused[cmp] {
		s.emit(mir.NewInst(mir.CMP, nil, s.operand(cmp.LHS(), false), s.operand(cmp.RHS(), true)))
		cc = cmpCond(cmp.Op)
	} else {
		s.emit(mir.NewInst(mir.CMP, nil, s.operand(v.Cond(), false), s.pool.Imm(0)))
	}

	s.emit(mir.NewCondInst(mir.B, cc, nil, s.pool.Label(s.blockLabels[v.Then()])))
	s.emit(mir.NewInst(mir.B, nil, s.pool.Label(s.blockLabels[v.Else()])))
}

func (s *Selector) selectRet(v *ssa.RetInst) {
	if v.Val() != nil {
		s.emit(mir.NewInst(mir.MOV, mir.Reg(0), s.operand(v.Val(), true)))
	}

	// Epilogue stub: frame size and the restored register set are patched
	// after allocation.
	s.emit(mir.NewInst(mir.ADD, mir.SP, mir.SP, s.frameImm))
	s.emit(&mir.Inst{Op: mir.POP})
}

// insertPhiCopies writes the values this edge contributes into the registers
// of the successor's phis.  The copies are sequential; lowering never builds
// phi webs whose sources are sibling phi destinations, so no parallel-copy
// cycle can arise.
func (s *Selector) insertPhiCopies(pred, succ *ssa.BasicBlock) {
	for _, phi := range succ.Phis() {
		for i := 0; i < phi.NumIncoming(); i++ {
			if phi.IncomingBlock(i) != pred {
				continue
			}

			s.emit(mir.NewInst(mir.MOV, s.valueReg(phi), s.operand(phi.IncomingValue(i), true)))
		}
	}
}
