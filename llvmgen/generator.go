package llvmgen

import (
	"mmcc/report"
	"mmcc/ssa"
	"mmcc/types"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	llvalue "github.com/llir/llvm/ir/value"
)

// NOTE: Like the rest of the toolchain's LLVM surface, this generator
// produces textual LLVM IR through llir/llvm rather than binding the LLVM C
// API: the text can be handed to opt/llc or clang without the compiler
// linking against an LLVM installation.

// Generator converts an SSA module into an LLVM module.
type Generator struct {
	mod *ssa.Module

	llMod *ir.Module

	// SSA value -> generated LLVM value.
	values map[ssa.Value]llvalue.Value

	// SSA block -> generated LLVM block of the current function.
	blocks map[*ssa.BasicBlock]*ir.Block

	// Named struct types already converted.
	structs map[string]lltypes.Type
}

// Generate produces the textual LLVM IR for mod.
func Generate(mod *ssa.Module) string {
	g := &Generator{
		mod:     mod,
		llMod:   ir.NewModule(),
		values:  make(map[ssa.Value]llvalue.Value),
		structs: make(map[string]lltypes.Type),
	}

	// Declare every top-level value first so bodies can reference them in
	// any order.
	for _, v := range mod.TopLevel() {
		switch tv := v.(type) {
		case *ssa.GlobalVar:
			g.declareGlobal(tv)
		case *ssa.Function:
			g.declareFunc(tv)
		}
	}

	for _, f := range mod.Functions() {
		if !f.IsDecl() {
			g.generateBody(f)
		}
	}

	return g.llMod.String()
}

// -----------------------------------------------------------------------------

// convType converts a semantic type to its LLVM counterpart.
func (g *Generator) convType(typ types.Type) lltypes.Type {
	switch t := types.Unqual(typ).(type) {
	case types.PrimType:
		switch t {
		case types.PrimVoid:
			return lltypes.Void
		case types.PrimInt8, types.PrimUInt8:
			return lltypes.I8
		default:
			return lltypes.I32
		}
	case *types.PointerType:
		return lltypes.NewPointer(g.convType(t.ElemType))
	case *types.ArrayType:
		return lltypes.NewArray(uint64(t.Len), g.convType(t.ElemType))
	case *types.StructType:
		if st, ok := g.structs[t.Name]; ok {
			return st
		}

		fields := make([]lltypes.Type, len(t.Fields))
		for i, field := range t.Fields {
			fields[i] = g.convType(field.Type)
		}

		st := g.llMod.NewTypeDef(t.Name, lltypes.NewStruct(fields...))
		g.structs[t.Name] = st
		return st
	case *types.FuncType:
		params := make([]lltypes.Type, len(t.ParamTypes))
		for i, pt := range t.ParamTypes {
			params[i] = g.convType(pt)
		}

		return lltypes.NewFunc(g.convType(t.ReturnType), params...)
	default:
		report.ReportICE("LLVM generation cannot convert this type")
		return nil
	}
}

// linkageOf maps internal and inline linkage to LLVM `internal`; everything
// else gets LLVM's default (external) linkage, which is written without a
// keyword.
func linkageOf(link ssa.Linkage) enum.Linkage {
	if link.IsInternal() {
		return enum.LinkageInternal
	}

	return enum.LinkageNone
}

// -----------------------------------------------------------------------------

func (g *Generator) declareGlobal(gv *ssa.GlobalVar) {
	content := g.convType(gv.ContentType())

	var init constant.Constant
	if gv.Init() != nil {
		init = g.convConst(gv.Init(), gv.ContentType())
	} else {
		init = constant.NewZeroInitializer(content)
	}

	llGlobal := g.llMod.NewGlobalDef(gv.Name, init)
	llGlobal.Linkage = linkageOf(gv.Link)
	g.values[gv] = llGlobal
}

func (g *Generator) declareFunc(f *ssa.Function) {
	sig := f.Signature()

	params := make([]*ir.Param, len(f.Params()))
	for i, p := range f.Params() {
		params[i] = ir.NewParam(p.Name, g.convType(p.Type()))
	}

	llFunc := g.llMod.NewFunc(f.Name, g.convType(sig.ReturnType), params...)
	if !f.IsDecl() {
		llFunc.Linkage = linkageOf(f.Link)
	}

	g.values[f] = llFunc

	for i, p := range f.Params() {
		g.values[p] = params[i]
	}
}

// convConst converts a constant initializer.
func (g *Generator) convConst(v ssa.Value, target types.Type) constant.Constant {
	switch c := v.(type) {
	case *ssa.IntConst:
		return constant.NewInt(g.convType(c.Type()).(*lltypes.IntType), int64(c.Val))
	case *ssa.ZeroConst:
		return constant.NewZeroInitializer(g.convType(c.Type()))
	case *ssa.StrConst:
		arr := constant.NewCharArrayFromString(c.Str + "\x00")
		strGlobal := g.llMod.NewGlobalDef("", arr)
		strGlobal.Linkage = enum.LinkageInternal
		return strGlobal
	case *ssa.ArrayConst:
		at := g.convType(c.Type()).(*lltypes.ArrayType)

		elems := make([]constant.Constant, c.NumOperands())
		for i := range elems {
			elems[i] = g.convConst(c.Operand(i), nil)
		}

		return constant.NewArray(at, elems...)
	case *ssa.StructConst:
		st := g.convType(c.Type()).(*lltypes.StructType)

		fields := make([]constant.Constant, c.NumOperands())
		for i := range fields {
			fields[i] = g.convConst(c.Operand(i), nil)
		}

		return constant.NewStruct(st, fields...)
	default:
		report.ReportICE("LLVM generation cannot convert this constant")
		return nil
	}
}

// -----------------------------------------------------------------------------

func (g *Generator) generateBody(f *ssa.Function) {
	llFunc := g.values[f].(*ir.Func)
	g.blocks = make(map[*ssa.BasicBlock]*ir.Block)

	for _, b := range f.Blocks() {
		g.blocks[b] = llFunc.NewBlock(b.Name)
	}

	// Phi shells first: incoming values may be defined later in block
	// order.
	for _, b := range f.Blocks() {
		for _, phi := range b.Phis() {
			llPhi := &ir.InstPhi{Typ: g.convType(phi.Type())}
			g.blocks[b].Insts = append(g.blocks[b].Insts, llPhi)
			g.values[phi] = llPhi
		}
	}

	for _, b := range f.Blocks() {
		for _, inst := range b.Insts() {
			if _, isPhi := inst.(*ssa.PhiInst); !isPhi {
				g.generateInst(g.blocks[b], inst)
			}
		}
	}

	for _, b := range f.Blocks() {
		for _, phi := range b.Phis() {
			llPhi := g.values[phi].(*ir.InstPhi)

			for i := 0; i < phi.NumIncoming(); i++ {
				llPhi.Incs = append(llPhi.Incs, &ir.Incoming{
					X:    g.value(phi.IncomingValue(i)),
					Pred: g.blocks[phi.IncomingBlock(i)],
				})
			}
		}
	}
}

// value resolves an SSA operand into its LLVM value.
func (g *Generator) value(v ssa.Value) llvalue.Value {
	if llv, ok := g.values[v]; ok {
		return llv
	}

	switch c := v.(type) {
	case *ssa.IntConst:
		return constant.NewInt(g.convType(c.Type()).(*lltypes.IntType), int64(c.Val))
	case *ssa.StrConst:
		return g.convConst(c, nil)
	case *ssa.ZeroConst:
		return constant.NewZeroInitializer(g.convType(c.Type()))
	default:
		report.ReportICE("LLVM generation encountered an unmapped value")
		return nil
	}
}

// intValue resolves v and coerces it to the given integer width.
func (g *Generator) intValue(block *ir.Block, v ssa.Value, to *lltypes.IntType) llvalue.Value {
	llv := g.value(v)

	from, ok := llv.Type().(*lltypes.IntType)
	if !ok || from.BitSize == to.BitSize {
		return llv
	}

	if from.BitSize < to.BitSize {
		if types.IsUnsigned(v.Type()) {
			return block.NewZExt(llv, to)
		}

		return block.NewSExt(llv, to)
	}

	return block.NewTrunc(llv, to)
}

var cmpPreds = map[ssa.BinaryOp]enum.IPred{
	ssa.OpEq:  enum.IPredEQ,
	ssa.OpNe:  enum.IPredNE,
	ssa.OpSLt: enum.IPredSLT,
	ssa.OpULt: enum.IPredULT,
	ssa.OpSLe: enum.IPredSLE,
	ssa.OpULe: enum.IPredULE,
	ssa.OpSGt: enum.IPredSGT,
	ssa.OpUGt: enum.IPredUGT,
	ssa.OpSGe: enum.IPredSGE,
	ssa.OpUGe: enum.IPredUGE,
}

func (g *Generator) generateInst(block *ir.Block, inst ssa.Inst) {
	switch v := inst.(type) {
	case *ssa.BinaryInst:
		g.values[v] = g.generateBinary(block, v)
	case *ssa.UnaryInst:
		opr := g.value(v.Operand(0))

		if v.Op == ssa.OpNeg {
			g.values[v] = block.NewSub(constant.NewInt(opr.Type().(*lltypes.IntType), 0), opr)
		} else {
			g.values[v] = block.NewXor(opr, constant.NewInt(opr.Type().(*lltypes.IntType), -1))
		}
	case *ssa.AllocaInst:
		g.values[v] = block.NewAlloca(g.convType(v.AllocType()))
	case *ssa.LoadInst:
		g.values[v] = block.NewLoad(g.convType(v.Type()), g.value(v.Ptr()))
	case *ssa.StoreInst:
		val := g.value(v.Val())

		if elem, ok := types.Deref(v.Ptr().Type()); ok && types.IsInteger(elem) {
			val = g.intValue(block, v.Val(), g.convType(elem).(*lltypes.IntType))
		}

		block.NewStore(val, g.value(v.Ptr()))
	case *ssa.CastInst:
		if it, ok := g.convType(v.Type()).(*lltypes.IntType); ok {
			g.values[v] = g.intValue(block, v.Val(), it)
		} else {
			g.values[v] = block.NewBitCast(g.value(v.Val()), g.convType(v.Type()))
		}
	case *ssa.CallInst:
		args := make([]llvalue.Value, len(v.Args()))
		for i, arg := range v.Args() {
			args[i] = g.value(arg)
		}

		g.values[v] = block.NewCall(g.value(v.Callee()), args...)
	case *ssa.ElemPtrInst:
		g.values[v] = g.generateElemPtr(block, v)
	case *ssa.JumpInst:
		block.NewBr(g.blocks[v.Target()])
	case *ssa.BranchInst:
		cond := g.value(v.Cond())

		it, ok := cond.Type().(*lltypes.IntType)
		if !ok || it.BitSize != 1 {
			cond = block.NewICmp(enum.IPredNE, cond, constant.NewInt(cond.Type().(*lltypes.IntType), 0))
		}

		block.NewCondBr(cond, g.blocks[v.Then()], g.blocks[v.Else()])
	case *ssa.RetInst:
		if v.Val() == nil {
			block.NewRet(nil)
		} else {
			block.NewRet(g.value(v.Val()))
		}
	default:
		report.ReportICE("LLVM generation has no pattern for this instruction")
	}
}

func (g *Generator) generateBinary(block *ir.Block, v *ssa.BinaryInst) llvalue.Value {
	if pred, isCmp := cmpPreds[v.Op]; isCmp && v.Op.IsCompare() {
		cmp := block.NewICmp(pred, g.value(v.LHS()), g.value(v.RHS()))

		// Comparisons are i32-valued in this IR.
		return block.NewZExt(cmp, lltypes.I32)
	}

	lhs, rhs := g.value(v.LHS()), g.value(v.RHS())

	switch v.Op {
	case ssa.OpAdd:
		return block.NewAdd(lhs, rhs)
	case ssa.OpSub:
		return block.NewSub(lhs, rhs)
	case ssa.OpMul:
		return block.NewMul(lhs, rhs)
	case ssa.OpSDiv:
		return block.NewSDiv(lhs, rhs)
	case ssa.OpUDiv:
		return block.NewUDiv(lhs, rhs)
	case ssa.OpSRem:
		return block.NewSRem(lhs, rhs)
	case ssa.OpURem:
		return block.NewURem(lhs, rhs)
	case ssa.OpAnd:
		return block.NewAnd(lhs, rhs)
	case ssa.OpOr:
		return block.NewOr(lhs, rhs)
	case ssa.OpXor:
		return block.NewXor(lhs, rhs)
	case ssa.OpShl:
		return block.NewShl(lhs, rhs)
	case ssa.OpLShr:
		return block.NewLShr(lhs, rhs)
	case ssa.OpAShr:
		return block.NewAShr(lhs, rhs)
	default:
		report.ReportICE("LLVM generation has no pattern for this binary opcode")
		return nil
	}
}

func (g *Generator) generateElemPtr(block *ir.Block, v *ssa.ElemPtrInst) llvalue.Value {
	base := g.value(v.Ptr())
	pointee := base.Type().(*lltypes.PointerType).ElemType

	if v.Kind == ssa.ElemField {
		ndx, _ := ssa.AsIntConst(v.Index())

		return block.NewGetElementPtr(pointee, base,
			constant.NewInt(lltypes.I32, 0),
			constant.NewInt(lltypes.I32, int64(ndx.Val)))
	}

	// Indexing through a pointer-to-array steps inside the array; through a
	// plain element pointer it scales directly.
	if _, isArr := pointee.(*lltypes.ArrayType); isArr {
		return block.NewGetElementPtr(pointee, base,
			constant.NewInt(lltypes.I32, 0), g.value(v.Index()))
	}

	return block.NewGetElementPtr(pointee, base, g.value(v.Index()))
}
