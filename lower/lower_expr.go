package lower

import (
	"mmcc/ast"
	"mmcc/report"
	"mmcc/ssa"
	"mmcc/types"
)

// lowerExpr lowers an expression to the SSA value holding its result.
// Lvalues are loaded; arrays decay to their addresses.
func (lo *Lowerer) lowerExpr(expr ast.ASTExpr) ssa.Value {
	// Anything the constant evaluator can fold lowers to its constant.
	if expr.Type() != nil && types.IsInteger(expr.Type()) {
		if val, ok := lo.ev.Eval(expr); ok {
			return lo.b.Module().Int(val, types.Unqual(expr.Type()))
		}
	}

	switch v := expr.(type) {
	case *ast.IntLit:
		return lo.b.Module().Int(v.Val, types.PrimInt32)
	case *ast.CharLit:
		return lo.b.Module().Int(int32(v.Val), types.PrimInt8)
	case *ast.StringLit:
		return lo.b.Module().Str(v.Val)
	case *ast.Ident:
		return lo.lowerIdent(v)
	case *ast.Binary:
		return lo.lowerBinary(v)
	case *ast.Unary:
		return lo.lowerUnary(v)
	case *ast.Cast:
		return lo.b.CreateCast(lo.lowerExpr(v.Opr), types.Unqual(v.To.Type()))
	case *ast.Index, *ast.Access:
		addr := lo.lowerAddr(expr)

		if types.IsArray(expr.Type()) {
			// Arrays decay: the element address is the value.
			return addr
		}

		return lo.b.CreateLoad(addr)
	case *ast.Call:
		return lo.lowerCall(v)
	default:
		report.ReportICE("lowering encountered an unchecked expression")
		return nil
	}
}

func (lo *Lowerer) lowerIdent(v *ast.Ident) ssa.Value {
	if val, ok := lo.lookup(v.Name); ok {
		switch val.(type) {
		case *ssa.Function, *ssa.Param:
			return val
		}

		if types.IsArray(v.Type()) {
			return val
		}

		return lo.b.CreateLoad(val)
	}

	// Enum constants live in the evaluator's global environment.
	if cv, ok := lo.ev.GlobalConst(v.Name); ok {
		return lo.b.Int(cv)
	}

	report.ReportICE("lowering encountered an unresolved identifier `%s`", v.Name)
	return nil
}

// lowerAddr lowers an lvalue expression to the address of its storage.
func (lo *Lowerer) lowerAddr(expr ast.ASTExpr) ssa.Value {
	switch v := expr.(type) {
	case *ast.Ident:
		val, ok := lo.lookup(v.Name)
		if !ok {
			report.ReportICE("lowering encountered an unresolved identifier `%s`", v.Name)
		}

		return val
	case *ast.Index:
		base := lo.lowerExpr(v.Opr)
		sub := lo.lowerExpr(v.Sub)

		elem, _ := types.Deref(v.Opr.Type())
		return lo.b.CreateElemPtr(ssa.ElemArray, elem, base, sub)
	case *ast.Access:
		var base ssa.Value
		target := v.Opr.Type()

		if v.ViaPtr {
			base = lo.lowerExpr(v.Opr)
			target, _ = types.Deref(target)
		} else {
			base = lo.lowerAddr(v.Opr)
		}

		st := types.Unqual(target).(*types.StructType)
		ndx := st.FieldIndex(v.Field)

		return lo.b.CreateElemPtr(ssa.ElemField, st.Fields[ndx].Type, base, lo.b.Int(int32(ndx)))
	case *ast.Unary:
		if v.Op == ast.UnDeref {
			return lo.lowerExpr(v.Opr)
		}
	}

	report.ReportICE("lowering asked for the address of a non-lvalue")
	return nil
}

// -----------------------------------------------------------------------------

// binOpTable maps arithmetic source operators to their signed and unsigned
// SSA opcodes.
var binOpTable = map[ast.BinaryOp][2]ssa.BinaryOp{
	ast.BinAdd: {ssa.OpAdd, ssa.OpAdd},
	ast.BinSub: {ssa.OpSub, ssa.OpSub},
	ast.BinMul: {ssa.OpMul, ssa.OpMul},
	ast.BinDiv: {ssa.OpSDiv, ssa.OpUDiv},
	ast.BinMod: {ssa.OpSRem, ssa.OpURem},
	ast.BinAnd: {ssa.OpAnd, ssa.OpAnd},
	ast.BinOr:  {ssa.OpOr, ssa.OpOr},
	ast.BinXor: {ssa.OpXor, ssa.OpXor},
	ast.BinShl: {ssa.OpShl, ssa.OpShl},
	ast.BinShr: {ssa.OpAShr, ssa.OpLShr},
	ast.BinEq:  {ssa.OpEq, ssa.OpEq},
	ast.BinNe:  {ssa.OpNe, ssa.OpNe},
	ast.BinLt:  {ssa.OpSLt, ssa.OpULt},
	ast.BinLe:  {ssa.OpSLe, ssa.OpULe},
	ast.BinGt:  {ssa.OpSGt, ssa.OpUGt},
	ast.BinGe:  {ssa.OpSGe, ssa.OpUGe},
}

func (lo *Lowerer) lowerBinary(v *ast.Binary) ssa.Value {
	lo.b.SetLogger(lo.logger(v))

	switch {
	case v.Op == ast.BinAssign:
		addr := lo.lowerAddr(v.LHS)
		val := lo.lowerExpr(v.RHS)
		lo.b.CreateStore(val, addr)
		return val
	case v.Op.IsLogical():
		return lo.lowerLogical(v)
	}

	lhs := lo.lowerExpr(v.LHS)
	rhs := lo.lowerExpr(v.RHS)

	// Pointer arithmetic scales by the element size through an
	// element-pointer instruction.
	if types.IsPointer(lhs.Type()) || types.IsPointer(rhs.Type()) {
		ptr, idx := lhs, rhs
		if types.IsPointer(rhs.Type()) {
			ptr, idx = rhs, lhs
		}

		if v.Op == ast.BinSub {
			idx = lo.b.CreateNeg(idx)
		}

		elem, _ := types.Deref(ptr.Type())
		return lo.b.CreateElemPtr(ssa.ElemArray, elem, ptr, idx)
	}

	unsigned := types.IsUnsigned(types.CommonType(lhs.Type(), rhs.Type()))

	ops := binOpTable[v.Op]
	op := ops[0]
	if unsigned {
		op = ops[1]
	}

	return lo.b.CreateBinary(op, lhs, rhs)
}

// lowerLogical lowers the short-circuit operators through control flow: the
// result is written to a dedicated slot on whichever path decides it.
func (lo *Lowerer) lowerLogical(v *ast.Binary) ssa.Value {
	f := lo.b.Func()

	res := lo.b.CreateAlloca(types.PrimInt32)

	lhs := lo.truthy(lo.lowerExpr(v.LHS))
	lo.b.CreateStore(lhs, res)

	rhsB := f.NewBlock("logic.rhs")
	endB := f.NewBlock("logic.end")

	if v.Op == ast.BinLAnd {
		lo.b.CreateBranch(lhs, rhsB, endB)
	} else {
		lo.b.CreateBranch(lhs, endB, rhsB)
	}

	lo.b.SetBlock(rhsB)
	rhs := lo.truthy(lo.lowerExpr(v.RHS))
	lo.b.CreateStore(rhs, res)
	lo.b.CreateJump(endB)

	lo.b.SetBlock(endB)
	return lo.b.CreateLoad(res)
}

// truthy normalizes a value to 0/1 via a compare against zero, unless it is
// already the result of a comparison.
func (lo *Lowerer) truthy(v ssa.Value) ssa.Value {
	if bin, ok := v.(*ssa.BinaryInst); ok && bin.Op.IsCompare() {
		return v
	}

	return lo.b.CreateBinary(ssa.OpNe, v, lo.b.Module().Int(0, types.Unqual(v.Type())))
}

func (lo *Lowerer) lowerUnary(v *ast.Unary) ssa.Value {
	lo.b.SetLogger(lo.logger(v))

	switch v.Op {
	case ast.UnPos:
		return lo.lowerExpr(v.Opr)
	case ast.UnNeg:
		return lo.b.CreateNeg(lo.lowerExpr(v.Opr))
	case ast.UnNot:
		return lo.b.CreateNot(lo.lowerExpr(v.Opr))
	case ast.UnLNot:
		opr := lo.lowerExpr(v.Opr)
		return lo.b.CreateBinary(ssa.OpEq, opr, lo.b.Module().Int(0, types.Unqual(opr.Type())))
	case ast.UnDeref:
		addr := lo.lowerExpr(v.Opr)
		if types.IsArray(v.Type()) {
			return addr
		}

		return lo.b.CreateLoad(addr)
	case ast.UnAddr:
		return lo.lowerAddr(v.Opr)
	case ast.UnSizeOf:
		return lo.b.Module().Int(int32(v.Opr.Type().Size()), types.PrimUInt32)
	default:
		report.ReportICE("lowering encountered an unchecked unary operator")
		return nil
	}
}

func (lo *Lowerer) lowerCall(v *ast.Call) ssa.Value {
	lo.b.SetLogger(lo.logger(v))

	callee := lo.lowerExpr(v.Fn)

	args := make([]ssa.Value, len(v.Args))
	for i, arg := range v.Args {
		args[i] = lo.lowerExpr(arg)
	}

	return lo.b.CreateCall(callee, args)
}
