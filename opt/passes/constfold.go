package passes

import (
	"mmcc/opt"
	"mmcc/ssa"
	"mmcc/types"
)

// ConstFold replaces pure instructions whose operands are all integer
// constants with the folded constant.  Integer semantics are 32-bit two's
// complement: unsigned arithmetic wraps, and signed overflow is defined as
// wrap.  Division or remainder by a zero constant is not folded; a warning is
// emitted and the instruction is left in place so the runtime trap behaves as
// written.
type ConstFold struct {
	opt.PassBase
}

func (p *ConstFold) RunOnBlock(b *ssa.BasicBlock) bool {
	changed := false

	for _, inst := range b.Insts() {
		var folded ssa.Value

		switch v := inst.(type) {
		case *ssa.BinaryInst:
			folded = p.foldBinary(v)
		case *ssa.UnaryInst:
			folded = p.foldUnary(v)
		case *ssa.CastInst:
			folded = p.foldCast(v)
		}

		if folded == nil {
			continue
		}

		ssa.ReplaceAllUsesWith(inst, folded)
		b.Remove(inst)
		changed = true
	}

	return changed
}

func (p *ConstFold) foldBinary(inst *ssa.BinaryInst) ssa.Value {
	lhs, lok := ssa.AsIntConst(inst.LHS())
	rhs, rok := ssa.AsIntConst(inst.RHS())
	if !lok || !rok {
		return nil
	}

	if inst.Op.IsDivision() && rhs.Val == 0 {
		inst.Logger().LogWarning("integer division or modulo by zero")
		return nil
	}

	unsigned := types.IsUnsigned(inst.Type())
	val := evalBinary(inst.Op, lhs.Val, rhs.Val, unsigned)

	mod := inst.Parent().Parent().Module()
	return mod.Int(val, inst.Type())
}

func (p *ConstFold) foldUnary(inst *ssa.UnaryInst) ssa.Value {
	opr, ok := ssa.AsIntConst(inst.Operand(0))
	if !ok {
		return nil
	}

	val := opr.Val
	if inst.Op == ssa.OpNeg {
		val = -val
	} else {
		val = ^val
	}

	mod := inst.Parent().Parent().Module()
	return mod.Int(val, inst.Type())
}

func (p *ConstFold) foldCast(inst *ssa.CastInst) ssa.Value {
	opr, ok := ssa.AsIntConst(inst.Val())
	if !ok || !types.IsInteger(inst.Type()) {
		return nil
	}

	mod := inst.Parent().Parent().Module()
	return mod.Int(castInt(opr.Val, inst.Type()), inst.Type())
}

// -----------------------------------------------------------------------------

// evalBinary evaluates a binary opcode over two's-complement 32-bit values.
// The caller has already excluded division by zero.  Shift counts are taken
// modulo 32 so folding stays defined for every input.
func evalBinary(op ssa.BinaryOp, l, r int32, unsigned bool) int32 {
	ul, ur := uint32(l), uint32(r)

	boolVal := func(b bool) int32 {
		if b {
			return 1
		}
		return 0
	}

	switch op {
	case ssa.OpAdd:
		return int32(ul + ur)
	case ssa.OpSub:
		return int32(ul - ur)
	case ssa.OpMul:
		return int32(ul * ur)
	case ssa.OpSDiv:
		// The lone signed overflow case wraps to itself.
		if l == -2147483648 && r == -1 {
			return l
		}
		return l / r
	case ssa.OpUDiv:
		return int32(ul / ur)
	case ssa.OpSRem:
		if r == -1 {
			return 0
		}
		return l % r
	case ssa.OpURem:
		return int32(ul % ur)
	case ssa.OpAnd:
		return l & r
	case ssa.OpOr:
		return l | r
	case ssa.OpXor:
		return l ^ r
	case ssa.OpShl:
		return int32(ul << (ur & 31))
	case ssa.OpLShr:
		return int32(ul >> (ur & 31))
	case ssa.OpAShr:
		return l >> (ur & 31)
	case ssa.OpEq:
		return boolVal(l == r)
	case ssa.OpNe:
		return boolVal(l != r)
	case ssa.OpSLt:
		return boolVal(l < r)
	case ssa.OpULt:
		return boolVal(ul < ur)
	case ssa.OpSLe:
		return boolVal(l <= r)
	case ssa.OpULe:
		return boolVal(ul <= ur)
	case ssa.OpSGt:
		return boolVal(l > r)
	case ssa.OpUGt:
		return boolVal(ul > ur)
	case ssa.OpSGe:
		return boolVal(l >= r)
	default:
		return boolVal(ul >= ur)
	}
}

// castInt converts val to the value domain of the destination integer type.
func castInt(val int32, typ types.Type) int32 {
	switch types.Unqual(typ) {
	case types.PrimInt8:
		return int32(int8(val))
	case types.PrimUInt8:
		return int32(uint8(val))
	default:
		return val
	}
}
