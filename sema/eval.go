package sema

import (
	"mmcc/ast"
	"mmcc/types"
)

// Evaluator computes compile-time integer constants over the AST.  Instead
// of rewriting the tree in place it memoizes each foldable expression in a
// side table that lowering and the analyzer consult.
type Evaluator struct {
	// Memoized results of foldable expressions.
	memo map[ast.ASTExpr]int32

	// Named compile-time values (const integers and enum constants), stacked
	// lexically.
	envs []map[string]int32

	// Value assigned to the next enumerator without an explicit expression.
	lastEnumVal int32
}

// NewEvaluator creates an evaluator with a single global environment.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		memo: make(map[ast.ASTExpr]int32),
		envs: []map[string]int32{{}},
	}
}

// PushEnv enters a constant-value scope; the returned token leaves it.
func (ev *Evaluator) PushEnv() func() {
	ev.envs = append(ev.envs, map[string]int32{})

	return func() {
		ev.envs = ev.envs[:len(ev.envs)-1]
	}
}

// DefineConst records a named compile-time value in the current scope.
func (ev *Evaluator) DefineConst(name string, val int32) {
	ev.envs[len(ev.envs)-1][name] = val
}

func (ev *Evaluator) lookupConst(name string) (int32, bool) {
	for i := len(ev.envs) - 1; i >= 0; i-- {
		if val, ok := ev.envs[i][name]; ok {
			return val, true
		}
	}

	return 0, false
}

// GlobalConst looks a name up in the global constant environment only; the
// lexical environments of function bodies are gone once analysis finishes,
// but enum constants live at the top level and stay resolvable.
func (ev *Evaluator) GlobalConst(name string) (int32, bool) {
	val, ok := ev.envs[0][name]
	return val, ok
}

// Known returns the memoized constant value of an expression, if it folded.
func (ev *Evaluator) Known(expr ast.ASTExpr) (int32, bool) {
	val, ok := ev.memo[expr]
	return val, ok
}

// -----------------------------------------------------------------------------

// Eval attempts to evaluate expr to a compile-time integer.  Successful
// results are memoized.
func (ev *Evaluator) Eval(expr ast.ASTExpr) (int32, bool) {
	if val, ok := ev.memo[expr]; ok {
		return val, true
	}

	val, ok := ev.eval(expr)
	if ok {
		ev.memo[expr] = val
	}

	return val, ok
}

func (ev *Evaluator) eval(expr ast.ASTExpr) (int32, bool) {
	switch v := expr.(type) {
	case *ast.IntLit:
		return v.Val, true
	case *ast.CharLit:
		return int32(v.Val), true
	case *ast.Ident:
		return ev.lookupConst(v.Name)
	case *ast.Binary:
		return ev.evalBinary(v)
	case *ast.Unary:
		return ev.evalUnary(v)
	case *ast.Cast:
		opr, ok := ev.Eval(v.Opr)
		if !ok || v.To.Type() == nil || !types.IsInteger(v.To.Type()) {
			return 0, false
		}

		return castConst(opr, v.To.Type()), true
	default:
		return 0, false
	}
}

func (ev *Evaluator) evalBinary(v *ast.Binary) (int32, bool) {
	if v.Op == ast.BinAssign {
		// Assignments are never compile-time constants, and their left side
		// must not be folded away.
		ev.Eval(v.RHS)
		return 0, false
	}

	lhs, lok := ev.Eval(v.LHS)
	rhs, rok := ev.Eval(v.RHS)
	if !lok || !rok {
		return 0, false
	}

	unsigned := v.Type() != nil && types.IsUnsigned(v.Type())
	ul, ur := uint32(lhs), uint32(rhs)

	boolVal := func(b bool) int32 {
		if b {
			return 1
		}
		return 0
	}

	switch v.Op {
	case ast.BinAdd:
		return int32(ul + ur), true
	case ast.BinSub:
		return int32(ul - ur), true
	case ast.BinMul:
		return int32(ul * ur), true
	case ast.BinDiv:
		if rhs == 0 {
			return 0, false
		}
		if unsigned {
			return int32(ul / ur), true
		}
		if lhs == -2147483648 && rhs == -1 {
			return lhs, true
		}
		return lhs / rhs, true
	case ast.BinMod:
		if rhs == 0 {
			return 0, false
		}
		if unsigned {
			return int32(ul % ur), true
		}
		if rhs == -1 {
			return 0, true
		}
		return lhs % rhs, true
	case ast.BinAnd:
		return lhs & rhs, true
	case ast.BinOr:
		return lhs | rhs, true
	case ast.BinXor:
		return lhs ^ rhs, true
	case ast.BinShl:
		return int32(ul << (ur & 31)), true
	case ast.BinShr:
		if unsigned {
			return int32(ul >> (ur & 31)), true
		}
		return lhs >> (ur & 31), true
	case ast.BinLAnd:
		return boolVal(lhs != 0 && rhs != 0), true
	case ast.BinLOr:
		return boolVal(lhs != 0 || rhs != 0), true
	case ast.BinEq:
		return boolVal(lhs == rhs), true
	case ast.BinNe:
		return boolVal(lhs != rhs), true
	case ast.BinLt:
		if unsigned {
			return boolVal(ul < ur), true
		}
		return boolVal(lhs < rhs), true
	case ast.BinLe:
		if unsigned {
			return boolVal(ul <= ur), true
		}
		return boolVal(lhs <= rhs), true
	case ast.BinGt:
		if unsigned {
			return boolVal(ul > ur), true
		}
		return boolVal(lhs > rhs), true
	case ast.BinGe:
		if unsigned {
			return boolVal(ul >= ur), true
		}
		return boolVal(lhs >= rhs), true
	default:
		return 0, false
	}
}

func (ev *Evaluator) evalUnary(v *ast.Unary) (int32, bool) {
	if v.Op == ast.UnSizeOf {
		if v.Opr.Type() != nil {
			return int32(v.Opr.Type().Size()), true
		}

		return 0, false
	}

	opr, ok := ev.Eval(v.Opr)
	if !ok {
		return 0, false
	}

	switch v.Op {
	case ast.UnPos:
		return opr, true
	case ast.UnNeg:
		return -opr, true
	case ast.UnNot:
		return ^opr, true
	case ast.UnLNot:
		if opr == 0 {
			return 1, true
		}
		return 0, true
	default:
		// Deref and address-of never fold.
		return 0, false
	}
}

// castConst converts val into the value domain of an integer type.
func castConst(val int32, typ types.Type) int32 {
	switch types.Unqual(typ) {
	case types.PrimInt8:
		return int32(int8(val))
	case types.PrimUInt8:
		return int32(uint8(val))
	default:
		return val
	}
}

// -----------------------------------------------------------------------------

// EnumReset restarts implicit enumerator numbering for a new enum.
func (ev *Evaluator) EnumReset() {
	ev.lastEnumVal = 0
}

// EnumNext assigns the value of the next enumerator: the element's explicit
// expression if present, the running counter otherwise.
func (ev *Evaluator) EnumNext(elem *ast.EnumElem) (int32, bool) {
	if elem.Expr != nil {
		val, ok := ev.Eval(elem.Expr)
		if !ok {
			return 0, false
		}

		ev.lastEnumVal = val
	}

	val := ev.lastEnumVal
	ev.lastEnumVal++
	ev.DefineConst(elem.Name, val)
	return val, true
}
