package sema

import (
	"fmt"

	"mmcc/ast"
	"mmcc/report"
	"mmcc/types"
)

// Analyzer performs semantic analysis: it resolves type denotations, builds
// and checks the symbol table, assigns every expression its type and value
// category, and verifies the assignment/initialization/cast rules.
type Analyzer struct {
	// The representative path of the file being analyzed.
	file string

	table *SymbolTable
	eval  *Evaluator

	// The return type of the function currently being analyzed.
	retType types.Type

	// Loop nesting depth; break/continue are only legal inside a loop.
	loopDepth int
}

// NewAnalyzer creates an analyzer for the given file.
func NewAnalyzer(file string) *Analyzer {
	return &Analyzer{
		file:  file,
		table: NewSymbolTable(),
		eval:  NewEvaluator(),
	}
}

// Table returns the analyzer's symbol table.
func (a *Analyzer) Table() *SymbolTable { return a.table }

// Eval returns the analyzer's constant evaluator.
func (a *Analyzer) Eval() *Evaluator { return a.eval }

// Analyze checks all top-level definitions in order.
func (a *Analyzer) Analyze(defs []ast.ASTDef) {
	for _, def := range defs {
		switch d := def.(type) {
		case *ast.StructDef:
			a.analyzeStructDef(d)
		case *ast.EnumDef:
			a.analyzeEnumDef(d)
		case *ast.TypeAlias:
			a.analyzeTypeAlias(d)
		case *ast.VarDecl:
			a.analyzeVarDecl(d)
		case *ast.FuncDef:
			a.analyzeFuncDef(d)
		}
	}
}

func (a *Analyzer) errorOn(node ast.ASTNode, msg string, args ...interface{}) {
	report.ReportCompileError(a.file, node.Span(), msg, args...)
}

func (a *Analyzer) warnOn(node ast.ASTNode, msg string, args ...interface{}) {
	report.ReportCompileWarning(a.file, node.Span(), msg, args...)
}

// -----------------------------------------------------------------------------

// resolveType resolves a type denotation into a semantic type, memoizing it
// on the node.  Errors yield i32 so analysis can continue.
func (a *Analyzer) resolveType(te ast.TypeExpr) types.Type {
	if te.Type() != nil {
		return te.Type()
	}

	var typ types.Type

	switch v := te.(type) {
	case *ast.PrimTypeExpr:
		switch v.Name {
		case "void":
			typ = types.PrimVoid
		case "char":
			if v.Unsigned {
				typ = types.PrimUInt8
			} else {
				typ = types.PrimInt8
			}
		default:
			if v.Unsigned {
				typ = types.PrimUInt32
			} else {
				typ = types.PrimInt32
			}
		}
	case *ast.PointerTypeExpr:
		typ = &types.PointerType{ElemType: a.resolveType(v.Base)}
	case *ast.StructTypeExpr:
		st, ok := a.table.LookupStruct(v.Name)
		if !ok {
			a.errorOn(v, "undefined struct type `%s`", v.Name)
			typ = types.PrimInt32
		} else {
			typ = st
		}
	case *ast.EnumTypeExpr:
		if !a.table.LookupEnum(v.Name) {
			a.errorOn(v, "undefined enum type `%s`", v.Name)
		}

		typ = types.PrimInt32
	case *ast.UserTypeExpr:
		aliased, ok := a.table.LookupAlias(v.Name)
		if !ok {
			a.errorOn(v, "`%s` does not name a type", v.Name)
			typ = types.PrimInt32
		} else {
			typ = aliased
		}
	case *ast.ConstTypeExpr:
		typ = &types.ConstType{Inner: a.resolveType(v.Base)}
	default:
		typ = types.PrimInt32
	}

	te.SetType(typ)
	return typ
}

// applyDims wraps base with the array dimensions, outermost first.  Each
// dimension must be a positive compile-time constant.
func (a *Analyzer) applyDims(base types.Type, dims []ast.ASTExpr) types.Type {
	typ := base

	for i := len(dims) - 1; i >= 0; i-- {
		a.analyzeExpr(dims[i])

		length, ok := a.eval.Eval(dims[i])
		if !ok || length <= 0 {
			a.errorOn(dims[i], "array length must be a positive constant expression")
			length = 1
		}

		typ = &types.ArrayType{ElemType: typ, Len: int(length)}
	}

	return typ
}

// -----------------------------------------------------------------------------

func (a *Analyzer) analyzeStructDef(d *ast.StructDef) {
	st := &types.StructType{Name: d.Name}

	// The name goes in first so fields can point back at the struct.
	if !a.table.DefineStruct(st) {
		a.errorOn(d, "struct `%s` redefined", d.Name)
		return
	}

	for _, field := range d.Fields {
		ft := a.applyDims(a.resolveType(field.FieldType), field.Dims)

		if st.FieldIndex(field.Name) >= 0 {
			a.errorOn(field, "duplicate field `%s` in struct `%s`", field.Name, d.Name)
			continue
		}

		if types.IsVoid(ft) {
			a.errorOn(field, "field cannot have void type")
			continue
		}

		st.Fields = append(st.Fields, types.StructField{Name: field.Name, Type: ft})
	}

	// Containment cycles through any chain of by-value fields are illegal;
	// pointers break them.
	if types.StructCycle(st) {
		a.errorOn(d, "struct `%s` recursively contains itself", d.Name)
	}
}

func (a *Analyzer) analyzeEnumDef(d *ast.EnumDef) {
	if d.Name != "" && !a.table.DefineEnum(d.Name) {
		a.errorOn(d, "enum `%s` redefined", d.Name)
	}

	a.eval.EnumReset()

	for _, elem := range d.Elems {
		if elem.Expr != nil {
			a.analyzeExpr(elem.Expr)
		}

		val, ok := a.eval.EnumNext(elem)
		if !ok {
			a.errorOn(elem, "enumerator value must be a constant expression")
		}

		sym := &Symbol{
			Name:     elem.Name,
			Type:     &types.RValType{Inner: types.PrimInt32},
			DefSpan:  elem.Span(),
			ConstVal: val,
			IsEnum:   true,
		}

		if !a.table.DefineValue(sym) {
			a.errorOn(elem, "`%s` redefined", elem.Name)
		}
	}
}

func (a *Analyzer) analyzeTypeAlias(d *ast.TypeAlias) {
	typ := a.resolveType(d.Aliased)

	// Aliases live in the alias namespace, not the enum one.
	if !a.table.DefineAlias(d.Name, typ) {
		a.errorOn(d, "type alias `%s` redefined", d.Name)
	}
}

// -----------------------------------------------------------------------------

func (a *Analyzer) analyzeVarDecl(d *ast.VarDecl) {
	base := a.resolveType(d.DeclType)

	for _, def := range d.Defs {
		varType := a.applyDims(base, def.Dims)

		if types.IsVoid(varType) {
			a.errorOn(def, "variable cannot have void type")
			continue
		}

		if def.Init != nil {
			a.analyzeInit(def.Init, varType)
		} else if types.IsConst(varType) {
			a.errorOn(def, "const variable `%s` must be initialized", def.Name)
		}

		def.VarType = varType

		sym := &Symbol{Name: def.Name, Type: varType, DefSpan: def.Span()}
		if !a.table.DefineValue(sym) {
			a.errorOn(def, "`%s` redefined in the same scope", def.Name)
			continue
		}

		// A const integer with a constant initializer is itself a
		// compile-time value.
		if types.IsConst(varType) && types.IsInteger(varType) && def.Init != nil {
			if val, ok := a.eval.Eval(def.Init); ok {
				a.eval.DefineConst(def.Name, val)
			}
		}
	}
}

// analyzeInit checks an initializer against the initialized type.
func (a *Analyzer) analyzeInit(init ast.ASTExpr, target types.Type) {
	if lst, ok := init.(*ast.InitList); ok {
		at, isArr := types.Unqual(target).(*types.ArrayType)
		if !isArr {
			a.errorOn(lst, "initializer list requires an array type")
			lst.SetType(&types.RValType{Inner: types.PrimInt32})
			return
		}

		if len(lst.Elems) > at.Len {
			a.errorOn(lst, "too many initializers for `%s`", target.Repr())
		}

		for _, elem := range lst.Elems {
			a.analyzeInit(elem, at.ElemType)
		}

		lst.SetType(&types.RValType{Inner: at})
		return
	}

	initType := a.analyzeExpr(init)

	if !types.CanInit(target, initType) {
		a.errorOn(init, "cannot initialize `%s` from `%s`", target.Repr(), initType.Repr())
	}
}

// -----------------------------------------------------------------------------

func (a *Analyzer) analyzeFuncDef(d *ast.FuncDef) {
	retType := a.resolveType(d.RetType)
	if types.IsArray(retType) || types.IsStruct(retType) {
		a.errorOn(d, "function cannot return `%s`", retType.Repr())
		retType = types.PrimInt32
	}

	paramTypes := make([]types.Type, len(d.Params))
	for i, param := range d.Params {
		pt := a.resolveType(param.ParamType)

		// Aggregates travel by pointer only.
		if types.IsStruct(pt) {
			a.errorOn(param, "struct parameters must be passed by pointer")
			pt = types.PrimInt32
		}

		// Parameter arrays decay to pointers; inner dimensions still shape
		// the element type.
		if len(param.Dims) > 0 {
			inner := a.applyDims(pt, param.Dims[1:])
			pt = &types.PointerType{ElemType: inner}
		}

		param.Resolved = pt
		paramTypes[i] = pt
	}

	sig := &types.FuncType{ParamTypes: paramTypes, ReturnType: retType}
	d.Sig = sig

	sym, exists := a.table.LookupValue(d.Name)
	if exists {
		// A prior declaration is compatible if the signatures agree and at
		// most one body exists.
		if !types.Equals(sym.Type, sig) {
			a.errorOn(d, "`%s` redefined with a different signature", d.Name)
			return
		}

		if sym.HasBody && d.Body != nil {
			a.errorOn(d, "function `%s` redefined", d.Name)
			return
		}
	} else {
		sym = &Symbol{Name: d.Name, Type: sig, DefSpan: d.Span()}
		a.table.DefineValue(sym)
	}

	if d.Body == nil {
		return
	}

	sym.HasBody = true

	pop := a.table.Push()
	defer pop()
	popEnv := a.eval.PushEnv()
	defer popEnv()

	for _, param := range d.Params {
		psym := &Symbol{Name: param.Name, Type: param.Resolved, DefSpan: param.Span()}
		if !a.table.DefineValue(psym) {
			a.errorOn(param, "duplicate parameter `%s`", param.Name)
		}
	}

	a.retType = retType
	a.analyzeBlockInner(d.Body)
	a.retType = nil
}

// -----------------------------------------------------------------------------

func (a *Analyzer) analyzeStmt(stmt ast.ASTStmt) {
	switch s := stmt.(type) {
	case *ast.Block:
		pop := a.table.Push()
		defer pop()
		popEnv := a.eval.PushEnv()
		defer popEnv()

		a.analyzeBlockInner(s)
	case *ast.If:
		a.analyzeCond(s.Cond)
		a.analyzeStmt(s.Then)
		if s.Else != nil {
			a.analyzeStmt(s.Else)
		}
	case *ast.While:
		a.analyzeCond(s.Cond)

		a.loopDepth++
		a.analyzeStmt(s.Body)
		a.loopDepth--
	case *ast.Control:
		a.analyzeControl(s)
	case *ast.ExprStmt:
		a.analyzeExpr(s.Expr)
	case *ast.DeclStmt:
		a.analyzeVarDecl(s.Decl)
	}
}

// analyzeBlockInner checks a block's statements without opening a new scope;
// function bodies share their scope with the parameters.
func (a *Analyzer) analyzeBlockInner(block *ast.Block) {
	for _, stmt := range block.Stmts {
		a.analyzeStmt(stmt)
	}
}

func (a *Analyzer) analyzeCond(cond ast.ASTExpr) {
	condType := a.analyzeExpr(cond)

	if !types.IsInteger(condType) && !types.IsPointer(condType) {
		a.errorOn(cond, "condition must have integer or pointer type")
	}
}

func (a *Analyzer) analyzeControl(s *ast.Control) {
	switch s.Kind {
	case ast.CtrlBreak, ast.CtrlContinue:
		if a.loopDepth == 0 {
			a.errorOn(s, "control statement outside of a loop")
		}
	case ast.CtrlReturn:
		if s.Expr == nil {
			if !types.IsVoid(a.retType) {
				a.errorOn(s, "non-void function must return a value")
			}
			return
		}

		if types.IsVoid(a.retType) {
			a.errorOn(s, "void function cannot return a value")
			return
		}

		exprType := a.analyzeExpr(s.Expr)
		if !types.CanInit(a.retType, exprType) {
			a.errorOn(s.Expr, "cannot return `%s` from a function returning `%s`",
				exprType.Repr(), a.retType.Repr())
		}
	}
}

// -----------------------------------------------------------------------------

// analyzeExpr types an expression.  The returned (and memoized) type carries
// the expression's value category; errors recover with an i32 right-value.
func (a *Analyzer) analyzeExpr(expr ast.ASTExpr) types.Type {
	typ := a.typeExpr(expr)
	expr.SetType(typ)
	return typ
}

func (a *Analyzer) errRecover(expr ast.ASTExpr) types.Type {
	return &types.RValType{Inner: types.PrimInt32}
}

func (a *Analyzer) typeExpr(expr ast.ASTExpr) types.Type {
	switch v := expr.(type) {
	case *ast.IntLit:
		return &types.RValType{Inner: types.PrimInt32}
	case *ast.CharLit:
		return &types.RValType{Inner: types.PrimInt8}
	case *ast.StringLit:
		return &types.RValType{Inner: &types.PointerType{ElemType: types.PrimUInt8}}
	case *ast.Ident:
		sym, ok := a.table.LookupValue(v.Name)
		if !ok {
			a.errorOn(v, "undefined identifier `%s`", v.Name)
			return a.errRecover(v)
		}

		return sym.Type
	case *ast.Binary:
		return a.typeBinary(v)
	case *ast.Unary:
		return a.typeUnary(v)
	case *ast.Cast:
		to := a.resolveType(v.To)
		from := a.analyzeExpr(v.Opr)

		if !types.CanCastTo(from, to) {
			a.errorOn(v, "cannot cast `%s` to `%s`", from.Repr(), to.Repr())
		}

		return &types.RValType{Inner: types.Unqual(to)}
	case *ast.Index:
		return a.typeIndex(v)
	case *ast.Call:
		return a.typeCall(v)
	case *ast.Access:
		return a.typeAccess(v)
	case *ast.InitList:
		a.errorOn(v, "initializer list is only legal in an initialization")
		return a.errRecover(v)
	default:
		return a.errRecover(expr)
	}
}

func (a *Analyzer) typeBinary(v *ast.Binary) types.Type {
	if v.Op == ast.BinAssign {
		lhsType := a.analyzeExpr(v.LHS)
		rhsType := a.analyzeExpr(v.RHS)

		if types.IsStruct(lhsType) {
			a.errorOn(v, "struct assignment is not supported; assign the fields")
			return &types.RValType{Inner: types.Unqual(lhsType)}
		}

		if !types.CanAccept(lhsType, rhsType) {
			if types.IsRightValue(lhsType) || types.IsConst(lhsType) {
				a.errorOn(v.LHS, "expression is not assignable")
			} else {
				a.errorOn(v, "cannot assign `%s` to `%s`", rhsType.Repr(), lhsType.Repr())
			}
		}

		return &types.RValType{Inner: types.Unqual(lhsType)}
	}

	lhsType := a.analyzeExpr(v.LHS)
	rhsType := a.analyzeExpr(v.RHS)

	if v.Op.IsLogical() || v.Op.IsCompare() {
		lhsOK := types.IsInteger(lhsType) || types.IsPointer(lhsType)
		rhsOK := types.IsInteger(rhsType) || types.IsPointer(rhsType)

		if !lhsOK || !rhsOK {
			a.errorOn(v, "invalid operands to binary `%s`", v.Op)
		}

		return &types.RValType{Inner: types.PrimInt32}
	}

	// Pointer arithmetic: pointer +/- integer keeps the pointer type.
	if types.IsPointer(lhsType) || types.IsPointer(rhsType) {
		if v.Op != ast.BinAdd && v.Op != ast.BinSub {
			a.errorOn(v, "invalid operands to binary `%s`", v.Op)
			return a.errRecover(v)
		}

		ptrType, other := lhsType, rhsType
		if types.IsPointer(rhsType) {
			ptrType, other = rhsType, lhsType
		}

		if !types.IsInteger(other) {
			a.errorOn(v, "invalid operands to binary `%s`", v.Op)
			return a.errRecover(v)
		}

		return &types.RValType{Inner: types.Unqual(ptrType)}
	}

	if !types.IsInteger(lhsType) || !types.IsInteger(rhsType) {
		a.errorOn(v, "invalid operands to binary `%s`", v.Op)
		return a.errRecover(v)
	}

	return &types.RValType{Inner: types.CommonType(lhsType, rhsType)}
}

func (a *Analyzer) typeUnary(v *ast.Unary) types.Type {
	oprType := a.analyzeExpr(v.Opr)

	switch v.Op {
	case ast.UnPos, ast.UnNeg, ast.UnNot:
		if !types.IsInteger(oprType) {
			a.errorOn(v, "operand must have integer type")
			return a.errRecover(v)
		}

		return &types.RValType{Inner: types.CommonType(oprType, oprType)}
	case ast.UnLNot:
		if !types.IsInteger(oprType) && !types.IsPointer(oprType) {
			a.errorOn(v, "operand must have integer or pointer type")
		}

		return &types.RValType{Inner: types.PrimInt32}
	case ast.UnDeref:
		elem, ok := types.Deref(oprType)
		if !ok {
			a.errorOn(v, "cannot dereference `%s`", oprType.Repr())
			return a.errRecover(v)
		}

		return elem
	case ast.UnAddr:
		if types.IsRightValue(oprType) {
			a.errorOn(v, "cannot take the address of a right-value")
			return a.errRecover(v)
		}

		return &types.RValType{Inner: &types.PointerType{ElemType: types.Unqual(oprType)}}
	case ast.UnSizeOf:
		return &types.RValType{Inner: types.PrimUInt32}
	default:
		return a.errRecover(v)
	}
}

func (a *Analyzer) typeIndex(v *ast.Index) types.Type {
	oprType := a.analyzeExpr(v.Opr)
	subType := a.analyzeExpr(v.Sub)

	if !types.IsInteger(subType) {
		a.errorOn(v.Sub, "array subscript must have integer type")
	}

	elem, ok := types.Deref(oprType)
	if !ok {
		a.errorOn(v, "cannot index `%s`", oprType.Repr())
		return a.errRecover(v)
	}

	// An out-of-bounds constant subscript of a fixed array is diagnosed but
	// compilation continues.
	if at, isArr := types.Unqual(oprType).(*types.ArrayType); isArr {
		if sub, known := a.eval.Eval(v.Sub); known && (sub < 0 || int(sub) >= at.Len) {
			a.warnOn(v.Sub, "subscript out of bounds")
		}
	}

	return elem
}

func (a *Analyzer) typeCall(v *ast.Call) types.Type {
	fnType := a.analyzeExpr(v.Fn)

	ft, ok := types.Unqual(fnType).(*types.FuncType)
	if !ok {
		a.errorOn(v, "called expression is not a function")
		return a.errRecover(v)
	}

	if len(v.Args) != len(ft.ParamTypes) {
		a.errorOn(v, fmt.Sprintf("expected %d arguments but got %d", len(ft.ParamTypes), len(v.Args)))
	}

	for i, arg := range v.Args {
		argType := a.analyzeExpr(arg)

		if i < len(ft.ParamTypes) && !types.CanInit(ft.ParamTypes[i], argType) {
			a.errorOn(arg, "cannot pass `%s` as `%s`", argType.Repr(), ft.ParamTypes[i].Repr())
		}
	}

	return &types.RValType{Inner: ft.ReturnType}
}

func (a *Analyzer) typeAccess(v *ast.Access) types.Type {
	oprType := a.analyzeExpr(v.Opr)

	target := oprType
	if v.ViaPtr {
		elem, ok := types.Deref(oprType)
		if !ok {
			a.errorOn(v, "arrow access requires a pointer to a struct")
			return a.errRecover(v)
		}

		target = elem
	}

	fieldType, ok := types.FieldType(target, v.Field)
	if !ok {
		a.errorOn(v, "`%s` has no field named `%s`", target.Repr(), v.Field)
		return a.errRecover(v)
	}

	return fieldType
}
