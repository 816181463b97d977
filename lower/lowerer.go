package lower

import (
	"mmcc/ast"
	"mmcc/report"
	"mmcc/sema"
	"mmcc/ssa"
	"mmcc/types"
)

// Lowerer converts a checked AST into an SSA module through the IR builder.
type Lowerer struct {
	file string

	b  *ssa.Builder
	ev *sema.Evaluator

	// Lexical scopes mapping names to the SSA value holding them: the
	// function, the global's address, the local's alloca, or the parameter
	// value itself.
	scopes []map[string]ssa.Value

	// Loop context stack for break/continue.
	loops []loopCtx
}

type loopCtx struct {
	header *ssa.BasicBlock
	exit   *ssa.BasicBlock
}

// Lower builds the SSA module for a checked file.
func Lower(file string, defs []ast.ASTDef, ev *sema.Evaluator) *ssa.Module {
	lo := &Lowerer{
		file:   file,
		b:      ssa.NewBuilder(ssa.NewModule(file)),
		ev:     ev,
		scopes: []map[string]ssa.Value{{}},
	}

	// Two passes so every function is declarable before any body references
	// it: mirrors the declaration-before-use the analyzer enforced.
	for _, def := range defs {
		switch d := def.(type) {
		case *ast.VarDecl:
			lo.lowerGlobalVarDecl(d)
		case *ast.FuncDef:
			lo.declareFunc(d)
		}
	}

	for _, def := range defs {
		if fd, ok := def.(*ast.FuncDef); ok && fd.Body != nil {
			lo.lowerFuncBody(fd)
		}
	}

	return lo.b.Module()
}

// -----------------------------------------------------------------------------

func (lo *Lowerer) logger(node ast.ASTNode) *report.Logger {
	return report.NewLogger(lo.file, node.Span())
}

func (lo *Lowerer) pushScope() func() {
	lo.scopes = append(lo.scopes, map[string]ssa.Value{})

	return func() {
		lo.scopes = lo.scopes[:len(lo.scopes)-1]
	}
}

func (lo *Lowerer) define(name string, v ssa.Value) {
	lo.scopes[len(lo.scopes)-1][name] = v
}

func (lo *Lowerer) lookup(name string) (ssa.Value, bool) {
	for i := len(lo.scopes) - 1; i >= 0; i-- {
		if v, ok := lo.scopes[i][name]; ok {
			return v, true
		}
	}

	return nil, false
}

// -----------------------------------------------------------------------------

// lowerGlobalVarDecl emits global variables with their constant
// initializers.
func (lo *Lowerer) lowerGlobalVarDecl(d *ast.VarDecl) {
	link := ssa.LinkExternal
	if d.Static {
		link = ssa.LinkInternal
	}

	for _, def := range d.Defs {
		var init ssa.Value
		if def.Init != nil {
			init = lo.constInit(def.VarType, def.Init)
		}

		gv := lo.b.Module().NewGlobalVar(def.Name, def.VarType, init, link)
		gv.SetLogger(lo.logger(def))
		lo.define(def.Name, gv)
	}
}

// constInit builds the constant for a global initializer.  Non-constant
// elements are diagnosed; a zero stands in so lowering continues.
func (lo *Lowerer) constInit(target types.Type, init ast.ASTExpr) ssa.Value {
	mod := lo.b.Module()

	if lst, ok := init.(*ast.InitList); ok {
		at, isArr := types.Unqual(target).(*types.ArrayType)
		if !isArr {
			return mod.Zero(target)
		}

		elems := make([]ssa.Value, 0, at.Len)
		for _, elem := range lst.Elems {
			elems = append(elems, lo.constInit(at.ElemType, elem))
		}

		// The unwritten tail is zero-filled.
		for len(elems) < at.Len {
			elems = append(elems, mod.Zero(at.ElemType))
		}

		return ssa.NewArrayConst(types.Unqual(target), elems)
	}

	if s, ok := init.(*ast.StringLit); ok {
		return mod.Str(s.Val)
	}

	val, ok := lo.ev.Eval(init)
	if !ok {
		report.ReportCompileError(lo.file, init.Span(), "initializer element is not a constant expression")
		return mod.Zero(target)
	}

	return mod.Int(val, types.Unqual(target))
}

// -----------------------------------------------------------------------------

// declareFunc creates the SSA function for a definition or declaration.
func (lo *Lowerer) declareFunc(d *ast.FuncDef) {
	if _, ok := lo.lookup(d.Name); ok {
		// Already declared; the body pass will fill it in.
		return
	}

	link := ssa.LinkExternal
	switch {
	case d.Inline:
		link = ssa.LinkInline
	case d.Static:
		link = ssa.LinkInternal
	}

	f := lo.b.Module().NewFunction(d.Name, d.Sig, link)
	f.SetLogger(lo.logger(d))

	for i, param := range d.Params {
		f.Params()[i].Name = param.Name
	}

	lo.define(d.Name, f)
}

// lowerFuncBody lowers a function body into blocks.
func (lo *Lowerer) lowerFuncBody(d *ast.FuncDef) {
	fv, _ := lo.lookup(d.Name)
	f := fv.(*ssa.Function)

	entry := f.NewBlock("entry")
	lo.b.SetBlock(entry)
	lo.b.SetLogger(lo.logger(d))

	pop := lo.pushScope()
	defer pop()

	// Parameters that are never assigned or address-taken bind directly to
	// the argument value; mutable ones get a stack slot like any local.
	for i, param := range d.Params {
		arg := f.Params()[i]

		if paramMutated(d.Body, param.Name) {
			slot := lo.b.CreateAlloca(param.Resolved)
			lo.b.CreateStore(arg, slot)
			lo.define(param.Name, slot)
		} else {
			lo.define(param.Name, arg)
		}
	}

	lo.lowerBlockInner(d.Body)

	// A body that falls off its end returns implicitly.
	if !lo.b.Sealed() {
		if types.IsVoid(d.Sig.ReturnType) {
			lo.b.CreateRet(nil)
		} else {
			lo.b.CreateRet(lo.b.Module().Int(0, d.Sig.ReturnType))
		}
	}
}

// paramMutated reports whether the body assigns to or takes the address of
// the named parameter.  Shadowing declarations conservatively count as
// mutation.
func paramMutated(node ast.ASTNode, name string) bool {
	switch v := node.(type) {
	case *ast.Block:
		for _, s := range v.Stmts {
			if paramMutated(s, name) {
				return true
			}
		}
	case *ast.If:
		return paramMutated(v.Cond, name) || paramMutated(v.Then, name) ||
			(v.Else != nil && paramMutated(v.Else, name))
	case *ast.While:
		return paramMutated(v.Cond, name) || paramMutated(v.Body, name)
	case *ast.Control:
		return v.Expr != nil && paramMutated(v.Expr, name)
	case *ast.ExprStmt:
		return paramMutated(v.Expr, name)
	case *ast.DeclStmt:
		for _, def := range v.Decl.Defs {
			if def.Name == name {
				return true
			}

			if def.Init != nil && paramMutated(def.Init, name) {
				return true
			}
		}
	case *ast.Binary:
		if v.Op == ast.BinAssign {
			if id, ok := v.LHS.(*ast.Ident); ok && id.Name == name {
				return true
			}
		}

		return paramMutated(v.LHS, name) || paramMutated(v.RHS, name)
	case *ast.Unary:
		if v.Op == ast.UnAddr {
			if id, ok := v.Opr.(*ast.Ident); ok && id.Name == name {
				return true
			}
		}

		return paramMutated(v.Opr, name)
	case *ast.Cast:
		return paramMutated(v.Opr, name)
	case *ast.Index:
		return paramMutated(v.Opr, name) || paramMutated(v.Sub, name)
	case *ast.Access:
		return paramMutated(v.Opr, name)
	case *ast.Call:
		for _, arg := range v.Args {
			if paramMutated(arg, name) {
				return true
			}
		}
	}

	return false
}

// -----------------------------------------------------------------------------

func (lo *Lowerer) lowerStmt(stmt ast.ASTStmt) {
	if lo.b.Sealed() {
		// Unreachable code after a control transfer is silently dropped.
		return
	}

	switch s := stmt.(type) {
	case *ast.Block:
		pop := lo.pushScope()
		lo.lowerBlockInner(s)
		pop()
	case *ast.If:
		lo.lowerIf(s)
	case *ast.While:
		lo.lowerWhile(s)
	case *ast.Control:
		lo.lowerControl(s)
	case *ast.ExprStmt:
		lo.b.SetLogger(lo.logger(s))
		lo.lowerExpr(s.Expr)
	case *ast.DeclStmt:
		lo.lowerLocalDecl(s.Decl)
	}
}

func (lo *Lowerer) lowerBlockInner(block *ast.Block) {
	for _, stmt := range block.Stmts {
		lo.lowerStmt(stmt)
	}
}

func (lo *Lowerer) lowerIf(s *ast.If) {
	f := lo.b.Func()
	cond := lo.lowerExpr(s.Cond)

	thenB := f.NewBlock("if.then")
	exitB := f.NewBlock("if.end")
	elseB := exitB

	if s.Else != nil {
		elseB = f.NewBlock("if.else")
	}

	lo.b.CreateBranch(lo.truthy(cond), thenB, elseB)

	lo.b.SetBlock(thenB)
	lo.lowerStmt(s.Then)
	if !lo.b.Sealed() {
		lo.b.CreateJump(exitB)
	}

	if s.Else != nil {
		lo.b.SetBlock(elseB)
		lo.lowerStmt(s.Else)
		if !lo.b.Sealed() {
			lo.b.CreateJump(exitB)
		}
	}

	lo.b.SetBlock(exitB)
}

func (lo *Lowerer) lowerWhile(s *ast.While) {
	f := lo.b.Func()

	header := f.NewBlock("while.cond")
	body := f.NewBlock("while.body")
	exit := f.NewBlock("while.end")

	lo.b.CreateJump(header)

	lo.b.SetBlock(header)
	cond := lo.lowerExpr(s.Cond)
	lo.b.CreateBranch(lo.truthy(cond), body, exit)

	lo.loops = append(lo.loops, loopCtx{header: header, exit: exit})
	lo.b.SetBlock(body)
	lo.lowerStmt(s.Body)
	if !lo.b.Sealed() {
		lo.b.CreateJump(header)
	}
	lo.loops = lo.loops[:len(lo.loops)-1]

	lo.b.SetBlock(exit)
}

func (lo *Lowerer) lowerControl(s *ast.Control) {
	lo.b.SetLogger(lo.logger(s))

	switch s.Kind {
	case ast.CtrlBreak:
		lo.b.CreateJump(lo.loops[len(lo.loops)-1].exit)
	case ast.CtrlContinue:
		lo.b.CreateJump(lo.loops[len(lo.loops)-1].header)
	case ast.CtrlReturn:
		if s.Expr == nil {
			lo.b.CreateRet(nil)
		} else {
			lo.b.CreateRet(lo.lowerExpr(s.Expr))
		}
	}
}

// lowerLocalDecl emits stack slots and initialization stores for a local
// declaration.
func (lo *Lowerer) lowerLocalDecl(d *ast.VarDecl) {
	for _, def := range d.Defs {
		lo.b.SetLogger(lo.logger(def))

		slot := lo.b.CreateAlloca(def.VarType)
		lo.define(def.Name, slot)

		if def.Init == nil {
			continue
		}

		lo.lowerInitInto(slot, def.VarType, def.Init)
	}
}

// lowerInitInto stores an initializer into an already-allocated location,
// recursing through initializer lists and zero-filling the unwritten integer
// elements of arrays, nested arrays included.  Unwritten elements of pointer
// or struct type are left as they are.
func (lo *Lowerer) lowerInitInto(addr ssa.Value, target types.Type, init ast.ASTExpr) {
	lst, isList := init.(*ast.InitList)
	if !isList {
		lo.b.CreateStore(lo.lowerExpr(init), addr)
		return
	}

	at := types.Unqual(target).(*types.ArrayType)

	for i := 0; i < at.Len; i++ {
		elemAddr := lo.b.CreateElemPtr(ssa.ElemArray, at.ElemType, addr, lo.b.Int(int32(i)))

		if i < len(lst.Elems) {
			lo.lowerInitInto(elemAddr, at.ElemType, lst.Elems[i])
		} else if types.IsArray(at.ElemType) {
			lo.lowerInitInto(elemAddr, at.ElemType, &ast.InitList{})
		} else if types.IsInteger(at.ElemType) {
			lo.b.CreateStore(lo.b.Module().Int(0, at.ElemType), elemAddr)
		}
	}
}
