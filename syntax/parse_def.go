package syntax

import (
	"mmcc/ast"
	"mmcc/report"
)

// parseTopDef parses a single top-level definition:
//
//	topdef := structdef | enumdef | typealias
//	        | ['static'] ['inline'] type funcdef | ['static'] type vardecl
func (p *Parser) parseTopDef() ast.ASTDef {
	switch p.tok.Kind {
	case TOK_STRUCT:
		// A struct keyword opens a definition only when followed by a brace;
		// otherwise it denotes a type in a variable/function declaration.
		if def, ok := p.maybeParseStructDef(); ok {
			return def
		}
	case TOK_ENUM:
		if def, ok := p.maybeParseEnumDef(); ok {
			return def
		}
	case TOK_TYPEDEF:
		return p.parseTypeAlias()
	}

	static, inline := false, false
	for p.gotOneOf(TOK_STATIC, TOK_INLINE) {
		if p.got(TOK_STATIC) {
			static = true
		} else {
			inline = true
		}

		p.next()
	}

	declType := p.parseType()

	nameTok := p.tok
	p.assertAndNext(TOK_IDENT)

	if p.got(TOK_LPAREN) {
		return p.parseFuncDef(declType, nameTok, static, inline)
	}

	if inline {
		report.ReportCompileWarning(p.file, nameTok.Span, "inline qualifier has no effect on a variable")
	}

	decl := p.parseVarDecl(declType, nameTok, static)
	p.assertAndNext(TOK_SEMI)
	return decl
}

// -----------------------------------------------------------------------------

// parseType parses a type denotation:
//
//	type := ['const'] basetype {'*'}
//	basetype := 'void' | 'char' | 'int' | 'unsigned' ['int'|'char']
//	          | 'struct' IDENT | 'enum' IDENT | IDENT
func (p *Parser) parseType() ast.TypeExpr {
	startSpan := p.tok.Span

	isConst := false
	if p.got(TOK_CONST) {
		isConst = true
		p.next()
	}

	var typ ast.TypeExpr

	switch p.tok.Kind {
	case TOK_VOID:
		typ = &ast.PrimTypeExpr{TypeExprBase: p.typeExprBase(), Name: "void"}
		p.next()
	case TOK_CHAR:
		typ = &ast.PrimTypeExpr{TypeExprBase: p.typeExprBase(), Name: "char"}
		p.next()
	case TOK_INT:
		typ = &ast.PrimTypeExpr{TypeExprBase: p.typeExprBase(), Name: "int"}
		p.next()
	case TOK_UNSIGNED:
		base := "int"
		p.next()

		if p.gotOneOf(TOK_INT, TOK_CHAR) {
			if p.got(TOK_CHAR) {
				base = "char"
			}

			p.next()
		}

		typ = &ast.PrimTypeExpr{TypeExprBase: p.typeExprBase(), Name: base, Unsigned: true}
	case TOK_STRUCT:
		p.next()
		p.assert(TOK_IDENT)
		typ = &ast.StructTypeExpr{TypeExprBase: p.typeExprBase(), Name: p.tok.Value}
		p.next()
	case TOK_ENUM:
		p.next()
		p.assert(TOK_IDENT)
		typ = &ast.EnumTypeExpr{TypeExprBase: p.typeExprBase(), Name: p.tok.Value}
		p.next()
	case TOK_IDENT:
		if !p.typeNames[p.tok.Value] {
			p.rejectWithMsg("`%s` does not name a type", p.tok.Value)
		}

		typ = &ast.UserTypeExpr{TypeExprBase: p.typeExprBase(), Name: p.tok.Value}
		p.next()
	default:
		p.reject()
	}

	if isConst {
		typ = &ast.ConstTypeExpr{
			TypeExprBase: ast.TypeExprBase{ExprBase: ast.NewExprBase(report.NewSpanOver(startSpan, p.tok.Span))},
			Base:         typ,
		}
	}

	for p.got(TOK_STAR) {
		typ = &ast.PointerTypeExpr{TypeExprBase: p.typeExprBase(), Base: typ}
		p.next()
	}

	return typ
}

func (p *Parser) typeExprBase() ast.TypeExprBase {
	return ast.TypeExprBase{ExprBase: ast.NewExprBase(p.tok.Span)}
}

// -----------------------------------------------------------------------------

// parseVarDecl parses the remainder of a variable declaration, the base type
// and first name already consumed:
//
//	vardecl := type vardef {',' vardef}
//	vardef := IDENT {'[' expr ']'} ['=' initializer]
func (p *Parser) parseVarDecl(declType ast.TypeExpr, nameTok *Token, static bool) *ast.VarDecl {
	decl := &ast.VarDecl{
		DefBase:  ast.NewDefBase(nameTok.Span),
		DeclType: declType,
		Static:   static,
	}

	decl.Defs = append(decl.Defs, p.parseVarDef(nameTok))

	for p.got(TOK_COMMA) {
		p.next()

		nameTok = p.tok
		p.assertAndNext(TOK_IDENT)
		decl.Defs = append(decl.Defs, p.parseVarDef(nameTok))
	}

	return decl
}

func (p *Parser) parseVarDef(nameTok *Token) *ast.VarDef {
	def := &ast.VarDef{
		ASTBase: ast.NewASTBase(nameTok.Span),
		Name:    nameTok.Value,
	}

	for p.got(TOK_LBRACKET) {
		p.next()
		def.Dims = append(def.Dims, p.parseExpr())
		p.assertAndNext(TOK_RBRACKET)
	}

	if p.got(TOK_ASSIGN) {
		p.next()
		def.Init = p.parseInitializer()
	}

	return def
}

// parseInitializer parses an expression or a braced initializer list.
func (p *Parser) parseInitializer() ast.ASTExpr {
	if !p.got(TOK_LBRACE) {
		return p.parseExpr()
	}

	lst := &ast.InitList{ExprBase: ast.NewExprBase(p.tok.Span)}
	p.next()

	for !p.got(TOK_RBRACE) {
		lst.Elems = append(lst.Elems, p.parseInitializer())

		if p.got(TOK_COMMA) {
			p.next()
		} else {
			break
		}
	}

	p.assertAndNext(TOK_RBRACE)
	return lst
}

// -----------------------------------------------------------------------------

// parseFuncDef parses a function definition or declaration, the return type
// and name already consumed:
//
//	funcdef := type IDENT '(' [param {',' param}] ')' (block | ';')
//	param := type IDENT {'[' [expr] ']'}
func (p *Parser) parseFuncDef(retType ast.TypeExpr, nameTok *Token, static, inline bool) *ast.FuncDef {
	fd := &ast.FuncDef{
		DefBase: ast.NewDefBase(nameTok.Span),
		Name:    nameTok.Value,
		RetType: retType,
		Static:  static,
		Inline:  inline,
	}

	p.assertAndNext(TOK_LPAREN)

	for !p.got(TOK_RPAREN) {
		if len(fd.Params) > 0 {
			p.assertAndNext(TOK_COMMA)
		}

		// A lone void parameter list declares no parameters.
		if p.got(TOK_VOID) && len(fd.Params) == 0 {
			save := p.tok
			p.next()
			if p.got(TOK_RPAREN) {
				break
			}

			// Not `(void)`: rewind is impossible, so rebuild the type from
			// the consumed token.
			var typ ast.TypeExpr = &ast.PrimTypeExpr{
				TypeExprBase: ast.TypeExprBase{ExprBase: ast.NewExprBase(save.Span)},
				Name:         "void",
			}
			for p.got(TOK_STAR) {
				typ = &ast.PointerTypeExpr{TypeExprBase: p.typeExprBase(), Base: typ}
				p.next()
			}

			fd.Params = append(fd.Params, p.parseParamRest(typ))
			continue
		}

		fd.Params = append(fd.Params, p.parseParamRest(p.parseType()))
	}

	p.next() // closing paren

	if p.got(TOK_SEMI) {
		p.next()
		return fd
	}

	fd.Body = p.parseBlock()
	return fd
}

func (p *Parser) parseParamRest(typ ast.TypeExpr) *ast.FuncParam {
	nameTok := p.tok
	p.assertAndNext(TOK_IDENT)

	param := &ast.FuncParam{
		ASTBase:   ast.NewASTBase(nameTok.Span),
		Name:      nameTok.Value,
		ParamType: typ,
	}

	for p.got(TOK_LBRACKET) {
		p.next()

		if p.got(TOK_RBRACKET) {
			param.Dims = append(param.Dims, nil)
		} else {
			param.Dims = append(param.Dims, p.parseExpr())
		}

		p.assertAndNext(TOK_RBRACKET)
	}

	return param
}

// -----------------------------------------------------------------------------

// maybeParseStructDef parses `struct IDENT '{' fields '}' ';'` if the
// lookahead confirms a definition; it returns false when the struct keyword
// begins an ordinary declaration instead.
func (p *Parser) maybeParseStructDef() (ast.ASTDef, bool) {
	structTok := p.tok
	p.next()

	p.assert(TOK_IDENT)
	nameTok := p.tok
	p.next()

	if !p.got(TOK_LBRACE) {
		// Re-enter declaration parsing with the struct type already built.
		var typ ast.TypeExpr = &ast.StructTypeExpr{
			TypeExprBase: ast.TypeExprBase{ExprBase: ast.NewExprBase(nameTok.Span)},
			Name:         nameTok.Value,
		}
		for p.got(TOK_STAR) {
			typ = &ast.PointerTypeExpr{TypeExprBase: p.typeExprBase(), Base: typ}
			p.next()
		}

		varName := p.tok
		p.assertAndNext(TOK_IDENT)

		if p.got(TOK_LPAREN) {
			return p.parseFuncDef(typ, varName, false, false), true
		}

		decl := p.parseVarDecl(typ, varName, false)
		p.assertAndNext(TOK_SEMI)
		return decl, true
	}

	sd := &ast.StructDef{
		DefBase: ast.NewDefBase(structTok.Span),
		Name:    nameTok.Value,
	}

	p.next() // brace

	for !p.got(TOK_RBRACE) {
		fieldType := p.parseType()

		fieldName := p.tok
		p.assertAndNext(TOK_IDENT)

		field := &ast.StructField{
			ASTBase:   ast.NewASTBase(fieldName.Span),
			Name:      fieldName.Value,
			FieldType: fieldType,
		}

		for p.got(TOK_LBRACKET) {
			p.next()
			field.Dims = append(field.Dims, p.parseExpr())
			p.assertAndNext(TOK_RBRACKET)
		}

		p.assertAndNext(TOK_SEMI)
		sd.Fields = append(sd.Fields, field)
	}

	p.next() // closing brace
	p.assertAndNext(TOK_SEMI)
	return sd, true
}

// maybeParseEnumDef parses `enum [IDENT] '{' elems '}' ';'`, or reports that
// the enum keyword begins an ordinary declaration.
func (p *Parser) maybeParseEnumDef() (ast.ASTDef, bool) {
	enumTok := p.tok
	p.next()

	name := ""
	if p.got(TOK_IDENT) {
		name = p.tok.Value
		p.next()
	}

	if !p.got(TOK_LBRACE) {
		if name == "" {
			p.reject()
		}

		var typ ast.TypeExpr = &ast.EnumTypeExpr{
			TypeExprBase: ast.TypeExprBase{ExprBase: ast.NewExprBase(enumTok.Span)},
			Name:         name,
		}
		for p.got(TOK_STAR) {
			typ = &ast.PointerTypeExpr{TypeExprBase: p.typeExprBase(), Base: typ}
			p.next()
		}

		varName := p.tok
		p.assertAndNext(TOK_IDENT)

		decl := p.parseVarDecl(typ, varName, false)
		p.assertAndNext(TOK_SEMI)
		return decl, true
	}

	ed := &ast.EnumDef{
		DefBase: ast.NewDefBase(enumTok.Span),
		Name:    name,
	}

	p.next() // brace

	for !p.got(TOK_RBRACE) {
		elemName := p.tok
		p.assertAndNext(TOK_IDENT)

		elem := &ast.EnumElem{ASTBase: ast.NewASTBase(elemName.Span), Name: elemName.Value}

		if p.got(TOK_ASSIGN) {
			p.next()
			elem.Expr = p.parseExpr()
		}

		ed.Elems = append(ed.Elems, elem)

		if p.got(TOK_COMMA) {
			p.next()
		} else {
			break
		}
	}

	p.assertAndNext(TOK_RBRACE)
	p.assertAndNext(TOK_SEMI)
	return ed, true
}

// parseTypeAlias parses `typedef type IDENT ';'`.
func (p *Parser) parseTypeAlias() *ast.TypeAlias {
	tdTok := p.tok
	p.next()

	aliased := p.parseType()

	nameTok := p.tok
	p.assertAndNext(TOK_IDENT)
	p.assertAndNext(TOK_SEMI)

	p.typeNames[nameTok.Value] = true

	return &ast.TypeAlias{
		DefBase: ast.NewDefBase(tdTok.Span),
		Name:    nameTok.Value,
		Aliased: aliased,
	}
}
