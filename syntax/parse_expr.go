package syntax

import (
	"strconv"

	"mmcc/ast"
	"mmcc/report"
)

// assignOps maps compound-assignment token kinds to the binary operator they
// desugar into.
var assignOps = map[int]ast.BinaryOp{
	TOK_PLUSASSIGN:   ast.BinAdd,
	TOK_MINUSASSIGN:  ast.BinSub,
	TOK_STARASSIGN:   ast.BinMul,
	TOK_DIVASSIGN:    ast.BinDiv,
	TOK_MODASSIGN:    ast.BinMod,
	TOK_AMPASSIGN:    ast.BinAnd,
	TOK_PIPEASSIGN:   ast.BinOr,
	TOK_CARETASSIGN:  ast.BinXor,
	TOK_LSHIFTASSIGN: ast.BinShl,
	TOK_RSHIFTASSIGN: ast.BinShr,
}

// parseExpr parses an expression:
//
//	expr := lor_expr [('=' | aug_assign) expr]
//
// Assignment is right associative; compound assignments desugar into a plain
// assignment whose right side repeats the left operand.
func (p *Parser) parseExpr() ast.ASTExpr {
	lhs := p.parseBinaryExpr(0)

	if p.got(TOK_ASSIGN) {
		p.next()
		rhs := p.parseExpr()
		return &ast.Binary{
			ExprBase: ast.NewExprBase(report.NewSpanOver(lhs.Span(), rhs.Span())),
			Op:       ast.BinAssign,
			LHS:      lhs,
			RHS:      rhs,
		}
	}

	if op, ok := assignOps[p.tok.Kind]; ok {
		p.next()
		rhs := p.parseExpr()
		span := report.NewSpanOver(lhs.Span(), rhs.Span())

		return &ast.Binary{
			ExprBase: ast.NewExprBase(span),
			Op:       ast.BinAssign,
			LHS:      lhs,
			RHS: &ast.Binary{
				ExprBase: ast.NewExprBase(span),
				Op:       op,
				LHS:      lhs,
				RHS:      rhs,
			},
		}
	}

	return lhs
}

// binPrecTable lists the binary operators by ascending precedence level.
var binPrecTable = [][]struct {
	tok int
	op  ast.BinaryOp
}{
	{{TOK_LOR, ast.BinLOr}},
	{{TOK_LAND, ast.BinLAnd}},
	{{TOK_PIPE, ast.BinOr}},
	{{TOK_CARET, ast.BinXor}},
	{{TOK_AMP, ast.BinAnd}},
	{{TOK_EQ, ast.BinEq}, {TOK_NEQ, ast.BinNe}},
	{{TOK_LT, ast.BinLt}, {TOK_LTEQ, ast.BinLe}, {TOK_GT, ast.BinGt}, {TOK_GTEQ, ast.BinGe}},
	{{TOK_LSHIFT, ast.BinShl}, {TOK_RSHIFT, ast.BinShr}},
	{{TOK_PLUS, ast.BinAdd}, {TOK_MINUS, ast.BinSub}},
	{{TOK_STAR, ast.BinMul}, {TOK_DIV, ast.BinDiv}, {TOK_MOD, ast.BinMod}},
}

// parseBinaryExpr parses left-associative binary operator levels starting at
// the given precedence.
func (p *Parser) parseBinaryExpr(prec int) ast.ASTExpr {
	if prec == len(binPrecTable) {
		return p.parseUnaryExpr()
	}

	lhs := p.parseBinaryExpr(prec + 1)

	for {
		matched := false

		for _, entry := range binPrecTable[prec] {
			if p.got(entry.tok) {
				p.next()
				rhs := p.parseBinaryExpr(prec + 1)

				lhs = &ast.Binary{
					ExprBase: ast.NewExprBase(report.NewSpanOver(lhs.Span(), rhs.Span())),
					Op:       entry.op,
					LHS:      lhs,
					RHS:      rhs,
				}

				matched = true
				break
			}
		}

		if !matched {
			return lhs
		}
	}
}

// unaryOps maps unary operator tokens to their AST operators.
var unaryOps = map[int]ast.UnaryOp{
	TOK_PLUS:   ast.UnPos,
	TOK_MINUS:  ast.UnNeg,
	TOK_COMPL:  ast.UnNot,
	TOK_NOT:    ast.UnLNot,
	TOK_STAR:   ast.UnDeref,
	TOK_AMP:    ast.UnAddr,
	TOK_SIZEOF: ast.UnSizeOf,
}

// parseUnaryExpr parses prefix unary operators and casts:
//
//	unary := ('+' | '-' | '~' | '!' | '*' | '&' | 'sizeof') unary
//	       | '(' type ')' unary | postfix
func (p *Parser) parseUnaryExpr() ast.ASTExpr {
	if op, ok := unaryOps[p.tok.Kind]; ok {
		opTok := p.tok
		p.next()
		opr := p.parseUnaryExpr()

		return &ast.Unary{
			ExprBase: ast.NewExprBase(report.NewSpanOver(opTok.Span, opr.Span())),
			Op:       op,
			Opr:      opr,
		}
	}

	// A parenthesized type denotation is a cast.
	if p.got(TOK_LPAREN) {
		lpTok := p.tok
		p.next()

		if p.atTypeStart() {
			to := p.parseType()
			p.assertAndNext(TOK_RPAREN)
			opr := p.parseUnaryExpr()

			return &ast.Cast{
				ExprBase: ast.NewExprBase(report.NewSpanOver(lpTok.Span, opr.Span())),
				To:       to,
				Opr:      opr,
			}
		}

		inner := p.parseExpr()
		p.assertAndNext(TOK_RPAREN)
		return p.parsePostfix(inner)
	}

	return p.parsePostfixExpr()
}

// parsePostfixExpr parses an atom followed by its postfix operators.
func (p *Parser) parsePostfixExpr() ast.ASTExpr {
	return p.parsePostfix(p.parseAtom())
}

// parsePostfix parses subscript, call, and member-access chains.
func (p *Parser) parsePostfix(expr ast.ASTExpr) ast.ASTExpr {
	for {
		switch p.tok.Kind {
		case TOK_LBRACKET:
			p.next()
			sub := p.parseExpr()
			endTok := p.tok
			p.assertAndNext(TOK_RBRACKET)

			expr = &ast.Index{
				ExprBase: ast.NewExprBase(report.NewSpanOver(expr.Span(), endTok.Span)),
				Opr:      expr,
				Sub:      sub,
			}
		case TOK_LPAREN:
			p.next()

			var args []ast.ASTExpr
			for !p.got(TOK_RPAREN) {
				if len(args) > 0 {
					p.assertAndNext(TOK_COMMA)
				}

				args = append(args, p.parseExpr())
			}

			endTok := p.tok
			p.next()

			expr = &ast.Call{
				ExprBase: ast.NewExprBase(report.NewSpanOver(expr.Span(), endTok.Span)),
				Fn:       expr,
				Args:     args,
			}
		case TOK_DOT, TOK_ARROW:
			viaPtr := p.got(TOK_ARROW)
			p.next()

			fieldTok := p.tok
			p.assertAndNext(TOK_IDENT)

			expr = &ast.Access{
				ExprBase: ast.NewExprBase(report.NewSpanOver(expr.Span(), fieldTok.Span)),
				Opr:      expr,
				Field:    fieldTok.Value,
				ViaPtr:   viaPtr,
			}
		default:
			return expr
		}
	}
}

// parseAtom parses a literal or identifier.
func (p *Parser) parseAtom() ast.ASTExpr {
	tok := p.tok

	switch tok.Kind {
	case TOK_INTLIT:
		val, err := strconv.ParseUint(tok.Value, 10, 32)
		if err != nil {
			p.rejectWithMsg("invalid integer literal")
		}

		p.next()
		return &ast.IntLit{ExprBase: ast.NewExprBase(tok.Span), Val: int32(uint32(val))}
	case TOK_CHARLIT:
		p.next()
		return &ast.CharLit{ExprBase: ast.NewExprBase(tok.Span), Val: tok.Value[0]}
	case TOK_STRINGLIT:
		p.next()
		return &ast.StringLit{ExprBase: ast.NewExprBase(tok.Span), Val: tok.Value}
	case TOK_IDENT:
		p.next()
		return &ast.Ident{ExprBase: ast.NewExprBase(tok.Span), Name: tok.Value}
	default:
		p.reject()
		return nil
	}
}
