package ast

import (
	"mmcc/report"
	"mmcc/types"
)

// ASTNode is the common interface of all AST nodes.
type ASTNode interface {
	// Span returns the span of source text the node corresponds to.
	Span() *report.TextSpan
}

// ASTBase is the base struct of all AST nodes.
type ASTBase struct {
	span *report.TextSpan
}

// NewASTBase creates a new AST base over the given span.
func NewASTBase(span *report.TextSpan) ASTBase {
	return ASTBase{span: span}
}

func (ab *ASTBase) Span() *report.TextSpan {
	return ab.span
}

// -----------------------------------------------------------------------------

// ASTExpr is the interface of all expression nodes.  Expressions carry the
// type semantic analysis assigned them; its value category distinguishes
// assignable locations from computed values.
type ASTExpr interface {
	ASTNode

	// Type returns the expression's semantic type.  Nil before analysis.
	Type() types.Type

	// SetType sets the expression's semantic type.
	SetType(typ types.Type)
}

// ExprBase is the base struct of all expression nodes.
type ExprBase struct {
	ASTBase

	typ types.Type
}

// NewExprBase creates a new expression base over the given span.
func NewExprBase(span *report.TextSpan) ExprBase {
	return ExprBase{ASTBase: NewASTBase(span)}
}

func (eb *ExprBase) Type() types.Type {
	return eb.typ
}

func (eb *ExprBase) SetType(typ types.Type) {
	eb.typ = typ
}

// -----------------------------------------------------------------------------

// ASTDef is the interface of all top-level definition nodes.
type ASTDef interface {
	ASTNode

	isDef()
}

// DefBase is the base struct of all definition nodes.
type DefBase struct {
	ASTBase
}

// NewDefBase creates a new definition base over the given span.
func NewDefBase(span *report.TextSpan) DefBase {
	return DefBase{ASTBase: NewASTBase(span)}
}

func (DefBase) isDef() {}

// -----------------------------------------------------------------------------

// ASTStmt is the interface of all statement nodes.
type ASTStmt interface {
	ASTNode

	isStmt()
}

// StmtBase is the base struct of all statement nodes.
type StmtBase struct {
	ASTBase
}

// NewStmtBase creates a new statement base over the given span.
func NewStmtBase(span *report.TextSpan) StmtBase {
	return StmtBase{ASTBase: NewASTBase(span)}
}

func (StmtBase) isStmt() {}
