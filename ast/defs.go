package ast

import "mmcc/types"

// VarDef is a single defined name within a variable declaration, with its
// array dimensions and optional initializer.
type VarDef struct {
	ASTBase

	Name string

	// Array dimension expressions, outermost first; empty for scalars.
	Dims []ASTExpr

	// The initializer, or nil.
	Init ASTExpr

	// The resolved type of the defined variable.  Set by analysis.
	VarType types.Type
}

// VarDecl declares one or more variables of a common base type.
type VarDecl struct {
	DefBase

	// The declared base type.
	DeclType TypeExpr

	// Whether the declaration is static (internal linkage for globals).
	Static bool

	Defs []*VarDef
}

func (*VarDecl) isStmt() {}

// -----------------------------------------------------------------------------

// FuncParam is a single function parameter.
type FuncParam struct {
	ASTBase

	Name string

	ParamType TypeExpr

	// Array dimension markers; a parameter declared as an array decays to a
	// pointer.
	Dims []ASTExpr

	// The resolved parameter type.  Set by analysis.
	Resolved types.Type
}

// FuncDef is a function definition or declaration (nil body).
type FuncDef struct {
	DefBase

	Name    string
	RetType TypeExpr
	Params  []*FuncParam
	Body    *Block

	// Linkage modifiers.
	Static bool
	Inline bool

	// The resolved signature.  Set by analysis.
	Sig *types.FuncType
}

// -----------------------------------------------------------------------------

// StructField is one field of a struct definition.
type StructField struct {
	ASTBase

	Name      string
	FieldType TypeExpr
	Dims      []ASTExpr
}

// StructDef defines a nominal struct type.
type StructDef struct {
	DefBase

	Name   string
	Fields []*StructField
}

// EnumElem is one enumerator, with an optional value expression.
type EnumElem struct {
	ASTBase

	Name string
	Expr ASTExpr
}

// EnumDef defines an enumeration.  Anonymous enums have an empty name.
type EnumDef struct {
	DefBase

	Name  string
	Elems []*EnumElem
}

// TypeAlias is a typedef.
type TypeAlias struct {
	DefBase

	Name    string
	Aliased TypeExpr
}
