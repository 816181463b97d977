package ast

// BinaryOp enumerates the source-level binary operators.
type BinaryOp int

const (
	BinAdd = BinaryOp(iota)
	BinSub
	BinMul
	BinDiv
	BinMod
	BinAnd
	BinOr
	BinXor
	BinShl
	BinShr
	BinLAnd
	BinLOr
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinAssign
)

var binOpNames = [...]string{
	"+", "-", "*", "/", "%", "&", "|", "^", "<<", ">>",
	"&&", "||", "==", "!=", "<", "<=", ">", ">=", "=",
}

func (op BinaryOp) String() string {
	return binOpNames[op]
}

// IsCompare returns whether the operator is a comparison.
func (op BinaryOp) IsCompare() bool {
	return BinEq <= op && op <= BinGe
}

// IsLogical returns whether the operator is a short-circuit logical one.
func (op BinaryOp) IsLogical() bool {
	return op == BinLAnd || op == BinLOr
}

// Binary is a binary operator application.  Compound assignments are
// desugared by the parser into an assignment whose RHS repeats the LHS.
type Binary struct {
	ExprBase

	Op       BinaryOp
	LHS, RHS ASTExpr
}

// -----------------------------------------------------------------------------

// UnaryOp enumerates the source-level unary operators.
type UnaryOp int

const (
	UnPos = UnaryOp(iota)
	UnNeg
	UnNot   // bitwise ~
	UnLNot  // logical !
	UnDeref // *
	UnAddr  // &
	UnSizeOf
)

// Unary is a unary operator application.
type Unary struct {
	ExprBase

	Op  UnaryOp
	Opr ASTExpr
}

// -----------------------------------------------------------------------------

// Cast is an explicit type cast.
type Cast struct {
	ExprBase

	// The type expression being casted to.
	To TypeExpr

	Opr ASTExpr
}

// Index is an array or pointer subscript.
type Index struct {
	ExprBase

	Opr ASTExpr
	Sub ASTExpr
}

// Call is a function call.
type Call struct {
	ExprBase

	Fn   ASTExpr
	Args []ASTExpr
}

// Access is a struct member access, through a value or a pointer.
type Access struct {
	ExprBase

	Opr   ASTExpr
	Field string

	// Whether the access is through the arrow operator.
	ViaPtr bool
}

// -----------------------------------------------------------------------------

// IntLit is an integer literal, already decoded from its dec/hex/oct
// spelling.
type IntLit struct {
	ExprBase

	Val int32
}

// CharLit is a character literal.
type CharLit struct {
	ExprBase

	Val byte
}

// StringLit is a string literal, quotes removed and escapes decoded.
type StringLit struct {
	ExprBase

	Val string
}

// Ident is a name reference.
type Ident struct {
	ExprBase

	Name string
}

// InitList is a brace-enclosed initializer list.
type InitList struct {
	ExprBase

	Elems []ASTExpr
}

// -----------------------------------------------------------------------------

// TypeExpr is the interface of type-denoting nodes.  Semantic analysis
// resolves each into a types.Type stored on the expression base.
type TypeExpr interface {
	ASTExpr

	isTypeExpr()
}

// TypeExprBase is the base struct of type expressions.
type TypeExprBase struct {
	ExprBase
}

func (TypeExprBase) isTypeExpr() {}

// PrimTypeExpr names a primitive type.
type PrimTypeExpr struct {
	TypeExprBase

	// One of the type keyword spellings: "void", "int", "char", coupled with
	// the unsigned flag.
	Name     string
	Unsigned bool
}

// PointerTypeExpr is a pointer to a base type.
type PointerTypeExpr struct {
	TypeExprBase

	Base TypeExpr
}

// StructTypeExpr names a struct type.
type StructTypeExpr struct {
	TypeExprBase

	Name string
}

// EnumTypeExpr names an enum type.
type EnumTypeExpr struct {
	TypeExprBase

	Name string
}

// UserTypeExpr names a typedef alias.
type UserTypeExpr struct {
	TypeExprBase

	Name string
}

// ConstTypeExpr is a const-qualified type.
type ConstTypeExpr struct {
	TypeExprBase

	Base TypeExpr
}
