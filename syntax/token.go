package syntax

import "mmcc/report"

// Token represents a single lexical token.
type Token struct {
	// The kind of the token.  This must be one of the enumerated token kinds.
	Kind int

	// The string value of the token.
	Value string

	// The text span over which the token exists.  This may not directly
	// correspond to its value: eg. the value of a string token has the
	// leading quotes trimmed off for convenience.
	Span *report.TextSpan
}

// Enumeration of token kinds.
const (
	TOK_INT = iota
	TOK_UNSIGNED
	TOK_CHAR
	TOK_VOID
	TOK_CONST
	TOK_STATIC
	TOK_INLINE
	TOK_STRUCT
	TOK_ENUM
	TOK_TYPEDEF

	TOK_IF
	TOK_ELSE
	TOK_WHILE
	TOK_BREAK
	TOK_CONTINUE
	TOK_RETURN
	TOK_SIZEOF

	TOK_PLUS
	TOK_MINUS
	TOK_STAR
	TOK_DIV
	TOK_MOD

	TOK_AMP
	TOK_PIPE
	TOK_CARET
	TOK_LSHIFT
	TOK_RSHIFT
	TOK_COMPL

	TOK_LAND
	TOK_LOR
	TOK_NOT

	TOK_EQ
	TOK_NEQ
	TOK_LT
	TOK_LTEQ
	TOK_GT
	TOK_GTEQ

	TOK_ASSIGN
	TOK_PLUSASSIGN
	TOK_MINUSASSIGN
	TOK_STARASSIGN
	TOK_DIVASSIGN
	TOK_MODASSIGN
	TOK_AMPASSIGN
	TOK_PIPEASSIGN
	TOK_CARETASSIGN
	TOK_LSHIFTASSIGN
	TOK_RSHIFTASSIGN

	TOK_LPAREN
	TOK_RPAREN
	TOK_LBRACE
	TOK_RBRACE
	TOK_LBRACKET
	TOK_RBRACKET
	TOK_COMMA
	TOK_SEMI
	TOK_DOT
	TOK_ARROW

	TOK_IDENT
	TOK_INTLIT
	TOK_CHARLIT
	TOK_STRINGLIT

	TOK_EOF
)

// keywords maps keyword spellings to their token kinds.
var keywords = map[string]int{
	"int":      TOK_INT,
	"unsigned": TOK_UNSIGNED,
	"char":     TOK_CHAR,
	"void":     TOK_VOID,
	"const":    TOK_CONST,
	"static":   TOK_STATIC,
	"inline":   TOK_INLINE,
	"struct":   TOK_STRUCT,
	"enum":     TOK_ENUM,
	"typedef":  TOK_TYPEDEF,
	"if":       TOK_IF,
	"else":     TOK_ELSE,
	"while":    TOK_WHILE,
	"break":    TOK_BREAK,
	"continue": TOK_CONTINUE,
	"return":   TOK_RETURN,
	"sizeof":   TOK_SIZEOF,
}
