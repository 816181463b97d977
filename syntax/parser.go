package syntax

import (
	"bufio"
	"fmt"

	"mmcc/ast"
	"mmcc/report"
)

// Parser is a recursive descent parser for MimiC source files.  All parsing
// functions assume they begin with the parser centered on the first token of
// their production and consume every token of it, leaving the parser on the
// next token.  Parse errors panic with a report.LocalError and are caught at
// the file boundary.
type Parser struct {
	// The representative path of the file being parsed.
	file string

	// lexer is the Lexer this parser is using to lex the source file.
	lexer *Lexer

	// tok is the current token the parser is positioned on.
	tok *Token

	// Names introduced by typedefs so far; needed to tell a declaration
	// starting with an alias apart from an expression statement.
	typeNames map[string]bool
}

// NewParser creates a new parser for the given file over r.
func NewParser(file string, r *bufio.Reader) *Parser {
	return &Parser{
		file:      file,
		lexer:     NewLexer(file, r),
		typeNames: make(map[string]bool),
	}
}

// Parse parses the whole file and returns its top-level definitions.  nil is
// returned when parsing could not produce a usable AST.
func (p *Parser) Parse() (defs []ast.ASTDef) {
	defer report.CatchErrors(p.file)

	p.next()

	for !p.got(TOK_EOF) {
		defs = append(defs, p.parseTopDef())
	}

	return defs
}

// -----------------------------------------------------------------------------

// next moves the parser forward one token.
func (p *Parser) next() {
	tok, ok := p.lexer.NextToken()
	if !ok {
		// The lexical error is already reported; surface a parse abort.
		panic(report.Raise(nil, "unable to continue parsing"))
	}

	p.tok = tok
}

// got returns true if the parser is on a token of a given kind.
func (p *Parser) got(kind int) bool {
	return p.tok.Kind == kind
}

// gotOneOf returns if the parser's current token kind is one of given kinds.
func (p *Parser) gotOneOf(kinds ...int) bool {
	for _, kind := range kinds {
		if p.tok.Kind == kind {
			return true
		}
	}

	return false
}

// assert rejects the current token if it is not of the given kind.
func (p *Parser) assert(kind int) {
	if !p.got(kind) {
		p.reject()
	}
}

// assertAndNext asserts the current token kind and moves past it.
func (p *Parser) assertAndNext(kind int) {
	p.assert(kind)
	p.next()
}

// reject reports an unexpected token error on the current token.
func (p *Parser) reject() {
	if p.got(TOK_EOF) {
		panic(report.Raise(p.tok.Span, "unexpected end of file"))
	}

	panic(report.Raise(p.tok.Span, fmt.Sprintf("unexpected token: `%s`", p.tok.Value)))
}

// rejectWithMsg rejects the current token with a specific message.
func (p *Parser) rejectWithMsg(msg string, a ...interface{}) {
	panic(report.Raise(p.tok.Span, fmt.Sprintf(msg, a...)))
}

// -----------------------------------------------------------------------------

// atTypeStart returns whether the current token can begin a type denotation.
func (p *Parser) atTypeStart() bool {
	switch p.tok.Kind {
	case TOK_INT, TOK_UNSIGNED, TOK_CHAR, TOK_VOID, TOK_CONST, TOK_STRUCT, TOK_ENUM:
		return true
	case TOK_IDENT:
		return p.typeNames[p.tok.Value]
	default:
		return false
	}
}
