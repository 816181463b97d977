package report

// TextSpan represents a range or "span" of source text.  It is used to
// specify erroneous or otherwise significant source text in a MimiC program.
// Text spans are inclusive on both sides: the starting position is the
// position of the first character in the span and the ending position is the
// position of the last character in the span.  The line and column numbers
// are zero-indexed.
type TextSpan struct {
	// The line and column beginning the text span.
	StartLine, StartCol int

	// The line and column ending the text span.
	EndLine, EndCol int
}

// NewSpanOver returns a new text span which spans over and between the two
// given text spans.
func NewSpanOver(start, end *TextSpan) *TextSpan {
	return &TextSpan{
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

// -----------------------------------------------------------------------------

// Logger is a back-link from an AST, SSA, or MIR node to the source location
// it was produced from.  Diagnostics raised while processing a node are
// emitted through its logger so they carry the most specific position
// available.
type Logger struct {
	// The representative path of the source file.
	File string

	// The span of the originating source text.  May be nil for nodes with no
	// direct source correspondence (eg. compiler-synthesized values).
	Span *TextSpan
}

// NewLogger creates a new logger for the given file and span.
func NewLogger(file string, span *TextSpan) *Logger {
	return &Logger{File: file, Span: span}
}

// LogError reports a compile error at the logger's location.
func (l *Logger) LogError(msg string, args ...interface{}) {
	if l == nil {
		ReportCompileError("<unknown>", nil, msg, args...)
		return
	}

	ReportCompileError(l.File, l.Span, msg, args...)
}

// LogWarning reports a compile warning at the logger's location.
func (l *Logger) LogWarning(msg string, args ...interface{}) {
	if l == nil {
		ReportCompileWarning("<unknown>", nil, msg, args...)
		return
	}

	ReportCompileWarning(l.File, l.Span, msg, args...)
}
