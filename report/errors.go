package report

import (
	"fmt"
	"os"
)

// LocalError is a compilation error that occurs in a context in which the
// file is known by the error handler and thus doesn't need to be passed along
// with the error.
type LocalError struct {
	// The error message.
	Message string

	// The span over which the error occurs.
	Span *TextSpan
}

func (le *LocalError) Error() string {
	return le.Message
}

// Raise creates a new local compile error.
func Raise(span *TextSpan, msg string, args ...interface{}) *LocalError {
	return &LocalError{Message: fmt.Sprintf(msg, args...), Span: span}
}

// -----------------------------------------------------------------------------

// ReportICE reports an internal compiler error.  These are errors that
// specifically result from a bug or unexpected condition occurring within the
// compiler (eg. a broken IR invariant): they are not intended to ever happen.
// These errors are always displayed regardless of log level.
func ReportICE(message string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	displayICE(fmt.Sprintf(message, args...))

	os.Exit(-1)
}

// ReportFatal reports a fatal error.  These are errors that should cause all
// compilation to stop immediately.  However, they are expected errors that
// generally result from invalid configuration of some form: an unknown pass
// name, a cyclic pass dependency, a bad `-O` value, an unreadable input file.
func ReportFatal(message string, args ...interface{}) {
	if rep.logLevel > LogLevelSilent {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayFatal(fmt.Sprintf(message, args...))
	}

	os.Exit(1)
}

// ReportCompileError reports a compilation error: ie. erroneous input code.
// The file is the representative path to the erroneous source file.  The span
// may be nil in which case no position information will be printed.
func ReportCompileError(file string, span *TextSpan, message string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount++

	if rep.logLevel > LogLevelSilent {
		displayCompileMessage("error", file, span, fmt.Sprintf(message, args...))
	}
}

// ReportCompileWarning reports a compilation warning.  The arguments are of
// the same form as those to ReportCompileError.
func ReportCompileWarning(file string, span *TextSpan, message string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.warningCount++

	if rep.logLevel > LogLevelError {
		displayCompileMessage("warning", file, span, fmt.Sprintf(message, args...))
	}
}

// ReportStdError reports a non-fatal, standard Go error.
func ReportStdError(file string, err error) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.errorCount++

	if rep.logLevel > LogLevelSilent {
		displayStdError(file, err)
	}
}

// -----------------------------------------------------------------------------

// CatchErrors catches any errors thrown by a `panic` during a phase of
// compilation.  In effect, this handler determines when any errors
// "unrecoverable" within a given subsection of the compiler should stop
// bubbling.
// NB: This function must ALWAYS be deferred.
func CatchErrors(file string) {
	if x := recover(); x != nil {
		if lerr, ok := x.(*LocalError); ok {
			ReportCompileError(file, lerr.Span, lerr.Message)
		} else if serr, ok := x.(error); ok {
			ReportStdError(file, serr)
		} else {
			ReportFatal("%s", x)
		}
	}
}
