package report

import "sync"

// Reporter is responsible for reporting errors, warnings, and other kinds of
// messages to the user during compilation.  The reporter respects the set log
// level and is synchronized: its methods can be safely called from multiple
// goroutines.
type Reporter struct {
	// The mutex used to synchronize different report method calls.
	m *sync.Mutex

	// The selected log level of the reporter.  This must be one of the
	// enumerated log levels below.
	logLevel int

	// The number of errors reported so far.
	errorCount int

	// The number of warnings reported so far.
	warningCount int
}

// Enumeration of the different possible log levels.
const (
	LogLevelSilent  = iota // Displays no output.
	LogLevelError          // Displays only errors to the user.
	LogLevelWarn           // Displays warnings and errors to the user (default).
	LogLevelVerbose        // Displays all compilation messages to the user.
)

// rep is the global reporter instance.
var rep = &Reporter{
	m:        &sync.Mutex{},
	logLevel: LogLevelWarn,
}

// InitReporter initializes the global error reporter to the given log level.
func InitReporter(logLevel int) {
	rep = &Reporter{
		m:        &sync.Mutex{},
		logLevel: logLevel,
	}
}

// LogLevel returns the log level of the global reporter.
func LogLevel() int {
	return rep.logLevel
}

// ShouldProceed indicates whether or not compilation should continue into the
// next phase: ie. whether no errors have been reported so far.
func ShouldProceed() bool {
	rep.m.Lock()
	defer rep.m.Unlock()

	return rep.errorCount == 0
}

// ErrorCount returns the number of errors reported so far.
func ErrorCount() int {
	rep.m.Lock()
	defer rep.m.Unlock()

	return rep.errorCount
}

// WarningCount returns the number of warnings reported so far.
func WarningCount() int {
	rep.m.Lock()
	defer rep.m.Unlock()

	return rep.warningCount
}

// ExitCode returns the process exit code mandated for the current error
// count: zero on success, otherwise the error count clamped to 255.
func ExitCode() int {
	rep.m.Lock()
	defer rep.m.Unlock()

	if rep.errorCount > 255 {
		return 255
	}

	return rep.errorCount
}
