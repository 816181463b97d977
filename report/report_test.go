package report

import "testing"

func TestErrorCounting(t *testing.T) {
	InitReporter(LogLevelSilent)

	if !ShouldProceed() {
		t.Fatal("fresh reporter should proceed")
	}

	ReportCompileError("a.c", nil, "first")
	ReportCompileError("a.c", &TextSpan{StartLine: 2, StartCol: 4}, "second")
	ReportCompileWarning("a.c", nil, "just a warning")

	if ShouldProceed() {
		t.Fatal("errors must stop compilation at the next phase boundary")
	}

	if ErrorCount() != 2 || WarningCount() != 1 {
		t.Fatalf("counts %d/%d, want 2/1", ErrorCount(), WarningCount())
	}

	if ExitCode() != 2 {
		t.Fatalf("exit code %d, want 2", ExitCode())
	}
}

func TestExitCodeClamped(t *testing.T) {
	InitReporter(LogLevelSilent)

	for i := 0; i < 300; i++ {
		ReportCompileError("a.c", nil, "boom")
	}

	if ExitCode() != 255 {
		t.Fatalf("exit code %d, want 255", ExitCode())
	}
}

func TestCatchErrors(t *testing.T) {
	InitReporter(LogLevelSilent)

	func() {
		defer CatchErrors("a.c")
		panic(Raise(&TextSpan{}, "recovered %s", "error"))
	}()

	if ErrorCount() != 1 {
		t.Fatal("raised local error not converted into a diagnostic")
	}
}

func TestLoggerBacklink(t *testing.T) {
	InitReporter(LogLevelSilent)

	l := NewLogger("b.c", &TextSpan{StartLine: 9})
	l.LogWarning("watch out")

	var nilLogger *Logger
	nilLogger.LogWarning("still fine")

	if WarningCount() != 2 {
		t.Fatalf("warning count %d, want 2", WarningCount())
	}
}
