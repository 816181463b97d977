package cmd

import (
	"os"
	"strings"

	"mmcc/report"

	"github.com/ComedicChimera/olive"
)

// Output mode constants.
const (
	OutModeASM = iota
	OutModeIR
	OutModeLLVM
)

// Execute runs the main `mmcc` application and returns the process exit
// code: zero on success, otherwise the diagnostic error count clamped to
// 255.
func Execute() int {
	cli := olive.NewCLI("mmcc", "mmcc is the MimiC compiler", true)

	cli.AddStringArg("optlevel", "O", "the optimization level (0..3)", false)

	logArg := cli.AddSelectorArg("loglevel", "ll", "the compiler log level", false, []string{"silent", "error", "warn", "verbose"})
	logArg.SetDefaultValue("warn")

	cli.AddStringArg("output", "o", "the path for compilation output", false)

	cli.AddFlag("emit-asm", "S", "produce target assembly (default)")
	cli.AddFlag("emit-ir", "eir", "produce the textual SSA IR")
	cli.AddFlag("emit-llvm", "ell", "produce LLVM IR")
	cli.AddFlag("dump-ast", "da", "print the parsed AST")
	cli.AddFlag("dump-passes", "dp", "print the registered pass pipeline")

	cli.AddPrimaryArg("input-file", "the source file to compile", true)

	result, err := olive.ParseArgs(cli, normalizeArgs(os.Args))
	if err != nil {
		report.InitReporter(report.LogLevelWarn)
		report.ReportFatal("%s", err.Error())
		return 1
	}

	var logLevel int
	switch result.Arguments["loglevel"].(string) {
	case "silent":
		logLevel = report.LogLevelSilent
	case "error":
		logLevel = report.LogLevelError
	case "warn":
		logLevel = report.LogLevelWarn
	default:
		logLevel = report.LogLevelVerbose
	}

	report.InitReporter(logLevel)

	inputPath, _ := result.PrimaryArg()

	c := &Compiler{
		inputPath:  inputPath,
		optLevel:   -1,
		outputMode: OutModeASM,
		dumpAST:    result.HasFlag("dump-ast"),
		dumpPasses: result.HasFlag("dump-passes"),
	}

	if optVal, ok := result.Arguments["optlevel"]; ok {
		lvl := optVal.(string)

		// An unknown level is a configuration error: fail fast before any
		// compilation work happens.
		if len(lvl) != 1 || lvl[0] < '0' || lvl[0] > '3' {
			report.ReportFatal("invalid optimization level `%s`", lvl)
		}

		c.optLevel = int(lvl[0] - '0')
	}

	if outVal, ok := result.Arguments["output"]; ok {
		c.outputPath = outVal.(string)
	}

	switch {
	case result.HasFlag("emit-ir"):
		c.outputMode = OutModeIR
	case result.HasFlag("emit-llvm"):
		c.outputMode = OutModeLLVM
	}

	c.Compile()
	return report.ExitCode()
}

// normalizeArgs rewrites the historically fused spellings into the forms the
// argument parser understands: `-O2` splits into `-O 2`, and the long flags
// spelled with a single dash gain their second one.
func normalizeArgs(args []string) []string {
	longFlags := map[string]bool{
		"-emit-ir":     true,
		"-emit-llvm":   true,
		"-dump-ast":    true,
		"-dump-passes": true,
	}

	var out []string

	for _, arg := range args {
		switch {
		case len(arg) == 3 && strings.HasPrefix(arg, "-O") && arg[2] >= '0' && arg[2] <= '3':
			out = append(out, "-O", arg[2:])
		case longFlags[arg]:
			out = append(out, "-"+arg)
		default:
			out = append(out, arg)
		}
	}

	return out
}
