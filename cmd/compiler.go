package cmd

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"mmcc/ast"
	"mmcc/codegen"
	"mmcc/llvmgen"
	"mmcc/lower"
	"mmcc/opt"
	"mmcc/opt/passes"
	"mmcc/report"
	"mmcc/sema"
	"mmcc/ssa"
	"mmcc/syntax"
)

// Compiler represents the global state of one compiler invocation.
type Compiler struct {
	// The path to the source file being compiled.
	inputPath string

	// The path compilation output is written to; derived from the input
	// path when unset.
	outputPath string

	// The active `-O` level; -1 until the CLI/project defaulting resolves
	// it.
	optLevel int

	// One of the enumerated output modes.
	outputMode int

	// Diagnostic dump toggles.
	dumpAST    bool
	dumpPasses bool
}

// Compile runs all phases of compilation over the input file.
func (c *Compiler) Compile() {
	proj := loadProject(c.inputPath)

	if c.optLevel < 0 {
		if proj.OptLevel != nil {
			c.optLevel = *proj.OptLevel
		} else {
			c.optLevel = 0
		}
	}

	if c.outputPath == "" {
		c.outputPath = proj.Output
	}
	if c.outputPath == "" {
		c.outputPath = c.defaultOutputPath()
	}

	// The pass registry is populated once, explicitly, before any scheduling
	// happens.
	passes.RegisterAll()

	if c.dumpPasses {
		opt.ShowInfo(os.Stdout)
	}

	defs, ok := c.parse()
	if !ok {
		displayFinished(false)
		return
	}

	if c.dumpAST {
		ast.DumpTo(os.Stdout, defs)
	}

	mod, ok := c.analyzeAndLower(defs)
	if !ok {
		displayFinished(false)
		return
	}

	if !c.optimize(mod) {
		displayFinished(false)
		return
	}

	c.generate(mod)
	displayFinished(report.ShouldProceed())
}

func (c *Compiler) defaultOutputPath() string {
	stem := strings.TrimSuffix(c.inputPath, filepath.Ext(c.inputPath))

	switch c.outputMode {
	case OutModeIR:
		return stem + ".ir"
	case OutModeLLVM:
		return stem + ".ll"
	default:
		return stem + ".s"
	}
}

// -----------------------------------------------------------------------------

// parse lexes and parses the input file.
func (c *Compiler) parse() ([]ast.ASTDef, bool) {
	beginPhase("Parsing")

	file, err := os.Open(c.inputPath)
	if err != nil {
		endPhase(false)
		report.ReportFatal("unable to open `%s`: %s", c.inputPath, err.Error())
		return nil, false
	}
	defer file.Close()

	p := syntax.NewParser(c.inputPath, bufio.NewReader(file))
	defs := p.Parse()

	ok := report.ShouldProceed()
	endPhase(ok)
	return defs, ok
}

// analyzeAndLower checks the AST and lowers it to SSA.
func (c *Compiler) analyzeAndLower(defs []ast.ASTDef) (*ssa.Module, bool) {
	beginPhase("Analyzing")

	an := sema.NewAnalyzer(c.inputPath)
	an.Analyze(defs)

	if !report.ShouldProceed() {
		endPhase(false)
		return nil, false
	}

	endPhase(true)
	beginPhase("Lowering")

	mod := lower.Lower(c.inputPath, defs, an.Eval())

	ok := report.ShouldProceed()
	endPhase(ok)
	return mod, ok
}

// optimize runs the mid-level pass pipeline over the module, stage by stage.
func (c *Compiler) optimize(mod *ssa.Module) bool {
	beginPhase("Optimizing")

	pm := opt.NewPassManager(c.optLevel)

	for _, stage := range []opt.Stage{opt.StagePreOpt, opt.StageOpt, opt.StagePostOpt} {
		pm.RunStage(stage, mod)

		if !report.ShouldProceed() {
			endPhase(false)
			return false
		}
	}

	endPhase(true)
	return true
}

// generate produces the requested output artifact.
func (c *Compiler) generate(mod *ssa.Module) {
	beginPhase("Generating")

	var text string

	switch c.outputMode {
	case OutModeIR:
		text = ssa.DumpString(mod)
	case OutModeLLVM:
		text = llvmgen.Generate(mod)
	default:
		pm := opt.NewPassManager(c.optLevel)
		pm.RunStage(opt.StagePreEmit, mod)

		prog := codegen.Select(mod)
		codegen.Compile(prog)
		text = codegen.EmitString(prog)
	}

	if !report.ShouldProceed() {
		endPhase(false)
		return
	}

	if err := os.WriteFile(c.outputPath, []byte(text), 0644); err != nil {
		endPhase(false)
		report.ReportFatal("unable to write output to `%s`: %s", c.outputPath, err.Error())
		return
	}

	endPhase(true)
}
