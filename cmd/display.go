package cmd

import (
	"fmt"
	"strings"
	"time"

	"mmcc/report"

	"github.com/pterm/pterm"
)

// phaseSpinner stores the current phase spinner.
var phaseSpinner *pterm.SpinnerPrinter
var currentPhase string
var phaseStartTime time.Time

const maxPhaseLength = len("Generating")

// beginPhase displays the beginning of a compilation phase.  Phase chrome
// only appears at the verbose log level.
func beginPhase(phase string) {
	if report.LogLevel() != report.LogLevelVerbose {
		return
	}

	currentPhase = phase
	phaseText := phase + "..." + strings.Repeat(" ", maxPhaseLength-len(phase)+2)
	phaseSpinner = pterm.DefaultSpinner.WithStyle(pterm.NewStyle(report.InfoColorFG))

	phaseSpinner.SuccessPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: report.SuccessStyleBG,
			Text:  "Done",
		},
	}

	phaseSpinner.FailPrinter = &pterm.PrefixPrinter{
		MessageStyle: pterm.NewStyle(pterm.FgDefault),
		Prefix: pterm.Prefix{
			Style: report.ErrorStyleBG,
			Text:  "Fail",
		},
	}

	phaseSpinner.Start(phaseText)
	phaseStartTime = time.Now()
}

// endPhase displays the end of a compilation phase.
func endPhase(success bool) {
	if phaseSpinner == nil {
		return
	}

	if success {
		phaseSpinner.Success(
			currentPhase+strings.Repeat(" ", maxPhaseLength-len(currentPhase)+2),
			fmt.Sprintf("(%.3fs)", time.Since(phaseStartTime).Seconds()),
		)
	} else {
		phaseSpinner.Fail(currentPhase + strings.Repeat(" ", maxPhaseLength-len(currentPhase)+2))
	}

	phaseSpinner = nil
}

// displayFinished displays the compilation summary with error and warning
// counts.
func displayFinished(success bool) {
	if report.LogLevel() != report.LogLevelVerbose {
		return
	}

	fmt.Print("\n")

	if success {
		report.SuccessColorFG.Print("All done! ")
	} else {
		report.ErrorColorFG.Print("Oh no! ")
	}

	errorCount, warningCount := report.ErrorCount(), report.WarningCount()
	fmt.Print("(")

	switch errorCount {
	case 0:
		report.SuccessColorFG.Print(0)
		fmt.Print(" errors, ")
	case 1:
		report.ErrorColorFG.Print(1)
		fmt.Print(" error, ")
	default:
		report.ErrorColorFG.Print(errorCount)
		fmt.Print(" errors, ")
	}

	switch warningCount {
	case 0:
		report.SuccessColorFG.Print(0)
		fmt.Println(" warnings)")
	case 1:
		report.WarnColorFG.Print(1)
		fmt.Println(" warning)")
	default:
		report.WarnColorFG.Print(warningCount)
		fmt.Println(" warnings)")
	}
}
