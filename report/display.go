package report

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
)

// Styles shared by all user-facing compiler chrome.  Diagnostics proper are
// printed unstyled on stderr so their format stays byte-stable; the styles
// below are used for banners, phase output, and summaries only.
var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = SuccessColorFG
	InfoStyleBG    = SuccessStyleBG
)

// displayICE displays an internal compiler error message.
func displayICE(message string) {
	ErrorStyleBG.Print("Internal Compiler Error")
	ErrorColorFG.Println(" " + message)
	fmt.Println("This error was not supposed to happen: please open an issue on the issue tracker.")
}

// displayFatal displays a fatal error message.
func displayFatal(message string) {
	ErrorStyleBG.Print("Fatal Error")
	ErrorColorFG.Println(" " + message)
}

// displayCompileMessage displays a compilation error or warning on the
// standard error stream.  The label is the string to prefix the message with:
// eg. if we want to display an error, the label is "error".  Positions are
// printed one-indexed.
func displayCompileMessage(label, file string, span *TextSpan, message string) {
	if span == nil {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", file, label, message)
	} else {
		fmt.Fprintf(os.Stderr, "%s:%d:%d: %s: %s\n", file, span.StartLine+1, span.StartCol+1, label, message)
	}
}

// displayStdError displays a standard Go error.
func displayStdError(file string, err error) {
	fmt.Fprintf(os.Stderr, "%s: error: %s\n", file, err)
}
